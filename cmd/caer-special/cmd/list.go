package cmd

import (
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived packet ids, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)

		s, err := a.openStore()
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer s.Close()

		var ids []ksuid.KSUID
		if cmd.Flags().Changed("source") {
			source, _ := cmd.Flags().GetInt16("source")
			ids, err = s.ListBySource(source)
		} else {
			ids, err = s.List()
		}
		if err != nil {
			return fmt.Errorf("failed to list packets: %w", err)
		}

		out := cmd.OutOrStdout()
		for _, id := range ids {
			fmt.Fprintf(out, "%s %s\n", id.String(), id.Time().UTC().Format("2006-01-02T15:04:05Z"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().Int16("source", 0, "Only list packets from this source device")
}
