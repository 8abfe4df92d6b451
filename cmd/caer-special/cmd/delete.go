package cmd

import (
	"fmt"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
)

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an archived packet",
	Long: `Delete an archived packet.

Example:
  caer-special delete 2Bq8cYhXo9dyJ5WcGz0TqJPxkWv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)

		id, err := ksuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid packet id %q: %w", args[0], err)
		}

		s, err := a.openStore()
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer s.Close()

		if err := s.Delete(id); err != nil {
			return fmt.Errorf("failed to delete packet: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Successfully deleted packet '%s'\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
