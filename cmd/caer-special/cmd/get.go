package cmd

import (
	"fmt"
	"os"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"
)

// getCmd represents the get command
var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print an archived packet",
	Long: `Print an archived packet, or with --raw write its wire form to a file.

Example:
  caer-special get 2Bq8cYhXo9dyJ5WcGz0TqJPxkWv
  caer-special get --raw packet.bin 2Bq8cYhXo9dyJ5WcGz0TqJPxkWv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		all, _ := cmd.Flags().GetBool("all")
		rawPath, _ := cmd.Flags().GetString("raw")

		id, err := ksuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid packet id %q: %w", args[0], err)
		}

		s, err := a.openStore()
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer s.Close()

		if rawPath != "" {
			raw, err := s.GetRaw(id)
			if err != nil {
				return fmt.Errorf("failed to get packet: %w", err)
			}
			if err := os.WriteFile(rawPath, raw, 0600); err != nil {
				return fmt.Errorf("failed to write %s: %w", rawPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", len(raw), rawPath)
			return nil
		}

		packet, err := s.Get(id)
		if err != nil {
			return fmt.Errorf("failed to get packet: %w", err)
		}

		printPacket(cmd.OutOrStdout(), id.String(), packet, all)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().Bool("all", false, "Also print invalid slots")
	getCmd.Flags().String("raw", "", "Write the packet's wire form to this file instead of printing it")
}
