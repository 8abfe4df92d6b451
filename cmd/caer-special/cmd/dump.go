/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ssargent/caerevents/pkg/stream"
)

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump <stream-file>",
	Short: "Print the packets of a stream file",
	Long: `Print every packet of a packet stream file with its valid events and
their 64-bit timestamps.

Example:
  caer-special dump wraps.caer
  caer-special dump --all --offset 52 wraps.caer`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		all, _ := cmd.Flags().GetBool("all")
		offset, _ := cmd.Flags().GetInt64("offset")

		r, err := stream.NewReader(stream.ReaderConfig{FilePath: args[0], StartOffset: offset}, a.packetOptions()...)
		if err != nil {
			return fmt.Errorf("failed to open stream file: %w", err)
		}
		defer r.Close()

		out := cmd.OutOrStdout()
		var packets, valid int
		for {
			at := r.Offset()
			packet, err := r.Next()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return fmt.Errorf("failed to read packet at offset %d: %w", at, err)
			}

			printPacket(out, fmt.Sprintf("@%d", at), packet, all)
			packets++
			valid += int(packet.Header().EventValid())
		}

		fmt.Fprintf(out, "%d packets, %d valid events\n", packets, valid)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().Bool("all", false, "Also print invalid slots")
	dumpCmd.Flags().Int64("offset", 0, "Byte offset of the first packet to read")
}
