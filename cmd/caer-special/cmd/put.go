package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/ssargent/caerevents/pkg/stream"
)

// putCmd represents the put command
var putCmd = &cobra.Command{
	Use:   "put <stream-file>",
	Short: "Archive the packets of a stream file",
	Long: `Store every packet of a packet stream file in the archive and print
the id each one was stored under.

Example:
  caer-special put wraps.caer`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)

		s, err := a.openStore()
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer s.Close()

		r, err := stream.NewReader(stream.ReaderConfig{FilePath: args[0]}, a.packetOptions()...)
		if err != nil {
			return fmt.Errorf("failed to open stream file: %w", err)
		}
		defer r.Close()

		out := cmd.OutOrStdout()
		for {
			packet, err := r.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to read packet: %w", err)
			}

			start := time.Now()
			id, err := s.Put(packet)
			a.metrics.RecordStoreOperation("put", err == nil, time.Since(start))
			if err != nil {
				return fmt.Errorf("failed to put packet: %w", err)
			}
			a.metrics.ObservePacket(packet.Header())

			fmt.Fprintln(out, id.String())
		}
	},
}

func init() {
	rootCmd.AddCommand(putCmd)
}
