/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/caerevents/pkg/stream"
)

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Build a special event packet and append it to a stream file",
	Long: `Build a special event packet from --event flags and append it to a
packet stream file. Each event takes one slot, in flag order, and is
validated. TYPE is a name such as TIMESTAMP_RESET or a number 0-127.

Examples:
  caer-special encode --out wraps.caer --event TIMESTAMP_RESET:0:1000
  caer-special encode --out edges.caer --overflow 3 \
    --event EXTERNAL_INPUT_RISING_EDGE:7:10 --event 2:8:20 --drop 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)

		out, _ := cmd.Flags().GetString("out")
		capacity, _ := cmd.Flags().GetInt32("capacity")
		source, _ := cmd.Flags().GetInt16("source")
		overflow, _ := cmd.Flags().GetInt32("overflow")
		rawEvents, _ := cmd.Flags().GetStringArray("event")
		drop, _ := cmd.Flags().GetIntSlice("drop")

		if !cmd.Flags().Changed("capacity") {
			capacity = a.cfg.Packet.Capacity
			if int(capacity) < len(rawEvents) {
				capacity = int32(len(rawEvents))
			}
		}
		if !cmd.Flags().Changed("source") {
			source = a.cfg.Packet.Source
		}

		specs := make([]eventSpec, 0, len(rawEvents))
		for _, raw := range rawEvents {
			spec, err := parseEventSpec(raw)
			if err != nil {
				return err
			}
			specs = append(specs, spec)
		}

		packet, err := buildPacket(capacity, source, overflow, specs, drop, a.packetOptions()...)
		if err != nil {
			return fmt.Errorf("failed to build packet: %w", err)
		}

		w, err := stream.NewWriter(stream.WriterConfig{FilePath: out})
		if err != nil {
			return fmt.Errorf("failed to open stream file: %w", err)
		}
		offset, err := w.Write(packet)
		if err != nil {
			w.Close()
			return fmt.Errorf("failed to write packet: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("failed to close stream file: %w", err)
		}

		a.metrics.ObservePacket(packet.Header())
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote packet at offset %d of %s (%d valid of %d slots)\n",
			offset, out, packet.Header().EventValid(), packet.Capacity())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().StringP("out", "o", "", "Stream file to append the packet to (required)")
	encodeCmd.Flags().Int32("capacity", 0, "Number of slots (default from config, at least the number of events)")
	encodeCmd.Flags().Int16("source", 0, "Source device id (default from config)")
	encodeCmd.Flags().Int32("overflow", 0, "Timestamp wraps before this packet")
	encodeCmd.Flags().StringArrayP("event", "e", nil, "Event as TYPE:DATA:TIMESTAMP (repeatable)")
	encodeCmd.Flags().IntSlice("drop", nil, "Slots to invalidate after validation")
	if err := encodeCmd.MarkFlagRequired("out"); err != nil {
		panic(err)
	}
}
