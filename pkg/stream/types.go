// Package stream reads and writes packet stream files: special event
// packets in their wire form, back to back, appended in production order.
package stream

import (
	"errors"
	"time"
)

// WriterConfig holds configuration for the stream writer
type WriterConfig struct {
	FilePath      string        // Path to the stream file
	FsyncInterval time.Duration // How often to fsync (0 = every write)
	BufferSize    int           // Write buffer size
}

// ReaderConfig holds configuration for the stream reader
type ReaderConfig struct {
	FilePath    string // Path to the stream file
	StartOffset int64  // Offset to start reading from
}

var (
	// ErrTruncated means the file ends inside a packet.
	ErrTruncated = errors.New("stream truncated inside a packet")
	// ErrClosed is returned by writes after Close.
	ErrClosed = errors.New("stream writer closed")
)
