package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ssargent/caerevents/pkg/codec"
	"github.com/ssargent/caerevents/pkg/events"
)

// Reader provides sequential access to the packets of a stream file
type Reader struct {
	file       *os.File
	reader     *bufio.Reader
	offset     int64
	config     ReaderConfig
	packetOpts []events.Option
}

// NewReader opens a stream file. opts are applied to every packet read.
func NewReader(config ReaderConfig, opts ...events.Option) (*Reader, error) {
	file, err := os.Open(config.FilePath)
	if err != nil {
		return nil, err
	}

	if config.StartOffset > 0 {
		if _, err := file.Seek(config.StartOffset, io.SeekStart); err != nil {
			file.Close()
			return nil, err
		}
	}

	return &Reader{
		file:       file,
		reader:     bufio.NewReader(file),
		offset:     config.StartOffset,
		config:     config,
		packetOpts: opts,
	}, nil
}

// Next reads the packet at the current offset. It returns io.EOF at a clean
// end of file and ErrTruncated when the file stops inside a packet.
func (r *Reader) Next() (*events.SpecialEventPacket, error) {
	header := make([]byte, codec.HeaderSize)
	n, err := io.ReadFull(r.reader, header)
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: header at offset %d has %d bytes", ErrTruncated, r.offset, n)
	}
	if err != nil {
		return nil, err
	}

	h, err := codec.DecodeHeader(header)
	if err != nil {
		return nil, err
	}
	if err := events.CheckHeader(h); err != nil {
		return nil, fmt.Errorf("packet at offset %d: %w", r.offset, err)
	}

	// The header is untrusted: never allocate more than the file still holds.
	info, err := r.file.Stat()
	if err != nil {
		return nil, err
	}
	body := int64(h.PacketSize()) - codec.HeaderSize
	if left := info.Size() - r.offset - codec.HeaderSize; body > left {
		return nil, fmt.Errorf("%w: packet at offset %d needs %d record bytes, %d left",
			ErrTruncated, r.offset, body, left)
	}

	buf := make([]byte, h.PacketSize())
	copy(buf, header)
	if _, err := io.ReadFull(r.reader, buf[codec.HeaderSize:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: packet at offset %d", ErrTruncated, r.offset)
		}
		return nil, err
	}

	p, err := events.UnmarshalSpecialEventPacket(buf, r.packetOpts...)
	if err != nil {
		return nil, fmt.Errorf("packet at offset %d: %w", r.offset, err)
	}

	r.offset += int64(len(buf))
	return p, nil
}

// Seek sets the read offset
func (r *Reader) Seek(offset int64) error {
	if _, err := r.file.Seek(offset, io.SeekStart); err != nil {
		return err
	}

	r.reader = bufio.NewReader(r.file)
	r.offset = offset
	return nil
}

// Offset returns the offset of the next packet
func (r *Reader) Offset() int64 {
	return r.offset
}

// Close closes the stream reader
func (r *Reader) Close() error {
	return r.file.Close()
}
