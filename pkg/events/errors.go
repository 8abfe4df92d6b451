package events

import "errors"

var (
	ErrIndexOutOfRange   = errors.New("event index out of range")
	ErrNegativeTimestamp = errors.New("negative timestamp")
	ErrAlreadyValid      = errors.New("event already valid")
	ErrAlreadyInvalid    = errors.New("event already invalid")
	ErrInvalidCapacity   = errors.New("invalid event capacity")
	ErrMalformedPacket   = errors.New("malformed special event packet")
)
