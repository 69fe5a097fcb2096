package errs

import "errors"

var (
	ErrBadMagic      = errors.New("invalid magic number")
	ErrFrameTooLarge = errors.New("frame exceeds maximum payload size")
	ErrUnknownType   = errors.New("unknown message type")
)
