package errs

import "errors"

var (
	ErrMissingToken = errors.New("authorization header missing")
	ErrInvalidToken = errors.New("invalid token")
)
