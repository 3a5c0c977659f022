package api

import (
	"errors"
	"fmt"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrLimitExceeded   = errors.New("limit exceeded")
	ErrStreamingFailed = errors.New("streaming unsupported")
)

// Wrap prefixes err with the handler operation name.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
