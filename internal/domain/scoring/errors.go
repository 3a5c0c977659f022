package scoring

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package.
var (
	ErrMalformedID = errors.New("malformed event id")
)

func malformed(id string) error {
	if len(id) > 16 {
		id = id[:16] + "..."
	}
	return fmt.Errorf("%w: %q", ErrMalformedID, id)
}
