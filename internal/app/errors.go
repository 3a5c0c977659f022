package app

import "errors"

// ErrNoSource is returned by Start when the coordinator has no relay source.
var ErrNoSource = errors.New("no relay source configured")
