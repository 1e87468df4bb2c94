package state

import "errors"

// ErrEmptyKey is returned when a write targets the empty key.
var ErrEmptyKey = errors.New("state: empty key")
