package feed

import (
	"errors"
)

var (
	// ErrInvalidCursor means the cursor string could not be decoded.
	// The client must restart pagination without a cursor.
	ErrInvalidCursor = errors.New("invalid cursor")

	// ErrExpiredSession means the cursor decoded fine but its plan no
	// longer exists. The client must restart from offset 0, which
	// triggers generation of a new plan.
	ErrExpiredSession = errors.New("session expired")
)
