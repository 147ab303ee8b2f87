package feed

import (
	"encoding/base64"
	"fmt"

	"github.com/goccy/go-json"
)

// Cursors carry the session id and the explicit offset, so pagination
// never needs to re-derive a position from content and index refreshes
// between pages cannot corrupt it.
type cursorPayload struct {
	SessionID string `json:"sid"`
	Offset    int    `json:"off"`
}

// EncodeCursor builds an opaque cursor for a plan position.
func EncodeCursor(sessionID string, offset int) string {
	payload, _ := json.Marshal(cursorPayload{SessionID: sessionID, Offset: offset})
	return base64.RawURLEncoding.EncodeToString(payload)
}

// DecodeCursor parses an opaque cursor. Any malformed input returns
// ErrInvalidCursor.
func DecodeCursor(cursor string) (string, int, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}

	if payload.SessionID == "" || payload.Offset < 0 {
		return "", 0, fmt.Errorf("%w: missing session or negative offset", ErrInvalidCursor)
	}

	return payload.SessionID, payload.Offset, nil
}
