package ingest

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

// ErrInvalidCursor is returned for cursors that do not decode.
var ErrInvalidCursor = errors.New("invalid pagination cursor")

// Cursor marks the last tuple of a result page. The reader orders by
// (event_timestamp DESC, id DESC) and the next page starts strictly after
// this tuple, so pagination stays stable under concurrent inserts.
type Cursor struct {
	EventTimestamp int64 `json:"ts"` // unix seconds
	ID             uint  `json:"id"`
}

// Encode serializes the cursor for use as an opaque query parameter.
func (c Cursor) Encode() string {
	data, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(data)
}

// Time returns the timestamp half of the tuple.
func (c Cursor) Time() time.Time {
	return time.Unix(c.EventTimestamp, 0)
}

// DecodeCursor parses an encoded cursor. Empty input yields a nil cursor,
// meaning "first page".
func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, ErrInvalidCursor
	}
	if c.ID == 0 {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}
