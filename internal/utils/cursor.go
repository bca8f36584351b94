package utils

import (
	"encoding/base64"
	"encoding/json"
)

// FeedCursor is a keyset pagination cursor: the sort value and id of the
// last row of the previous page. The sort value is kept as a string so hot
// scores, integer scores and nanosecond timestamps all round-trip exactly.
type FeedCursor struct {
	Sort string `json:"s"`
	ID   uint   `json:"id"`
}

// EncodeCursor serializes a cursor to an opaque base64 token.
func EncodeCursor(c FeedCursor) string {
	b, _ := json.Marshal(c)
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeCursor parses a token produced by EncodeCursor. An empty token
// yields a nil cursor (first page).
func DecodeCursor(token string) (*FeedCursor, error) {
	if token == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, err
	}
	var c FeedCursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}
