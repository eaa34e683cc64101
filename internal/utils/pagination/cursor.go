package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Cursor is the opaque pagination state we encode/decode.
// LastID + TsUnix (in millis) establish a stable position: pages resume
// strictly after the last row of the previous page in (timestamp, id)
// descending order.
type Cursor struct {
	LastID uint64 `json:"last_id"`
	TsUnix int64  `json:"ts_unix,omitempty"`
}

// Zero reports whether the cursor points at the first page.
func (c Cursor) Zero() bool {
	return c.LastID == 0 && c.TsUnix == 0
}

// Encode converts a Cursor into a Base64 token.
func Encode(c Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// Decode parses a Base64 token into a Cursor.
// An empty token means the first page.
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}

	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token")
	}

	var c Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token")
	}
	return c, nil
}
