// Package cursor implements the reversible, URL-safe encoding that external
// interfaces use in place of raw provider URIs, plus the "a:"-prefixed
// aggregated-cursor convention used to represent identity spanning more than
// one provider.
package cursor

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/daedal00/muse/internal/model"
)

// Cursor is the opaque, URL-safe external encoding of a URI.
type Cursor string

const aggregatePrefix = "a:"

// ToCursor deterministically encodes a URI into a Cursor. The same URI always
// maps to the same cursor.
func ToCursor(u model.URI) Cursor {
	return Cursor(base64.RawURLEncoding.EncodeToString([]byte(u)))
}

// FromCursor decodes a single (non-aggregated) cursor back to its URI.
// Returns an error if the cursor is not valid base64url or is an aggregated
// cursor (callers of FromCursor should resolve aggregation with Split first).
func FromCursor(c Cursor) (model.URI, error) {
	if IsAggregated(c) {
		return "", fmt.Errorf("cursor: %q is an aggregated cursor, call Split first", c)
	}
	raw, err := base64.RawURLEncoding.DecodeString(string(c))
	if err != nil {
		return "", fmt.Errorf("cursor: invalid encoding: %w", err)
	}
	return model.URI(raw), nil
}

// IsAggregated reports whether c carries the "a:" aggregated-identity prefix.
func IsAggregated(c Cursor) bool {
	return strings.HasPrefix(string(c), aggregatePrefix)
}

// Aggregate joins two or more sub-cursors into a single aggregated cursor:
// "a:" + c1 + ":" + c2 + ...
func Aggregate(parts ...Cursor) Cursor {
	strs := make([]string, len(parts))
	for i, p := range parts {
		strs[i] = string(p)
	}
	return Cursor(aggregatePrefix + strings.Join(strs, ":"))
}

// Split decomposes an aggregated cursor back into its sub-cursors. It is an
// error to call Split on a cursor that is not aggregated.
func Split(c Cursor) ([]Cursor, error) {
	if !IsAggregated(c) {
		return nil, fmt.Errorf("cursor: %q is not an aggregated cursor", c)
	}
	rest := strings.TrimPrefix(string(c), aggregatePrefix)
	parts := strings.Split(rest, ":")
	out := make([]Cursor, len(parts))
	for i, p := range parts {
		out[i] = Cursor(p)
	}
	return out, nil
}
