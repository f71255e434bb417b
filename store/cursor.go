package store

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// EncodeCursor serializes a last-evaluated key into an opaque token.
func EncodeCursor(lastKey map[string]any) (string, error) {
	if len(lastKey) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(lastKey)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeCursor reverses EncodeCursor. The key must carry every attribute
// in attrs as a string, and its pkAttr must equal partition, so a cursor
// minted for one partition cannot be replayed against another. Attributes
// outside attrs are dropped.
func DecodeCursor(cursor string, attrs []string, pkAttr, partition string) (map[string]any, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	var decoded map[string]any
	if err := dec.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	key := make(map[string]any, len(attrs))
	for _, a := range attrs {
		v, ok := decoded[a].(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s missing or not a string", ErrInvalidCursor, a)
		}
		key[a] = v
	}
	if key[pkAttr] != partition {
		return nil, fmt.Errorf("%w: %s does not match the query", ErrInvalidCursor, pkAttr)
	}
	return key, nil
}
