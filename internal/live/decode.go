package live

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// decodePush accepts a bare JSON array or {"type": msgType, "data": [...]}.
// Anything else is an error and leaves the caller's list alone.
func decodePush[T any](data []byte, msgType string) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty message")
	}

	switch trimmed[0] {
	case '[':
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		return items, nil
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		if env.Type != msgType {
			return nil, fmt.Errorf("unexpected message type %q", env.Type)
		}
		raw := bytes.TrimSpace(env.Data)
		if len(raw) == 0 || raw[0] != '[' {
			return nil, fmt.Errorf("%s message without an array payload", msgType)
		}
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode %s data: %w", msgType, err)
		}
		return items, nil
	}
	return nil, fmt.Errorf("unsupported message shape")
}
