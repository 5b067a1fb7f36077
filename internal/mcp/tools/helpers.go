// Package tools contains the MCP tool implementations for store schema
// inference.
package tools

import (
	"encoding/json"
	"fmt"
)

// MimeJSON is the MIME type of every tool and resource payload.
const MimeJSON = "application/json"

// ToAny round-trips v through JSON so that types with custom marshalling
// (ordered maps, raw messages) reach the SDK as plain maps.
func ToAny(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshaling: %w", err)
	}
	return out, nil
}
