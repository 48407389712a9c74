package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DecodeList decodes a JSON array. Anything else, including null, an
// object or an array with mismatched elements, is ErrUnexpectedShape, so
// callers decide explicitly what an unusable list means for them.
func DecodeList[T any](data []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: expected array", ErrUnexpectedShape)
	}
	items := make([]T, 0)
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	return items, nil
}

// DecodeObject decodes a JSON object into T
func DecodeObject[T any](data []byte) (T, error) {
	var v T
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return v, fmt.Errorf("%w: expected object", ErrUnexpectedShape)
	}
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrUnexpectedShape, err)
	}
	return v, nil
}
