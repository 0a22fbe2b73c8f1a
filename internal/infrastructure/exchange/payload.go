package exchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnexpectedPayload is returned when a response is neither a list nor an
// object with a list or object under "data".
var ErrUnexpectedPayload = errors.New("unexpected payload shape")

// Rows extracts the row list from an exchange response.
// Accepted shapes: [...], {"data":[...]}, {"data":{...}}.
func Rows(body []byte) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty body", ErrUnexpectedPayload)
	}
	switch body[0] {
	case '[':
		var rows []json.RawMessage
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("decode list: %w", err)
		}
		return rows, nil
	case '{':
		var env struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		data := bytes.TrimSpace(env.Data)
		if len(data) == 0 {
			return nil, fmt.Errorf("%w: object without data", ErrUnexpectedPayload)
		}
		switch data[0] {
		case '[':
			var rows []json.RawMessage
			if err := json.Unmarshal(data, &rows); err != nil {
				return nil, fmt.Errorf("decode data list: %w", err)
			}
			return rows, nil
		case '{':
			return []json.RawMessage{data}, nil
		}
		return nil, fmt.Errorf("%w: data is %.20s", ErrUnexpectedPayload, data)
	default:
		return nil, fmt.Errorf("%w: %.20s", ErrUnexpectedPayload, body)
	}
}
