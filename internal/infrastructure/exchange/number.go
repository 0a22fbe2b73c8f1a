package exchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var errNotNumber = errors.New("not a number")

// Float reads a JSON number or numeric string. present is false for a missing
// field or null. Empty strings, booleans, objects and non-finite values are
// errors.
func Float(raw json.RawMessage) (v float64, present bool, err error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false, nil
	}
	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, true, err
		}
		s = strings.TrimSpace(s)
	} else {
		s = string(raw)
	}
	if s == "" {
		return 0, true, errNotNumber
	}
	v, err = strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, true, errNotNumber
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true, errNotNumber
	}
	return v, true, nil
}

// OptionalFloat is Float returning nil when the field is absent.
// When emptyIsAbsent is set an empty string counts as absent too.
func OptionalFloat(raw json.RawMessage, emptyIsAbsent bool) (*float64, error) {
	if emptyIsAbsent && isEmptyString(raw) {
		return nil, nil
	}
	v, present, err := Float(raw)
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	return &v, nil
}

// LooseFloat never fails; unreadable values become nil. Used for metadata.
func LooseFloat(raw json.RawMessage) *float64 {
	v, present, err := Float(raw)
	if err != nil || !present {
		return nil
	}
	return &v
}

// String reads a JSON string or number as text. Missing, null and empty
// values yield "".
func String(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	}
	if raw[0] == '{' || raw[0] == '[' || string(raw) == "false" {
		return ""
	}
	return string(raw)
}

func isEmptyString(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 2 && raw[0] == '"' && raw[1] == '"'
}

// Fields decodes a row object into its raw fields.
func Fields(row json.RawMessage) (map[string]json.RawMessage, bool) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(row, &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}
