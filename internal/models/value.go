package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ValueType tags how a property value was encoded, so it can be converted
// back to its original shape on read.
type ValueType string

const (
	TypeString   ValueType = "STRING"
	TypeNumber   ValueType = "NUMBER"
	TypeBoolean  ValueType = "BOOLEAN"
	TypeDatetime ValueType = "DATETIME"
	TypeJSON     ValueType = "JSON"
)

// EncodeValue stringifies a caller-supplied value and records its semantic
// type. Values arrive JSON-decoded, so the interesting cases are string,
// float64, bool, and composites (maps/slices).
func EncodeValue(v any) (string, ValueType) {
	switch val := v.(type) {
	case nil:
		return "", TypeString
	case string:
		if _, err := time.Parse(time.RFC3339, val); err == nil {
			return val, TypeDatetime
		}
		return val, TypeString
	case bool:
		return strconv.FormatBool(val), TypeBoolean
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), TypeNumber
	case int:
		return strconv.Itoa(val), TypeNumber
	case int64:
		return strconv.FormatInt(val, 10), TypeNumber
	case json.Number:
		return val.String(), TypeNumber
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v), TypeString
		}
		return string(data), TypeJSON
	}
}

// DecodeValue converts a stored value string back using its type tag.
// Unparseable values fall back to the raw string rather than failing the
// whole read.
func DecodeValue(value string, vt ValueType) any {
	switch vt {
	case TypeNumber:
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return n
		}
	case TypeBoolean:
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	case TypeDatetime:
		return value
	case TypeJSON:
		var out any
		if err := json.Unmarshal([]byte(value), &out); err == nil {
			return out
		}
	}
	return value
}

// ISOTime normalizes a SQLite datetime ("2006-01-02 15:04:05") to an
// ISO-8601 / RFC 3339 UTC string. Values already in RFC 3339 form pass
// through unchanged.
func ISOTime(s string) string {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	return s
}
