package docstore

import (
	"encoding/json"
	"fmt"
	"time"
)

// String reads a string field, returning the zero value when the field is
// missing or null.
func String(doc Document, field string) string {
	if v, ok := doc[field].(string); ok {
		return v
	}
	return ""
}

// Int64 reads an integral field. Numbers arrive as int64 from the memory
// backend and as json.Number from the Postgres backend, so both forms are
// accepted.
func Int64(doc Document, field string) (int64, error) {
	switch v := doc[field].(type) {
	case nil:
		return 0, nil
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case json.Number:
		return v.Int64()
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("field %s: unexpected type %T", field, v)
	}
}

// Time reads a timestamp field stored in the canonical RFC 3339 form.
func Time(doc Document, field string) (time.Time, error) {
	s := String(doc, field)
	if s == "" {
		return time.Time{}, fmt.Errorf("field %s: missing timestamp", field)
	}
	t, err := ParseTime(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("field %s: %w", field, err)
	}
	return t, nil
}

// fieldText renders a document field the way filters compare it.
func fieldText(doc Document, field string) (string, bool) {
	switch v := doc[field].(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case json.Number:
		return v.String(), true
	case int64:
		return fmt.Sprintf("%d", v), true
	case float64:
		return fmt.Sprintf("%g", v), true
	case bool:
		return fmt.Sprintf("%t", v), true
	default:
		return fmt.Sprintf("%v", v), true
	}
}
