package models

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
)

// IDField is the column every table exposes as its server-generated key.
const IDField = "id"

// Record is one row of a remote table.
type Record map[string]any

// ID returns the record's identifier, or nil when absent.
func (r Record) ID() any {
	return r[IDField]
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}

// WithoutZeroID returns a copy of r without the id field when that field is
// falsy, so the server assigns one on insert.
func (r Record) WithoutZeroID() Record {
	out := r.Clone()
	if out == nil {
		return Record{}
	}
	if IsZeroID(out[IDField]) {
		delete(out, IDField)
	}
	return out
}

// IsZeroID reports whether v is a falsy identifier: nil, "", 0 or false.
func IsZeroID(v any) bool {
	switch id := v.(type) {
	case nil:
		return true
	case string:
		return id == ""
	case bool:
		return !id
	case int:
		return id == 0
	case int32:
		return id == 0
	case int64:
		return id == 0
	case float64:
		return id == 0
	case json.Number:
		f, err := id.Float64()
		return err == nil && f == 0
	default:
		return false
	}
}

// IDString renders an identifier in canonical text form. Ids arrive as JSON
// numbers, Go integers or strings depending on the backend, and are compared
// through this form.
func IDString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case json.Number:
		return id.String()
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case []byte:
		return string(id)
	default:
		return fmt.Sprint(id)
	}
}

// SameID reports whether two identifiers denote the same record.
func SameID(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	return IDString(a) == IDString(b)
}
