package store

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Normalize converts v to its JSON data model (map[string]any, []any,
// string, float64, bool, nil). Backends that keep documents locally store
// normalized values so that ArrayUnion can compare elements by value.
func Normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("normalize value: %w", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("normalize value: %w", err)
	}
	return out, nil
}

// NormalizeFields normalizes every plain value in fields. Union values keep
// their wrapper with normalized elements.
func NormalizeFields(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if u, ok := v.(Union); ok {
			elems := make([]any, len(u.Elems))
			for i, e := range u.Elems {
				n, err := Normalize(e)
				if err != nil {
					return nil, fmt.Errorf("field %s: %w", k, err)
				}
				elems[i] = n
			}
			out[k] = Union{Elems: elems}
			continue
		}
		n, err := Normalize(v)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = n
	}
	return out, nil
}

// MergeFields applies normalized fields to doc in place.
func MergeFields(doc, fields map[string]any) error {
	for k, v := range fields {
		u, ok := v.(Union)
		if !ok {
			doc[k] = v
			continue
		}
		var existing []any
		switch cur := doc[k].(type) {
		case nil:
		case []any:
			existing = cur
		default:
			return fmt.Errorf("%w: field %s is not an array", ErrPrecondition, k)
		}
		for _, e := range u.Elems {
			if !containsValue(existing, e) {
				existing = append(existing, e)
			}
		}
		if existing == nil {
			existing = []any{}
		}
		doc[k] = existing
	}
	return nil
}

func containsValue(list []any, v any) bool {
	for _, e := range list {
		if reflect.DeepEqual(e, v) {
			return true
		}
	}
	return false
}

// CloneData deep-copies a normalized document.
func CloneData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	return cloneValue(data).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}

// SortDocuments orders docs by q.OrderBy, breaking ties by ID so delivery
// order is deterministic.
func SortDocuments(docs []Document, q Query) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := orderValue(docs[i], q.OrderBy), orderValue(docs[j], q.OrderBy)
		if a == b {
			return docs[i].ID < docs[j].ID
		}
		if q.Descending {
			return a > b
		}
		return a < b
	})
}

func orderValue(d Document, key string) string {
	if key == "" {
		return d.ID
	}
	switch v := d.Data[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
