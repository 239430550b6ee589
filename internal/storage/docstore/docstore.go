// Package docstore holds the document mechanics shared by the store
// implementations: JSON bodies keyed by dotted paths, $set/$addToSet
// application and in-process filter matching.
package docstore

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"hotel_booking/internal/domain"
)

const (
	FieldID        = "_id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

var fieldRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// ValidField reports whether f is a dotted path safe to embed in a JSON path.
func ValidField(f string) bool { return fieldRe.MatchString(f) }

// ToMap encodes a document struct into its JSON object form.
func ToMap(doc any) (map[string]any, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// FromMap decodes a JSON object back into dst.
func FromMap(m map[string]any, dst any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dst)
}

// Normalize converts v into the shape it takes inside a decoded JSON body.
func Normalize(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func GetPath(m map[string]any, path string) (any, bool) {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := obj[part]
		if !ok {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func SetPath(m map[string]any, path string, v any) {
	parts := strings.Split(path, ".")
	cur := m
	for _, part := range parts[:len(parts)-1] {
		next, ok := cur[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = v
}

// Apply mutates body according to u and stamps updatedAt.
func Apply(body map[string]any, u domain.Update, now time.Time) error {
	for field, v := range u.Set {
		if !ValidField(field) || field == FieldID {
			return fmt.Errorf("docstore: cannot set field %q", field)
		}
		nv, err := Normalize(v)
		if err != nil {
			return fmt.Errorf("docstore: set %s: %w", field, err)
		}
		SetPath(body, field, nv)
	}
	for field, vs := range u.AddToSet {
		if !ValidField(field) {
			return fmt.Errorf("docstore: cannot add to field %q", field)
		}
		cur, _ := GetPath(body, field)
		arr, _ := cur.([]any)
		for _, v := range vs {
			nv, err := Normalize(v)
			if err != nil {
				return fmt.Errorf("docstore: addToSet %s: %w", field, err)
			}
			if !containsValue(arr, nv) {
				arr = append(arr, nv)
			}
		}
		if arr == nil {
			arr = []any{}
		}
		SetPath(body, field, arr)
	}
	body[FieldUpdatedAt] = now.UTC().Format(time.RFC3339Nano)
	return nil
}

func containsValue(arr []any, v any) bool {
	for _, x := range arr {
		if reflect.DeepEqual(x, v) {
			return true
		}
	}
	return false
}

// Match evaluates f against a decoded body the way the SQL renderer does.
func Match(body map[string]any, f domain.Filter) (bool, error) {
	for _, c := range f {
		ok, err := matchCond(body, c)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchCond(body map[string]any, c domain.Cond) (bool, error) {
	if !ValidField(c.Field) {
		return false, fmt.Errorf("docstore: invalid field %q", c.Field)
	}
	got, present := GetPath(body, c.Field)
	switch c.Op {
	case domain.OpEq:
		return present && equalValue(got, c.Value), nil
	case domain.OpNe:
		return !present || !equalValue(got, c.Value), nil
	case domain.OpGte, domain.OpLte:
		if !present {
			return false, nil
		}
		cmp, ok := compare(got, c.Value)
		if !ok {
			return false, nil
		}
		if c.Op == domain.OpGte {
			return cmp >= 0, nil
		}
		return cmp <= 0, nil
	case domain.OpIn:
		vs, ok := c.Value.([]any)
		if !ok {
			return false, fmt.Errorf("docstore: $in on %s needs []any", c.Field)
		}
		if !present {
			return false, nil
		}
		for _, v := range vs {
			if equalValue(got, v) {
				return true, nil
			}
		}
		return false, nil
	case domain.OpHas:
		arr, ok := got.([]any)
		if !present || !ok {
			return false, nil
		}
		for _, v := range arr {
			if equalValue(v, c.Value) {
				return true, nil
			}
		}
		return false, nil
	case domain.OpLike:
		s, ok := got.(string)
		sub, _ := c.Value.(string)
		return present && ok && strings.Contains(strings.ToLower(s), strings.ToLower(sub)), nil
	}
	return false, fmt.Errorf("docstore: unknown operator %d", c.Op)
}

func equalValue(got, want any) bool {
	if t, ok := want.(time.Time); ok {
		gt, ok := parseTime(got)
		return ok && gt.Equal(t)
	}
	nv, err := Normalize(want)
	if err != nil {
		return false
	}
	return reflect.DeepEqual(got, nv)
}

func compare(got, want any) (int, bool) {
	if t, ok := want.(time.Time); ok {
		gt, ok := parseTime(got)
		if !ok {
			return 0, false
		}
		return gt.Compare(t), true
	}
	nv, err := Normalize(want)
	if err != nil {
		return 0, false
	}
	switch w := nv.(type) {
	case float64:
		g, ok := got.(float64)
		if !ok {
			return 0, false
		}
		switch {
		case g < w:
			return -1, true
		case g > w:
			return 1, true
		}
		return 0, true
	case string:
		g, ok := got.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(g, w), true
	}
	return 0, false
}

func parseTime(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	return t, err == nil
}
