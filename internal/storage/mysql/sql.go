package mysql

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"hotel_booking/internal/domain"
	"hotel_booking/internal/storage/docstore"
)

type valueKind int

const (
	kindString valueKind = iota
	kindNumber
	kindBool
	kindTime
)

// where renders a filter into a SQL condition over the JSON body column.
// Field names are validated before they are embedded in a JSON path.
func where(f domain.Filter) (string, []any, error) {
	if len(f) == 0 {
		return "1=1", nil, nil
	}
	parts := make([]string, 0, len(f))
	var args []any
	for _, c := range f {
		part, a, err := renderCond(c)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, part)
		args = append(args, a...)
	}
	return strings.Join(parts, " AND "), args, nil
}

func renderCond(c domain.Cond) (string, []any, error) {
	if !docstore.ValidField(c.Field) {
		return "", nil, fmt.Errorf("mysql: invalid field %q", c.Field)
	}
	switch c.Op {
	case domain.OpIn:
		vs, ok := c.Value.([]any)
		if !ok {
			return "", nil, fmt.Errorf("mysql: $in on %s needs []any", c.Field)
		}
		if len(vs) == 0 {
			return "1=0", nil, nil
		}
		k, _, err := scalar(vs[0])
		if err != nil {
			return "", nil, err
		}
		expr, err := column(c.Field, k)
		if err != nil {
			return "", nil, err
		}
		args := make([]any, 0, len(vs))
		for _, v := range vs {
			_, a, err := scalar(v)
			if err != nil {
				return "", nil, err
			}
			args = append(args, a)
		}
		return expr + " IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(vs)), ", ") + ")", args, nil

	case domain.OpLike:
		sub, ok := c.Value.(string)
		if !ok {
			return "", nil, fmt.Errorf("mysql: like on %s needs a string", c.Field)
		}
		expr, err := column(c.Field, kindString)
		if err != nil {
			return "", nil, err
		}
		return "LOWER(" + expr + ") LIKE ?", []any{"%" + escapeLike(strings.ToLower(sub)) + "%"}, nil

	case domain.OpHas:
		k, arg, err := scalar(c.Value)
		if err != nil {
			return "", nil, err
		}
		if k != kindString && k != kindNumber {
			return "", nil, fmt.Errorf("mysql: array match on %s needs a string or number", c.Field)
		}
		return "JSON_CONTAINS(JSON_EXTRACT(body, '$." + c.Field + "'), JSON_ARRAY(?))", []any{arg}, nil
	}

	k, arg, err := scalar(c.Value)
	if err != nil {
		return "", nil, err
	}
	expr, err := column(c.Field, k)
	if err != nil {
		return "", nil, err
	}
	switch c.Op {
	case domain.OpEq:
		return expr + " = ?", []any{arg}, nil
	case domain.OpNe:
		return "(" + expr + " IS NULL OR " + expr + " <> ?)", []any{arg}, nil
	case domain.OpGte:
		return expr + " >= ?", []any{arg}, nil
	case domain.OpLte:
		return expr + " <= ?", []any{arg}, nil
	}
	return "", nil, fmt.Errorf("mysql: unknown operator %d", c.Op)
}

func column(field string, k valueKind) (string, error) {
	switch field {
	case docstore.FieldID:
		return "id", nil
	case docstore.FieldCreatedAt:
		if k == kindTime {
			return "created_at", nil
		}
	case docstore.FieldUpdatedAt:
		if k == kindTime {
			return "updated_at", nil
		}
	}
	path := "'$." + field + "'"
	switch k {
	case kindNumber:
		return "CAST(JSON_EXTRACT(body, " + path + ") AS DOUBLE)", nil
	case kindString, kindBool:
		return "JSON_UNQUOTE(JSON_EXTRACT(body, " + path + "))", nil
	}
	return "", fmt.Errorf("mysql: time comparison on %q is only supported for createdAt/updatedAt", field)
}

// scalar classifies v and converts it to the driver argument matching column().
func scalar(v any) (valueKind, any, error) {
	if t, ok := v.(time.Time); ok {
		return kindTime, t.UTC(), nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return kindString, rv.String(), nil
	case reflect.Bool:
		if rv.Bool() {
			return kindBool, "true", nil
		}
		return kindBool, "false", nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return kindNumber, float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return kindNumber, float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return kindNumber, rv.Float(), nil
	}
	return 0, nil, fmt.Errorf("mysql: unsupported filter value %T", v)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
