package mysql

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"hotel_booking/internal/domain"
)

func TestWhereRendersJSONPaths(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		f    domain.Filter
		sql  string
		args []any
	}{
		{"empty", nil, "1=1", nil},
		{"id", domain.Where(domain.Eq("_id", "h1")), "id = ?", []any{"h1"}},
		{"string", domain.Where(domain.Eq("hotel.hotelId", "h1")),
			"JSON_UNQUOTE(JSON_EXTRACT(body, '$.hotel.hotelId')) = ?", []any{"h1"}},
		{"bool", domain.Where(domain.Eq("isDelete", false)),
			"JSON_UNQUOTE(JSON_EXTRACT(body, '$.isDelete')) = ?", []any{"false"}},
		{"number", domain.Where(domain.Gte("starRating", 0.5)),
			"CAST(JSON_EXTRACT(body, '$.starRating') AS DOUBLE) >= ?", []any{0.5}},
		{"int", domain.Where(domain.Eq("zipCode", 70000)),
			"CAST(JSON_EXTRACT(body, '$.zipCode') AS DOUBLE) = ?", []any{float64(70000)}},
		{"ne", domain.Where(domain.Ne("package", domain.PackageFree)),
			"(JSON_UNQUOTE(JSON_EXTRACT(body, '$.package')) IS NULL OR JSON_UNQUOTE(JSON_EXTRACT(body, '$.package')) <> ?)", []any{"FREE"}},
		{"created", domain.Where(domain.Gte("createdAt", day)), "created_at >= ?", []any{day}},
		{"in", domain.Where(domain.InStrings("_id", []string{"a", "b"})), "id IN (?, ?)", []any{"a", "b"}},
		{"empty in", domain.Where(domain.InStrings("_id", nil)), "1=0", nil},
		{"like", domain.Where(domain.Like("slug", "Ab_%")),
			"LOWER(JSON_UNQUOTE(JSON_EXTRACT(body, '$.slug'))) LIKE ?", []any{`%ab\_\%%`}},
		{"has", domain.Where(domain.Has("roomTypeIds", "r1")),
			"JSON_CONTAINS(JSON_EXTRACT(body, '$.roomTypeIds'), JSON_ARRAY(?))", []any{"r1"}},
		{"and", domain.Where(domain.Eq("_id", "h1"), domain.Eq("userId", "u1")),
			"id = ? AND JSON_UNQUOTE(JSON_EXTRACT(body, '$.userId')) = ?", []any{"h1", "u1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sql, args, err := where(tc.f)
			if err != nil {
				t.Fatalf("where: %v", err)
			}
			if sql != tc.sql {
				t.Fatalf("sql:\n got %s\nwant %s", sql, tc.sql)
			}
			if !reflect.DeepEqual(args, tc.args) {
				t.Fatalf("args: got %#v want %#v", args, tc.args)
			}
		})
	}
}

func TestWhereRejectsUnsafeFields(t *testing.T) {
	for _, f := range []string{"a'); DROP TABLE hotels; --", "", "a..b", "$.x"} {
		if _, _, err := where(domain.Where(domain.Eq(f, "x"))); err == nil {
			t.Fatalf("field %q accepted", f)
		}
	}
	_, _, err := where(domain.Where(domain.Eq("timeEnd", time.Now())))
	if err == nil || !strings.Contains(err.Error(), "createdAt/updatedAt") {
		t.Fatalf("expected time comparison error, got %v", err)
	}
}
