package memory

import (
	"fmt"
	"time"

	"hotel_booking/internal/domain"
	"hotel_booking/internal/storage/docstore"
)

type record struct {
	id      string
	seq     int64
	created time.Time
	body    map[string]any
}

type state struct {
	seq    int64
	tables map[string][]*record
}

func newState() *state { return &state{tables: map[string][]*record{}} }

func (st *state) clone() *state {
	out := &state{seq: st.seq, tables: make(map[string][]*record, len(st.tables))}
	for name, recs := range st.tables {
		cp := make([]*record, len(recs))
		for i, r := range recs {
			cp[i] = &record{id: r.id, seq: r.seq, created: r.created, body: deepCopy(r.body).(map[string]any)}
		}
		out.tables[name] = cp
	}
	return out
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, x := range t {
			m[k] = deepCopy(x)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, x := range t {
			s[i] = deepCopy(x)
		}
		return s
	}
	return v
}

// uniqueKeys mirrors the unique indexes declared in migrations/.
var uniqueKeys = map[string]func(body map[string]any) (string, bool){
	hotels: func(b map[string]any) (string, bool) {
		if del, _ := b["isDelete"].(bool); del {
			return "", false
		}
		return fmt.Sprintf("%v\x00%v", b["userId"], b["hotelName"]), true
	},
	memberships: func(b map[string]any) (string, bool) {
		return fmt.Sprintf("%v", b["userId"]), true
	},
	reviews: func(b map[string]any) (string, bool) {
		return fmt.Sprintf("%v", b["slug"]), true
	},
	keyStores: func(b map[string]any) (string, bool) {
		return fmt.Sprintf("%v\x00%v", b["userId"], b["deviceId"]), true
	},
}

// checkUnique rejects candidates whose unique key collides with a stored
// record (other than the one they replace) or with each other.
func (st *state) checkUnique(table string, candidates []*record) error {
	keyOf, ok := uniqueKeys[table]
	if !ok {
		return nil
	}
	replaced := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		replaced[c.id] = true
	}
	seen := map[string]bool{}
	for _, r := range st.tables[table] {
		if replaced[r.id] {
			continue
		}
		if k, ok := keyOf(r.body); ok {
			seen[k] = true
		}
	}
	for _, c := range candidates {
		k, ok := keyOf(c.body)
		if !ok {
			continue
		}
		if seen[k] {
			return &domain.Error{Kind: domain.KindDuplicate, Message: table + ": duplicate key"}
		}
		seen[k] = true
	}
	return nil
}

func (st *state) matching(table string, f domain.Filter) ([]*record, error) {
	var out []*record
	for _, r := range st.tables[table] {
		ok, err := docstore.Match(r.body, f)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, r)
		}
	}
	// newest first
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && newer(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func newer(a, b *record) bool {
	if !a.created.Equal(b.created) {
		return a.created.After(b.created)
	}
	return a.seq > b.seq
}
