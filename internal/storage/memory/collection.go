package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"hotel_booking/internal/domain"
	"hotel_booking/internal/storage/docstore"
)

type collection[T any] struct {
	s    *Store
	name string
}

func (c *collection[T]) notFound() error {
	return &domain.Error{Kind: domain.KindNotFound, Message: c.name + ": no matching document"}
}

func (c *collection[T]) newRecord(doc *T, now time.Time) (*record, error) {
	body, err := docstore.ToMap(doc)
	if err != nil {
		return nil, err
	}
	id, _ := body[docstore.FieldID].(string)
	if id == "" {
		id = uuid.NewString()
	}
	stamp := now.UTC().Format(time.RFC3339Nano)
	body[docstore.FieldID] = id
	body[docstore.FieldCreatedAt] = stamp
	body[docstore.FieldUpdatedAt] = stamp
	c.s.st.seq++
	return &record{id: id, seq: c.s.st.seq, created: now, body: body}, nil
}

func (c *collection[T]) CreateOne(ctx context.Context, doc *T) error {
	return c.CreateMany(ctx, []*T{doc})
}

func (c *collection[T]) CreateMany(ctx context.Context, docs []*T) error {
	defer c.s.lock()()
	now := c.s.clock.Now()
	recs := make([]*record, 0, len(docs))
	for _, d := range docs {
		r, err := c.newRecord(d, now)
		if err != nil {
			return err
		}
		recs = append(recs, r)
	}
	if err := c.s.st.checkUnique(c.name, recs); err != nil {
		return err
	}
	for i, r := range recs {
		if err := docstore.FromMap(r.body, docs[i]); err != nil {
			return err
		}
	}
	c.s.st.tables[c.name] = append(c.s.st.tables[c.name], recs...)
	return nil
}

func (c *collection[T]) FindOne(ctx context.Context, f domain.Filter) (*T, error) {
	defer c.s.lock()()
	recs, err := c.s.st.matching(c.name, f)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, c.notFound()
	}
	return decode[T](recs[0].body)
}

func (c *collection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	return c.FindOne(ctx, domain.Where(domain.Eq(docstore.FieldID, id)))
}

func (c *collection[T]) FindMany(ctx context.Context, q domain.PageQuery) ([]T, error) {
	defer c.s.lock()()
	recs, err := c.s.st.matching(c.name, q.Filter)
	if err != nil {
		return nil, err
	}
	if q.Limit > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * q.Limit
		if start >= len(recs) {
			recs = nil
		} else {
			end := min(start+q.Limit, len(recs))
			recs = recs[start:end]
		}
	}
	out := make([]T, 0, len(recs))
	for _, r := range recs {
		v, err := decode[T](r.body)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (c *collection[T]) FindOneUpdate(ctx context.Context, f domain.Filter, u domain.Update) (*T, error) {
	defer c.s.lock()()
	recs, err := c.s.st.matching(c.name, f)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, c.notFound()
	}
	updated, err := c.apply(recs[:1], u)
	if err != nil {
		return nil, err
	}
	return decode[T](updated[0].body)
}

func (c *collection[T]) FindByIDUpdate(ctx context.Context, id string, u domain.Update) (*T, error) {
	return c.FindOneUpdate(ctx, domain.Where(domain.Eq(docstore.FieldID, id)), u)
}

func (c *collection[T]) UpdateMany(ctx context.Context, f domain.Filter, u domain.Update) (int64, error) {
	defer c.s.lock()()
	recs, err := c.s.st.matching(c.name, f)
	if err != nil {
		return 0, err
	}
	if _, err := c.apply(recs, u); err != nil {
		return 0, err
	}
	return int64(len(recs)), nil
}

// apply updates copies first so a failed uniqueness check leaves recs untouched.
func (c *collection[T]) apply(recs []*record, u domain.Update) ([]*record, error) {
	now := c.s.clock.Now()
	next := make([]*record, len(recs))
	for i, r := range recs {
		body := deepCopy(r.body).(map[string]any)
		if err := docstore.Apply(body, u, now); err != nil {
			return nil, err
		}
		next[i] = &record{id: r.id, seq: r.seq, created: r.created, body: body}
	}
	if err := c.s.st.checkUnique(c.name, next); err != nil {
		return nil, err
	}
	for i, r := range recs {
		r.body = next[i].body
	}
	return next, nil
}

func (c *collection[T]) DeleteMany(ctx context.Context, f domain.Filter) (int64, error) {
	defer c.s.lock()()
	recs, err := c.s.st.matching(c.name, f)
	if err != nil {
		return 0, err
	}
	drop := make(map[string]bool, len(recs))
	for _, r := range recs {
		drop[r.id] = true
	}
	kept := c.s.st.tables[c.name][:0]
	for _, r := range c.s.st.tables[c.name] {
		if !drop[r.id] {
			kept = append(kept, r)
		}
	}
	c.s.st.tables[c.name] = kept
	return int64(len(recs)), nil
}

func decode[T any](body map[string]any) (*T, error) {
	var v T
	if err := docstore.FromMap(body, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
