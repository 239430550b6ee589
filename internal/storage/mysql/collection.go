package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"hotel_booking/internal/domain"
	"hotel_booking/internal/storage/docstore"
)

const errDupEntry = 1062

type collection[T any] struct {
	s     *Store
	table string
}

func (c *collection[T]) notFound() error {
	return &domain.Error{Kind: domain.KindNotFound, Message: c.table + ": no matching document"}
}

func (c *collection[T]) mapErr(err error) error {
	var me *gomysql.MySQLError
	if errors.As(err, &me) && me.Number == errDupEntry {
		return &domain.Error{Kind: domain.KindDuplicate, Message: c.table + ": duplicate key", Err: err}
	}
	return err
}

func (c *collection[T]) CreateOne(ctx context.Context, doc *T) error {
	return c.CreateMany(ctx, []*T{doc})
}

func (c *collection[T]) CreateMany(ctx context.Context, docs []*T) error {
	if len(docs) == 0 {
		return nil
	}
	now := c.s.clock.Now().UTC()
	stamp := now.Format(time.RFC3339Nano)
	bodies := make([]map[string]any, len(docs))
	values := make([]string, 0, len(docs))
	args := make([]any, 0, len(docs)*4)
	for i, d := range docs {
		body, err := docstore.ToMap(d)
		if err != nil {
			return err
		}
		id, _ := body[docstore.FieldID].(string)
		if id == "" {
			id = uuid.NewString()
		}
		body[docstore.FieldID] = id
		body[docstore.FieldCreatedAt] = stamp
		body[docstore.FieldUpdatedAt] = stamp
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodies[i] = body
		values = append(values, "(?, ?, ?, ?)")
		args = append(args, id, string(raw), now, now)
	}
	stmt := "INSERT INTO " + c.table + " (id, body, created_at, updated_at) VALUES " + strings.Join(values, ", ")
	if _, err := c.s.q().ExecContext(ctx, stmt, args...); err != nil {
		return c.mapErr(err)
	}
	for i, body := range bodies {
		if err := docstore.FromMap(body, docs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *collection[T]) FindOne(ctx context.Context, f domain.Filter) (*T, error) {
	out, err := c.find(ctx, c.s.q(), f, 1, 0, false)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, c.notFound()
	}
	return decode[T](out[0].body)
}

func (c *collection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	return c.FindOne(ctx, domain.Where(domain.Eq(docstore.FieldID, id)))
}

func (c *collection[T]) FindMany(ctx context.Context, q domain.PageQuery) ([]T, error) {
	offset := 0
	if q.Limit > 0 && q.Page > 1 {
		offset = (q.Page - 1) * q.Limit
	}
	rows, err := c.find(ctx, c.s.q(), q.Filter, q.Limit, offset, false)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := decode[T](r.body)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, nil
}

func (c *collection[T]) FindOneUpdate(ctx context.Context, f domain.Filter, u domain.Update) (*T, error) {
	var out *T
	err := c.s.atomic(ctx, func(q querier) error {
		rows, err := c.find(ctx, q, f, 1, 0, true)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return c.notFound()
		}
		body, err := c.rewrite(ctx, q, rows[0], u)
		if err != nil {
			return err
		}
		out, err = decode[T](body)
		return err
	})
	return out, err
}

func (c *collection[T]) FindByIDUpdate(ctx context.Context, id string, u domain.Update) (*T, error) {
	return c.FindOneUpdate(ctx, domain.Where(domain.Eq(docstore.FieldID, id)), u)
}

func (c *collection[T]) UpdateMany(ctx context.Context, f domain.Filter, u domain.Update) (int64, error) {
	var n int64
	err := c.s.atomic(ctx, func(q querier) error {
		rows, err := c.find(ctx, q, f, 0, 0, true)
		if err != nil {
			return err
		}
		for _, r := range rows {
			if _, err := c.rewrite(ctx, q, r, u); err != nil {
				return err
			}
		}
		n = int64(len(rows))
		return nil
	})
	return n, err
}

func (c *collection[T]) DeleteMany(ctx context.Context, f domain.Filter) (int64, error) {
	cond, args, err := where(f)
	if err != nil {
		return 0, err
	}
	res, err := c.s.q().ExecContext(ctx, "DELETE FROM "+c.table+" WHERE "+cond, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type row struct {
	id   string
	body []byte
}

func (c *collection[T]) find(ctx context.Context, q querier, f domain.Filter, limit, offset int, lock bool) ([]row, error) {
	cond, args, err := where(f)
	if err != nil {
		return nil, err
	}
	var sb strings.Builder
	sb.WriteString("SELECT id, body FROM ")
	sb.WriteString(c.table)
	sb.WriteString(" WHERE ")
	sb.WriteString(cond)
	sb.WriteString(" ORDER BY created_at DESC, seq DESC")
	if limit > 0 {
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, limit, offset)
	}
	if lock {
		sb.WriteString(" FOR UPDATE")
	}
	rs, err := q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	var out []row
	for rs.Next() {
		var r row
		if err := rs.Scan(&r.id, &r.body); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rs.Err()
}

func (c *collection[T]) rewrite(ctx context.Context, q querier, r row, u domain.Update) (map[string]any, error) {
	var body map[string]any
	if err := json.Unmarshal(r.body, &body); err != nil {
		return nil, err
	}
	now := c.s.clock.Now().UTC()
	if err := docstore.Apply(body, u, now); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	if _, err := q.ExecContext(ctx, "UPDATE "+c.table+" SET body = ?, updated_at = ? WHERE id = ?", string(raw), now, r.id); err != nil {
		return nil, c.mapErr(err)
	}
	return body, nil
}

func decode[T any](raw any) (*T, error) {
	var v T
	switch b := raw.(type) {
	case []byte:
		if err := json.Unmarshal(b, &v); err != nil {
			return nil, err
		}
	case map[string]any:
		if err := docstore.FromMap(b, &v); err != nil {
			return nil, err
		}
	default:
		return nil, sql.ErrNoRows
	}
	return &v, nil
}
