package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"hotel_booking/internal/domain"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store keeps every collection as a table of JSON documents.
type Store struct {
	db    *sql.DB
	tx    *sql.Tx
	clock domain.Clock
}

func New(db *sql.DB) *Store { return &Store{db: db, clock: domain.RealClock()} }

func NewWithClock(db *sql.DB, clock domain.Clock) *Store { return &Store{db: db, clock: clock} }

func (s *Store) Hotels() domain.Collection[domain.Hotel] {
	return &collection[domain.Hotel]{s: s, table: "hotels"}
}

func (s *Store) RoomTypes() domain.Collection[domain.RoomType] {
	return &collection[domain.RoomType]{s: s, table: "room_types"}
}

func (s *Store) Reviews() domain.Collection[domain.Review] {
	return &collection[domain.Review]{s: s, table: "reviews"}
}

func (s *Store) Memberships() domain.Collection[domain.Membership] {
	return &collection[domain.Membership]{s: s, table: "memberships"}
}

func (s *Store) Users() domain.Collection[domain.User] {
	return &collection[domain.User]{s: s, table: "users"}
}

func (s *Store) KeyStores() domain.Collection[domain.KeyStore] {
	return &collection[domain.KeyStore]{s: s, table: "key_stores"}
}

func (s *Store) WithTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(&Store{db: s.db, tx: tx, clock: s.clock}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) q() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// atomic runs fn inside the current transaction, or a fresh one, so that
// SELECT ... FOR UPDATE locks are held until the rewrite is committed.
func (s *Store) atomic(ctx context.Context, fn func(q querier) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	return s.WithTx(ctx, func(tx domain.Store) error { return fn(tx.(*Store).tx) })
}
