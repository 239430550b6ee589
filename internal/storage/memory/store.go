// Package memory is an in-process document store with the same filter,
// update, uniqueness and transaction semantics as the MySQL store.
package memory

import (
	"context"
	"sync"

	"hotel_booking/internal/domain"
)

const (
	hotels      = "hotels"
	roomTypes   = "room_types"
	reviews     = "reviews"
	memberships = "memberships"
	users       = "users"
	keyStores   = "key_stores"
)

type Store struct {
	mu    *sync.Mutex
	st    *state
	clock domain.Clock
	inTx  bool
}

func New(clock domain.Clock) *Store {
	if clock == nil {
		clock = domain.RealClock()
	}
	return &Store{mu: &sync.Mutex{}, st: newState(), clock: clock}
}

func (s *Store) Hotels() domain.Collection[domain.Hotel] {
	return &collection[domain.Hotel]{s: s, name: hotels}
}

func (s *Store) RoomTypes() domain.Collection[domain.RoomType] {
	return &collection[domain.RoomType]{s: s, name: roomTypes}
}

func (s *Store) Reviews() domain.Collection[domain.Review] {
	return &collection[domain.Review]{s: s, name: reviews}
}

func (s *Store) Memberships() domain.Collection[domain.Membership] {
	return &collection[domain.Membership]{s: s, name: memberships}
}

func (s *Store) Users() domain.Collection[domain.User] {
	return &collection[domain.User]{s: s, name: users}
}

func (s *Store) KeyStores() domain.Collection[domain.KeyStore] {
	return &collection[domain.KeyStore]{s: s, name: keyStores}
}

// WithTx serializes fn against every other store call and restores the
// previous contents when fn fails.
func (s *Store) WithTx(ctx context.Context, fn func(tx domain.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	tx := &Store{mu: s.mu, st: s.st, clock: s.clock, inTx: true}
	err := fn(tx)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		*s.st = *snapshot
	}
	return err
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}
