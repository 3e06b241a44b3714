// Package memory provides an in-memory repository.Store for tests and local runs.
//
// Units of work keep an undo log that is replayed on rollback and hold row
// locks until they end, so compare-and-swap updates and SELECT ... FOR UPDATE
// behave as they do against PostgreSQL under read committed.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/repository"
)

type Store struct {
	mu           sync.RWMutex
	schedules    map[uuid.UUID]domain.AmortizationSchedule
	entries      map[uuid.UUID]domain.AmortizationEntry
	assets       map[uuid.UUID]domain.FixedAsset
	configs      map[int64]domain.CompanyConfig
	nextConfigID int64

	locksMu  sync.Mutex
	rowLocks map[uuid.UUID]chan struct{}
}

func NewStore() *Store {
	return &Store{
		schedules: make(map[uuid.UUID]domain.AmortizationSchedule),
		entries:   make(map[uuid.UUID]domain.AmortizationEntry),
		assets:    make(map[uuid.UUID]domain.FixedAsset),
		configs:   make(map[int64]domain.CompanyConfig),
		rowLocks:  make(map[uuid.UUID]chan struct{}),
	}
}

var _ repository.Store = (*Store)(nil)

// AddAsset seeds a fixed asset. Assets are maintained outside this service.
func (s *Store) AddAsset(asset domain.FixedAsset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	s.assets[asset.ID] = asset
}

// Repositories returns repositories that apply each write immediately.
func (s *Store) Repositories() repository.Repositories {
	return s.repositories(nil)
}

// WithinTx runs fn in a unit of work. Writes are undone when fn fails or panics.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	u := &unit{store: s, held: make(map[uuid.UUID]chan struct{})}

	defer func() {
		if p := recover(); p != nil {
			u.rollback()
			u.release()
			panic(p)
		}
	}()

	if err = fn(ctx, s.repositories(u)); err != nil {
		u.rollback()
	}
	u.release()
	return err
}

func (s *Store) repositories(u *unit) repository.Repositories {
	return repository.Repositories{
		Schedules: &scheduleRepo{store: s, unit: u},
		Entries:   &entryRepo{store: s, unit: u},
		Assets:    &assetRepo{store: s},
		Configs:   &configRepo{store: s, unit: u},
	}
}

func (s *Store) rowLock(id uuid.UUID) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.rowLocks[id]
	if !ok {
		lock = make(chan struct{}, 1)
		s.rowLocks[id] = lock
	}
	return lock
}

// unit is one unit of work. A nil *unit means autocommit.
type unit struct {
	store *Store
	undo  []func()
	held  map[uuid.UUID]chan struct{}
}

// lock takes the row lock of id. Inside a unit the lock is kept until the unit
// ends; in autocommit mode the returned func releases it.
func (u *unit) lock(ctx context.Context, s *Store, id uuid.UUID) (func(), error) {
	if u != nil {
		if _, ok := u.held[id]; ok {
			return func() {}, nil
		}
	}

	lock := s.rowLock(id)
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if u == nil {
		return func() { <-lock }, nil
	}
	u.held[id] = lock
	return func() {}, nil
}

// record keeps fn to be run under the store write lock on rollback.
func (u *unit) record(fn func()) {
	if u != nil && fn != nil {
		u.undo = append(u.undo, fn)
	}
}

func (u *unit) rollback() {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.undo = nil
}

func (u *unit) release() {
	for id, lock := range u.held {
		<-lock
		delete(u.held, id)
	}
}

// write runs fn under the store write lock while holding the row lock of id.
// The undo func returned by fn is recorded on the unit.
func (s *Store) write(ctx context.Context, u *unit, id uuid.UUID, fn func() (func(), error)) error {
	unlock, err := u.lock(ctx, s, id)
	if err != nil {
		return err
	}
	defer unlock()

	s.mu.Lock()
	undo, err := fn()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	u.record(undo)
	return nil
}
