package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/repository"
)

// configLock is the row lock shared by all company config rows.
var configLock = uuid.MustParse("00000000-0000-0000-0000-00000000c0f1")

type configRepo struct {
	store *Store
	unit  *unit
}

func (r *configRepo) GetFirst(_ context.Context) (*domain.CompanyConfig, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var first *domain.CompanyConfig
	for _, cfg := range r.store.configs {
		cfg := cfg
		if first == nil || cfg.ID < first.ID {
			first = &cfg
		}
	}
	if first == nil {
		return nil, repository.ErrNotFound
	}
	return first, nil
}

func (r *configRepo) GetByID(_ context.Context, id int64) (*domain.CompanyConfig, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	cfg, ok := r.store.configs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &cfg, nil
}

func (r *configRepo) Create(ctx context.Context, cfg *domain.CompanyConfig) error {
	s := r.store
	return s.write(ctx, r.unit, configLock, func() (func(), error) {
		s.nextConfigID++
		cfg.ID = s.nextConfigID
		s.configs[cfg.ID] = *cfg
		id := cfg.ID
		return func() { delete(s.configs, id) }, nil
	})
}

func (r *configRepo) Update(ctx context.Context, cfg *domain.CompanyConfig) error {
	s := r.store
	return s.write(ctx, r.unit, configLock, func() (func(), error) {
		prev, ok := s.configs[cfg.ID]
		if !ok {
			return nil, repository.ErrNotFound
		}
		s.configs[cfg.ID] = *cfg
		return func() { s.configs[prev.ID] = prev }, nil
	})
}
