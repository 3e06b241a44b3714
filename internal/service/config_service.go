package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/repository"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/segyhp/amortization-engine/pkg/validation"
	"go.uber.org/zap"
)

// CompanyConfigService reads and maintains the single company configuration record.
type CompanyConfigService struct {
	store     repository.Store
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

func NewCompanyConfigService(store repository.Store, validate *validator.Validate, logger *zap.Logger) *CompanyConfigService {
	return &CompanyConfigService{
		store:     store,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// GetConfig returns the first config record, creating the defaults when none exists.
func (s *CompanyConfigService) GetConfig(ctx context.Context) (*domain.CompanyConfig, error) {
	cfg, err := s.store.Repositories().Configs.GetFirst(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, customError.WrapDatabaseError(err)
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		existing, err := repos.Configs.GetFirst(ctx)
		if err == nil {
			cfg = existing
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return customError.WrapDatabaseError(err)
		}

		cfg = domain.NewDefaultCompanyConfig(s.now())
		if err := repos.Configs.Create(ctx, cfg); err != nil {
			return customError.WrapDatabaseError(err)
		}
		s.logger.Info("default company config created", zap.Int64("config_id", cfg.ID))
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (s *CompanyConfigService) FindByID(ctx context.Context, id int64) (*domain.CompanyConfig, error) {
	cfg, err := s.store.Repositories().Configs.GetByID(ctx, id)
	if err != nil {
		return nil, repoError(err, func() error { return customError.WrapConfigNotFound(id) })
	}
	return cfg, nil
}

// FiscalYearStartMonth returns the configured fiscal year start month.
func (s *CompanyConfigService) FiscalYearStartMonth(ctx context.Context) (int, error) {
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return 0, err
	}
	return cfg.FiscalYearStartMonth, nil
}

func (s *CompanyConfigService) Update(ctx context.Context, id int64, req domain.UpdateCompanyConfigRequest) (*domain.CompanyConfig, error) {
	if err := s.validator.StructCtx(ctx, req); err != nil {
		return nil, customError.NewValidationError("%s", validation.Message(err))
	}

	var updated *domain.CompanyConfig
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		cfg, err := repos.Configs.GetByID(ctx, id)
		if err != nil {
			return repoError(err, func() error { return customError.WrapConfigNotFound(id) })
		}

		cfg.CompanyName = req.CompanyName
		cfg.FiscalYearStartMonth = req.FiscalYearStartMonth
		cfg.CurrencyCode = req.CurrencyCode
		cfg.UpdatedAt = s.now()
		if err := cfg.Validate(); err != nil {
			return err
		}

		if err := repos.Configs.Update(ctx, cfg); err != nil {
			return repoError(err, func() error { return customError.WrapConfigNotFound(id) })
		}
		updated = cfg
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("company config updated",
		zap.Int64("config_id", id),
		zap.Int("fiscal_year_start_month", updated.FiscalYearStartMonth),
	)
	return updated, nil
}
