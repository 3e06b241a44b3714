package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/segyhp/amortization-engine/internal/domain"
)

const configColumns = `id, company_name, fiscal_year_start_month, currency_code, created_at, updated_at`

type companyConfigRepository struct {
	db sqlx.ExtContext
}

func NewCompanyConfigRepository(db sqlx.ExtContext) CompanyConfigRepository {
	return &companyConfigRepository{db: db}
}

func (r *companyConfigRepository) GetFirst(ctx context.Context) (*domain.CompanyConfig, error) {
	var cfg domain.CompanyConfig
	err := sqlx.GetContext(ctx, r.db, &cfg, `SELECT `+configColumns+` FROM company_configs ORDER BY id LIMIT 1`)
	if err != nil {
		return nil, notFound(err)
	}
	return &cfg, nil
}

func (r *companyConfigRepository) GetByID(ctx context.Context, id int64) (*domain.CompanyConfig, error) {
	var cfg domain.CompanyConfig
	err := sqlx.GetContext(ctx, r.db, &cfg, `SELECT `+configColumns+` FROM company_configs WHERE id = $1`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &cfg, nil
}

func (r *companyConfigRepository) Create(ctx context.Context, cfg *domain.CompanyConfig) error {
	query := `
		INSERT INTO company_configs (company_name, fiscal_year_start_month, currency_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	return r.db.QueryRowxContext(ctx, query,
		cfg.CompanyName,
		cfg.FiscalYearStartMonth,
		cfg.CurrencyCode,
		cfg.CreatedAt,
		cfg.UpdatedAt,
	).Scan(&cfg.ID)
}

func (r *companyConfigRepository) Update(ctx context.Context, cfg *domain.CompanyConfig) error {
	query := `
		UPDATE company_configs
		SET company_name = $2, fiscal_year_start_month = $3, currency_code = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		cfg.ID,
		cfg.CompanyName,
		cfg.FiscalYearStartMonth,
		cfg.CurrencyCode,
		cfg.UpdatedAt,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
