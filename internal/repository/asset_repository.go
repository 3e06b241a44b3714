package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/segyhp/amortization-engine/internal/domain"
)

type assetRepository struct {
	db sqlx.ExtContext
}

func NewAssetRepository(db sqlx.ExtContext) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) ListForPeriod(ctx context.Context, from, to time.Time) ([]*domain.FixedAsset, error) {
	query := `
		SELECT id, code, name, category_name, purchase_date, purchase_cost, salvage_value,
			useful_life_years, depreciation_method, status, disposal_date
		FROM fixed_assets
		WHERE purchase_date <= $2 AND (disposal_date IS NULL OR disposal_date >= $1)
		ORDER BY code
	`

	var assets []*domain.FixedAsset
	err := sqlx.SelectContext(ctx, r.db, &assets, query, from, to)
	return assets, err
}
