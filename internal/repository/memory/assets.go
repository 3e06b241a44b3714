package memory

import (
	"context"
	"sort"
	"time"

	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/pkg/calendar"
)

type assetRepo struct {
	store *Store
}

func (r *assetRepo) ListForPeriod(_ context.Context, from, to time.Time) ([]*domain.FixedAsset, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*domain.FixedAsset, 0)
	for _, asset := range r.store.assets {
		asset := asset
		if calendar.Normalize(asset.PurchaseDate).After(calendar.Normalize(to)) {
			continue
		}
		if asset.DisposalDate != nil && calendar.Normalize(*asset.DisposalDate).Before(calendar.Normalize(from)) {
			continue
		}
		result = append(result, &asset)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, nil
}
