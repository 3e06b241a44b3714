// Package depreciation computes yearly depreciation figures for fixed assets.
//
// Compute is pure: given an asset, a fiscal year and the company fiscal-year
// start month it walks the fiscal years from the one containing the purchase
// date up to the requested year, rounding each year's charge to 2 decimals,
// and stops early once nothing is left to depreciate.
package depreciation

import (
	"time"

	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/pkg/calendar"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/shopspring/decimal"
)

var twelve = decimal.NewFromInt(12)

// Result holds the figures of one asset for one fiscal year.
type Result struct {
	DepreciationThisYear decimal.Decimal
	Accumulated          decimal.Decimal
	BookValue            decimal.Decimal
	// Included is false when the asset does not belong on the year's report:
	// purchased after the fiscal year end or disposed before it started.
	Included bool
}

// Compute returns the depreciation of asset for fiscal year `year`.
func Compute(asset *domain.FixedAsset, year int, fiscalStartMonth int) (Result, error) {
	fyStart, fyEnd, err := calendar.FiscalYearBounds(year, fiscalStartMonth)
	if err != nil {
		return Result{}, customError.NewValidationError("%s", err.Error())
	}

	purchase := calendar.Normalize(asset.PurchaseDate)
	if purchase.After(fyEnd) || disposedBefore(asset, fyStart) {
		return Result{
			DepreciationThisYear: decimal.Zero,
			Accumulated:          decimal.Zero,
			BookValue:            asset.PurchaseCost,
		}, nil
	}

	base := asset.DepreciableBase()
	accumulated := decimal.Zero
	thisYear := decimal.Zero

	first := calendar.FiscalYearOf(purchase, fiscalStartMonth)
	for y := first; y <= year; y++ {
		ys, ye, _ := calendar.FiscalYearBounds(y, fiscalStartMonth)

		charge := yearCharge(asset, base, accumulated, monthsHeld(asset, purchase, ys, ye))
		accumulated = accumulated.Add(charge)
		if y == year {
			thisYear = charge
		}

		// A zero charge after the first year repeats in every later year.
		if !base.Sub(accumulated).IsPositive() || (y > first && charge.IsZero()) {
			break
		}
	}

	return Result{
		DepreciationThisYear: thisYear,
		Accumulated:          accumulated,
		BookValue:            asset.PurchaseCost.Sub(accumulated),
		Included:             true,
	}, nil
}

// yearCharge is the rounded charge for one fiscal year, capped at what is left to depreciate.
func yearCharge(asset *domain.FixedAsset, base, accumulated decimal.Decimal, months int) decimal.Decimal {
	remaining := base.Sub(accumulated)
	if asset.UsefulLifeYears <= 0 || months <= 0 || !remaining.IsPositive() {
		return decimal.Zero
	}

	life := decimal.NewFromInt(int64(asset.UsefulLifeYears))
	var annual decimal.Decimal
	switch asset.DepreciationMethod {
	case domain.DepreciationDecliningBalance:
		bookValue := asset.PurchaseCost.Sub(accumulated)
		annual = bookValue.Mul(decimal.NewFromInt(2)).Div(life)
	default:
		annual = base.Div(life)
	}

	charge := annual.Mul(decimal.NewFromInt(int64(months))).Div(twelve).Round(2)
	if charge.GreaterThan(remaining) {
		return remaining
	}
	return charge
}

// monthsHeld counts the months of fiscal year [ys, ye] the asset was in service.
func monthsHeld(asset *domain.FixedAsset, purchase, ys, ye time.Time) int {
	from, to := ys, ye
	if purchase.After(from) {
		from = purchase
	}
	if asset.DisposalDate != nil {
		disposal := calendar.Normalize(*asset.DisposalDate)
		if disposal.Before(from) {
			return 0
		}
		if disposal.Before(to) {
			to = disposal
		}
	}
	if from.After(to) {
		return 0
	}
	return calendar.MonthsInclusive(from, to)
}

// disposedBefore reports whether the asset left service before fyStart. A
// DISPOSED asset without a disposal date never appears on a report.
func disposedBefore(asset *domain.FixedAsset, fyStart time.Time) bool {
	if asset.DisposalDate != nil {
		return calendar.Normalize(*asset.DisposalDate).Before(fyStart)
	}
	return asset.Status == domain.AssetStatusDisposed
}
