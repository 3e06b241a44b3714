package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DepreciationMethod selects how a fixed asset loses book value each year.
type DepreciationMethod string

const (
	DepreciationStraightLine     DepreciationMethod = "STRAIGHT_LINE"
	DepreciationDecliningBalance DepreciationMethod = "DECLINING_BALANCE"
)

// Label returns the name printed on depreciation reports.
func (m DepreciationMethod) Label() string {
	switch m {
	case DepreciationStraightLine:
		return "Garis Lurus"
	case DepreciationDecliningBalance:
		return "Saldo Menurun"
	default:
		return string(m)
	}
}

type AssetStatus string

const (
	AssetStatusActive   AssetStatus = "ACTIVE"
	AssetStatusDisposed AssetStatus = "DISPOSED"
)

// FixedAsset is read by the depreciation report. It is maintained elsewhere.
type FixedAsset struct {
	ID                 uuid.UUID          `json:"id" db:"id"`
	Code               string             `json:"code" db:"code"`
	Name               string             `json:"name" db:"name"`
	CategoryName       string             `json:"category_name" db:"category_name"`
	PurchaseDate       time.Time          `json:"purchase_date" db:"purchase_date"`
	PurchaseCost       decimal.Decimal    `json:"purchase_cost" db:"purchase_cost"`
	SalvageValue       decimal.Decimal    `json:"salvage_value" db:"salvage_value"`
	UsefulLifeYears    int                `json:"useful_life_years" db:"useful_life_years"`
	DepreciationMethod DepreciationMethod `json:"depreciation_method" db:"depreciation_method"`
	Status             AssetStatus        `json:"status" db:"status"`
	DisposalDate       *time.Time         `json:"disposal_date,omitempty" db:"disposal_date"`
}

// DepreciableBase is purchase cost minus salvage value, never negative.
func (a *FixedAsset) DepreciableBase() decimal.Decimal {
	base := a.PurchaseCost.Sub(a.SalvageValue)
	if base.IsNegative() {
		return decimal.Zero
	}
	return base
}

// IsDisposed reports whether the asset left service.
func (a *FixedAsset) IsDisposed() bool {
	return a.Status == AssetStatusDisposed || a.DisposalDate != nil
}
