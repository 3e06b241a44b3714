package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DepreciationReportItem is one asset's line on the yearly report.
type DepreciationReportItem struct {
	AssetCode               string             `json:"asset_code"`
	AssetName               string             `json:"asset_name"`
	CategoryName            string             `json:"category_name"`
	PurchaseDate            time.Time          `json:"purchase_date"`
	PurchaseCost            decimal.Decimal    `json:"purchase_cost"`
	SalvageValue            decimal.Decimal    `json:"salvage_value"`
	UsefulLifeYears         int                `json:"useful_life_years"`
	DepreciationMethod      DepreciationMethod `json:"depreciation_method"`
	MethodLabel             string             `json:"method_label"`
	DepreciationThisYear    decimal.Decimal    `json:"depreciation_this_year"`
	AccumulatedDepreciation decimal.Decimal    `json:"accumulated_depreciation"`
	BookValue               decimal.Decimal    `json:"book_value"`
	Status                  AssetStatus        `json:"status"`
}

// DepreciationReport aggregates depreciation for one fiscal year. Totals are sums of the items.
type DepreciationReport struct {
	Year                         int                       `json:"year"`
	FiscalStart                  time.Time                 `json:"fiscal_start"`
	FiscalEnd                    time.Time                 `json:"fiscal_end"`
	Items                        []*DepreciationReportItem `json:"items"`
	TotalPurchaseCost            decimal.Decimal           `json:"total_purchase_cost"`
	TotalDepreciationThisYear    decimal.Decimal           `json:"total_depreciation_this_year"`
	TotalAccumulatedDepreciation decimal.Decimal           `json:"total_accumulated_depreciation"`
	TotalBookValue               decimal.Decimal           `json:"total_book_value"`
}
