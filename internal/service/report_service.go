package service

import (
	"context"
	"sort"
	"time"

	"github.com/segyhp/amortization-engine/internal/depreciation"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/metrics"
	"github.com/segyhp/amortization-engine/internal/repository"
	"github.com/segyhp/amortization-engine/internal/tracing"
	"github.com/segyhp/amortization-engine/pkg/calendar"
	customError "github.com/segyhp/amortization-engine/pkg/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ReportService builds fiscal-year depreciation reports for fixed assets.
type ReportService struct {
	configs *CompanyConfigService
	assets  repository.AssetRepository
	logger  *zap.Logger
}

func NewReportService(configs *CompanyConfigService, assets repository.AssetRepository, logger *zap.Logger) *ReportService {
	return &ReportService{
		configs: configs,
		assets:  assets,
		logger:  logger,
	}
}

// GenerateReport computes depreciation of every asset held during fiscal year.
func (s *ReportService) GenerateReport(ctx context.Context, year int) (report *domain.DepreciationReport, err error) {
	ctx, span := tracing.Start(ctx, "ReportService.GenerateReport", attribute.Int("report.year", year))
	defer func() { tracing.End(span, err) }()

	if year <= 0 {
		return nil, customError.NewValidationError("year must be positive, got %d", year)
	}

	// 1. Resolve fiscal year bounds
	startMonth, err := s.configs.FiscalYearStartMonth(ctx)
	if err != nil {
		return nil, err
	}
	start, end, err := calendar.FiscalYearBounds(year, startMonth)
	if err != nil {
		return nil, customError.NewValidationError("%s", err.Error())
	}

	// 2. Load candidate assets
	assets, err := s.assets.ListForPeriod(ctx, start, end)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	// 3. Compute each asset
	items := make([]*domain.DepreciationReportItem, 0, len(assets))
	for _, asset := range assets {
		result, err := depreciation.Compute(asset, year, startMonth)
		if err != nil {
			return nil, err
		}
		if !result.Included {
			continue
		}
		items = append(items, reportItem(asset, result))
	}

	report = BuildReport(year, start, end, items)

	metrics.ReportsGenerated.Inc()
	s.logger.Info("depreciation report generated",
		zap.Int("year", year),
		zap.Int("assets", len(report.Items)),
		zap.String("total_depreciation", report.TotalDepreciationThisYear.StringFixed(2)),
	)

	return report, nil
}

// BuildReport orders items by asset code and sums the totals.
func BuildReport(year int, start, end time.Time, items []*domain.DepreciationReportItem) *domain.DepreciationReport {
	if items == nil {
		items = []*domain.DepreciationReportItem{}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].AssetCode < items[j].AssetCode })

	report := &domain.DepreciationReport{
		Year:                         year,
		FiscalStart:                  start,
		FiscalEnd:                    end,
		Items:                        items,
		TotalPurchaseCost:            decimal.Zero,
		TotalDepreciationThisYear:    decimal.Zero,
		TotalAccumulatedDepreciation: decimal.Zero,
		TotalBookValue:               decimal.Zero,
	}
	for _, item := range items {
		report.TotalPurchaseCost = report.TotalPurchaseCost.Add(item.PurchaseCost)
		report.TotalDepreciationThisYear = report.TotalDepreciationThisYear.Add(item.DepreciationThisYear)
		report.TotalAccumulatedDepreciation = report.TotalAccumulatedDepreciation.Add(item.AccumulatedDepreciation)
		report.TotalBookValue = report.TotalBookValue.Add(item.BookValue)
	}
	return report
}

func reportItem(asset *domain.FixedAsset, result depreciation.Result) *domain.DepreciationReportItem {
	return &domain.DepreciationReportItem{
		AssetCode:               asset.Code,
		AssetName:               asset.Name,
		CategoryName:            asset.CategoryName,
		PurchaseDate:            asset.PurchaseDate,
		PurchaseCost:            asset.PurchaseCost,
		SalvageValue:            asset.SalvageValue,
		UsefulLifeYears:         asset.UsefulLifeYears,
		DepreciationMethod:      asset.DepreciationMethod,
		MethodLabel:             asset.DepreciationMethod.Label(),
		DepreciationThisYear:    result.DepreciationThisYear,
		AccumulatedDepreciation: result.Accumulated,
		BookValue:               result.BookValue,
		Status:                  asset.Status,
	}
}
