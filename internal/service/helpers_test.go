package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/ledger"
	"github.com/segyhp/amortization-engine/internal/repository/memory"
	"github.com/segyhp/amortization-engine/pkg/calendar"
	"github.com/segyhp/amortization-engine/pkg/validation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errLedgerDown = errors.New("ledger unavailable")

// fakePoster hands out sequential journal references. References listed in
// fail are rejected.
type fakePoster struct {
	mu       sync.Mutex
	requests []ledger.PostingRequest
	fail     map[string]bool
	failAll  bool
}

func (p *fakePoster) Post(_ context.Context, req ledger.PostingRequest) (*ledger.PostingResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failAll || p.fail[req.Reference] {
		return nil, errLedgerDown
	}
	p.requests = append(p.requests, req)
	return &ledger.PostingResult{JournalReference: "JV-" + strconv.Itoa(len(p.requests))}, nil
}

func (p *fakePoster) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

type fixture struct {
	store     *memory.Store
	poster    *fakePoster
	engine    *ScheduleEngine
	schedules *ScheduleService
	entries   *EntryService
	configs   *CompanyConfigService
	reports   *ReportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	logger := zap.NewNop()
	engine := NewScheduleEngine(store, logger)
	engine.Now = func() time.Time { return time.Date(2025, time.January, 1, 9, 0, 0, 0, time.UTC) }
	poster := &fakePoster{fail: make(map[string]bool)}
	validate := validation.New()
	configs := NewCompanyConfigService(store, validate, logger)

	return &fixture{
		store:     store,
		poster:    poster,
		engine:    engine,
		schedules: NewScheduleService(store, engine, validate, logger),
		entries:   NewEntryService(store, engine, poster, logger),
		configs:   configs,
		reports:   NewReportService(configs, store.Repositories().Assets, logger),
	}
}

func createRequest(code string) domain.CreateScheduleRequest {
	return domain.CreateScheduleRequest{
		Code:          code,
		Name:          "Sewa Kantor",
		ScheduleType:  domain.ScheduleTypePrepaidExpense,
		SourceAccount: "1-1400",
		TargetAccount: "6-1100",
		TotalAmount:   decimal.NewFromInt(1200000),
		StartDate:     calendar.Date(2025, time.January, 1),
		Frequency:     domain.FrequencyMonthly,
		TotalPeriods:  12,
	}
}

func (f *fixture) create(t *testing.T, req domain.CreateScheduleRequest) *domain.ScheduleResponse {
	t.Helper()
	resp, err := f.schedules.Create(context.Background(), req)
	require.NoError(t, err)
	return resp
}
