// Package mocks holds testify mocks of the interfaces handlers depend on.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/amortization-engine/internal/domain"
	"github.com/segyhp/amortization-engine/internal/service"
	"github.com/stretchr/testify/mock"
)

type MockScheduleManager struct {
	mock.Mock
}

func (m *MockScheduleManager) Create(ctx context.Context, req domain.CreateScheduleRequest) (*domain.ScheduleResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduleResponse), args.Error(1)
}

func (m *MockScheduleManager) FindByID(ctx context.Context, id uuid.UUID) (*domain.AmortizationSchedule, error) {
	args := m.Called(ctx, id)
	return schedule(args)
}

func (m *MockScheduleManager) FindByCode(ctx context.Context, code string) (*domain.AmortizationSchedule, error) {
	args := m.Called(ctx, code)
	return schedule(args)
}

func (m *MockScheduleManager) FindByFilters(ctx context.Context, filter domain.ScheduleFilter, page domain.PageRequest) (domain.Page[*domain.AmortizationSchedule], error) {
	args := m.Called(ctx, filter, page)
	return args.Get(0).(domain.Page[*domain.AmortizationSchedule]), args.Error(1)
}

func (m *MockScheduleManager) FindActiveSchedulesForDate(ctx context.Context, date time.Time) ([]*domain.AmortizationSchedule, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AmortizationSchedule), args.Error(1)
}

func (m *MockScheduleManager) Update(ctx context.Context, id uuid.UUID, req domain.UpdateScheduleRequest) (*domain.AmortizationSchedule, error) {
	args := m.Called(ctx, id, req)
	return schedule(args)
}

func (m *MockScheduleManager) Cancel(ctx context.Context, id uuid.UUID) (*domain.AmortizationSchedule, error) {
	args := m.Called(ctx, id)
	return schedule(args)
}

func (m *MockScheduleManager) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockScheduleManager) Progress(ctx context.Context, id uuid.UUID) (*service.Progress, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Progress), args.Error(1)
}

func schedule(args mock.Arguments) (*domain.AmortizationSchedule, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AmortizationSchedule), args.Error(1)
}

type MockEntryManager struct {
	mock.Mock
}

func (m *MockEntryManager) FindByID(ctx context.Context, id uuid.UUID) (*domain.AmortizationEntry, error) {
	args := m.Called(ctx, id)
	return entry(args)
}

func (m *MockEntryManager) FindByScheduleID(ctx context.Context, scheduleID uuid.UUID) ([]*domain.AmortizationEntry, error) {
	args := m.Called(ctx, scheduleID)
	return entries(args)
}

func (m *MockEntryManager) FindPendingEntriesDueByDate(ctx context.Context, asOf time.Time) ([]*domain.AmortizationEntry, error) {
	args := m.Called(ctx, asOf)
	return entries(args)
}

func (m *MockEntryManager) FindPendingAutoPostEntriesDueByDate(ctx context.Context, asOf time.Time) ([]*domain.AmortizationEntry, error) {
	args := m.Called(ctx, asOf)
	return entries(args)
}

func (m *MockEntryManager) PostEntry(ctx context.Context, id uuid.UUID) (*domain.AmortizationEntry, error) {
	args := m.Called(ctx, id)
	return entry(args)
}

func (m *MockEntryManager) PostAllPending(ctx context.Context, scheduleID uuid.UUID) (*domain.BatchPostResult, error) {
	args := m.Called(ctx, scheduleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BatchPostResult), args.Error(1)
}

func (m *MockEntryManager) SkipEntry(ctx context.Context, id uuid.UUID) (*domain.AmortizationEntry, error) {
	args := m.Called(ctx, id)
	return entry(args)
}

func entry(args mock.Arguments) (*domain.AmortizationEntry, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AmortizationEntry), args.Error(1)
}

func entries(args mock.Arguments) ([]*domain.AmortizationEntry, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AmortizationEntry), args.Error(1)
}

type MockReportGenerator struct {
	mock.Mock
}

func (m *MockReportGenerator) GenerateReport(ctx context.Context, year int) (*domain.DepreciationReport, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DepreciationReport), args.Error(1)
}

type MockConfigManager struct {
	mock.Mock
}

func (m *MockConfigManager) GetConfig(ctx context.Context) (*domain.CompanyConfig, error) {
	args := m.Called(ctx)
	return config(args)
}

func (m *MockConfigManager) Update(ctx context.Context, id int64, req domain.UpdateCompanyConfigRequest) (*domain.CompanyConfig, error) {
	args := m.Called(ctx, id, req)
	return config(args)
}

func config(args mock.Arguments) (*domain.CompanyConfig, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CompanyConfig), args.Error(1)
}
