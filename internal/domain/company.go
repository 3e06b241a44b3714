package domain

import (
	"time"

	customError "github.com/segyhp/amortization-engine/pkg/errors"
)

const (
	DefaultFiscalYearStartMonth = 1
	DefaultCurrencyCode         = "IDR"
	DefaultCompanyName          = "Default Company"
)

// CompanyConfig holds the settings that shape period boundaries
type CompanyConfig struct {
	ID                   int64     `json:"id" db:"id"`
	CompanyName          string    `json:"company_name" db:"company_name"`
	FiscalYearStartMonth int       `json:"fiscal_year_start_month" db:"fiscal_year_start_month"`
	CurrencyCode         string    `json:"currency_code" db:"currency_code"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// NewDefaultCompanyConfig is the record created when none exists yet.
func NewDefaultCompanyConfig(now time.Time) *CompanyConfig {
	return &CompanyConfig{
		CompanyName:          DefaultCompanyName,
		FiscalYearStartMonth: DefaultFiscalYearStartMonth,
		CurrencyCode:         DefaultCurrencyCode,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func (c *CompanyConfig) Validate() error {
	if c.FiscalYearStartMonth < 1 || c.FiscalYearStartMonth > 12 {
		return customError.NewValidationError("fiscal year start month must be between 1 and 12, got %d", c.FiscalYearStartMonth)
	}
	if len(c.CurrencyCode) != 3 {
		return customError.NewValidationError("currency code must have 3 letters, got %q", c.CurrencyCode)
	}
	for _, r := range c.CurrencyCode {
		if r < 'A' || r > 'Z' {
			return customError.NewValidationError("currency code must be upper case letters, got %q", c.CurrencyCode)
		}
	}
	return nil
}

type UpdateCompanyConfigRequest struct {
	CompanyName          string `json:"company_name" validate:"required,max=255"`
	FiscalYearStartMonth int    `json:"fiscal_year_start_month" validate:"min=1,max=12"`
	CurrencyCode         string `json:"currency_code" validate:"required,len=3"`
}
