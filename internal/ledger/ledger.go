// Package ledger holds the collaborator that records journal postings for
// amortization entries. This service never does double-entry bookkeeping
// itself; it hands one balanced debit/credit pair to a Poster.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostingRequest is one journal posting for one amortization entry.
type PostingRequest struct {
	EntryID       uuid.UUID       `json:"entry_id"`
	ScheduleCode  string          `json:"schedule_code"`
	Reference     string          `json:"reference"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	DebitAccount  string          `json:"debit_account"`
	CreditAccount string          `json:"credit_account"`
}

// PostingResult is what the ledger returns for an accepted posting.
type PostingResult struct {
	JournalReference string `json:"journal_reference"`
	// Replayed is true when the result was served from an earlier posting
	// of the same entry instead of a new ledger call.
	Replayed bool `json:"-"`
}

// Poster records postings in the general ledger.
type Poster interface {
	Post(ctx context.Context, req PostingRequest) (*PostingResult, error)
}
