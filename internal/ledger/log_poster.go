package ledger

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"
)

// LogPoster accepts every posting and only logs it. It numbers journals with
// snowflake ids so references stay unique across restarts.
type LogPoster struct {
	node   *snowflake.Node
	logger *zap.Logger
}

func NewLogPoster(nodeID int64, logger *zap.Logger) (*LogPoster, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create journal id generator: %w", err)
	}
	return &LogPoster{node: node, logger: logger}, nil
}

func (p *LogPoster) Post(_ context.Context, req PostingRequest) (*PostingResult, error) {
	ref := "JV-" + p.node.Generate().String()

	p.logger.Info("journal posted",
		zap.String("journal_reference", ref),
		zap.String("reference", req.Reference),
		zap.String("entry_id", req.EntryID.String()),
		zap.String("debit", req.DebitAccount),
		zap.String("credit", req.CreditAccount),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.Time("date", req.Date),
	)

	return &PostingResult{JournalReference: ref}, nil
}
