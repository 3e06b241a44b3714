package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPPoster sends postings as JSON to a ledger service endpoint.
type HTTPPoster struct {
	url    string
	client *http.Client
}

func NewHTTPPoster(url string, timeout time.Duration) *HTTPPoster {
	return &HTTPPoster{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *HTTPPoster) Post(ctx context.Context, req PostingRequest) (*PostingResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode posting: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build ledger request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.EntryID.String())

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ledger request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("ledger rejected posting %s: status %d: %s", req.Reference, resp.StatusCode, bytes.TrimSpace(msg))
	}

	var result PostingResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode ledger response: %w", err)
	}
	if result.JournalReference == "" {
		return nil, errors.New("ledger response has no journal reference")
	}
	return &result, nil
}
