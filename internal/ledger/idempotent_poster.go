package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrPostingInProgress is returned while another worker holds the claim for the same entry.
var ErrPostingInProgress = errors.New("posting already in progress for entry")

const (
	inFlight        = "in-flight"
	reserveAttempts = 2
)

// IdempotencyStore claims posting keys so an entry reaches the ledger at most once.
type IdempotencyStore interface {
	// Reserve claims key. When the key is already taken it returns false and the stored value.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, string, error)
	// Complete replaces the claim with the journal reference.
	Complete(ctx context.Context, key, value string, ttl time.Duration) error
	// Release drops the claim after a failed posting so it can be retried.
	Release(ctx context.Context, key string) error
}

// IdempotentPoster guards a Poster with an idempotency claim keyed by entry id.
// A repeated posting of an already posted entry returns the stored journal
// reference without calling the ledger again.
type IdempotentPoster struct {
	next   Poster
	store  IdempotencyStore
	ttl    time.Duration
	logger *zap.Logger
}

func NewIdempotentPoster(next Poster, store IdempotencyStore, ttl time.Duration, logger *zap.Logger) *IdempotentPoster {
	return &IdempotentPoster{next: next, store: store, ttl: ttl, logger: logger}
}

func (p *IdempotentPoster) Post(ctx context.Context, req PostingRequest) (*PostingResult, error) {
	key := req.EntryID.String()

	claimed, stored, err := p.store.Reserve(ctx, key, p.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to claim posting: %w", err)
	}
	if !claimed {
		if stored == inFlight {
			return nil, ErrPostingInProgress
		}
		p.logger.Info("replaying earlier posting",
			zap.String("entry_id", key),
			zap.String("journal_reference", stored),
		)
		return &PostingResult{JournalReference: stored, Replayed: true}, nil
	}

	result, err := p.next.Post(ctx, req)
	if err != nil {
		if relErr := p.store.Release(ctx, key); relErr != nil {
			p.logger.Warn("failed to release posting claim", zap.String("entry_id", key), zap.Error(relErr))
		}
		return nil, err
	}

	if err := p.store.Complete(ctx, key, result.JournalReference, p.ttl); err != nil {
		p.logger.Warn("failed to record posting", zap.String("entry_id", key), zap.Error(err))
	}
	return result, nil
}

// RedisIdempotencyStore implements IdempotencyStore with SETNX.
type RedisIdempotencyStore struct {
	client    redis.Cmdable
	keyPrefix string
}

func NewRedisIdempotencyStore(client redis.Cmdable, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = "amortization:posting:"
	}
	return &RedisIdempotencyStore{client: client, keyPrefix: keyPrefix}
}

func (s *RedisIdempotencyStore) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, string, error) {
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		ok, err := s.client.SetNX(ctx, s.keyPrefix+key, inFlight, ttl).Result()
		if err != nil {
			return false, "", err
		}
		if ok {
			return true, inFlight, nil
		}

		value, err := s.client.Get(ctx, s.keyPrefix+key).Result()
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET
			continue
		}
		if err != nil {
			return false, "", err
		}
		return false, value, nil
	}
	return false, "", fmt.Errorf("claim for %s expired %d times while reading it", key, reserveAttempts)
}

func (s *RedisIdempotencyStore) Complete(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.client.Set(ctx, s.keyPrefix+key, value, ttl).Err()
}

func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.keyPrefix+key).Err()
}
