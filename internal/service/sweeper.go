package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"storefront/api/internal/metrics"
	"storefront/api/internal/repository"
	"storefront/api/internal/security"
)

const sweepBatchSize = 200

type TokenHolderStore interface {
	ListTokenHolders(ctx context.Context, afterID string, limit int) ([]repository.TokenHolder, error)
	RemoveTokens(ctx context.Context, id string, tokens []string) (int64, error)
}

type TokenDecoder interface {
	Decode(token string) (security.Credential, error)
}

// SessionSweeper drops tokens that can no longer authenticate anywhere: undecodable ones
// and ones expired for longer than the grace window.
type SessionSweeper struct {
	store       TokenHolderStore
	tokens      TokenDecoder
	graceWindow time.Duration
	metrics     *metrics.Metrics
	log         zerolog.Logger
	now         func() time.Time
}

func NewSessionSweeper(store TokenHolderStore, tokens TokenDecoder, graceWindow time.Duration, m *metrics.Metrics, log zerolog.Logger) *SessionSweeper {
	return &SessionSweeper{
		store:       store,
		tokens:      tokens,
		graceWindow: graceWindow,
		metrics:     m,
		log:         log,
		now:         time.Now,
	}
}

// Sweep walks every account holding tokens and returns how many tokens were removed.
func (s *SessionSweeper) Sweep(ctx context.Context) (int, error) {
	removed := 0
	after := ""
	now := s.now()

	for {
		holders, err := s.store.ListTokenHolders(ctx, after, sweepBatchSize)
		if err != nil {
			return removed, err
		}

		for _, h := range holders {
			stale := s.staleTokens(h.Tokens, now)
			if len(stale) == 0 {
				continue
			}
			if _, err := s.store.RemoveTokens(ctx, h.ID, stale); err != nil {
				return removed, err
			}
			removed += len(stale)
		}

		if len(holders) < sweepBatchSize {
			break
		}
		after = holders[len(holders)-1].ID
	}

	s.metrics.Swept(removed)
	s.log.Info().Int("removed", removed).Msg("session sweep finished")
	return removed, nil
}

func (s *SessionSweeper) staleTokens(tokens []string, now time.Time) []string {
	var stale []string
	for _, token := range tokens {
		cred, err := s.tokens.Decode(token)
		if err != nil {
			stale = append(stale, token)
			continue
		}
		if s.graceWindow > 0 && cred.Expired(now) && now.Sub(cred.ExpiresAt) > s.graceWindow {
			stale = append(stale, token)
		}
	}
	return stale
}
