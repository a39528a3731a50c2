package service

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/api/internal/repository"
	"storefront/api/internal/security"
)

type memoryHolders struct {
	holders map[string][]string
	pages   int
}

func (m *memoryHolders) ListTokenHolders(_ context.Context, afterID string, limit int) ([]repository.TokenHolder, error) {
	m.pages++
	keys := make([]string, 0, len(m.holders))
	for id, tokens := range m.holders {
		if id > afterID && len(tokens) > 0 {
			keys = append(keys, id)
		}
	}
	sort.Strings(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}

	out := make([]repository.TokenHolder, 0, len(keys))
	for _, id := range keys {
		out = append(out, repository.TokenHolder{ID: id, Tokens: append([]string{}, m.holders[id]...)})
	}
	return out, nil
}

func (m *memoryHolders) RemoveTokens(_ context.Context, id string, tokens []string) (int64, error) {
	drop := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		drop[t] = struct{}{}
	}
	var kept []string
	var removed int64
	for _, t := range m.holders[id] {
		if _, ok := drop[t]; ok {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	m.holders[id] = kept
	return removed, nil
}

func TestSweepRemovesOnlyDeadTokens(t *testing.T) {
	codec, err := security.NewTokenCodec("sweep-secret", security.DefaultTokenTTL)
	require.NoError(t, err)
	now := time.Now()

	live, err := codec.IssueAt("acct-a", now)
	require.NoError(t, err)
	inGrace, err := codec.IssueAt("acct-a", now.Add(-security.DefaultTokenTTL-24*time.Hour))
	require.NoError(t, err)
	dead, err := codec.IssueAt("acct-b", now.Add(-security.DefaultTokenTTL-40*24*time.Hour))
	require.NoError(t, err)

	store := &memoryHolders{holders: map[string][]string{
		"acct-a": {live, "garbage", inGrace},
		"acct-b": {dead},
	}}

	sweeper := NewSessionSweeper(store, codec, 30*24*time.Hour, nil, zerolog.Nop())
	removed, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{live, inGrace}, store.holders["acct-a"])
	assert.Empty(t, store.holders["acct-b"])
}

func TestSweepUnboundedGraceKeepsExpired(t *testing.T) {
	codec, err := security.NewTokenCodec("sweep-secret", time.Hour)
	require.NoError(t, err)
	old, err := codec.IssueAt("acct-a", time.Now().Add(-365*24*time.Hour))
	require.NoError(t, err)

	store := &memoryHolders{holders: map[string][]string{"acct-a": {old, "garbage"}}}
	removed, err := NewSessionSweeper(store, codec, 0, nil, zerolog.Nop()).Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, removed)
	assert.Equal(t, []string{old}, store.holders["acct-a"])
}

func TestSweepPages(t *testing.T) {
	codec, err := security.NewTokenCodec("sweep-secret", time.Hour)
	require.NoError(t, err)

	store := &memoryHolders{holders: map[string][]string{}}
	for i := 0; i < sweepBatchSize+5; i++ {
		store.holders[fmt.Sprintf("acct-%04d", i)] = []string{"garbage"}
	}

	removed, err := NewSessionSweeper(store, codec, time.Hour, nil, zerolog.Nop()).Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sweepBatchSize+5, removed)
	assert.Equal(t, 2, store.pages)
}
