package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/repair-match-api/internal/repository"
)

const candidateKeyPrefix = "candidates:"

type cachedCandidates struct {
	Rows       []repository.CandidateRow `json:"rows"`
	Registered int                       `json:"registered"`
}

// CandidateCache caches per-category candidate rows in Redis with a short
// TTL. Availability toggles invalidate the affected categories; staleness
// between toggle and expiry is harmless because the conditional assignment
// write is the correctness guard, not the read.
type CandidateCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCandidateCache creates a candidate cache backed by the given client
func NewCandidateCache(client *redis.Client, ttl time.Duration) *CandidateCache {
	return &CandidateCache{
		client: client,
		ttl:    ttl,
	}
}

// Get returns the cached candidate rows for a category, if present
func (c *CandidateCache) Get(ctx context.Context, categoryID string) ([]repository.CandidateRow, int, bool) {
	if c == nil || c.client == nil {
		return nil, 0, false
	}

	data, err := c.client.Get(ctx, candidateKeyPrefix+categoryID).Bytes()
	if err != nil {
		return nil, 0, false
	}

	var cached cachedCandidates
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, 0, false
	}

	return cached.Rows, cached.Registered, true
}

// Set stores the candidate rows for a category
func (c *CandidateCache) Set(ctx context.Context, categoryID string, rows []repository.CandidateRow, registered int) {
	if c == nil || c.client == nil {
		return
	}

	data, err := json.Marshal(cachedCandidates{Rows: rows, Registered: registered})
	if err != nil {
		return
	}

	c.client.Set(ctx, candidateKeyPrefix+categoryID, data, c.ttl)
}

// Invalidate drops the cached rows for the given categories
func (c *CandidateCache) Invalidate(ctx context.Context, categoryIDs ...string) {
	if c == nil || c.client == nil || len(categoryIDs) == 0 {
		return
	}

	keys := make([]string, 0, len(categoryIDs))
	for _, id := range categoryIDs {
		keys = append(keys, candidateKeyPrefix+id)
	}

	c.client.Del(ctx, keys...)
}
