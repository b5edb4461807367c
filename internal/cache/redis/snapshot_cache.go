package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/calebwray/hedgebot/internal/domain"
)

const (
	depthKeyPrefix = "depth:"
	portfolioKey   = "portfolio:latest"
	snapshotTTL    = 15 * time.Minute
)

// SnapshotCache stores the latest book depth per market and the latest
// portfolio view as JSON values. Entries expire so a stalled writer does not
// leave the dashboard serving hours-old books.
type SnapshotCache struct {
	rdb *redis.Client
}

var _ domain.SnapshotCache = (*SnapshotCache)(nil)

// NewSnapshotCache creates a snapshot cache backed by the given client.
func NewSnapshotCache(client *Client) *SnapshotCache {
	return &SnapshotCache{rdb: client.rdb}
}

// SetDepth stores the latest book depth for a market.
func (s *SnapshotCache) SetDepth(ctx context.Context, marketID string, depth domain.BookDepth) error {
	data, err := json.Marshal(depth)
	if err != nil {
		return fmt.Errorf("redis: marshal depth: %w", err)
	}
	if err := s.rdb.Set(ctx, depthKeyPrefix+marketID, data, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("redis: set depth %s: %w", marketID, err)
	}
	return nil
}

// GetDepth returns the latest stored book depth for a market. It returns
// domain.ErrNotFound when no snapshot exists.
func (s *SnapshotCache) GetDepth(ctx context.Context, marketID string) (domain.BookDepth, error) {
	data, err := s.rdb.Get(ctx, depthKeyPrefix+marketID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.BookDepth{}, fmt.Errorf("redis: depth %s: %w", marketID, domain.ErrNotFound)
		}
		return domain.BookDepth{}, fmt.Errorf("redis: get depth %s: %w", marketID, err)
	}

	var depth domain.BookDepth
	if err := json.Unmarshal(data, &depth); err != nil {
		return domain.BookDepth{}, fmt.Errorf("redis: unmarshal depth %s: %w", marketID, err)
	}
	return depth, nil
}

// SetPortfolio stores the latest portfolio view.
func (s *SnapshotCache) SetPortfolio(ctx context.Context, view domain.PortfolioView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("redis: marshal portfolio: %w", err)
	}
	if err := s.rdb.Set(ctx, portfolioKey, data, snapshotTTL).Err(); err != nil {
		return fmt.Errorf("redis: set portfolio: %w", err)
	}
	return nil
}

// GetPortfolio returns the latest stored portfolio view. It returns
// domain.ErrNotFound when none has been written yet.
func (s *SnapshotCache) GetPortfolio(ctx context.Context) (domain.PortfolioView, error) {
	data, err := s.rdb.Get(ctx, portfolioKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PortfolioView{}, fmt.Errorf("redis: portfolio: %w", domain.ErrNotFound)
		}
		return domain.PortfolioView{}, fmt.Errorf("redis: get portfolio: %w", err)
	}

	var view domain.PortfolioView
	if err := json.Unmarshal(data, &view); err != nil {
		return domain.PortfolioView{}, fmt.Errorf("redis: unmarshal portfolio: %w", err)
	}
	return view, nil
}
