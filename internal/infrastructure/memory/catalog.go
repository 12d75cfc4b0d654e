package memory

import (
	"context"
	"sync"
	"time"

	"bid-coordinator/internal/domain"
)

// Catalog is a process-local auction store.
type Catalog struct {
	mu       sync.RWMutex
	auctions map[string]*domain.Auction
}

func NewCatalog() *Catalog {
	return &Catalog{auctions: make(map[string]*domain.Auction)}
}

func (c *Catalog) CreateAuction(ctx context.Context, auction *domain.Auction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.auctions[auction.ID]; exists {
		return domain.NewBidError(domain.CodeAuctionExists, "auction %s already exists", auction.ID)
	}
	stored := *auction
	c.auctions[auction.ID] = &stored
	return nil
}

func (c *Catalog) GetAuction(ctx context.Context, auctionID string) (*domain.Auction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	auction, ok := c.auctions[auctionID]
	if !ok {
		return nil, domain.NewBidError(domain.CodeAuctionNotFound, "auction %s not found", auctionID)
	}
	out := *auction
	return &out, nil
}

func (c *Catalog) UpdateAuctionStatus(ctx context.Context, auctionID string, status domain.AuctionStatus) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	auction, ok := c.auctions[auctionID]
	if !ok {
		return domain.NewBidError(domain.CodeAuctionNotFound, "auction %s not found", auctionID)
	}
	auction.Status = status
	auction.UpdatedAt = time.Now()
	return nil
}

// GetExpiredAuctions lists auctions still open whose end time is at or before the cutoff.
func (c *Catalog) GetExpiredAuctions(ctx context.Context, before time.Time) ([]*domain.Auction, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []*domain.Auction
	for _, a := range c.auctions {
		if a.Status != domain.AuctionPending && a.Status != domain.AuctionActive {
			continue
		}
		if !a.EndTime.IsZero() && !a.EndTime.After(before) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}
