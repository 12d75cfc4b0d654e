package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bid-coordinator/internal/domain"
	"bid-coordinator/internal/infrastructure/memory"
	"bid-coordinator/pkg/logger"
)

var nopLog = logger.NewNop()

func newTestCatalog(t *testing.T, auctions ...*domain.Auction) *memory.Catalog {
	t.Helper()
	catalog := memory.NewCatalog()
	for _, a := range auctions {
		require.NoError(t, catalog.CreateAuction(context.Background(), a))
	}
	return catalog
}

func activeAuction(id string, startingPrice float64) *domain.Auction {
	return &domain.Auction{
		ID:            id,
		Title:         "Victorian writing desk",
		SellerID:      "seller",
		StartingPrice: startingPrice,
		EndTime:       time.Now().Add(time.Hour),
		Status:        domain.AuctionActive,
	}
}

// eventRecorder collects published events.
type eventRecorder struct {
	mu     sync.Mutex
	events []domain.BidEvent
}

func (r *eventRecorder) Publish(event *domain.BidEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
}

func (r *eventRecorder) record(event domain.BidEvent) {
	r.Publish(&event)
}

func (r *eventRecorder) ofType(typ domain.BidEventType) []domain.BidEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.BidEvent
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

type placerFunc func(ctx context.Context, data domain.BidData, bidder domain.Bidder) (*domain.BidResult, error)

func (f placerFunc) PlaceBid(ctx context.Context, data domain.BidData, bidder domain.Bidder) (*domain.BidResult, error) {
	return f(ctx, data, bidder)
}

// blockingPlacer accepts every bid but holds each call until released.
type blockingPlacer struct {
	entered chan domain.BidData
	release chan struct{}
}

func newBlockingPlacer() *blockingPlacer {
	return &blockingPlacer{
		entered: make(chan domain.BidData, 16),
		release: make(chan struct{}),
	}
}

func (p *blockingPlacer) PlaceBid(ctx context.Context, data domain.BidData, bidder domain.Bidder) (*domain.BidResult, error) {
	p.entered <- data
	select {
	case <-p.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &domain.BidResult{
		Success: true,
		Outcome: domain.OutcomeAccepted,
		Bid:     &domain.Bid{AuctionID: data.AuctionID, UserID: bidder.UserID, Amount: data.Amount, IsWinning: true},
	}, nil
}

type fixedRandom []float64

func (f *fixedRandom) Float64() float64 {
	v := (*f)[0]
	*f = (*f)[1:]
	return v
}
