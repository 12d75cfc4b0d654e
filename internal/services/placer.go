package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"bid-coordinator/internal/domain"
	"bid-coordinator/pkg/utils"
)

// Probability bands of the simulated placer, as cumulative upper bounds.
const (
	instantPurchaseBand = 0.10
	timeExpiredBand     = 0.15
	outbidBand          = 0.20
)

// SimulatedPlacer draws a synthetic outcome for every bid: 10% the item is
// bought outright, 5% the clock runs out, 5% a rival outbids, 80% accepted.
type SimulatedPlacer struct {
	mu  sync.Mutex
	rnd domain.RandomSource
	now func() time.Time
}

func NewSimulatedPlacer(rnd domain.RandomSource) *SimulatedPlacer {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SimulatedPlacer{rnd: rnd, now: time.Now}
}

func (p *SimulatedPlacer) PlaceBid(ctx context.Context, data domain.BidData, bidder domain.Bidder) (*domain.BidResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.WrapBidError(domain.CodeTimeout, err, "bid placement cancelled")
	}

	p.mu.Lock()
	roll := p.rnd.Float64()
	p.mu.Unlock()

	switch {
	case roll < instantPurchaseBand:
		return &domain.BidResult{Outcome: domain.OutcomeInstantPurchase},
			domain.NewBidError(domain.CodeAuctionEnded, "auction %s ended by instant purchase", data.AuctionID)
	case roll < timeExpiredBand:
		return &domain.BidResult{Outcome: domain.OutcomeTimeExpired},
			domain.NewBidError(domain.CodeAuctionEnded, "auction %s time expired", data.AuctionID)
	case roll < outbidBand:
		return &domain.BidResult{Outcome: domain.OutcomeOutbid},
			domain.NewBidError(domain.CodeOutbid, "outbid on auction %s", data.AuctionID)
	}

	return &domain.BidResult{
		Success: true,
		Outcome: domain.OutcomeAccepted,
		Bid: &domain.Bid{
			ID:        utils.GenerateID("bid"),
			AuctionID: data.AuctionID,
			Amount:    data.Amount,
			UserID:    bidder.UserID,
			Timestamp: p.now(),
			IsWinning: true,
		},
	}, nil
}

// ManagerPlacer places bids through a BiddingManager.
type ManagerPlacer struct {
	manager *BiddingManager
}

func NewManagerPlacer(manager *BiddingManager) *ManagerPlacer {
	return &ManagerPlacer{manager: manager}
}

func (p *ManagerPlacer) PlaceBid(ctx context.Context, data domain.BidData, bidder domain.Bidder) (*domain.BidResult, error) {
	bid, err := p.manager.PlaceBid(ctx, data.AuctionID, data.Amount, bidder.UserID)
	if err != nil {
		return nil, err
	}
	return &domain.BidResult{Success: true, Outcome: domain.OutcomeAccepted, Bid: bid}, nil
}
