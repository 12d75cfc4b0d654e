package domain

import (
	"context"
	"math/rand"
	"time"
)

//go:generate mockgen -destination=mocks/mock_interfaces.go -package=mocks bid-coordinator/internal/domain AuctionCatalog,BidArchive,BidLedger,BidPlacer

// Repository interfaces
type AuctionCatalog interface {
	CreateAuction(ctx context.Context, auction *Auction) error
	GetAuction(ctx context.Context, auctionID string) (*Auction, error)
	UpdateAuctionStatus(ctx context.Context, auctionID string, status AuctionStatus) error
	GetExpiredAuctions(ctx context.Context, before time.Time) ([]*Auction, error)
}

type BidArchive interface {
	SaveBid(ctx context.Context, bid *Bid) error
	GetBidHistory(ctx context.Context, auctionID string) ([]*Bid, error)
}

// Cache interfaces
// BidLedger holds each auction's leading bid where every instance sees it.
// AtomicBidUpdate succeeds only while the stored leader still equals expected.
type BidLedger interface {
	AtomicBidUpdate(ctx context.Context, auctionID, userID string, amount, expected float64) (bool, error)
	GetLeader(ctx context.Context, auctionID string) (float64, string, error)
	InitializeAuction(ctx context.Context, auctionID string, startingBid float64) error
}

type AuctionStateCache interface {
	SetAuctionStatus(ctx context.Context, auctionID string, status AuctionStatus) error
	GetAuctionStatus(ctx context.Context, auctionID string) (AuctionStatus, error)
}

// AuctionLocker is the per-auction lock table used while a bid is processed.
type AuctionLocker interface {
	Lock(ctx context.Context, auctionID, reason string) (bool, error)
	Unlock(ctx context.Context, auctionID string) error
	IsLocked(ctx context.Context, auctionID string) (bool, error)
	SweepOlderThan(cutoff time.Time) int
}

type IncrementRules interface {
	LoadRules(ctx context.Context) error
	Tiers() []IncrementTier
}

// BidPlacer performs the placement step once an auction lock is held.
type BidPlacer interface {
	PlaceBid(ctx context.Context, data BidData, bidder Bidder) (*BidResult, error)
}

// RandomSource is the subset of *rand.Rand the simulated placer needs.
type RandomSource interface {
	Float64() float64
}

var _ RandomSource = (*rand.Rand)(nil)

// Event interfaces
type EventPublisher interface {
	PublishBidEvent(ctx context.Context, event *BidEvent) error
}

type EventSubscriber interface {
	SubscribeToBidEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *BidEvent) error

// EventSink receives events produced outside the bidding manager.
type EventSink interface {
	Publish(event *BidEvent)
}

// Notification interfaces
type UserNotifier interface {
	NotifyUser(ctx context.Context, userID string, message interface{}) error
}

type AuctionBroadcaster interface {
	BroadcastToAuction(ctx context.Context, auctionID string, message interface{}) error
}

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	UserID() string
	AuctionID() string
}

type ConnectionManager interface {
	RegisterConnection(userID, auctionID string, conn WebSocketConnection) error
	UnregisterConnection(userID, auctionID string) error
	GetConnectionsForAuction(auctionID string) []WebSocketConnection
	GetConnectionsForUser(userID string) []WebSocketConnection
	BroadcastToAuction(auctionID string, message interface{}) error
	NotifyUser(userID string, message interface{}) error
	CloseAndUnregisterConnections(auctionID string) error
}
