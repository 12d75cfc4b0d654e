package domain

import (
	"time"
)

type Auction struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	SellerID      string        `json:"seller_id"`
	StartingPrice float64       `json:"starting_price"`
	EndTime       time.Time     `json:"end_time"`
	Status        AuctionStatus `json:"status"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// HasEnded reports whether bidding is closed at the given instant.
func (a *Auction) HasEnded(now time.Time) bool {
	if a.Status == AuctionEnded || a.Status == AuctionCancelled {
		return true
	}
	return !a.EndTime.IsZero() && !now.Before(a.EndTime)
}

type AuctionStatus int

const (
	AuctionPending AuctionStatus = iota
	AuctionActive
	AuctionEnded
	AuctionCancelled
)

func (s AuctionStatus) String() string {
	switch s {
	case AuctionPending:
		return "pending"
	case AuctionActive:
		return "active"
	case AuctionEnded:
		return "ended"
	case AuctionCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseAuctionStatus is the inverse of String.
func ParseAuctionStatus(name string) (AuctionStatus, bool) {
	for _, s := range []AuctionStatus{AuctionPending, AuctionActive, AuctionEnded, AuctionCancelled} {
		if s.String() == name {
			return s, true
		}
	}
	return AuctionPending, false
}

type Bid struct {
	ID        string    `json:"id"`
	AuctionID string    `json:"auction_id"`
	Amount    float64   `json:"amount"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	IsWinning bool      `json:"is_winning"`
}

// BidData is the payload of a bid attempt before it is accepted.
type BidData struct {
	AuctionID string  `json:"auction_id"`
	Amount    float64 `json:"amount"`
}

type Bidder struct {
	UserID string `json:"user_id"`
}

// AuctionLock marks an auction whose bid is currently being processed.
type AuctionLock struct {
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

type QueuedBid struct {
	BidData   BidData   `json:"bid_data"`
	Bidder    Bidder    `json:"bidder"`
	Timestamp time.Time `json:"timestamp"`
}

// ActiveAttempt marks a (auction, user) pair with a bid in flight.
type ActiveAttempt struct {
	ID        string
	AuctionID string
	UserID    string
	Amount    float64
	Timestamp time.Time
}

// BidResult is what the concurrent handler reports back for one attempt.
type BidResult struct {
	Success  bool       `json:"success"`
	Queued   bool       `json:"queued"`
	Position int        `json:"position,omitempty"`
	Bid      *Bid       `json:"bid,omitempty"`
	Outcome  BidOutcome `json:"outcome"`
}

type BidOutcome string

const (
	OutcomeAccepted        BidOutcome = "accepted"
	OutcomeQueued          BidOutcome = "queued"
	OutcomeInstantPurchase BidOutcome = "instant_purchase"
	OutcomeTimeExpired     BidOutcome = "time_expired"
	OutcomeOutbid          BidOutcome = "outbid"
)

type BidEvent struct {
	Type      BidEventType `json:"type"`
	AuctionID string       `json:"auction_id"`
	UserID    string       `json:"user_id,omitempty"`
	Amount    float64      `json:"amount,omitempty"`
	Bid       *Bid         `json:"bid,omitempty"`
	Reason    string       `json:"reason,omitempty"`
	Origin    string       `json:"origin,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

type BidEventType string

const (
	BidPlaced       BidEventType = "bid_placed"
	BidUpdate       BidEventType = "bid_update"
	BidQueued       BidEventType = "bid_queued"
	BidRejected     BidEventType = "bid_rejected"
	AuctionFinished BidEventType = "auction_ended"
	LockReleased    BidEventType = "lock_released"
)

// IncrementTier applies Increment to prices strictly below UpTo.
// A zero UpTo marks the open-ended top tier.
type IncrementTier struct {
	UpTo      float64 `json:"up_to"`
	Increment float64 `json:"increment"`
}

// CleanupStats counts what a stale-state sweep removed.
type CleanupStats struct {
	Attempts int
	Locks    int
	Queued   int
}
