package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bid-coordinator/internal/domain"
	"bid-coordinator/pkg/logger"
	"bid-coordinator/pkg/utils"
)

// DefaultMaxBid is the ceiling above which bids are refused.
const DefaultMaxBid = 1000000.0

type subscriber struct {
	id int
	fn func(event domain.BidEvent)
}

// BiddingManager validates bids, keeps per-auction history and the
// current leader, and fans out events to subscribers.
type BiddingManager struct {
	catalog    domain.AuctionCatalog
	archive    domain.BidArchive
	ledger     domain.BidLedger
	stateCache domain.AuctionStateCache
	schedule   *IncrementSchedule
	maxBid     float64
	latency    time.Duration
	now        func() time.Time
	log        logger.Logger

	mu         sync.RWMutex
	history    map[string][]*domain.Bid
	activeBids map[string]*domain.Bid

	subMu       sync.RWMutex
	subscribers []subscriber
	nextSubID   int
}

func NewBiddingManager(catalog domain.AuctionCatalog, maxBid float64, latency time.Duration, log logger.Logger) *BiddingManager {
	if maxBid <= 0 {
		maxBid = DefaultMaxBid
	}
	return &BiddingManager{
		catalog:    catalog,
		schedule:   defaultSchedule,
		maxBid:     maxBid,
		latency:    latency,
		now:        time.Now,
		log:        log,
		history:    make(map[string][]*domain.Bid),
		activeBids: make(map[string]*domain.Bid),
	}
}

func (m *BiddingManager) SetArchive(archive domain.BidArchive) {
	m.archive = archive
}

func (m *BiddingManager) SetLedger(ledger domain.BidLedger) {
	m.ledger = ledger
}

func (m *BiddingManager) SetStateCache(stateCache domain.AuctionStateCache) {
	m.stateCache = stateCache
}

func (m *BiddingManager) SetIncrementRules(rules domain.IncrementRules) {
	m.schedule = NewIncrementSchedule(rules.Tiers())
}

func (m *BiddingManager) SetClock(now func() time.Time) {
	m.now = now
}

func (m *BiddingManager) CalculateMinIncrement(currentPrice float64) float64 {
	return m.schedule.MinIncrement(currentPrice)
}

// PlaceBid validates and records a bid, making it the auction's winning bid.
func (m *BiddingManager) PlaceBid(ctx context.Context, auctionID string, amount float64, userID string) (*domain.Bid, error) {
	m.log.Info("Placing bid", "auction_id", auctionID, "user_id", userID, "amount", amount)

	if err := m.ValidateBid(ctx, auctionID, amount, userID); err != nil {
		m.log.Info("Bid rejected", "auction_id", auctionID, "user_id", userID, "code", domain.CodeOf(err))
		return nil, err
	}

	if err := m.wait(ctx); err != nil {
		return nil, err
	}

	bid, err := m.commit(ctx, auctionID, amount, userID)
	if err != nil {
		return nil, err
	}

	if m.archive != nil {
		if err := m.archive.SaveBid(ctx, bid); err != nil {
			m.log.Warn("Failed to archive bid", "bid_id", bid.ID, "error", err)
		}
	}

	placed := *bid
	m.Publish(&domain.BidEvent{
		Type:      domain.BidPlaced,
		AuctionID: auctionID,
		UserID:    userID,
		Amount:    amount,
		Bid:       &placed,
		Timestamp: bid.Timestamp,
	})
	update := *bid
	m.Publish(&domain.BidEvent{
		Type:      domain.BidUpdate,
		AuctionID: auctionID,
		UserID:    userID,
		Amount:    amount,
		Bid:       &update,
		Timestamp: bid.Timestamp,
	})

	return bid, nil
}

func (m *BiddingManager) wait(ctx context.Context) error {
	if m.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(m.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return domain.WrapBidError(domain.CodeTimeout, ctx.Err(), "bid placement cancelled")
	}
}

// commit re-checks the minimum under the write lock, since another bid may
// have been accepted while this one was in flight.
func (m *BiddingManager) commit(ctx context.Context, auctionID string, amount float64, userID string) (*domain.Bid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.activeBids[auctionID]; ok {
		if minimum := m.schedule.MinimumBid(current.Amount); amount < minimum {
			return nil, domain.NewBidError(domain.CodeConcurrentBidConflict,
				"current bid moved to %.2f, minimum is now %.2f", current.Amount, minimum)
		}
	}

	if m.ledger != nil {
		if err := m.commitToLedger(ctx, auctionID, amount, userID); err != nil {
			return nil, err
		}
	}

	for _, prior := range m.history[auctionID] {
		prior.IsWinning = false
	}

	bid := &domain.Bid{
		ID:        utils.GenerateID("bid"),
		AuctionID: auctionID,
		Amount:    amount,
		UserID:    userID,
		Timestamp: m.now(),
		IsWinning: true,
	}
	m.history[auctionID] = append(m.history[auctionID], bid)

	active := *bid
	m.activeBids[auctionID] = &active

	out := *bid
	return &out, nil
}

// commitToLedger applies the increment rule against the shared leader and
// swaps it in only if no other instance moved it meanwhile.
func (m *BiddingManager) commitToLedger(ctx context.Context, auctionID string, amount float64, userID string) error {
	leader, _, err := m.ledger.GetLeader(ctx, auctionID)
	if err != nil {
		return domain.WrapBidError(domain.CodeNetworkError, err, "bid ledger unavailable")
	}
	if leader > 0 {
		if minimum := m.schedule.MinimumBid(leader); amount < minimum {
			return domain.NewBidError(domain.CodeConcurrentBidConflict,
				"current bid moved to %.2f, minimum is now %.2f", leader, minimum)
		}
	}

	ok, err := m.ledger.AtomicBidUpdate(ctx, auctionID, userID, amount, leader)
	if err != nil {
		return domain.WrapBidError(domain.CodeNetworkError, err, "bid ledger unavailable")
	}
	if !ok {
		return domain.NewBidError(domain.CodeConcurrentBidConflict, "a higher bid was accepted elsewhere")
	}
	return nil
}

// ValidateBid reports why a bid would be refused, or nil if it is acceptable.
func (m *BiddingManager) ValidateBid(ctx context.Context, auctionID string, amount float64, userID string) error {
	if userID == "" {
		return domain.NewBidError(domain.CodeInvalidBid, "user id is required")
	}
	if auctionID == "" {
		return domain.NewBidError(domain.CodeInvalidBid, "auction id is required")
	}
	if amount <= 0 {
		return domain.NewBidError(domain.CodeInvalidBid, "bid amount must be positive")
	}

	auction, err := m.catalog.GetAuction(ctx, auctionID)
	if err != nil {
		return err
	}

	if auction.HasEnded(m.now()) {
		return domain.NewBidError(domain.CodeAuctionEnded, "auction %s has ended", auctionID)
	}
	if m.stateCache != nil {
		status, err := m.stateCache.GetAuctionStatus(ctx, auctionID)
		if err != nil {
			m.log.Warn("Failed to read auction state", "auction_id", auctionID, "error", err)
		} else if status == domain.AuctionEnded || status == domain.AuctionCancelled {
			return domain.NewBidError(domain.CodeAuctionEnded, "auction %s has ended", auctionID)
		}
	}

	if auction.SellerID != "" && auction.SellerID == userID {
		return domain.ErrSelfBidForbidden
	}

	if amount > m.maxBid {
		return domain.NewBidError(domain.CodeBidTooHigh, "bid exceeds maximum of %.2f", m.maxBid)
	}

	currentBid := auction.StartingPrice
	m.mu.RLock()
	if active, ok := m.activeBids[auctionID]; ok {
		currentBid = active.Amount
	}
	m.mu.RUnlock()

	if m.ledger != nil {
		leader, _, err := m.ledger.GetLeader(ctx, auctionID)
		if err != nil {
			m.log.Warn("Failed to read bid ledger", "auction_id", auctionID, "error", err)
		} else if leader > currentBid {
			currentBid = leader
		}
	}

	if minimum := m.schedule.MinimumBid(currentBid); amount < minimum {
		return domain.NewBidError(domain.CodeBidTooLow, "minimum bid is %.2f", minimum)
	}

	return nil
}

// ApplyRemoteBid records a bid another instance accepted. It does not
// notify subscribers. A bid already known, or lower than the leader, is
// kept out of the leader slot.
func (m *BiddingManager) ApplyRemoteBid(bid domain.Bid) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, prior := range m.history[bid.AuctionID] {
		if prior.ID == bid.ID {
			return
		}
	}

	current, ok := m.activeBids[bid.AuctionID]
	if ok && bid.Amount <= current.Amount {
		bid.IsWinning = false
		m.history[bid.AuctionID] = append(m.history[bid.AuctionID], &bid)
		return
	}

	for _, prior := range m.history[bid.AuctionID] {
		prior.IsWinning = false
	}
	bid.IsWinning = true
	m.history[bid.AuctionID] = append(m.history[bid.AuctionID], &bid)

	active := bid
	m.activeBids[bid.AuctionID] = &active
}

// EndAuction closes bidding and notifies subscribers.
func (m *BiddingManager) EndAuction(ctx context.Context, auctionID, reason string) error {
	if err := m.catalog.UpdateAuctionStatus(ctx, auctionID, domain.AuctionEnded); err != nil {
		return fmt.Errorf("end auction %s: %w", auctionID, err)
	}
	if m.stateCache != nil {
		if err := m.stateCache.SetAuctionStatus(ctx, auctionID, domain.AuctionEnded); err != nil {
			m.log.Warn("Failed to cache auction state", "auction_id", auctionID, "error", err)
		}
	}

	event := &domain.BidEvent{
		Type:      domain.AuctionFinished,
		AuctionID: auctionID,
		Reason:    reason,
		Timestamp: m.now(),
	}
	if winner, ok := m.GetActiveBid(auctionID); ok {
		event.UserID = winner.UserID
		event.Amount = winner.Amount
		event.Bid = winner
	}

	m.log.Info("Auction ended", "auction_id", auctionID, "reason", reason)
	m.Publish(event)
	return nil
}

// Subscribe registers fn for every event. Callbacks run synchronously in
// subscription order. The returned func removes the subscription.
func (m *BiddingManager) Subscribe(fn func(event domain.BidEvent)) func() {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	m.nextSubID++
	id := m.nextSubID
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})

	return func() {
		m.subMu.Lock()
		defer m.subMu.Unlock()
		for i, s := range m.subscribers {
			if s.id == id {
				m.subscribers = append(m.subscribers[:i:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Publish delivers event to every subscriber.
func (m *BiddingManager) Publish(event *domain.BidEvent) {
	m.subMu.RLock()
	subs := make([]subscriber, len(m.subscribers))
	copy(subs, m.subscribers)
	m.subMu.RUnlock()

	for _, s := range subs {
		m.deliver(s, *event)
	}
}

func (m *BiddingManager) deliver(s subscriber, event domain.BidEvent) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("Subscriber panicked", "subscriber", s.id, "event", event.Type, "panic", r)
		}
	}()
	s.fn(event)
}

func (m *BiddingManager) GetBidHistory(auctionID string) []domain.Bid {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bids := m.history[auctionID]
	out := make([]domain.Bid, len(bids))
	for i, b := range bids {
		out[i] = *b
	}
	return out
}

func (m *BiddingManager) GetActiveBid(auctionID string) (*domain.Bid, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	active, ok := m.activeBids[auctionID]
	if !ok {
		return nil, false
	}
	out := *active
	return &out, true
}

func (m *BiddingManager) GetCurrentWinner(auctionID string) (string, bool) {
	active, ok := m.GetActiveBid(auctionID)
	if !ok {
		return "", false
	}
	return active.UserID, true
}

// GetUserBids returns every bid userID has placed, across auctions.
func (m *BiddingManager) GetUserBids(userID string) []domain.Bid {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.Bid
	for _, bids := range m.history {
		for _, b := range bids {
			if b.UserID == userID {
				out = append(out, *b)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out
}

// Reset drops all history and leading bids. Subscribers are kept.
func (m *BiddingManager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.history = make(map[string][]*domain.Bid)
	m.activeBids = make(map[string]*domain.Bid)
}
