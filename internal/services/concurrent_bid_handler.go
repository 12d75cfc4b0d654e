package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"bid-coordinator/internal/domain"
	"bid-coordinator/pkg/logger"
	"bid-coordinator/pkg/utils"

	"github.com/viney-shih/goroutines"
)

const (
	lockReasonProcessing = "processing_bid"

	DefaultMaxRetries    = 3
	DefaultRetryBase     = time.Second
	DefaultStaleAfter    = 5 * time.Minute
	DefaultReplayWorkers = 8

	replayScheduleTimeout = 3 * time.Second
)

type HandlerConfig struct {
	MaxRetries    int
	RetryBase     time.Duration
	StaleAfter    time.Duration
	ReplayWorkers int
}

func (c HandlerConfig) withDefaults() HandlerConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RetryBase <= 0 {
		c.RetryBase = DefaultRetryBase
	}
	if c.StaleAfter <= 0 {
		c.StaleAfter = DefaultStaleAfter
	}
	if c.ReplayWorkers <= 0 {
		c.ReplayWorkers = DefaultReplayWorkers
	}
	return c
}

// AuctionEnder closes an auction once a placement reports it over.
type AuctionEnder func(ctx context.Context, auctionID, reason string) error

// ReplayObserver is told the result of every replayed queued bid.
type ReplayObserver func(queued domain.QueuedBid, result *domain.BidResult, err error)

// ConcurrentBidHandler serializes bid processing per auction. While an
// auction is locked, new bids wait in a per-auction queue holding at most
// one bid per bidder; on unlock the highest queued bid is replayed.
type ConcurrentBidHandler struct {
	locker   domain.AuctionLocker
	placer   domain.BidPlacer
	events   domain.EventSink
	errs     *ErrorHandlingService
	cfg      HandlerConfig
	log      logger.Logger
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
	ender    AuctionEnder
	onReplay ReplayObserver

	mu             sync.Mutex
	activeAttempts map[string]*domain.ActiveAttempt
	queues         map[string][]*domain.QueuedBid

	pool       *goroutines.Pool
	replays    sync.WaitGroup
	baseCtx    context.Context
	cancelBase context.CancelFunc
	closeOnce  sync.Once

	// closeMu orders replays.Add against Close's replays.Wait.
	closeMu sync.Mutex
	closed  bool
}

func NewConcurrentBidHandler(
	locker domain.AuctionLocker,
	placer domain.BidPlacer,
	errs *ErrorHandlingService,
	cfg HandlerConfig,
	log logger.Logger,
) *ConcurrentBidHandler {
	cfg = cfg.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &ConcurrentBidHandler{
		locker:         locker,
		placer:         placer,
		errs:           errs,
		cfg:            cfg,
		log:            log,
		now:            time.Now,
		sleep:          sleepContext,
		activeAttempts: make(map[string]*domain.ActiveAttempt),
		queues:         make(map[string][]*domain.QueuedBid),
		pool:           goroutines.NewPool(cfg.ReplayWorkers, goroutines.WithTaskQueueLength(cfg.ReplayWorkers*16)),
		baseCtx:        ctx,
		cancelBase:     cancel,
	}
}

func (h *ConcurrentBidHandler) SetEventSink(events domain.EventSink) {
	h.events = events
}

func (h *ConcurrentBidHandler) SetAuctionEnder(ender AuctionEnder) {
	h.ender = ender
}

func (h *ConcurrentBidHandler) SetReplayObserver(fn ReplayObserver) {
	h.onReplay = fn
}

func (h *ConcurrentBidHandler) SetClock(now func() time.Time) {
	h.now = now
}

func attemptKey(auctionID, userID string) string {
	return auctionID + "-" + userID
}

// HandleConcurrentBid runs one bid attempt end to end. A second attempt by
// the same user on the same auction is refused until the first returns.
func (h *ConcurrentBidHandler) HandleConcurrentBid(ctx context.Context, data domain.BidData, bidder domain.Bidder) (*domain.BidResult, error) {
	if data.AuctionID == "" || bidder.UserID == "" {
		return nil, domain.NewBidError(domain.CodeInvalidBid, "auction id and user id are required")
	}

	key := attemptKey(data.AuctionID, bidder.UserID)

	h.mu.Lock()
	if _, busy := h.activeAttempts[key]; busy {
		h.mu.Unlock()
		h.log.Warn("Concurrent bid attempt rejected", "auction_id", data.AuctionID, "user_id", bidder.UserID)
		return nil, domain.NewBidError(domain.CodeConcurrentBidAttempt,
			"user %s already has a bid in progress on auction %s", bidder.UserID, data.AuctionID)
	}
	h.activeAttempts[key] = &domain.ActiveAttempt{
		ID:        utils.GenerateID("attempt"),
		AuctionID: data.AuctionID,
		UserID:    bidder.UserID,
		Amount:    data.Amount,
		Timestamp: h.now(),
	}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.activeAttempts, key)
		h.mu.Unlock()
	}()

	return h.ProcessBid(ctx, data, bidder)
}

// ProcessBid takes the auction lock and runs the placer. If the lock is
// held elsewhere the bid is queued instead.
func (h *ConcurrentBidHandler) ProcessBid(ctx context.Context, data domain.BidData, bidder domain.Bidder) (*domain.BidResult, error) {
	acquired, err := h.locker.Lock(ctx, data.AuctionID, lockReasonProcessing)
	if err != nil {
		return nil, domain.WrapBidError(domain.CodeNetworkError, err, "auction lock unavailable")
	}
	if !acquired {
		result := h.QueueBid(data, bidder)
		// The holder may have unlocked between our Lock and QueueBid.
		if locked, err := h.locker.IsLocked(ctx, data.AuctionID); err == nil && !locked {
			h.processQueuedBids(data.AuctionID)
		}
		return result, nil
	}
	defer h.unlockAuction(data.AuctionID)

	result, err := h.placer.PlaceBid(ctx, data, bidder)
	if err != nil {
		if errors.Is(err, domain.ErrAuctionEnded) {
			h.handleAuctionOver(ctx, data.AuctionID, result)
		}
		return result, err
	}

	h.log.Info("Bid processed", "auction_id", data.AuctionID, "user_id", bidder.UserID, "amount", data.Amount)
	return result, nil
}

// QueueBid records a bid to replay once the auction unlocks. A bidder keeps
// a single entry per auction carrying the highest amount they offered.
func (h *ConcurrentBidHandler) QueueBid(data domain.BidData, bidder domain.Bidder) *domain.BidResult {
	h.mu.Lock()
	queue := h.queues[data.AuctionID]

	found := false
	for _, q := range queue {
		if q.Bidder.UserID != bidder.UserID {
			continue
		}
		found = true
		if data.Amount > q.BidData.Amount {
			q.BidData = data
			q.Timestamp = h.now()
		}
		break
	}
	if !found {
		queue = append(queue, &domain.QueuedBid{
			BidData:   data,
			Bidder:    bidder,
			Timestamp: h.now(),
		})
	}

	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].BidData.Amount > queue[j].BidData.Amount
	})
	h.queues[data.AuctionID] = queue

	position := 0
	var kept float64
	for i, q := range queue {
		if q.Bidder.UserID == bidder.UserID {
			position = i + 1
			kept = q.BidData.Amount
			break
		}
	}
	h.mu.Unlock()

	h.log.Info("Bid queued", "auction_id", data.AuctionID, "user_id", bidder.UserID,
		"amount", kept, "position", position)
	h.emit(&domain.BidEvent{
		Type:      domain.BidQueued,
		AuctionID: data.AuctionID,
		UserID:    bidder.UserID,
		Amount:    kept,
		Timestamp: h.now(),
	})

	return &domain.BidResult{Queued: true, Position: position, Outcome: domain.OutcomeQueued}
}

// QueuedBids returns a snapshot of the auction's queue, highest first.
func (h *ConcurrentBidHandler) QueuedBids(auctionID string) []domain.QueuedBid {
	h.mu.Lock()
	defer h.mu.Unlock()

	queue := h.queues[auctionID]
	out := make([]domain.QueuedBid, len(queue))
	for i, q := range queue {
		out[i] = *q
	}
	return out
}

// IsProcessing reports whether userID has an attempt in flight on auctionID.
func (h *ConcurrentBidHandler) IsProcessing(auctionID, userID string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, busy := h.activeAttempts[attemptKey(auctionID, userID)]
	return busy
}

func (h *ConcurrentBidHandler) unlockAuction(auctionID string) {
	if err := h.locker.Unlock(context.Background(), auctionID); err != nil {
		h.log.Error("Failed to unlock auction", "auction_id", auctionID, "error", err)
	} else {
		// Instances sharing the lock table drain their own queues on this.
		h.emit(&domain.BidEvent{
			Type:      domain.LockReleased,
			AuctionID: auctionID,
			Timestamp: h.now(),
		})
	}
	h.processQueuedBids(auctionID)
}

// ResumeQueue replays the auction's highest queued bid. It is called when
// another instance releases a shared lock.
func (h *ConcurrentBidHandler) ResumeQueue(auctionID string) {
	h.processQueuedBids(auctionID)
}

// processQueuedBids replays the single highest queued bid, if any.
func (h *ConcurrentBidHandler) processQueuedBids(auctionID string) {
	h.mu.Lock()
	queue := h.queues[auctionID]
	if len(queue) == 0 {
		h.mu.Unlock()
		return
	}
	next := queue[0]
	if len(queue) == 1 {
		delete(h.queues, auctionID)
	} else {
		h.queues[auctionID] = queue[1:]
	}
	h.mu.Unlock()

	h.closeMu.Lock()
	if h.closed {
		h.closeMu.Unlock()
		return
	}
	h.replays.Add(1)
	h.closeMu.Unlock()

	err := h.pool.ScheduleWithTimeout(replayScheduleTimeout, func() {
		defer h.replays.Done()
		h.replay(*next)
	})
	if err != nil {
		h.replays.Done()
		h.log.Error("Failed to schedule queued bid", "auction_id", auctionID,
			"user_id", next.Bidder.UserID, "error", err)
		h.requeue(next)
	}
}

func (h *ConcurrentBidHandler) replay(queued domain.QueuedBid) {
	h.log.Info("Replaying queued bid", "auction_id", queued.BidData.AuctionID,
		"user_id", queued.Bidder.UserID, "amount", queued.BidData.Amount)

	var result *domain.BidResult
	err := h.Retry(h.baseCtx, func(ctx context.Context) error {
		var err error
		result, err = h.HandleConcurrentBid(ctx, queued.BidData, queued.Bidder)
		return err
	})
	if err != nil {
		h.log.Info("Queued bid failed", "auction_id", queued.BidData.AuctionID,
			"user_id", queued.Bidder.UserID, "code", h.errs.Classify(err))
		h.emit(&domain.BidEvent{
			Type:      domain.BidRejected,
			AuctionID: queued.BidData.AuctionID,
			UserID:    queued.Bidder.UserID,
			Amount:    queued.BidData.Amount,
			Reason:    string(h.errs.Classify(err)),
			Timestamp: h.now(),
		})
	}
	if h.onReplay != nil {
		h.onReplay(queued, result, err)
	}
}

func (h *ConcurrentBidHandler) requeue(q *domain.QueuedBid) {
	h.mu.Lock()
	queue := append([]*domain.QueuedBid{q}, h.queues[q.BidData.AuctionID]...)
	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].BidData.Amount > queue[j].BidData.Amount
	})
	h.queues[q.BidData.AuctionID] = queue
	h.mu.Unlock()
}

// handleAuctionOver drops the queue of an auction that can no longer take bids.
func (h *ConcurrentBidHandler) handleAuctionOver(ctx context.Context, auctionID string, result *domain.BidResult) {
	h.mu.Lock()
	dropped := h.queues[auctionID]
	delete(h.queues, auctionID)
	h.mu.Unlock()

	for _, q := range dropped {
		h.emit(&domain.BidEvent{
			Type:      domain.BidRejected,
			AuctionID: auctionID,
			UserID:    q.Bidder.UserID,
			Amount:    q.BidData.Amount,
			Reason:    string(domain.CodeAuctionEnded),
			Timestamp: h.now(),
		})
	}

	if h.ender != nil && result != nil {
		if err := h.ender(ctx, auctionID, string(result.Outcome)); err != nil {
			h.log.Error("Failed to end auction", "auction_id", auctionID, "error", err)
		}
	}
}

// HandleNetworkError retries fn with exponential backoff (2^n * base) after
// a network failure. Once the retries are spent it reports NETWORK_ERROR.
func (h *ConcurrentBidHandler) HandleNetworkError(ctx context.Context, cause error, fn func(ctx context.Context) error) error {
	last := cause
	for attempt := 0; attempt < h.cfg.MaxRetries; attempt++ {
		delay := h.cfg.RetryBase * time.Duration(1<<uint(attempt))
		h.log.Warn("Retrying after network error", "attempt", attempt+1, "delay", delay, "error", last)

		if err := h.sleep(ctx, delay); err != nil {
			return domain.WrapBidError(domain.CodeTimeout, err, "retry cancelled")
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !h.errs.IsRetryable(err) {
			return err
		}
		last = err
	}
	return domain.WrapBidError(domain.CodeNetworkError, last, "retries exhausted")
}

// Retry runs fn once and hands retryable failures to HandleNetworkError.
func (h *ConcurrentBidHandler) Retry(ctx context.Context, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if err == nil || !h.errs.IsRetryable(err) {
		return err
	}
	return h.HandleNetworkError(ctx, err, fn)
}

// Cleanup purges attempts, locks and queued bids older than the stale window.
func (h *ConcurrentBidHandler) Cleanup(now time.Time) domain.CleanupStats {
	cutoff := now.Add(-h.cfg.StaleAfter)
	var stats domain.CleanupStats

	h.mu.Lock()
	for key, a := range h.activeAttempts {
		if a.Timestamp.Before(cutoff) {
			delete(h.activeAttempts, key)
			stats.Attempts++
		}
	}
	var purged []*domain.QueuedBid
	for auctionID, queue := range h.queues {
		kept := queue[:0]
		for _, q := range queue {
			if q.Timestamp.Before(cutoff) {
				stats.Queued++
				purged = append(purged, q)
				continue
			}
			kept = append(kept, q)
		}
		if len(kept) == 0 {
			delete(h.queues, auctionID)
		} else {
			h.queues[auctionID] = kept
		}
	}
	h.mu.Unlock()

	for _, q := range purged {
		h.emit(&domain.BidEvent{
			Type:      domain.BidRejected,
			AuctionID: q.BidData.AuctionID,
			UserID:    q.Bidder.UserID,
			Amount:    q.BidData.Amount,
			Reason:    string(domain.CodeTimeout),
			Timestamp: now,
		})
	}

	stats.Locks = h.locker.SweepOlderThan(cutoff)

	if stats.Attempts+stats.Locks+stats.Queued > 0 {
		h.log.Info("Cleaned up stale bid state", "attempts", stats.Attempts,
			"locks", stats.Locks, "queued", stats.Queued)
	}
	return stats
}

// Wait blocks until every scheduled replay has finished.
func (h *ConcurrentBidHandler) Wait() {
	h.replays.Wait()
}

// Close stops scheduling replays, waits for running ones and releases the pool.
func (h *ConcurrentBidHandler) Close() {
	h.closeOnce.Do(func() {
		h.closeMu.Lock()
		h.closed = true
		h.closeMu.Unlock()

		h.cancelBase()
		h.replays.Wait()
		h.pool.Release()
	})
}

func (h *ConcurrentBidHandler) emit(event *domain.BidEvent) {
	if h.events != nil {
		h.events.Publish(event)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
