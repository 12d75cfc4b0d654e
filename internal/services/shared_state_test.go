package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bid-coordinator/internal/domain"
	redisinfra "bid-coordinator/internal/infrastructure/redis"
)

// instance is one bidding service process sharing Redis with its peers.
type instance struct {
	manager *BiddingManager
	handler *ConcurrentBidHandler
	locker  *redisinfra.RedisLocker
}

func startInstance(t *testing.T, id string, client *goredis.Client, catalog domain.AuctionCatalog) *instance {
	t.Helper()

	manager := NewBiddingManager(catalog, 0, 0, nopLog)
	manager.SetLedger(redisinfra.NewRedisBidLedger(client))

	locker := redisinfra.NewRedisLocker(client, time.Minute)
	handler := NewConcurrentBidHandler(locker, NewManagerPlacer(manager), NewErrorHandlingService(nopLog),
		HandlerConfig{RetryBase: time.Millisecond, ReplayWorkers: 2}, nopLog)
	handler.SetEventSink(manager)
	t.Cleanup(handler.Close)

	notifier := &fakeNotifier{}
	listener := NewEventListener(id, &fakeConnections{notifier: notifier}, notifier, notifier, nopLog)
	listener.SetPublisher(redisinfra.NewRedisEventPublisher(client))
	listener.SetQueueResumer(handler.ResumeQueue)
	t.Cleanup(listener.Attach(manager))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = listener.Start(ctx, redisinfra.NewRedisEventSubscriber(client, nopLog))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return &instance{manager: manager, handler: handler, locker: locker}
}

func waitForSubscribers(t *testing.T, mr *miniredis.Miniredis, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return mr.PubSubNumSub("bid_events")["bid_events"] == n
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSharedLock_QueuedBidDrainsOnPeerRelease(t *testing.T) {
	mr, client := newTestRedis(t)
	catalog := newTestCatalog(t, activeAuction("a1", 100))
	require.NoError(t, redisinfra.NewRedisBidLedger(client).InitializeAuction(context.Background(), "a1", 100))

	a := startInstance(t, "instance-a", client, catalog)
	b := startInstance(t, "instance-b", client, catalog)
	waitForSubscribers(t, mr, 2)

	replayed := make(chan *domain.BidResult, 1)
	b.handler.SetReplayObserver(func(q domain.QueuedBid, result *domain.BidResult, err error) {
		assert.NoError(t, err)
		replayed <- result
	})

	ctx := context.Background()
	ok, err := a.locker.Lock(ctx, "a1", lockReasonProcessing)
	require.NoError(t, err)
	require.True(t, ok)

	result, err := b.handler.HandleConcurrentBid(ctx, domain.BidData{AuctionID: "a1", Amount: 150}, domain.Bidder{UserID: "u2"})
	require.NoError(t, err)
	require.True(t, result.Queued)
	require.Len(t, b.handler.QueuedBids("a1"), 1)

	// The lock holder on the other instance releases it.
	a.handler.unlockAuction("a1")

	replay := receive(t, replayed)
	require.NotNil(t, replay)
	assert.True(t, replay.Success)
	assert.Empty(t, b.handler.QueuedBids("a1"))

	winner, ok := b.manager.GetCurrentWinner("a1")
	require.True(t, ok)
	assert.Equal(t, "u2", winner)

	// The bid accepted on b reaches a's view of the auction.
	require.Eventually(t, func() bool {
		winner, ok := a.manager.GetCurrentWinner("a1")
		return ok && winner == "u2"
	}, 2*time.Second, 5*time.Millisecond)
	assert.Len(t, a.manager.GetBidHistory("a1"), 1)
}

func TestSharedLedger_IncrementAcrossInstances(t *testing.T) {
	_, client := newTestRedis(t)
	catalog := newTestCatalog(t, activeAuction("a1", 100))
	ledger := redisinfra.NewRedisBidLedger(client)
	ctx := context.Background()
	require.NoError(t, ledger.InitializeAuction(ctx, "a1", 100))

	a := NewBiddingManager(catalog, 0, 0, nopLog)
	a.SetLedger(ledger)
	b := NewBiddingManager(catalog, 0, 0, nopLog)
	b.SetLedger(ledger)

	tests := []struct {
		name    string
		manager *BiddingManager
		userID  string
		amount  float64
		wantErr error
	}{
		{"a_accepts_opening_bid", a, "u1", 200, nil},
		{"b_sees_shared_leader", b, "u2", 201, domain.ErrBidTooLow},
		{"b_meets_increment", b, "u2", 210, nil},
		{"a_sees_shared_leader", a, "u1", 215, domain.ErrBidTooLow},
		{"a_meets_increment", a, "u1", 220, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.manager.PlaceBid(ctx, "a1", tt.amount, tt.userID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}

	amount, winner, err := ledger.GetLeader(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 220.0, amount)
	assert.Equal(t, "u1", winner)
}

func TestSharedStateCache_EndedElsewhereRefusesBids(t *testing.T) {
	_, client := newTestRedis(t)
	cache := redisinfra.NewRedisStateCache(client)
	ctx := context.Background()

	// Each instance keeps its own catalog; only the state cache is shared.
	a := NewBiddingManager(newTestCatalog(t, activeAuction("a1", 100)), 0, 0, nopLog)
	a.SetStateCache(cache)
	b := NewBiddingManager(newTestCatalog(t, activeAuction("a1", 100)), 0, 0, nopLog)
	b.SetStateCache(cache)

	// No cached status reads as pending, which does not block bidding.
	status, err := cache.GetAuctionStatus(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.AuctionPending, status)
	require.NoError(t, b.ValidateBid(ctx, "a1", 110, "u1"))

	require.NoError(t, a.EndAuction(ctx, "a1", "time_expired"))

	assert.ErrorIs(t, b.ValidateBid(ctx, "a1", 110, "u1"), domain.ErrAuctionEnded)
}
