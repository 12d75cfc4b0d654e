package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bid-coordinator/internal/domain"
)

type sentMessage struct {
	target  string
	message map[string]interface{}
}

type fakeNotifier struct {
	mu          sync.Mutex
	broadcasts  []sentMessage
	direct      []sentMessage
	closedRooms []string
}

func (f *fakeNotifier) BroadcastToAuction(ctx context.Context, auctionID string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.broadcasts = append(f.broadcasts, sentMessage{auctionID, message.(map[string]interface{})})
	return nil
}

func (f *fakeNotifier) NotifyUser(ctx context.Context, userID string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.direct = append(f.direct, sentMessage{userID, message.(map[string]interface{})})
	return nil
}

// fakeConnections implements only what the listener calls.
type fakeConnections struct {
	domain.ConnectionManager
	notifier *fakeNotifier
}

func (f *fakeConnections) CloseAndUnregisterConnections(auctionID string) error {
	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	f.notifier.closedRooms = append(f.notifier.closedRooms, auctionID)
	return nil
}

type fakePublisher struct {
	published []domain.BidEvent
	err       error
}

func (f *fakePublisher) PublishBidEvent(ctx context.Context, event *domain.BidEvent) error {
	f.published = append(f.published, *event)
	return f.err
}

type fakeSubscriber struct {
	events []*domain.BidEvent
	errs   []error
}

func (f *fakeSubscriber) SubscribeToBidEvents(ctx context.Context, handler domain.EventHandler) error {
	for _, e := range f.events {
		f.errs = append(f.errs, handler(e))
	}
	return nil
}

func newTestListener() (*EventListener, *fakeNotifier) {
	notifier := &fakeNotifier{}
	listener := NewEventListener("instance-a", &fakeConnections{notifier: notifier}, notifier, notifier, nopLog)
	return listener, notifier
}

func TestEventListener_RelaysManagerEvents(t *testing.T) {
	listener, notifier := newTestListener()
	publisher := &fakePublisher{}
	listener.SetPublisher(publisher)

	manager := NewBiddingManager(newTestCatalog(t, activeAuction("a1", 100)), 0, 0, nopLog)
	detach := listener.Attach(manager)

	_, err := manager.PlaceBid(context.Background(), "a1", 110, "u1")
	require.NoError(t, err)

	require.Len(t, notifier.broadcasts, 1)
	update := notifier.broadcasts[0]
	assert.Equal(t, "a1", update.target)
	assert.Equal(t, "bid_update", update.message["type"])
	assert.Equal(t, 110.0, update.message["current_bid"])
	assert.Equal(t, "u1", update.message["current_winner"])

	// bid_placed stays local, bid_update goes to the other instances
	require.Len(t, publisher.published, 1)
	assert.Equal(t, domain.BidUpdate, publisher.published[0].Type)
	assert.Equal(t, "instance-a", publisher.published[0].Origin)

	manager.Publish(&domain.BidEvent{Type: domain.BidQueued, AuctionID: "a1", UserID: "u2", Amount: 120})
	manager.Publish(&domain.BidEvent{Type: domain.BidRejected, AuctionID: "a1", UserID: "u3", Reason: "OUTBID"})
	require.Len(t, notifier.direct, 2)
	assert.Equal(t, "u2", notifier.direct[0].target)
	assert.Equal(t, "bid_queued", notifier.direct[0].message["type"])
	assert.Equal(t, "u3", notifier.direct[1].target)
	assert.Equal(t, "OUTBID", notifier.direct[1].message["reason"])

	require.NoError(t, manager.EndAuction(context.Background(), "a1", "time_expired"))
	require.Len(t, notifier.broadcasts, 2)
	assert.Equal(t, "auction_ended", notifier.broadcasts[1].message["type"])
	assert.Equal(t, "u1", notifier.broadcasts[1].message["winner"])
	assert.Equal(t, []string{"a1"}, notifier.closedRooms)

	detach()
	_, _ = manager.PlaceBid(context.Background(), "a1", 500, "u2")
	assert.Len(t, notifier.broadcasts, 2)
}

func TestEventListener_PublishFailureIsLogged(t *testing.T) {
	listener, notifier := newTestListener()
	listener.SetPublisher(&fakePublisher{err: errors.New("redis down")})

	listener.HandleLocalEvent(domain.BidEvent{Type: domain.BidUpdate, AuctionID: "a1", UserID: "u1", Amount: 110})
	assert.Len(t, notifier.broadcasts, 1)
}

func TestEventListener_RemoteEvents(t *testing.T) {
	listener, notifier := newTestListener()
	subscriber := &fakeSubscriber{events: []*domain.BidEvent{
		{Type: domain.BidUpdate, AuctionID: "a1", UserID: "u1", Amount: 110, Origin: "instance-b"},
		{Type: domain.BidUpdate, AuctionID: "a1", UserID: "u1", Amount: 110, Origin: "instance-a"},
		{Type: "bid_retracted", AuctionID: "a1", Origin: "instance-b"},
	}}

	require.NoError(t, listener.Start(context.Background(), subscriber))

	// Own events were relayed locally already.
	assert.Len(t, notifier.broadcasts, 1)
	require.Len(t, subscriber.errs, 3)
	assert.NoError(t, subscriber.errs[0])
	assert.NoError(t, subscriber.errs[1])
	assert.Error(t, subscriber.errs[2])
}

func TestEventListener_RemoteBidsReachManager(t *testing.T) {
	listener, notifier := newTestListener()
	manager := NewBiddingManager(newTestCatalog(t, activeAuction("a1", 100)), 0, 0, nopLog)
	defer listener.Attach(manager)()

	var resumed []string
	listener.SetQueueResumer(func(auctionID string) { resumed = append(resumed, auctionID) })

	bid := &domain.Bid{ID: "bid-1", AuctionID: "a1", UserID: "u2", Amount: 150, IsWinning: true}
	subscriber := &fakeSubscriber{events: []*domain.BidEvent{
		{Type: domain.BidUpdate, AuctionID: "a1", UserID: "u2", Amount: 150, Bid: bid, Origin: "instance-b"},
		{Type: domain.LockReleased, AuctionID: "a1", Origin: "instance-b"},
		{Type: domain.LockReleased, AuctionID: "a2", Origin: "instance-a"},
	}}

	require.NoError(t, listener.Start(context.Background(), subscriber))

	for _, err := range subscriber.errs {
		assert.NoError(t, err)
	}
	winner, ok := manager.GetCurrentWinner("a1")
	require.True(t, ok)
	assert.Equal(t, "u2", winner)
	assert.Equal(t, []string{"a1"}, resumed)
	assert.Len(t, notifier.broadcasts, 1)
}
