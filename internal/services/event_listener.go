package services

import (
	"context"
	"fmt"

	"bid-coordinator/internal/domain"
	"bid-coordinator/pkg/logger"
)

// EventListener relays bidding events to connected clients and, when a
// publisher is configured, to other instances.
type EventListener struct {
	instanceID        string
	broadcaster       domain.AuctionBroadcaster
	userNotifier      domain.UserNotifier
	connectionManager domain.ConnectionManager
	publisher         domain.EventPublisher
	manager           *BiddingManager
	resumeQueue       func(auctionID string)
	log               logger.Logger
}

func NewEventListener(instanceID string, connectionManager domain.ConnectionManager,
	broadcaster domain.AuctionBroadcaster, userNotifier domain.UserNotifier, log logger.Logger) *EventListener {
	return &EventListener{
		instanceID:        instanceID,
		broadcaster:       broadcaster,
		userNotifier:      userNotifier,
		connectionManager: connectionManager,
		log:               log,
	}
}

func (el *EventListener) SetPublisher(publisher domain.EventPublisher) {
	el.publisher = publisher
}

// SetQueueResumer sets what runs when another instance releases an auction lock.
func (el *EventListener) SetQueueResumer(fn func(auctionID string)) {
	el.resumeQueue = fn
}

// Attach subscribes the listener to the manager. Bids accepted by other
// instances are applied to it as well. The returned func detaches it.
func (el *EventListener) Attach(manager *BiddingManager) func() {
	el.manager = manager
	return manager.Subscribe(el.HandleLocalEvent)
}

// Start consumes events from other instances until ctx is done.
func (el *EventListener) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	el.log.Info("Starting event listener")
	return subscriber.SubscribeToBidEvents(ctx, el.handleRemoteEvent)
}

func (el *EventListener) HandleLocalEvent(event domain.BidEvent) {
	if err := el.handleBidEvent(&event); err != nil {
		el.log.Error("Failed to relay bid event", "type", event.Type, "auction_id", event.AuctionID, "error", err)
	}

	if el.publisher == nil || event.Type == domain.BidPlaced {
		return
	}
	event.Origin = el.instanceID
	if err := el.publisher.PublishBidEvent(context.Background(), &event); err != nil {
		el.log.Error("Failed to publish bid event", "type", event.Type, "auction_id", event.AuctionID, "error", err)
	}
}

func (el *EventListener) handleRemoteEvent(event *domain.BidEvent) error {
	if event.Origin == el.instanceID {
		return nil
	}

	switch event.Type {
	case domain.LockReleased:
		if el.resumeQueue != nil {
			el.resumeQueue(event.AuctionID)
		}
		return nil
	case domain.BidUpdate:
		if el.manager != nil && event.Bid != nil {
			el.manager.ApplyRemoteBid(*event.Bid)
		}
	}
	return el.handleBidEvent(event)
}

func (el *EventListener) handleBidEvent(event *domain.BidEvent) error {
	el.log.Debug("Handling bid event", "type", event.Type, "auction_id", event.AuctionID)

	switch event.Type {
	case domain.BidPlaced, domain.LockReleased:
		return nil
	case domain.BidUpdate:
		return el.handleBidUpdate(event)
	case domain.BidQueued:
		return el.handleBidQueued(event)
	case domain.BidRejected:
		return el.handleBidRejected(event)
	case domain.AuctionFinished:
		return el.handleAuctionEnded(event)
	}

	return fmt.Errorf("unknown event type %q", event.Type)
}

func (el *EventListener) handleBidUpdate(event *domain.BidEvent) error {
	return el.broadcaster.BroadcastToAuction(context.Background(), event.AuctionID, map[string]interface{}{
		"type":           "bid_update",
		"auction_id":     event.AuctionID,
		"current_bid":    event.Amount,
		"current_winner": event.UserID,
		"timestamp":      event.Timestamp,
	})
}

func (el *EventListener) handleBidQueued(event *domain.BidEvent) error {
	return el.userNotifier.NotifyUser(context.Background(), event.UserID, map[string]interface{}{
		"type":       "bid_queued",
		"auction_id": event.AuctionID,
		"amount":     event.Amount,
		"timestamp":  event.Timestamp,
	})
}

func (el *EventListener) handleBidRejected(event *domain.BidEvent) error {
	return el.userNotifier.NotifyUser(context.Background(), event.UserID, map[string]interface{}{
		"type":       "bid_rejected",
		"auction_id": event.AuctionID,
		"amount":     event.Amount,
		"reason":     event.Reason,
		"timestamp":  event.Timestamp,
	})
}

func (el *EventListener) handleAuctionEnded(event *domain.BidEvent) error {
	if err := el.broadcaster.BroadcastToAuction(context.Background(), event.AuctionID, map[string]interface{}{
		"type":       "auction_ended",
		"auction_id": event.AuctionID,
		"winner":     event.UserID,
		"final_bid":  event.Amount,
		"reason":     event.Reason,
		"timestamp":  event.Timestamp,
	}); err != nil {
		el.log.Error("Failed to broadcast auction ended event", "error", err)
		return err
	}

	if err := el.connectionManager.CloseAndUnregisterConnections(event.AuctionID); err != nil {
		el.log.Error("Failed to finalize connections for auction", "auction_id",
			event.AuctionID, "error", err)
		return err
	}
	return nil
}
