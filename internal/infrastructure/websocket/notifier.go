package websocket

import (
	"context"
	"fmt"

	"bid-coordinator/internal/domain"
)

// WebSocketNotifier delivers bid events to the sockets this instance holds.
// Bidders connected to other instances are reached through their listener.
type WebSocketNotifier struct {
	connManager domain.ConnectionManager
}

func NewWebSocketNotifier(connManager domain.ConnectionManager) *WebSocketNotifier {
	return &WebSocketNotifier{connManager: connManager}
}

// NotifyUser sends to every socket the bidder has open, whichever auction
// room it joined.
func (n *WebSocketNotifier) NotifyUser(ctx context.Context, userID string, message interface{}) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("notify user %s: %w", userID, err)
	}
	return n.connManager.NotifyUser(userID, message)
}

func (n *WebSocketNotifier) BroadcastToAuction(ctx context.Context, auctionID string, message interface{}) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("broadcast to auction %s: %w", auctionID, err)
	}
	return n.connManager.BroadcastToAuction(auctionID, message)
}
