package websocket

import (
	"context"
	"net/http"
	"time"

	"bid-coordinator/internal/domain"
	"bid-coordinator/internal/services"
	"bid-coordinator/pkg/logger"
	"bid-coordinator/pkg/utils"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// BidSubmitter accepts bids arriving over a live connection.
type BidSubmitter interface {
	HandleConcurrentBid(ctx context.Context, data domain.BidData, bidder domain.Bidder) (*domain.BidResult, error)
}

type WebSocketHandler struct {
	bids        BidSubmitter
	catalog     domain.AuctionCatalog
	connManager domain.ConnectionManager
	errs        *services.ErrorHandlingService
	now         func() time.Time
	log         logger.Logger
}

func NewWebSocketHandler(bids BidSubmitter, catalog domain.AuctionCatalog,
	connManager domain.ConnectionManager, errs *services.ErrorHandlingService, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		bids:        bids,
		catalog:     catalog,
		connManager: connManager,
		errs:        errs,
		now:         time.Now,
		log:         log,
	}
}

func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	auctionID := mux.Vars(r)["auctionID"]

	auction, err := h.catalog.GetAuction(r.Context(), auctionID)
	if err != nil {
		h.log.Info("Rejected connection - auction not found", "auction_id", auctionID, "error", err)
		http.Error(w, "auction not found", http.StatusNotFound)
		return
	}

	if auction.HasEnded(h.now()) {
		h.log.Info("Rejected connection - auction has ended", "auction_id", auctionID)
		http.Error(w, "auction has already ended", http.StatusForbidden)
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	wsConn := NewWebSocketConnection(conn, userID, auctionID, h.log)
	if err := h.connManager.RegisterConnection(userID, auctionID, wsConn); err != nil {
		h.log.Error("Failed to register connection", "error", err)
		_ = wsConn.Close()
		return
	}

	go h.handleMessages(wsConn, userID, auctionID)
}

type inboundMessage struct {
	Type   string      `json:"type"`
	Amount interface{} `json:"amount"`
}

func (h *WebSocketHandler) handleMessages(conn *WebSocketConnection, userID, auctionID string) {
	defer func() {
		// A reconnect may already have replaced this connection.
		for _, current := range h.connManager.GetConnectionsForUser(userID) {
			if current == domain.WebSocketConnection(conn) {
				_ = h.connManager.UnregisterConnection(userID, auctionID)
				break
			}
		}
		_ = conn.Close()
	}()

	for {
		var msg inboundMessage
		if err := conn.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Error("Failed to read message", "user_id", userID, "error", err)
			}
			return
		}

		switch msg.Type {
		case "place_bid":
			h.handleBidMessage(conn, userID, auctionID, msg)
		case "ping":
			_ = conn.Send(map[string]string{"type": "pong"})
		default:
			_ = conn.Send(map[string]string{"type": "error", "message": "unknown message type"})
		}
	}
}

func (h *WebSocketHandler) handleBidMessage(conn domain.WebSocketConnection, userID, auctionID string, msg inboundMessage) {
	amount, err := utils.ParseAmountValue(msg.Amount)
	if err != nil {
		_ = conn.Send(map[string]string{"type": "error", "message": "invalid amount format"})
		return
	}

	// Accepted and queued outcomes reach the client through the event listener.
	_, err = h.bids.HandleConcurrentBid(context.Background(),
		domain.BidData{AuctionID: auctionID, Amount: amount},
		domain.Bidder{UserID: userID})
	if err != nil {
		report := h.errs.Handle(err)
		_ = conn.Send(map[string]interface{}{"type": "error", "error": report})
	}
}
