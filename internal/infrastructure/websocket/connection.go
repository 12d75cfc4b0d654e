package websocket

import (
	"sync"
	"time"

	"bid-coordinator/pkg/logger"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// WebSocketConnection wraps a gorilla connection. Writes are serialized
// because broadcasts and replies can race on the same socket.
type WebSocketConnection struct {
	conn      *websocket.Conn
	userID    string
	auctionID string
	log       logger.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func NewWebSocketConnection(conn *websocket.Conn, userID, auctionID string, log logger.Logger) *WebSocketConnection {
	return &WebSocketConnection{
		conn:      conn,
		userID:    userID,
		auctionID: auctionID,
		log:       log,
	}
}

func (wsc *WebSocketConnection) Send(message interface{}) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()

	if err := wsc.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return wsc.conn.WriteJSON(message)
}

func (wsc *WebSocketConnection) Close() error {
	wsc.closeOnce.Do(func() {
		wsc.writeMu.Lock()
		_ = wsc.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		wsc.writeMu.Unlock()
		wsc.closeErr = wsc.conn.Close()
	})
	return wsc.closeErr
}

func (wsc *WebSocketConnection) UserID() string {
	return wsc.userID
}

func (wsc *WebSocketConnection) AuctionID() string {
	return wsc.auctionID
}
