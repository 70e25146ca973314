package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/nguyentranbao-ct/feed-client/internal/store"
	"github.com/nguyentranbao-ct/feed-client/internal/usecase"
)

const (
	streamWriteWait  = 10 * time.Second
	streamSendBuffer = 64
)

var streamUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(*http.Request) bool {
		// the gateway binds to loopback; the UI is the only caller
		return true
	},
}

// Ensure StreamHub implements Notifier interface
var _ usecase.Notifier = (*StreamHub)(nil)

// streamFrame is one push frame to a connected UI: either a store change
// notification or a user-facing toast.
type streamFrame struct {
	Kind        string `json:"kind"`
	EventType   string `json:"event_type,omitempty"`
	AggregateID string `json:"aggregate_id,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Message     string `json:"message,omitempty"`
}

// StreamHub fans store change events and toasts out to connected UIs over
// websocket. A slow client gets disconnected rather than blocking the rest.
type StreamHub struct {
	mu      sync.Mutex
	clients map[*streamClient]struct{}
}

type streamClient struct {
	conn *websocket.Conn
	send chan streamFrame
}

func NewStreamHub(convs *store.ConversationStore, posts *store.PostStore) *StreamHub {
	h := &StreamHub{
		clients: make(map[*streamClient]struct{}),
	}
	convs.Subscribe(h.onStoreEvent)
	posts.Subscribe(h.onStoreEvent)
	return h
}

func (h *StreamHub) onStoreEvent(ev store.Event) {
	h.broadcast(streamFrame{
		Kind:        "store_event",
		EventType:   string(ev.Type),
		AggregateID: ev.AggregateID,
	})
}

// Toast delivers a user-facing notice to every connected UI.
func (h *StreamHub) Toast(ctx context.Context, severity, message string) {
	log.Infow(ctx, "toast", "severity", severity, "message", message)
	h.broadcast(streamFrame{
		Kind:     "toast",
		Severity: severity,
		Message:  message,
	})
}

func (h *StreamHub) broadcast(frame streamFrame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- frame:
		default:
			// slow consumer: drop the connection, the UI reconnects
			delete(h.clients, client)
			close(client.send)
		}
	}
}

// Handler upgrades the request and serves the push stream until the client
// disconnects.
func (h *StreamHub) Handler(c echo.Context) error {
	conn, err := streamUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	client := &streamClient{
		conn: conn,
		send: make(chan streamFrame, streamSendBuffer),
	}
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	ctx := c.Request().Context()
	log.Debugw(ctx, "stream client connected")

	go h.writeLoop(client)
	h.readLoop(client)
	return nil
}

func (h *StreamHub) writeLoop(client *streamClient) {
	for frame := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := client.conn.WriteJSON(frame); err != nil {
			break
		}
	}
	client.conn.Close()
}

// readLoop drains inbound frames so pings and close handshakes are
// processed; the stream is push-only.
func (h *StreamHub) readLoop(client *streamClient) {
	defer h.drop(client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *StreamHub) drop(client *streamClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
	client.conn.Close()
}
