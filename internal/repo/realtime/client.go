package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/gorilla/websocket"

	"github.com/nguyentranbao-ct/feed-client/internal/config"
	"github.com/nguyentranbao-ct/feed-client/internal/models"
	"github.com/nguyentranbao-ct/feed-client/internal/repo/feedapi"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// command is a client-to-server frame: subscribe/unsubscribe by
// conversation id.
type command struct {
	Action         string `json:"action"`
	ConversationID string `json:"conversation_id"`
}

// Client maintains one websocket connection to the push gateway with
// automatic reconnection. Subscriptions are tracked locally so they can be
// replayed after a reconnect; redelivered events around the gap are expected
// and handled downstream by id-based merging.
type Client struct {
	url     string
	dialer  *websocket.Dialer
	recon   *reconnector
	handler func(ctx context.Context, conversationID string, msg *models.Message)

	mu     sync.Mutex
	conn   *websocket.Conn
	subs   map[string]struct{}
	closed bool
	cancel context.CancelFunc
}

func NewClient(conf *config.Config) *Client {
	return &Client{
		url:    conf.Realtime.URL,
		dialer: websocket.DefaultDialer,
		recon: &reconnector{
			baseDelay:   conf.Realtime.ReconnectBaseDelay,
			maxDelay:    conf.Realtime.ReconnectMaxDelay,
			maxAttempts: conf.Realtime.MaxReconnectAttempts,
		},
		subs: make(map[string]struct{}),
	}
}

// OnMessage registers the inbound handler. Must be called before Run.
func (c *Client) OnMessage(handler func(ctx context.Context, conversationID string, msg *models.Message)) {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()
}

// Run connects and keeps the connection alive until ctx is cancelled,
// reconnecting with exponential backoff and jitter.
func (c *Client) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancel = cancel
	c.mu.Unlock()

	for {
		if err := c.connect(ctx); err != nil {
			log.Warnw(ctx, "realtime connect failed", "error", err)
		} else {
			c.recon.markConnected()
			c.readLoop(ctx)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !c.recon.shouldReconnect() {
			return fmt.Errorf("realtime reconnect attempts exhausted")
		}

		delay := c.recon.nextDelay()
		log.Infow(ctx, "realtime reconnecting", "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Close tears the connection down and stops reconnection.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	cancel := c.cancel
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		return conn.Close()
	}
	return nil
}

// Subscribe requests push events for a conversation. Idempotent: repeated
// calls for the same id keep a single logical subscription.
func (c *Client) Subscribe(conversationID string) error {
	c.mu.Lock()
	if _, ok := c.subs[conversationID]; ok {
		c.mu.Unlock()
		return nil
	}
	c.subs[conversationID] = struct{}{}
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		// replayed on next connect
		return nil
	}
	return c.send(conn, command{Action: "subscribe", ConversationID: conversationID})
}

func (c *Client) Unsubscribe(conversationID string) error {
	c.mu.Lock()
	if _, ok := c.subs[conversationID]; !ok {
		c.mu.Unlock()
		return nil
	}
	delete(c.subs, conversationID)
	conn := c.conn
	c.mu.Unlock()

	if conn == nil {
		return nil
	}
	return c.send(conn, command{Action: "unsubscribe", ConversationID: conversationID})
}

func (c *Client) connect(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	conn.SetReadLimit(maxMessageSize)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return fmt.Errorf("client closed")
	}
	c.conn = conn
	resubs := make([]string, 0, len(c.subs))
	for id := range c.subs {
		resubs = append(resubs, id)
	}
	c.mu.Unlock()

	// replay subscriptions lost with the previous connection
	for _, id := range resubs {
		if err := c.send(conn, command{Action: "subscribe", ConversationID: id}); err != nil {
			conn.Close()
			return fmt.Errorf("resubscribe %s: %w", id, err)
		}
	}

	log.Infow(ctx, "realtime connected", "url", c.url, "subscriptions", len(resubs))
	return nil
}

func (c *Client) send(conn *websocket.Conn, cmd command) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(cmd)
}

func (c *Client) readLoop(ctx context.Context) {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return
	}

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	pingCtx, stopPing := context.WithCancel(ctx)
	defer stopPing()
	go c.pingLoop(pingCtx, conn)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Warnw(ctx, "realtime read failed", "error", err)
			}
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			conn.Close()
			return
		}
		c.dispatch(ctx, data)
	}
}

func (c *Client) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) dispatch(ctx context.Context, data []byte) {
	var env models.RealtimeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warnw(ctx, "realtime envelope decode failed", "error", err)
		return
	}
	if env.ConversationID == "" || len(env.Message) == 0 {
		return
	}

	var msgEnv feedapi.MessageEnvelope
	if err := json.Unmarshal(env.Message, &msgEnv); err != nil {
		log.Warnw(ctx, "realtime message decode failed",
			"conversation_id", env.ConversationID, "error", err)
		return
	}

	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()
	if handler != nil {
		handler(ctx, string(env.ConversationID), msgEnv.ToMessage())
	}
}

// reconnector computes retry delays: exponential backoff with jitter,
// resetting after a connection that held for over a minute.
type reconnector struct {
	baseDelay   time.Duration
	maxDelay    time.Duration
	maxAttempts int

	mu          sync.Mutex
	attempt     int
	connectedAt time.Time
}

func (r *reconnector) shouldReconnect() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.maxAttempts == 0 || r.attempt < r.maxAttempts
}

func (r *reconnector) markConnected() {
	r.mu.Lock()
	r.connectedAt = time.Now()
	r.mu.Unlock()
}

func (r *reconnector) nextDelay() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.connectedAt.IsZero() && time.Since(r.connectedAt) > time.Minute {
		r.attempt = 0
	}
	jitter := time.Duration(rand.Float64() * float64(r.baseDelay) * 0.5)
	delay := time.Duration(math.Min(
		float64(r.baseDelay)*math.Pow(2, float64(r.attempt))+float64(jitter),
		float64(r.maxDelay),
	))
	r.attempt++
	return delay
}
