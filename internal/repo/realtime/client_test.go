package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/feed-client/internal/config"
	"github.com/nguyentranbao-ct/feed-client/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// testGateway is a minimal push-gateway: it records subscribe commands and
// pushes queued events to the connected client.
type testGateway struct {
	mu       sync.Mutex
	commands []command
	conns    []*websocket.Conn
}

func (g *testGateway) handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	g.mu.Lock()
	g.conns = append(g.conns, conn)
	g.mu.Unlock()

	for {
		var cmd command
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		g.mu.Lock()
		g.commands = append(g.commands, cmd)
		g.mu.Unlock()
	}
}

func (g *testGateway) push(t *testing.T, env models.RealtimeEnvelope) {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	require.NotEmpty(t, g.conns)
	conn := g.conns[len(g.conns)-1]
	data, err := json.Marshal(env)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func (g *testGateway) pushRaw(t *testing.T, frame string) {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	require.NotEmpty(t, g.conns)
	conn := g.conns[len(g.conns)-1]
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func (g *testGateway) subscribeCount(id string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, cmd := range g.commands {
		if cmd.Action == "subscribe" && cmd.ConversationID == id {
			n++
		}
	}
	return n
}

func newTestClient(t *testing.T, gw *testGateway) (*Client, context.CancelFunc) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(gw.handler))
	t.Cleanup(srv.Close)

	conf := &config.Config{}
	conf.Realtime.URL = "ws" + strings.TrimPrefix(srv.URL, "http")
	conf.Realtime.ReconnectBaseDelay = 10 * time.Millisecond
	conf.Realtime.ReconnectMaxDelay = 50 * time.Millisecond

	client := NewClient(conf)
	ctx, cancel := context.WithCancel(context.Background())
	go client.Run(ctx)
	t.Cleanup(func() {
		cancel()
		client.Close()
	})
	return client, cancel
}

func waitConnected(t *testing.T, c *Client) {
	t.Helper()
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.conn != nil
	}, 2*time.Second, 5*time.Millisecond)
}

func TestClient_DeliversEvents(t *testing.T) {
	gw := &testGateway{}
	client, _ := newTestClient(t, gw)
	waitConnected(t, client)

	var mu sync.Mutex
	var got []*models.Message
	client.OnMessage(func(ctx context.Context, conversationID string, msg *models.Message) {
		mu.Lock()
		got = append(got, msg)
		mu.Unlock()
	})
	require.NoError(t, client.Subscribe("c1"))

	raw, _ := json.Marshal(map[string]any{"id": 41, "conversation_id": "c1", "content": "hi"})
	gw.push(t, models.RealtimeEnvelope{ConversationID: "c1", Message: raw})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	// numeric wire id is carried as its string form
	assert.Equal(t, "41", got[0].ID)
	assert.Equal(t, "hi", got[0].Content)
}

func TestClient_DeliversNumericConversationID(t *testing.T) {
	gw := &testGateway{}
	client, _ := newTestClient(t, gw)
	waitConnected(t, client)

	var mu sync.Mutex
	var gotConv string
	client.OnMessage(func(ctx context.Context, conversationID string, msg *models.Message) {
		mu.Lock()
		gotConv = conversationID
		mu.Unlock()
	})
	require.NoError(t, client.Subscribe("77"))

	// some deployments serialize the envelope's conversation id as a number
	gw.pushRaw(t, `{"conversation_id":77,"message":{"id":"m1","content":"hey"}}`)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return gotConv == "77"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestClient_SubscribeIsIdempotent(t *testing.T) {
	gw := &testGateway{}
	client, _ := newTestClient(t, gw)
	waitConnected(t, client)

	require.NoError(t, client.Subscribe("c1"))
	require.NoError(t, client.Subscribe("c1"))
	require.NoError(t, client.Subscribe("c1"))

	assert.Eventually(t, func() bool {
		return gw.subscribeCount("c1") == 1
	}, 2*time.Second, 5*time.Millisecond)
}

func TestClient_ResubscribesAfterReconnect(t *testing.T) {
	gw := &testGateway{}
	client, _ := newTestClient(t, gw)
	waitConnected(t, client)
	require.NoError(t, client.Subscribe("c1"))

	// kill the connection server-side; the client must come back subscribed
	gw.mu.Lock()
	gw.conns[0].Close()
	gw.mu.Unlock()

	assert.Eventually(t, func() bool {
		return gw.subscribeCount("c1") == 2
	}, 3*time.Second, 10*time.Millisecond)
}

func TestClient_MalformedEventIgnored(t *testing.T) {
	gw := &testGateway{}
	client, _ := newTestClient(t, gw)
	waitConnected(t, client)

	delivered := make(chan struct{}, 1)
	client.OnMessage(func(ctx context.Context, conversationID string, msg *models.Message) {
		delivered <- struct{}{}
	})
	require.NoError(t, client.Subscribe("c1"))

	gw.mu.Lock()
	conn := gw.conns[len(gw.conns)-1]
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	gw.mu.Unlock()

	select {
	case <-delivered:
		t.Fatal("malformed event must not reach the handler")
	case <-time.After(100 * time.Millisecond):
	}
}
