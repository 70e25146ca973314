package usecase

import (
	"context"
	"sync"

	"github.com/nguyentranbao-ct/feed-client/internal/models"
	"github.com/nguyentranbao-ct/feed-client/internal/repo/feedapi"
)

// fakeAPI implements feedapi.Client with per-call function hooks. Unset
// hooks return zero values so tests only wire what they exercise.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	listConversations  func(ctx context.Context) ([]feedapi.ConversationEnvelope, error)
	createConversation func(ctx context.Context, participantID string) (*feedapi.ConversationEnvelope, error)
	getMessages        func(ctx context.Context, conversationID string, limit int) ([]feedapi.MessageEnvelope, error)
	sendMessage        func(ctx context.Context, conversationID string, params feedapi.SendMessageParams) (*feedapi.MessageEnvelope, error)
	conversationExists func(ctx context.Context, conversationID string) bool

	getPost            func(ctx context.Context, postID string) (*models.Post, error)
	reactToPost        func(ctx context.Context, postID string, req feedapi.ReactionRequest) error
	deletePostReaction func(ctx context.Context, postID, reactorID string) error
	reactToComment     func(ctx context.Context, commentID string, req feedapi.ReactionRequest) error
	createComment      func(ctx context.Context, postID string, req feedapi.CreateCommentRequest) (*models.Comment, error)
	createReply        func(ctx context.Context, commentID string, req feedapi.CreateReplyRequest) (*models.Reply, error)
	getReplies         func(ctx context.Context, commentID string) ([]*models.Reply, error)
	sharePost          func(ctx context.Context, postID, userID string) (int, error)
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeAPI) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeAPI) ListConversations(ctx context.Context) ([]feedapi.ConversationEnvelope, error) {
	f.record("ListConversations")
	if f.listConversations == nil {
		return nil, nil
	}
	return f.listConversations(ctx)
}

func (f *fakeAPI) CreateConversation(ctx context.Context, participantID string) (*feedapi.ConversationEnvelope, error) {
	f.record("CreateConversation")
	if f.createConversation == nil {
		return nil, models.ErrNotFound
	}
	return f.createConversation(ctx, participantID)
}

func (f *fakeAPI) GetMessages(ctx context.Context, conversationID string, limit int) ([]feedapi.MessageEnvelope, error) {
	f.record("GetMessages")
	if f.getMessages == nil {
		return nil, nil
	}
	return f.getMessages(ctx, conversationID, limit)
}

func (f *fakeAPI) SendMessage(ctx context.Context, conversationID string, params feedapi.SendMessageParams) (*feedapi.MessageEnvelope, error) {
	f.record("SendMessage")
	if f.sendMessage == nil {
		return nil, &models.NetworkError{Op: "send message", Err: context.Canceled}
	}
	return f.sendMessage(ctx, conversationID, params)
}

func (f *fakeAPI) ConversationExists(ctx context.Context, conversationID string) bool {
	f.record("ConversationExists")
	if f.conversationExists == nil {
		return false
	}
	return f.conversationExists(ctx, conversationID)
}

func (f *fakeAPI) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	f.record("GetPost")
	if f.getPost == nil {
		return nil, models.ErrNotFound
	}
	return f.getPost(ctx, postID)
}

func (f *fakeAPI) ReactToPost(ctx context.Context, postID string, req feedapi.ReactionRequest) error {
	f.record("ReactToPost")
	if f.reactToPost == nil {
		return nil
	}
	return f.reactToPost(ctx, postID, req)
}

func (f *fakeAPI) DeletePostReaction(ctx context.Context, postID, reactorID string) error {
	f.record("DeletePostReaction")
	if f.deletePostReaction == nil {
		return nil
	}
	return f.deletePostReaction(ctx, postID, reactorID)
}

func (f *fakeAPI) ReactToComment(ctx context.Context, commentID string, req feedapi.ReactionRequest) error {
	f.record("ReactToComment")
	if f.reactToComment == nil {
		return nil
	}
	return f.reactToComment(ctx, commentID, req)
}

func (f *fakeAPI) CreateComment(ctx context.Context, postID string, req feedapi.CreateCommentRequest) (*models.Comment, error) {
	f.record("CreateComment")
	if f.createComment == nil {
		return nil, models.ErrNotFound
	}
	return f.createComment(ctx, postID, req)
}

func (f *fakeAPI) CreateReply(ctx context.Context, commentID string, req feedapi.CreateReplyRequest) (*models.Reply, error) {
	f.record("CreateReply")
	if f.createReply == nil {
		return nil, models.ErrNotFound
	}
	return f.createReply(ctx, commentID, req)
}

func (f *fakeAPI) GetReplies(ctx context.Context, commentID string) ([]*models.Reply, error) {
	f.record("GetReplies")
	if f.getReplies == nil {
		return nil, nil
	}
	return f.getReplies(ctx, commentID)
}

func (f *fakeAPI) SharePost(ctx context.Context, postID, userID string) (int, error) {
	f.record("SharePost")
	if f.sharePost == nil {
		return 0, models.ErrNotFound
	}
	return f.sharePost(ctx, postID, userID)
}

// memCache is an in-memory ResolutionCache.
type memCache struct {
	mu sync.Mutex
	m  map[string]string
}

func newMemCache() *memCache { return &memCache{m: map[string]string{}} }

func (c *memCache) Lookup(_ context.Context, pairKey string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[pairKey], nil
}

func (c *memCache) Store(_ context.Context, pairKey, conversationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[pairKey] = conversationID
	return nil
}

// memDedup is an in-memory EventDedup.
type memDedup struct {
	mu sync.Mutex
	m  map[string]bool
}

func newMemDedup() *memDedup { return &memDedup{m: map[string]bool{}} }

func (d *memDedup) Seen(_ context.Context, conversationID, messageID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.m[conversationID+"/"+messageID], nil
}

func (d *memDedup) Record(_ context.Context, conversationID, messageID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.m[conversationID+"/"+messageID] = true
	return nil
}

// recordingNotifier captures toasts for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	toasts []string
}

func (n *recordingNotifier) Toast(_ context.Context, severity, message string) {
	n.mu.Lock()
	n.toasts = append(n.toasts, severity+": "+message)
	n.mu.Unlock()
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.toasts)
}

// fakeChannel records subscriptions and lets tests inject inbound events.
type fakeChannel struct {
	mu      sync.Mutex
	subs    map[string]int
	handler func(ctx context.Context, conversationID string, msg *models.Message)
}

func newFakeChannel() *fakeChannel { return &fakeChannel{subs: map[string]int{}} }

func (c *fakeChannel) Subscribe(conversationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs[conversationID]++
	return nil
}

func (c *fakeChannel) Unsubscribe(conversationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, conversationID)
	return nil
}

func (c *fakeChannel) OnMessage(handler func(ctx context.Context, conversationID string, msg *models.Message)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handler = handler
}

func (c *fakeChannel) push(ctx context.Context, conversationID string, msg *models.Message) {
	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h != nil {
		h(ctx, conversationID, msg)
	}
}
