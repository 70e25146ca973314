package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"

	"github.com/nguyentranbao-ct/feed-client/internal/config"
	"github.com/nguyentranbao-ct/feed-client/internal/models"
	"github.com/nguyentranbao-ct/feed-client/internal/repo/feedapi"
	"github.com/nguyentranbao-ct/feed-client/internal/store"
)

// ConversationResolver maps a pair of users to their single direct
// conversation. The backend's listing endpoint hides conversations with zero
// messages, so a just-created or found-but-empty conversation is invisible
// through the normal read path; the resolver compensates by trusting
// write-path signals (creation success, conflict payloads, first-send
// responses) over the read path.
type ConversationResolver interface {
	// Resolve runs the full strategy chain. When every strategy fails it
	// returns a pending placeholder (degraded mode) rather than an error, so
	// the caller can still accept user input.
	Resolve(ctx context.Context, selfID, otherID string) (models.Conversation, error)

	// ResolveForSend re-runs the non-delayed strategies at send time for a
	// still-pending conversation. Exhaustion here is terminal:
	// models.ErrConversationUnresolvable.
	ResolveForSend(ctx context.Context, selfID, otherID string) (string, error)
}

type conversationResolver struct {
	api        feedapi.Client
	convs      *store.ConversationStore
	cache      ResolutionCache
	retryDelay time.Duration
	locks      pairLocks
}

func NewConversationResolver(
	conf *config.Config,
	api feedapi.Client,
	convs *store.ConversationStore,
	cache ResolutionCache,
) ConversationResolver {
	return &conversationResolver{
		api:        api,
		convs:      convs,
		cache:      cache,
		retryDelay: conf.Resolver.RetryDelay,
	}
}

func (r *conversationResolver) Resolve(ctx context.Context, selfID, otherID string) (models.Conversation, error) {
	key := models.PairKey(selfID, otherID)
	unlock := r.locks.lock(key)
	defer unlock()

	if conv, ok := r.resolveLocked(ctx, selfID, otherID, true); ok {
		return conv, nil
	}

	log.Warnw(ctx, "conversation resolution exhausted, entering degraded mode",
		"self_id", selfID, "other_id", otherID)
	return r.convs.PendingPlaceholder(selfID, otherID), nil
}

func (r *conversationResolver) ResolveForSend(ctx context.Context, selfID, otherID string) (string, error) {
	key := models.PairKey(selfID, otherID)
	unlock := r.locks.lock(key)
	defer unlock()

	// no delayed re-scan at send time: the user is waiting
	if conv, ok := r.resolveLocked(ctx, selfID, otherID, false); ok {
		return conv.ID, nil
	}
	return "", models.ErrConversationUnresolvable
}

// resolveLocked runs the strategy chain under the pair lock, short-circuiting
// on first success. withDelay enables the single-shot delayed re-scan that
// dodges the backend's post-conflict race window.
func (r *conversationResolver) resolveLocked(ctx context.Context, selfID, otherID string, withDelay bool) (models.Conversation, bool) {
	// 1. local cache scan
	if conv, ok := r.lookupLocal(ctx, selfID, otherID); ok {
		return conv, true
	}

	// 2. forced refresh + re-scan
	if conv, ok := r.refreshAndScan(ctx, selfID, otherID); ok {
		return conv, true
	}

	// 3. create
	conv, err := r.create(ctx, selfID, otherID)
	if err == nil {
		return conv, true
	}

	// 4. conflict handling: the conversation exists but the listing hid it
	var conflict *models.ConflictError
	if errors.As(err, &conflict) {
		if id := r.recoverFromConflict(ctx, conflict.Payload); id != "" {
			return r.adopt(ctx, id, selfID, otherID), true
		}
	} else {
		log.Warnw(ctx, "conversation creation failed", "error", err,
			"self_id", selfID, "other_id", otherID)
	}

	if !withDelay {
		return models.Conversation{}, false
	}

	// 5. delayed single-shot re-scan
	select {
	case <-ctx.Done():
		return models.Conversation{}, false
	case <-time.After(r.retryDelay):
	}
	if conv, ok := r.lookupLocal(ctx, selfID, otherID); ok {
		return conv, true
	}
	if conv, ok := r.refreshAndScan(ctx, selfID, otherID); ok {
		return conv, true
	}
	return models.Conversation{}, false
}

// lookupLocal checks the in-memory store, then the durable resolution cache.
func (r *conversationResolver) lookupLocal(ctx context.Context, selfID, otherID string) (models.Conversation, bool) {
	if conv, ok := r.convs.FindDirect(selfID, otherID); ok && conv.Resolved() {
		return conv, true
	}
	id, err := r.cache.Lookup(ctx, models.PairKey(selfID, otherID))
	if err != nil {
		log.Warnw(ctx, "resolution cache lookup failed", "error", err)
		return models.Conversation{}, false
	}
	if id == "" {
		return models.Conversation{}, false
	}
	return r.adopt(ctx, id, selfID, otherID), true
}

// refreshAndScan re-fetches the conversation list and scans it for the pair,
// caching every listed conversation along the way.
func (r *conversationResolver) refreshAndScan(ctx context.Context, selfID, otherID string) (models.Conversation, bool) {
	envelopes, err := r.api.ListConversations(ctx)
	if err != nil {
		log.Warnw(ctx, "conversation list refresh failed", "error", err)
		return models.Conversation{}, false
	}

	var match *models.Conversation
	for i := range envelopes {
		env := &envelopes[i]
		conv := env.ToConversation(selfID)
		r.convs.Upsert(conv)
		if env.MatchesPair(selfID, otherID) && conv.Resolved() {
			match = conv
		}
	}
	if match == nil {
		return models.Conversation{}, false
	}
	r.remember(ctx, selfID, otherID, match.ID)
	return *match, true
}

func (r *conversationResolver) create(ctx context.Context, selfID, otherID string) (models.Conversation, error) {
	env, err := r.api.CreateConversation(ctx, otherID)
	if err != nil {
		return models.Conversation{}, err
	}
	conv := env.ToConversation(selfID)
	if len(conv.ParticipantIDs) < 2 {
		conv.ParticipantIDs = []string{selfID, otherID}
	}
	r.convs.Upsert(conv)
	r.remember(ctx, selfID, otherID, conv.ID)
	log.Infow(ctx, "conversation created", "conversation_id", conv.ID,
		"self_id", selfID, "other_id", otherID)
	return *conv, nil
}

// recoverFromConflict mines a creation-conflict payload for the existing
// conversation id: the extractor pipeline first, then existence probes on
// every numeric token left in the payload. Probe failures are swallowed;
// only total exhaustion matters.
func (r *conversationResolver) recoverFromConflict(ctx context.Context, payload []byte) string {
	if id := extractExistingID(payload); id != "" {
		log.Infow(ctx, "recovered conversation id from conflict payload", "conversation_id", id)
		return id
	}
	for _, candidate := range numericCandidates(payload) {
		if r.api.ConversationExists(ctx, candidate) {
			log.Infow(ctx, "recovered conversation id by probing", "conversation_id", candidate)
			return candidate
		}
	}
	return ""
}

// adopt records a conversation known only by id, keeping participant
// identity so the pair index stays consistent.
func (r *conversationResolver) adopt(ctx context.Context, id, selfID, otherID string) models.Conversation {
	conv := &models.Conversation{
		ID:             id,
		ParticipantIDs: []string{selfID, otherID},
	}
	r.convs.Upsert(conv)
	r.remember(ctx, selfID, otherID, id)
	return *conv
}

func (r *conversationResolver) remember(ctx context.Context, selfID, otherID, id string) {
	if err := r.cache.Store(ctx, models.PairKey(selfID, otherID), id); err != nil {
		log.Warnw(ctx, "resolution cache store failed", "error", err, "conversation_id", id)
	}
}

// pairLocks serializes creation attempts per sorted participant pair so a
// rapid double-invocation cannot create two conversations.
type pairLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (p *pairLocks) lock(key string) func() {
	p.mu.Lock()
	if p.locks == nil {
		p.locks = make(map[string]*sync.Mutex)
	}
	l, ok := p.locks[key]
	if !ok {
		l = &sync.Mutex{}
		p.locks[key] = l
	}
	p.mu.Unlock()

	l.Lock()
	return l.Unlock
}
