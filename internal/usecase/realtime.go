package usecase

import (
	"context"

	log "github.com/carousell/ct-go/pkg/logger/log_context"

	"github.com/nguyentranbao-ct/feed-client/internal/models"
	"github.com/nguyentranbao-ct/feed-client/internal/store"
)

// RealtimeReconciler merges inbound push events into the local message
// cache. The channel is at-least-once with no ordering guarantee, so every
// merge decision is keyed on ids: a client_temp_id match means the event
// echoes our own optimistic send, and a known server id means redelivery.
type RealtimeReconciler interface {
	Start()
	HandleMessage(ctx context.Context, conversationID string, msg *models.Message)
}

type realtimeReconciler struct {
	convs   *store.ConversationStore
	channel RealtimeChannel
	dedup   EventDedup
}

func NewRealtimeReconciler(
	convs *store.ConversationStore,
	channel RealtimeChannel,
	dedup EventDedup,
) RealtimeReconciler {
	return &realtimeReconciler{
		convs:   convs,
		channel: channel,
		dedup:   dedup,
	}
}

// Start registers the reconciler as the channel's message handler.
func (r *realtimeReconciler) Start() {
	r.channel.OnMessage(r.HandleMessage)
}

// HandleMessage applies the merge rule for one inbound event:
//
//  1. events for conversations not in the local cache are dropped
//  2. a client_temp_id matching a pending local message is a no-op; the
//     send reconciliation owns that replacement
//  3. a server id already present locally is redelivery, dropped
//  4. everything else is appended
func (r *realtimeReconciler) HandleMessage(ctx context.Context, conversationID string, msg *models.Message) {
	if msg == nil || conversationID == "" {
		return
	}
	if _, ok := r.convs.Get(conversationID); !ok {
		log.Debugw(ctx, "realtime event for unknown conversation dropped",
			"conversation_id", conversationID)
		return
	}

	if msg.ClientTempID != "" && r.convs.HasPendingTemp(conversationID, msg.ClientTempID) {
		return
	}
	if msg.ID == "" {
		log.Warnw(ctx, "realtime message without id dropped",
			"conversation_id", conversationID)
		return
	}
	if r.convs.HasMessage(conversationID, msg.ID) {
		return
	}

	seen, err := r.dedup.Seen(ctx, conversationID, msg.ID)
	if err != nil {
		log.Warnw(ctx, "event dedup lookup failed",
			"conversation_id", conversationID, "message_id", msg.ID, "error", err)
	} else if seen {
		return
	}

	r.convs.Append(conversationID, msg)

	if err := r.dedup.Record(ctx, conversationID, msg.ID); err != nil {
		log.Warnw(ctx, "event dedup record failed",
			"conversation_id", conversationID, "message_id", msg.ID, "error", err)
	}
}
