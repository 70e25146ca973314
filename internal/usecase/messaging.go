package usecase

import (
	"context"
	"strings"
	"time"

	log "github.com/carousell/ct-go/pkg/logger/log_context"
	"github.com/google/uuid"

	"github.com/nguyentranbao-ct/feed-client/internal/models"
	"github.com/nguyentranbao-ct/feed-client/internal/repo/feedapi"
	"github.com/nguyentranbao-ct/feed-client/internal/store"
)

// ChatUsecase drives the messaging view: opening a conversation by peer,
// sending messages optimistically, and tearing subscriptions down again.
type ChatUsecase interface {
	ListConversations(ctx context.Context, selfID string) ([]models.Conversation, error)
	OpenConversation(ctx context.Context, selfID, peerID string) (models.Conversation, []*models.Message, error)
	CloseConversation(ctx context.Context, conversationID string)
	SendMessage(ctx context.Context, params models.SendMessageParams) (*models.Message, error)
	Draft(selfID, peerID string) string
}

type chatUsecase struct {
	api      feedapi.Client
	resolver ConversationResolver
	convs    *store.ConversationStore
	channel  RealtimeChannel
	notifier Notifier
}

func NewChatUsecase(
	api feedapi.Client,
	resolver ConversationResolver,
	convs *store.ConversationStore,
	channel RealtimeChannel,
	notifier Notifier,
) ChatUsecase {
	return &chatUsecase{
		api:      api,
		resolver: resolver,
		convs:    convs,
		channel:  channel,
		notifier: notifier,
	}
}

func (uc *chatUsecase) ListConversations(ctx context.Context, selfID string) ([]models.Conversation, error) {
	envelopes, err := uc.api.ListConversations(ctx)
	if err != nil {
		// degrade to the local cache: stale beats empty
		log.Warnw(ctx, "conversation listing failed, serving cache", "error", err)
		return uc.convs.All(), nil
	}
	for i := range envelopes {
		uc.convs.Upsert(envelopes[i].ToConversation(selfID))
	}
	return uc.convs.All(), nil
}

// OpenConversation resolves the pair and loads its message history. In
// degraded mode the placeholder comes back with no messages; the compose box
// stays usable and the first send re-attempts resolution.
func (uc *chatUsecase) OpenConversation(ctx context.Context, selfID, peerID string) (models.Conversation, []*models.Message, error) {
	conv, err := uc.resolver.Resolve(ctx, selfID, peerID)
	if err != nil {
		return models.Conversation{}, nil, err
	}
	if !conv.Resolved() {
		return conv, nil, nil
	}

	envelopes, err := uc.api.GetMessages(ctx, conv.ID, 0)
	if err != nil {
		log.Warnw(ctx, "message history fetch failed", "conversation_id", conv.ID, "error", err)
	} else {
		msgs := make([]*models.Message, len(envelopes))
		for i := range envelopes {
			msgs[i] = envelopes[i].ToMessage()
		}
		uc.convs.SetMessages(conv.ID, msgs)
	}

	if err := uc.channel.Subscribe(conv.ID); err != nil {
		log.Warnw(ctx, "realtime subscribe failed", "conversation_id", conv.ID, "error", err)
	}
	return conv, uc.convs.Messages(conv.ID), nil
}

func (uc *chatUsecase) CloseConversation(ctx context.Context, conversationID string) {
	if err := uc.channel.Unsubscribe(conversationID); err != nil {
		log.Warnw(ctx, "realtime unsubscribe failed", "conversation_id", conversationID, "error", err)
	}
}

// SendMessage validates, resolves the conversation (including the degraded
// path), appends a pending local message synchronously, then transmits and
// reconciles asynchronously. The typed text is preserved as a draft until
// the server confirms the send.
func (uc *chatUsecase) SendMessage(ctx context.Context, params models.SendMessageParams) (*models.Message, error) {
	if strings.TrimSpace(params.Content) == "" && params.Attachment == nil {
		return nil, &models.ValidationError{Field: "content", Reason: "message needs text or an attachment"}
	}

	pairKey := models.PairKey(params.SelfID, params.PeerID)
	uc.convs.SetDraft(pairKey, params.Content)

	conversationID := ""
	if conv, ok := uc.convs.FindDirect(params.SelfID, params.PeerID); ok && conv.Resolved() {
		conversationID = conv.ID
	} else {
		// degraded mode: the send itself re-attempts resolution
		id, err := uc.resolver.ResolveForSend(ctx, params.SelfID, params.PeerID)
		if err != nil {
			// terminal; draft keeps the typed message
			return nil, err
		}
		conversationID = id
		if err := uc.channel.Subscribe(conversationID); err != nil {
			log.Warnw(ctx, "realtime subscribe failed", "conversation_id", conversationID, "error", err)
		}
	}

	tempID := uuid.NewString()
	pending := &models.Message{
		ConversationID: conversationID,
		SenderID:       params.SelfID,
		Content:        params.Content,
		CreatedAt:      time.Now(),
		ClientTempID:   tempID,
	}
	if params.Attachment != nil {
		pending.Attachments = []models.Attachment{*params.Attachment}
	}
	uc.convs.AppendPending(conversationID, pending)

	go uc.transmit(ctx, conversationID, pairKey, tempID, params)

	return pending, nil
}

func (uc *chatUsecase) transmit(ctx context.Context, conversationID, pairKey, tempID string, params models.SendMessageParams) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reconcileTimeout)
	defer cancel()

	sendParams := feedapi.SendMessageParams{
		SenderID:     params.SelfID,
		Content:      params.Content,
		ClientTempID: tempID,
	}
	if params.Attachment != nil {
		sendParams.FileName = params.Attachment.DisplayName
		sendParams.File = params.AttachedRaw
	}

	env, err := uc.api.SendMessage(ctx, conversationID, sendParams)
	if err != nil {
		log.Warnw(ctx, "message send failed", "conversation_id", conversationID, "error", err)
		uc.convs.RemovePending(conversationID, tempID)
		uc.notifier.Toast(ctx, "error", "message could not be sent")
		return
	}

	confirmed := env.ToMessage()
	confirmed.ClientTempID = ""
	uc.convs.ReplacePending(conversationID, tempID, confirmed)
	uc.convs.SetDraft(pairKey, "")
}

func (uc *chatUsecase) Draft(selfID, peerID string) string {
	return uc.convs.Draft(models.PairKey(selfID, peerID))
}
