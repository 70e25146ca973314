package store

import (
	"sync"

	"github.com/nguyentranbao-ct/feed-client/internal/models"
)

// ConversationStore owns the Conversation/Message aggregates. Message lists
// are deduplicated by server id so redelivered realtime events can never
// grow them; pending (unconfirmed) messages are tracked by client temp id
// until the commit path or the realtime channel confirms them.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]*models.Conversation // by conversation id
	pairIndex     map[string]string               // pair key -> conversation id
	pending       map[string]*models.Conversation // pair key -> placeholder
	messages      map[string][]*models.Message
	msgIDs        map[string]map[string]struct{} // conversation id -> server id set
	drafts        map[string]string
	listeners     []Listener
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[string]*models.Conversation),
		pairIndex:     make(map[string]string),
		pending:       make(map[string]*models.Conversation),
		messages:      make(map[string][]*models.Message),
		msgIDs:        make(map[string]map[string]struct{}),
		drafts:        make(map[string]string),
	}
}

// Subscribe registers an observer for store changes.
func (s *ConversationStore) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

func (s *ConversationStore) notify(ev Event) {
	for _, l := range s.listeners {
		go l(ev)
	}
}

// Upsert stores a resolved conversation and indexes direct conversations by
// their participant pair. A pending placeholder for the same pair is
// superseded by the resolved entry.
func (s *ConversationStore) Upsert(conv *models.Conversation) {
	if conv == nil || conv.ID == "" {
		return
	}
	s.mu.Lock()
	cp := *conv
	cp.ParticipantIDs = append([]string(nil), conv.ParticipantIDs...)
	cp.Pending = false
	s.conversations[cp.ID] = &cp
	if !cp.IsGroup && len(cp.ParticipantIDs) == 2 {
		key := models.PairKey(cp.ParticipantIDs[0], cp.ParticipantIDs[1])
		s.pairIndex[key] = cp.ID
		delete(s.pending, key)
	}
	s.notify(Event{Type: EventConversationUpdated, AggregateID: cp.ID})
	s.mu.Unlock()
}

// Get returns a copy of the conversation with the given id.
func (s *ConversationStore) Get(id string) (models.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return models.Conversation{}, false
	}
	return *conv, true
}

// FindDirect returns the cached direct conversation for the pair, if any.
func (s *ConversationStore) FindDirect(selfID, otherID string) (models.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.pairIndex[models.PairKey(selfID, otherID)]; ok {
		if conv, ok := s.conversations[id]; ok {
			return *conv, true
		}
	}
	// fall back to a scan: group upserts do not maintain the pair index
	for _, conv := range s.conversations {
		if conv.IsDirectBetween(selfID, otherID) {
			return *conv, true
		}
	}
	return models.Conversation{}, false
}

// PendingPlaceholder returns the degraded-mode placeholder for the pair,
// creating one if needed. The placeholder keeps participant identity so the
// caller can still accept user input while the id is unknown.
func (s *ConversationStore) PendingPlaceholder(selfID, otherID string) models.Conversation {
	key := models.PairKey(selfID, otherID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[key]; ok {
		return *p
	}
	p := &models.Conversation{
		ParticipantIDs: []string{selfID, otherID},
		Pending:        true,
	}
	s.pending[key] = p
	s.notify(Event{Type: EventConversationUpdated, AggregateID: key})
	return *p
}

// All returns a snapshot of every cached conversation, pending placeholders
// included.
func (s *ConversationStore) All() []models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Conversation, 0, len(s.conversations)+len(s.pending))
	for _, conv := range s.conversations {
		out = append(out, *conv)
	}
	for _, conv := range s.pending {
		out = append(out, *conv)
	}
	return out
}

// SetMessages replaces a conversation's message list wholesale (initial
// fetch or full refresh) and rebuilds the server-id set.
func (s *ConversationStore) SetMessages(conversationID string, msgs []*models.Message) {
	s.mu.Lock()
	ids := make(map[string]struct{}, len(msgs))
	list := make([]*models.Message, len(msgs))
	for i, m := range msgs {
		list[i] = m
		if m.ID != "" {
			ids[m.ID] = struct{}{}
		}
	}
	s.messages[conversationID] = list
	s.msgIDs[conversationID] = ids
	s.notify(Event{Type: EventMessagesChanged, AggregateID: conversationID})
	s.mu.Unlock()
}

// Messages returns a copy of the conversation's message list.
func (s *ConversationStore) Messages(conversationID string) []*models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*models.Message(nil), s.messages[conversationID]...)
}

// HasMessage reports whether a message with the given server id is present.
func (s *ConversationStore) HasMessage(conversationID, messageID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.msgIDs[conversationID][messageID]
	return ok
}

// HasPendingTemp reports whether a locally-originated message with the given
// client temp id is still awaiting confirmation.
func (s *ConversationStore) HasPendingTemp(conversationID, tempID string) bool {
	if tempID == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.messages[conversationID] {
		if m.ClientTempID == tempID && m.ID == "" {
			return true
		}
	}
	return false
}

// Append adds a confirmed message unless one with the same server id is
// already present. Membership is checked on the id set, never on list
// length or timestamps, to tolerate out-of-order delivery and redelivery.
func (s *ConversationStore) Append(conversationID string, msg *models.Message) bool {
	if msg == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg.ID != "" {
		if _, dup := s.msgIDs[conversationID][msg.ID]; dup {
			return false
		}
	}
	s.messages[conversationID] = append(s.messages[conversationID], msg)
	if msg.ID != "" {
		if s.msgIDs[conversationID] == nil {
			s.msgIDs[conversationID] = make(map[string]struct{})
		}
		s.msgIDs[conversationID][msg.ID] = struct{}{}
	}
	s.notify(Event{Type: EventMessagesChanged, AggregateID: conversationID})
	return true
}

// AppendPending adds a locally-originated message awaiting confirmation.
func (s *ConversationStore) AppendPending(conversationID string, msg *models.Message) {
	if msg == nil || msg.ClientTempID == "" {
		return
	}
	s.mu.Lock()
	s.messages[conversationID] = append(s.messages[conversationID], msg)
	s.notify(Event{Type: EventMessagesChanged, AggregateID: conversationID})
	s.mu.Unlock()
}

// ReplacePending swaps the placeholder matched by temp id for its confirmed
// counterpart. It is idempotent: if the confirmed id is already present (the
// realtime channel or a second commit got there first) nothing changes, and
// if the placeholder is gone the confirmed message is appended at most once.
func (s *ConversationStore) ReplacePending(conversationID, tempID string, confirmed *models.Message) bool {
	if confirmed == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if confirmed.ID != "" {
		if _, dup := s.msgIDs[conversationID][confirmed.ID]; dup {
			// a realtime copy carrying the server id landed first; the
			// placeholder still has to go or one message shows twice
			if s.dropPendingLocked(conversationID, tempID) {
				s.notify(Event{Type: EventMessagesChanged, AggregateID: conversationID})
			}
			return false
		}
	}
	registered := false
	for i, m := range s.messages[conversationID] {
		if m.ClientTempID == tempID && m.ID == "" {
			s.messages[conversationID][i] = confirmed
			registered = true
			break
		}
	}
	if !registered {
		s.messages[conversationID] = append(s.messages[conversationID], confirmed)
	}
	if confirmed.ID != "" {
		if s.msgIDs[conversationID] == nil {
			s.msgIDs[conversationID] = make(map[string]struct{})
		}
		s.msgIDs[conversationID][confirmed.ID] = struct{}{}
	}
	s.notify(Event{Type: EventMessagesChanged, AggregateID: conversationID})
	return true
}

// RemovePending drops a placeholder after a failed send.
func (s *ConversationStore) RemovePending(conversationID, tempID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dropPendingLocked(conversationID, tempID) {
		return false
	}
	s.notify(Event{Type: EventMessagesChanged, AggregateID: conversationID})
	return true
}

func (s *ConversationStore) dropPendingLocked(conversationID, tempID string) bool {
	list := s.messages[conversationID]
	for i, m := range list {
		if m.ClientTempID == tempID && m.ID == "" {
			s.messages[conversationID] = append(list[:i], list[i+1:]...)
			return true
		}
	}
	return false
}

// SetDraft keeps the compose box content for a conversation (by id, or by
// pair key while unresolved) so a failed submission can restore it.
func (s *ConversationStore) SetDraft(key, text string) {
	s.mu.Lock()
	if text == "" {
		delete(s.drafts, key)
	} else {
		s.drafts[key] = text
	}
	s.mu.Unlock()
}

// Draft returns the stored compose text for the key.
func (s *ConversationStore) Draft(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drafts[key]
}
