package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/feed-client/internal/models"
)

func TestFindDirectByPair(t *testing.T) {
	s := NewConversationStore()
	s.Upsert(&models.Conversation{ID: "c1", ParticipantIDs: []string{"1", "2"}})
	s.Upsert(&models.Conversation{ID: "g1", IsGroup: true, ParticipantIDs: []string{"1", "2", "3"}})

	conv, ok := s.FindDirect("2", "1")
	require.True(t, ok)
	assert.Equal(t, "c1", conv.ID)

	_, ok = s.FindDirect("1", "3")
	assert.False(t, ok)
}

func TestUpsertSupersedesPendingPlaceholder(t *testing.T) {
	s := NewConversationStore()
	placeholder := s.PendingPlaceholder("1", "2")
	assert.True(t, placeholder.Pending)
	assert.Empty(t, placeholder.ID)

	s.Upsert(&models.Conversation{ID: "c7", ParticipantIDs: []string{"1", "2"}})

	conv, ok := s.FindDirect("1", "2")
	require.True(t, ok)
	assert.Equal(t, "c7", conv.ID)
	assert.False(t, conv.Pending)

	// no lingering placeholder in the listing
	for _, c := range s.All() {
		assert.False(t, c.Pending)
	}
}

func TestPendingPlaceholderIsStablePerPair(t *testing.T) {
	s := NewConversationStore()
	a := s.PendingPlaceholder("1", "2")
	b := s.PendingPlaceholder("2", "1")
	assert.Equal(t, a.ParticipantIDs, b.ParticipantIDs)
	assert.Len(t, s.All(), 1)
}

func TestAppendDeduplicatesByServerID(t *testing.T) {
	s := NewConversationStore()
	msg := &models.Message{ID: "m1", ConversationID: "c1", SenderID: "2", Content: "hi"}

	assert.True(t, s.Append("c1", msg))
	assert.False(t, s.Append("c1", &models.Message{ID: "m1", Content: "redelivered"}))
	assert.Len(t, s.Messages("c1"), 1)
	assert.True(t, s.HasMessage("c1", "m1"))
}

func TestReplacePendingIdempotent(t *testing.T) {
	s := NewConversationStore()
	pending := &models.Message{ClientTempID: "tmp-1", SenderID: "1", Content: "hello"}
	s.AppendPending("c1", pending)
	require.True(t, s.HasPendingTemp("c1", "tmp-1"))

	confirmed := &models.Message{ID: "m9", ClientTempID: "tmp-1", SenderID: "1", Content: "hello"}

	// HTTP commit replaces the placeholder
	assert.True(t, s.ReplacePending("c1", "tmp-1", confirmed))
	assert.False(t, s.HasPendingTemp("c1", "tmp-1"))

	// the same confirmation arriving again (realtime) changes nothing
	assert.False(t, s.ReplacePending("c1", "tmp-1", confirmed))
	assert.False(t, s.Append("c1", confirmed))

	msgs := s.Messages("c1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "m9", msgs[0].ID)
}

func TestReplacePendingDropsPlaceholderWhenServerIDBeatIt(t *testing.T) {
	s := NewConversationStore()
	s.AppendPending("c1", &models.Message{ClientTempID: "tmp-1", SenderID: "1", Content: "hello"})

	// a realtime copy without the temp id lands before the HTTP commit
	require.True(t, s.Append("c1", &models.Message{ID: "m9", SenderID: "1", Content: "hello"}))

	confirmed := &models.Message{ID: "m9", ClientTempID: "tmp-1", SenderID: "1", Content: "hello"}
	assert.False(t, s.ReplacePending("c1", "tmp-1", confirmed))

	// the placeholder must not linger next to the delivered copy
	assert.False(t, s.HasPendingTemp("c1", "tmp-1"))
	msgs := s.Messages("c1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "m9", msgs[0].ID)
}

func TestReplacePendingAppendsWhenPlaceholderGone(t *testing.T) {
	s := NewConversationStore()
	confirmed := &models.Message{ID: "m2", ClientTempID: "tmp-x", Content: "late"}

	assert.True(t, s.ReplacePending("c1", "tmp-x", confirmed))
	assert.Len(t, s.Messages("c1"), 1)
	assert.True(t, s.HasMessage("c1", "m2"))
}

func TestRemovePendingOnlyTouchesPlaceholder(t *testing.T) {
	s := NewConversationStore()
	s.Append("c1", &models.Message{ID: "m1", Content: "existing"})
	s.AppendPending("c1", &models.Message{ClientTempID: "tmp-2", Content: "doomed"})

	assert.True(t, s.RemovePending("c1", "tmp-2"))
	assert.False(t, s.RemovePending("c1", "tmp-2"))

	msgs := s.Messages("c1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "m1", msgs[0].ID)
}

func TestDraftRoundTrip(t *testing.T) {
	s := NewConversationStore()
	s.SetDraft("1:2", "typed but unsent")
	assert.Equal(t, "typed but unsent", s.Draft("1:2"))

	s.SetDraft("1:2", "")
	assert.Empty(t, s.Draft("1:2"))
}

func TestSetMessagesRebuildsIDSet(t *testing.T) {
	s := NewConversationStore()
	s.Append("c1", &models.Message{ID: "old"})
	s.SetMessages("c1", []*models.Message{{ID: "a"}, {ID: "b"}})

	assert.False(t, s.HasMessage("c1", "old"))
	assert.True(t, s.HasMessage("c1", "a"))
	assert.False(t, s.Append("c1", &models.Message{ID: "b"}))
}
