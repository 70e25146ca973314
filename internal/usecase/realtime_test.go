package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyentranbao-ct/feed-client/internal/models"
	"github.com/nguyentranbao-ct/feed-client/internal/store"
)

func newReconcilerFixture() (*store.ConversationStore, *fakeChannel, RealtimeReconciler) {
	convs := store.NewConversationStore()
	channel := newFakeChannel()
	rec := NewRealtimeReconciler(convs, channel, newMemDedup())
	rec.Start()
	return convs, channel, rec
}

func TestReconciler_AppendsNewMessage(t *testing.T) {
	convs, channel, _ := newReconcilerFixture()
	resolvedConversation(convs, "c1", "alice", "bob")

	channel.push(context.Background(), "c1", &models.Message{
		ID: "m1", ConversationID: "c1", SenderID: "bob", Content: "hi",
	})

	msgs := convs.Messages("c1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "m1", msgs[0].ID)
}

func TestReconciler_DropsUnknownConversation(t *testing.T) {
	convs, channel, _ := newReconcilerFixture()

	channel.push(context.Background(), "ghost", &models.Message{ID: "m1", ConversationID: "ghost"})

	assert.Empty(t, convs.Messages("ghost"))
}

func TestReconciler_EchoOfOwnPendingIsNoOp(t *testing.T) {
	convs, channel, _ := newReconcilerFixture()
	resolvedConversation(convs, "c1", "alice", "bob")
	convs.AppendPending("c1", &models.Message{
		ConversationID: "c1", SenderID: "alice", Content: "mine", ClientTempID: "tmp-1",
	})

	// the realtime echo of our own send, server id already assigned
	channel.push(context.Background(), "c1", &models.Message{
		ID: "srv-1", ConversationID: "c1", SenderID: "alice", Content: "mine", ClientTempID: "tmp-1",
	})

	msgs := convs.Messages("c1")
	require.Len(t, msgs, 1)
	assert.Equal(t, "tmp-1", msgs[0].ClientTempID)
	assert.True(t, msgs[0].Pending())
}

func TestReconciler_RedeliveryIsIdempotent(t *testing.T) {
	convs, channel, _ := newReconcilerFixture()
	resolvedConversation(convs, "c1", "alice", "bob")

	msg := &models.Message{ID: "m1", ConversationID: "c1", SenderID: "bob", Content: "hi"}
	channel.push(context.Background(), "c1", msg)
	channel.push(context.Background(), "c1", msg)
	channel.push(context.Background(), "c1", msg)

	assert.Len(t, convs.Messages("c1"), 1)
}

func TestReconciler_StringIDsNeverCoerced(t *testing.T) {
	convs, channel, _ := newReconcilerFixture()
	resolvedConversation(convs, "c1", "alice", "bob")

	// "7" and "07" are distinct ids under string equality
	channel.push(context.Background(), "c1", &models.Message{ID: "7", ConversationID: "c1"})
	channel.push(context.Background(), "c1", &models.Message{ID: "07", ConversationID: "c1"})

	assert.Len(t, convs.Messages("c1"), 2)
}

func TestReconciler_DedupSurvivesLocalEviction(t *testing.T) {
	convs := store.NewConversationStore()
	channel := newFakeChannel()
	dedup := newMemDedup()
	rec := NewRealtimeReconciler(convs, channel, dedup)
	rec.Start()
	resolvedConversation(convs, "c1", "alice", "bob")

	msg := &models.Message{ID: "m1", ConversationID: "c1", Content: "hi"}
	channel.push(context.Background(), "c1", msg)
	require.Len(t, convs.Messages("c1"), 1)

	// message cache reset, durable dedup still remembers the id
	convs.SetMessages("c1", nil)
	channel.push(context.Background(), "c1", msg)

	assert.Empty(t, convs.Messages("c1"))
}

func TestReconciler_DropsMessageWithoutID(t *testing.T) {
	convs, channel, _ := newReconcilerFixture()
	resolvedConversation(convs, "c1", "alice", "bob")

	channel.push(context.Background(), "c1", &models.Message{ConversationID: "c1", Content: "no id"})

	assert.Empty(t, convs.Messages("c1"))
}
