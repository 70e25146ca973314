package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetReactionReplacesNotAppends(t *testing.T) {
	set := []Reaction{
		{TargetType: TargetPost, TargetID: "p1", ReactorID: "u1", Type: ReactionLike},
		{TargetType: TargetPost, TargetID: "p1", ReactorID: "u2", Type: ReactionLove},
	}

	set = SetReaction(set, Reaction{TargetType: TargetPost, TargetID: "p1", ReactorID: "u1", Type: ReactionWow})

	require.Len(t, set, 2)
	assert.Equal(t, ReactionWow, set[0].Type)
	assert.Equal(t, "u1", set[0].ReactorID)
	assert.Equal(t, ReactionLove, set[1].Type)
}

func TestSetReactionAddsNewReactor(t *testing.T) {
	var set []Reaction
	set = SetReaction(set, Reaction{ReactorID: "u1", Type: ReactionLike})
	set = SetReaction(set, Reaction{ReactorID: "u2", Type: ReactionSad})
	assert.Len(t, set, 2)
}

func TestRemoveReactionFiltersByReactor(t *testing.T) {
	set := []Reaction{
		{ReactorID: "u1", Type: ReactionLike},
		{ReactorID: "u2", Type: ReactionLove},
		{ReactorID: "u3", Type: ReactionHaha},
	}

	set = RemoveReaction(set, "u2")

	require.Len(t, set, 2)
	assert.Equal(t, "u1", set[0].ReactorID)
	assert.Equal(t, "u3", set[1].ReactorID)

	// removing an unknown reactor is a no-op
	assert.Len(t, RemoveReaction(set, "nobody"), 2)
}

func replyTree() []*Reply {
	return []*Reply{
		{
			ID:       "r1",
			ParentID: "c1",
			Children: []*Reply{
				{ID: "r1a", ParentID: "r1"},
				{ID: "r1b", ParentID: "r1", Children: []*Reply{{ID: "r1b1", ParentID: "r1b"}}},
			},
		},
		{ID: "r2", ParentID: "c1"},
	}
}

func TestFindReplyNested(t *testing.T) {
	tree := replyTree()

	r := FindReply(tree, "r1b1")
	require.NotNil(t, r)
	assert.Equal(t, "r1b", r.ParentID)

	assert.Nil(t, FindReply(tree, "missing"))
}

func TestWalkRepliesVisitsAllNodes(t *testing.T) {
	var seen []string
	WalkReplies(replyTree(), func(r *Reply) bool {
		seen = append(seen, r.ID)
		return true
	})
	assert.Equal(t, []string{"r1", "r1a", "r1b", "r1b1", "r2"}, seen)
}

func TestPostCloneIsDeep(t *testing.T) {
	post := &Post{
		ID:        "p1",
		Reactions: []Reaction{{ReactorID: "u1", Type: ReactionLike}},
		Comments: []*Comment{
			{
				ID:        "c1",
				Reactions: []Reaction{{ReactorID: "u2", Type: ReactionLove}},
				Replies:   replyTree(),
			},
		},
	}

	snap := post.Clone()

	// mutate the original in place the way reducers do
	post.Reactions[0].Type = ReactionAngry
	post.Comments[0].Content = "edited"
	post.Comments[0].Replies[0].Children[0].Content = "deep edit"

	assert.Equal(t, ReactionLike, snap.Reactions[0].Type)
	assert.Equal(t, "", snap.Comments[0].Content)
	assert.Equal(t, "", snap.Comments[0].Replies[0].Children[0].Content)
}

func TestPairKeyIsOrderInsensitive(t *testing.T) {
	assert.Equal(t, PairKey("1", "2"), PairKey("2", "1"))
	assert.Equal(t, "1:2", PairKey("2", "1"))
}

func TestIsDirectBetween(t *testing.T) {
	conv := &Conversation{ID: "c9", ParticipantIDs: []string{"7", "3"}}
	assert.True(t, conv.IsDirectBetween("3", "7"))
	assert.True(t, conv.IsDirectBetween("7", "3"))
	assert.False(t, conv.IsDirectBetween("3", "4"))

	group := &Conversation{ID: "g1", IsGroup: true, ParticipantIDs: []string{"3", "7"}}
	assert.False(t, group.IsDirectBetween("3", "7"))
}
