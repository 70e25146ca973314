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

// MutationEngine applies user-initiated writes to local state immediately,
// then reconciles with the server asynchronously. Every mutation follows the
// same lifecycle: validate, snapshot the touched field, apply, dispatch;
// commit on success, roll the snapshot back on failure. Snapshots are
// field-scoped, so a rollback never discards newer optimistic or
// realtime-merged state on other fields, regardless of reconciliation order.
// Reaction snapshots go further and scope to the single reactor entry: a
// newer reaction by the same reactor survives an earlier one's late failure.
type MutationEngine interface {
	ReactToPost(ctx context.Context, postID, reactorID string, t models.ReactionType) error
	UnreactPost(ctx context.Context, postID, reactorID string) error
	ReactToNode(ctx context.Context, postID, nodeID string, target models.ReactionTarget, reactorID string, t models.ReactionType) error
	Comment(ctx context.Context, params CommentParams) (string, error)
	Reply(ctx context.Context, params ReplyParams) (string, error)
	Share(ctx context.Context, postID, userID string) error
	RefreshPost(ctx context.Context, postID string) (*models.Post, error)
}

// CommentParams is a comment submission.
type CommentParams struct {
	PostID     string `json:"post_id" validate:"required"`
	AuthorID   string `json:"author_id" validate:"required"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content" validate:"required"`
}

// ReplyParams is a reply submission. ParentID defaults to CommentID for
// top-level replies; for nested replies it is the parent reply id.
type ReplyParams struct {
	PostID     string `json:"post_id" validate:"required"`
	CommentID  string `json:"comment_id" validate:"required"`
	ParentID   string `json:"parent_id"`
	AuthorID   string `json:"author_id" validate:"required"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content" validate:"required"`
}

type mutationEngine struct {
	api      feedapi.Client
	posts    *store.PostStore
	notifier Notifier
}

func NewMutationEngine(api feedapi.Client, posts *store.PostStore, notifier Notifier) MutationEngine {
	return &mutationEngine{
		api:      api,
		posts:    posts,
		notifier: notifier,
	}
}

const reconcileTimeout = 30 * time.Second

// dispatch runs the network half of a mutation off the request goroutine.
// The reconciliation context is detached from the caller so navigating away
// cannot cancel it mid-flight; rollbacks targeting an aggregate that has
// since been evicted are silent no-ops inside the store.
func (e *mutationEngine) dispatch(ctx context.Context, name string, send func(ctx context.Context) error, rollback func()) {
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reconcileTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			log.Warnw(ctx, "mutation failed, rolling back", "mutation", name, "error", err)
			rollback()
			e.notifier.Toast(ctx, "error", name+" failed, please try again")
		}
	}()
}

func (e *mutationEngine) ReactToPost(ctx context.Context, postID, reactorID string, t models.ReactionType) error {
	if !models.ValidReactionType(t) {
		return &models.ValidationError{Field: "type", Reason: "unknown reaction type"}
	}
	reaction := models.Reaction{
		TargetType: models.TargetPost,
		TargetID:   postID,
		ReactorID:  reactorID,
		Type:       t,
	}
	prev, ok := e.posts.ApplyPostReaction(postID, reaction)
	if !ok {
		return models.ErrNotFound
	}
	e.dispatch(ctx, "reaction", func(ctx context.Context) error {
		return e.api.ReactToPost(ctx, postID, feedapi.ReactionRequest{ReactorID: reactorID, Type: t})
	}, func() {
		e.posts.RevertPostReaction(postID, reactorID, &reaction, prev)
	})
	return nil
}

func (e *mutationEngine) UnreactPost(ctx context.Context, postID, reactorID string) error {
	prev, ok := e.posts.RemovePostReaction(postID, reactorID)
	if !ok {
		return models.ErrNotFound
	}
	e.dispatch(ctx, "remove reaction", func(ctx context.Context) error {
		return e.api.DeletePostReaction(ctx, postID, reactorID)
	}, func() {
		e.posts.RevertPostReaction(postID, reactorID, nil, prev)
	})
	return nil
}

func (e *mutationEngine) ReactToNode(ctx context.Context, postID, nodeID string, target models.ReactionTarget, reactorID string, t models.ReactionType) error {
	if !models.ValidReactionType(t) {
		return &models.ValidationError{Field: "type", Reason: "unknown reaction type"}
	}
	reaction := models.Reaction{
		TargetType: target,
		TargetID:   nodeID,
		ReactorID:  reactorID,
		Type:       t,
	}
	prev, ok := e.posts.ApplyNodeReaction(postID, nodeID, reaction)
	if !ok {
		return models.ErrNotFound
	}
	e.dispatch(ctx, "reaction", func(ctx context.Context) error {
		return e.api.ReactToComment(ctx, nodeID, feedapi.ReactionRequest{ReactorID: reactorID, Type: t})
	}, func() {
		e.posts.RevertNodeReaction(postID, nodeID, reactorID, &reaction, prev)
	})
	return nil
}

// Comment inserts a placeholder at the head of the comment list, returning
// its client temp id. On commit the placeholder is replaced by the server
// entity, keeping locally-known author metadata the server omits; on failure
// the placeholder is removed and the typed text lands back in the draft.
func (e *mutationEngine) Comment(ctx context.Context, params CommentParams) (string, error) {
	if strings.TrimSpace(params.Content) == "" {
		return "", &models.ValidationError{Field: "content", Reason: "comment cannot be empty"}
	}

	tempID := uuid.NewString()
	placeholder := &models.Comment{
		PostID:       params.PostID,
		AuthorID:     params.AuthorID,
		AuthorName:   params.AuthorName,
		Content:      params.Content,
		CreatedAt:    time.Now(),
		ClientTempID: tempID,
	}
	if !e.posts.InsertComment(params.PostID, placeholder) {
		return "", models.ErrNotFound
	}

	e.dispatch(ctx, "comment", func(ctx context.Context) error {
		confirmed, err := e.api.CreateComment(ctx, params.PostID, feedapi.CreateCommentRequest{
			AuthorID:     params.AuthorID,
			Content:      params.Content,
			ClientTempID: tempID,
		})
		if err != nil {
			return err
		}
		if confirmed.ID == "" {
			// ambiguous response shape: fall back to the canonical aggregate
			_, err := e.RefreshPost(ctx, params.PostID)
			return err
		}
		if confirmed.AuthorName == "" {
			confirmed.AuthorName = params.AuthorName
		}
		confirmed.ClientTempID = ""
		e.posts.ReplaceComment(params.PostID, tempID, confirmed)
		return nil
	}, func() {
		e.posts.RemoveCommentByTemp(params.PostID, tempID)
		e.posts.SetDraft(params.PostID, params.Content)
	})
	return tempID, nil
}

// Reply follows the same placeholder pattern scoped under the parent node,
// then refreshes the comment's reply subtree after commit so nested counts
// stay consistent.
func (e *mutationEngine) Reply(ctx context.Context, params ReplyParams) (string, error) {
	if strings.TrimSpace(params.Content) == "" {
		return "", &models.ValidationError{Field: "content", Reason: "reply cannot be empty"}
	}
	if params.ParentID == "" {
		params.ParentID = params.CommentID
	}

	tempID := uuid.NewString()
	placeholder := &models.Reply{
		ParentID:     params.ParentID,
		AuthorID:     params.AuthorID,
		AuthorName:   params.AuthorName,
		Content:      params.Content,
		CreatedAt:    time.Now(),
		ClientTempID: tempID,
	}
	if !e.posts.InsertReply(params.PostID, params.CommentID, placeholder) {
		return "", models.ErrNotFound
	}

	e.dispatch(ctx, "reply", func(ctx context.Context) error {
		confirmed, err := e.api.CreateReply(ctx, params.CommentID, feedapi.CreateReplyRequest{
			AuthorID:     params.AuthorID,
			ParentID:     params.ParentID,
			Content:      params.Content,
			ClientTempID: tempID,
		})
		if err != nil {
			return err
		}
		if confirmed.AuthorName == "" {
			confirmed.AuthorName = params.AuthorName
		}
		confirmed.ClientTempID = ""
		e.posts.ReplaceReply(params.PostID, params.CommentID, tempID, confirmed)

		// reply-subtree refresh is unordered relative to independent
		// reactions on the same subtree; the fields are disjoint
		replies, err := e.api.GetReplies(ctx, params.CommentID)
		if err != nil {
			log.Warnw(ctx, "reply subtree refresh failed", "comment_id", params.CommentID, "error", err)
			return nil
		}
		e.posts.SetReplies(params.PostID, params.CommentID, replies)
		return nil
	}, func() {
		e.posts.RemoveReplyByTemp(params.PostID, params.CommentID, tempID)
		e.posts.SetDraft(params.CommentID, params.Content)
	})
	return tempID, nil
}

// Share has no optimistic local entity: fire, confirm the counter from the
// server, or toast.
func (e *mutationEngine) Share(ctx context.Context, postID, userID string) error {
	if !e.posts.Exists(postID) {
		return models.ErrNotFound
	}
	e.dispatch(ctx, "share", func(ctx context.Context) error {
		count, err := e.api.SharePost(ctx, postID, userID)
		if err != nil {
			return err
		}
		e.posts.SetShareCount(postID, count)
		e.notifier.Toast(ctx, "info", "post shared")
		return nil
	}, func() {})
	return nil
}

// RefreshPost re-fetches the canonical aggregate and returns the stored
// copy. It doubles as the reconciliation fallback for ambiguous response
// shapes.
func (e *mutationEngine) RefreshPost(ctx context.Context, postID string) (*models.Post, error) {
	post, err := e.api.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	e.posts.Put(post)
	refreshed, ok := e.posts.Get(post.ID)
	if !ok {
		return nil, models.ErrNotFound
	}
	return refreshed, nil
}
