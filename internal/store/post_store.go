package store

import (
	"sync"

	"github.com/nguyentranbao-ct/feed-client/internal/models"
)

// PostStore owns the Post aggregates. Mutators are field-scoped on purpose:
// a rollback touches only what the failed mutation wrote (for reactions,
// the one reactor entry), so newer optimistic or realtime-merged state
// survives.
type PostStore struct {
	mu        sync.RWMutex
	posts     map[string]*models.Post
	drafts    map[string]string
	listeners []Listener
}

func NewPostStore() *PostStore {
	return &PostStore{
		posts:  make(map[string]*models.Post),
		drafts: make(map[string]string),
	}
}

// SetDraft keeps compose-box text: keyed by post id for the comment box,
// by parent node id for reply boxes. A failed submission restores the typed
// text here.
func (s *PostStore) SetDraft(key, text string) {
	s.mu.Lock()
	if text == "" {
		delete(s.drafts, key)
	} else {
		s.drafts[key] = text
	}
	s.mu.Unlock()
}

// Draft returns the stored compose text for the key.
func (s *PostStore) Draft(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drafts[key]
}

// Subscribe registers an observer for store changes.
func (s *PostStore) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

func (s *PostStore) notify(postID string) {
	for _, l := range s.listeners {
		go l(Event{Type: EventPostChanged, AggregateID: postID})
	}
}

// Put stores the canonical aggregate, replacing any previous version.
func (s *PostStore) Put(post *models.Post) {
	if post == nil || post.ID == "" {
		return
	}
	s.mu.Lock()
	s.posts[post.ID] = post.Clone()
	s.notify(post.ID)
	s.mu.Unlock()
}

// Get returns a deep copy of the post; readers can never alias store state.
func (s *PostStore) Get(postID string) (*models.Post, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	post, ok := s.posts[postID]
	if !ok {
		return nil, false
	}
	return post.Clone(), true
}

// Exists reports whether the aggregate is still present in local state.
// In-flight reconciliations whose target is gone are silently discarded.
func (s *PostStore) Exists(postID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.posts[postID]
	return ok
}

// Remove drops a post aggregate (view teardown).
func (s *PostStore) Remove(postID string) {
	s.mu.Lock()
	delete(s.posts, postID)
	s.mu.Unlock()
}

// ApplyPostReaction sets the reactor's reaction on the post with
// replace-not-append semantics and returns the reactor's previous entry
// (nil if they had none) as the rollback snapshot.
func (s *PostStore) ApplyPostReaction(postID string, r models.Reaction) (*models.Reaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return nil, false
	}
	var prev *models.Reaction
	if cur, found := models.FindReaction(post.Reactions, r.ReactorID); found {
		prev = &cur
	}
	post.Reactions = models.SetReaction(post.Reactions, r)
	s.notify(postID)
	return prev, true
}

// RemovePostReaction deletes the reactor's entry by identity and returns
// the removed entry.
func (s *PostStore) RemovePostReaction(postID, reactorID string) (*models.Reaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return nil, false
	}
	var prev *models.Reaction
	if cur, found := models.FindReaction(post.Reactions, reactorID); found {
		prev = &cur
	}
	post.Reactions = models.RemoveReaction(post.Reactions, reactorID)
	s.notify(postID)
	return prev, true
}

// RevertPostReaction undoes one reactor's failed reaction change. The revert
// is scoped to that reactor's entry and only lands while the entry still
// matches what the failed change wrote; a newer change by the same reactor
// survives.
func (s *PostStore) RevertPostReaction(postID, reactorID string, applied, prev *models.Reaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return
	}
	post.Reactions = models.RevertReaction(post.Reactions, reactorID, applied, prev)
	s.notify(postID)
}

// ApplyNodeReaction sets a reaction on a comment or on a reply anywhere in
// its tree, returning the reactor's previous entry on that node.
func (s *PostStore) ApplyNodeReaction(postID, nodeID string, r models.Reaction) (*models.Reaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return nil, false
	}
	if set := nodeReactions(post, nodeID); set != nil {
		var prev *models.Reaction
		if cur, found := models.FindReaction(*set, r.ReactorID); found {
			prev = &cur
		}
		*set = models.SetReaction(*set, r)
		s.notify(postID)
		return prev, true
	}
	return nil, false
}

// RevertNodeReaction undoes one reactor's failed reaction change on a
// comment or reply, with the same newest-change-wins scoping as
// RevertPostReaction.
func (s *PostStore) RevertNodeReaction(postID, nodeID, reactorID string, applied, prev *models.Reaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return
	}
	if set := nodeReactions(post, nodeID); set != nil {
		*set = models.RevertReaction(*set, reactorID, applied, prev)
		s.notify(postID)
	}
}

func nodeReactions(post *models.Post, nodeID string) *[]models.Reaction {
	for _, c := range post.Comments {
		if c.ID == nodeID {
			return &c.Reactions
		}
		if reply := models.FindReply(c.Replies, nodeID); reply != nil {
			return &reply.Reactions
		}
	}
	return nil
}

// InsertComment places a placeholder at the head of the comment list.
func (s *PostStore) InsertComment(postID string, c *models.Comment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return false
	}
	post.Comments = append([]*models.Comment{c}, post.Comments...)
	s.notify(postID)
	return true
}

// ReplaceComment swaps the placeholder matched by temp id for the server
// entity.
func (s *PostStore) ReplaceComment(postID, tempID string, confirmed *models.Comment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return false
	}
	for i, c := range post.Comments {
		if c.ClientTempID == tempID {
			post.Comments[i] = confirmed
			s.notify(postID)
			return true
		}
	}
	return false
}

// RemoveCommentByTemp drops a placeholder after a failed submission.
func (s *PostStore) RemoveCommentByTemp(postID, tempID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return false
	}
	for i, c := range post.Comments {
		if c.ClientTempID == tempID {
			post.Comments = append(post.Comments[:i], post.Comments[i+1:]...)
			s.notify(postID)
			return true
		}
	}
	return false
}

// InsertReply attaches a placeholder under its parent node: directly under
// the comment for top-level replies, under the matching reply otherwise.
func (s *PostStore) InsertReply(postID, commentID string, reply *models.Reply) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return false
	}
	for _, c := range post.Comments {
		if c.ID != commentID {
			continue
		}
		if reply.ParentID == c.ID {
			c.Replies = append(c.Replies, reply)
			c.ReplyCount++
			s.notify(postID)
			return true
		}
		if parent := models.FindReply(c.Replies, reply.ParentID); parent != nil {
			parent.Children = append(parent.Children, reply)
			c.ReplyCount++
			s.notify(postID)
			return true
		}
		return false
	}
	return false
}

// ReplaceReply swaps a reply placeholder matched by temp id anywhere in the
// comment's tree.
func (s *PostStore) ReplaceReply(postID, commentID, tempID string, confirmed *models.Reply) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return false
	}
	for _, c := range post.Comments {
		if c.ID != commentID {
			continue
		}
		if replaceReplyIn(&c.Replies, tempID, confirmed) {
			s.notify(postID)
			return true
		}
		return false
	}
	return false
}

// RemoveReplyByTemp drops a reply placeholder after a failed submission.
func (s *PostStore) RemoveReplyByTemp(postID, commentID, tempID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return false
	}
	for _, c := range post.Comments {
		if c.ID != commentID {
			continue
		}
		if removeReplyIn(&c.Replies, tempID) {
			c.ReplyCount--
			s.notify(postID)
			return true
		}
		return false
	}
	return false
}

// SetReplies replaces a comment's reply subtree after a refresh.
func (s *PostStore) SetReplies(postID, commentID string, replies []*models.Reply) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return false
	}
	for _, c := range post.Comments {
		if c.ID == commentID {
			c.Replies = replies
			c.ReplyCount = countReplies(replies)
			s.notify(postID)
			return true
		}
	}
	return false
}

// SetShareCount updates the share counter from a server response.
func (s *PostStore) SetShareCount(postID string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return
	}
	post.ShareCount = n
	s.notify(postID)
}

func replaceReplyIn(list *[]*models.Reply, tempID string, confirmed *models.Reply) bool {
	for i, r := range *list {
		if r.ClientTempID == tempID && r.ID == "" {
			(*list)[i] = confirmed
			return true
		}
		if replaceReplyIn(&r.Children, tempID, confirmed) {
			return true
		}
	}
	return false
}

func removeReplyIn(list *[]*models.Reply, tempID string) bool {
	for i, r := range *list {
		if r.ClientTempID == tempID && r.ID == "" {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return true
		}
		if removeReplyIn(&r.Children, tempID) {
			return true
		}
	}
	return false
}

func countReplies(list []*models.Reply) int {
	n := 0
	models.WalkReplies(list, func(*models.Reply) bool {
		n++
		return true
	})
	return n
}
