package models

import "time"

// ReactionType enumerates the reaction palette.
type ReactionType string

const (
	ReactionLike  ReactionType = "like"
	ReactionLove  ReactionType = "love"
	ReactionCare  ReactionType = "care"
	ReactionHaha  ReactionType = "haha"
	ReactionWow   ReactionType = "wow"
	ReactionSad   ReactionType = "sad"
	ReactionAngry ReactionType = "angry"
)

// ValidReactionType reports whether t is one of the known reaction types.
func ValidReactionType(t ReactionType) bool {
	switch t {
	case ReactionLike, ReactionLove, ReactionCare, ReactionHaha, ReactionWow, ReactionSad, ReactionAngry:
		return true
	}
	return false
}

// ReactionTarget enumerates what a reaction can be attached to.
type ReactionTarget string

const (
	TargetPost    ReactionTarget = "post"
	TargetComment ReactionTarget = "comment"
	TargetReply   ReactionTarget = "reply"
)

// Reaction is one user's reaction on one target. At most one reaction per
// (target type, target id, reactor) exists; setting a new type replaces it.
type Reaction struct {
	TargetType ReactionTarget `json:"target_type"`
	TargetID   string         `json:"target_id"`
	ReactorID  string         `json:"reactor_id"`
	Type       ReactionType   `json:"type"`
}

// Reply is a node in a comment's reply tree. ParentID is always the id of
// the immediate parent node: the comment id for top-level replies, the
// parent reply id for nested ones.
type Reply struct {
	ID           string     `json:"id"`
	ParentID     string     `json:"parent_id"`
	AuthorID     string     `json:"author_id"`
	AuthorName   string     `json:"author_name,omitempty"`
	Content      string     `json:"content"`
	Reactions    []Reaction `json:"reactions,omitempty"`
	Children     []*Reply   `json:"children,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	ClientTempID string     `json:"client_temp_id,omitempty"`
}

// Comment is a top-level comment on a post, root of its reply tree.
type Comment struct {
	ID           string     `json:"id"`
	PostID       string     `json:"post_id"`
	AuthorID     string     `json:"author_id"`
	AuthorName   string     `json:"author_name,omitempty"`
	Content      string     `json:"content"`
	Reactions    []Reaction `json:"reactions,omitempty"`
	Replies      []*Reply   `json:"replies,omitempty"`
	ReplyCount   int        `json:"reply_count"`
	CreatedAt    time.Time  `json:"created_at"`
	ClientTempID string     `json:"client_temp_id,omitempty"`
}

// Post is the canonical feed aggregate: files, reactions, comments.
type Post struct {
	ID         string       `json:"id"`
	AuthorID   string       `json:"author_id"`
	Content    string       `json:"content"`
	Files      []Attachment `json:"files,omitempty"`
	Reactions  []Reaction   `json:"reactions,omitempty"`
	Comments   []*Comment   `json:"comments,omitempty"`
	ShareCount int          `json:"share_count"`
	CreatedAt  time.Time    `json:"created_at"`
}

// SetReaction applies replace-not-append semantics: an existing reaction by
// the same reactor is overwritten in place, otherwise the reaction is added.
func SetReaction(set []Reaction, r Reaction) []Reaction {
	for i := range set {
		if set[i].ReactorID == r.ReactorID {
			set[i] = r
			return set
		}
	}
	return append(set, r)
}

// RemoveReaction deletes a reactor's entry by identity, never by position.
func RemoveReaction(set []Reaction, reactorID string) []Reaction {
	out := set[:0]
	for _, r := range set {
		if r.ReactorID != reactorID {
			out = append(out, r)
		}
	}
	return out
}

// FindReaction returns the reactor's current entry in the set.
func FindReaction(set []Reaction, reactorID string) (Reaction, bool) {
	for _, r := range set {
		if r.ReactorID == reactorID {
			return r, true
		}
	}
	return Reaction{}, false
}

// RevertReaction undoes one reactor's failed optimistic change. applied is
// what that change wrote (nil for a removal), prev what the reactor had
// before it. The set is only touched while the reactor's entry still matches
// applied; once a newer change by the same reactor has landed it wins and
// the revert is a no-op.
func RevertReaction(set []Reaction, reactorID string, applied, prev *Reaction) []Reaction {
	cur, ok := FindReaction(set, reactorID)
	switch {
	case applied == nil:
		if !ok && prev != nil {
			return append(set, *prev)
		}
	case ok && cur.Type == applied.Type:
		if prev != nil {
			return SetReaction(set, *prev)
		}
		return RemoveReaction(set, reactorID)
	}
	return set
}

// FindReply walks the reply tree under root looking for id.
func FindReply(root []*Reply, id string) *Reply {
	for _, r := range root {
		if r.ID == id {
			return r
		}
		if found := FindReply(r.Children, id); found != nil {
			return found
		}
	}
	return nil
}

// WalkReplies visits every node of the reply tree depth-first. The walk
// stops early when fn returns false.
func WalkReplies(root []*Reply, fn func(*Reply) bool) bool {
	for _, r := range root {
		if !fn(r) {
			return false
		}
		if !WalkReplies(r.Children, fn) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the post. Snapshots for optimistic rollback
// must be deep: nested comment and reaction slices are mutated in place.
func (p *Post) Clone() *Post {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Files = append([]Attachment(nil), p.Files...)
	cp.Reactions = append([]Reaction(nil), p.Reactions...)
	if p.Comments != nil {
		cp.Comments = make([]*Comment, len(p.Comments))
		for i, c := range p.Comments {
			cp.Comments[i] = c.Clone()
		}
	}
	return &cp
}

// Clone returns a deep copy of the comment and its reply tree.
func (c *Comment) Clone() *Comment {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Reactions = append([]Reaction(nil), c.Reactions...)
	cp.Replies = cloneReplies(c.Replies)
	return &cp
}

// Clone returns a deep copy of the reply subtree.
func (r *Reply) Clone() *Reply {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Reactions = append([]Reaction(nil), r.Reactions...)
	cp.Children = cloneReplies(r.Children)
	return &cp
}

func cloneReplies(rs []*Reply) []*Reply {
	if rs == nil {
		return nil
	}
	out := make([]*Reply, len(rs))
	for i, r := range rs {
		out[i] = r.Clone()
	}
	return out
}
