package models

import "sort"

// Conversation is a durable thread between two (or more, if group) users.
// ID is empty only while resolution is still in flight; once set it never
// changes for the lifetime of the conversation.
type Conversation struct {
	ID             string   `json:"id"`
	ParticipantIDs []string `json:"participant_ids"`
	IsGroup        bool     `json:"is_group"`
	DisplayName    string   `json:"display_name"`
	AvatarRef      string   `json:"avatar_ref"`

	// Pending marks a degraded-mode placeholder: the peer is known but the
	// backend has not yet given us an id. The first send against a pending
	// conversation re-attempts resolution before transmitting.
	Pending bool `json:"pending,omitempty"`
}

// Resolved reports whether the conversation has a server-assigned id.
func (c *Conversation) Resolved() bool {
	return c != nil && c.ID != ""
}

// IsDirectBetween reports whether this is the direct conversation for the
// unordered pair {a, b}.
func (c *Conversation) IsDirectBetween(a, b string) bool {
	if c == nil || c.IsGroup || len(c.ParticipantIDs) != 2 {
		return false
	}
	p0, p1 := c.ParticipantIDs[0], c.ParticipantIDs[1]
	return (p0 == a && p1 == b) || (p0 == b && p1 == a)
}

// PairKey returns the canonical key for a direct conversation between two
// users: the sorted pair joined with ":". Resolve(A,B) and Resolve(B,A) map
// to the same key.
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + ":" + ids[1]
}
