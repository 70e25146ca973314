package usecase

import (
	"encoding/json"
	"regexp"
)

// Conflict payloads from POST /conversations may carry the existing
// conversation id in a handful of shapes: a structured field, free text in
// the message, or nothing parseable at all. Instead of inline branching,
// extraction is an ordered pipeline of pure functions tried in order; the
// first non-empty result wins. Probing of leftover numeric tokens is the
// resolver's last step since it needs network access.

// idExtractor pulls an existing conversation id out of a conflict payload,
// returning "" when the payload holds nothing it understands.
type idExtractor func(payload []byte) string

// conflictExtractors is the ordered pipeline applied to conflict payloads.
var conflictExtractors = []idExtractor{
	extractConversationIDField,
	extractDataIDField,
	extractNestedConversationField,
	extractIDFromMessageText,
}

// structured field variants seen across backend versions
func extractConversationIDField(payload []byte) string {
	var body struct {
		ConversationID flexibleID `json:"conversation_id"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return ""
	}
	return string(body.ConversationID)
}

func extractDataIDField(payload []byte) string {
	var body struct {
		Data struct {
			ID flexibleID `json:"id"`
		} `json:"data"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return ""
	}
	return string(body.Data.ID)
}

func extractNestedConversationField(payload []byte) string {
	var body struct {
		Data struct {
			Conversation struct {
				ID flexibleID `json:"id"`
			} `json:"conversation"`
		} `json:"data"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return ""
	}
	return string(body.Data.Conversation.ID)
}

var messageIDPattern = regexp.MustCompile(`(?i)\bid\b\s*[:=#]?\s*"?(\d+)`)

// extractIDFromMessageText pattern-matches the free-text message field, or
// the raw payload when no message field is present.
func extractIDFromMessageText(payload []byte) string {
	text := string(payload)
	var body struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(payload, &body) == nil && body.Message != "" {
		text = body.Message
	}
	if m := messageIDPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

// extractExistingID runs the extractor pipeline over a conflict payload.
func extractExistingID(payload []byte) string {
	for _, extract := range conflictExtractors {
		if id := extract(payload); id != "" {
			return id
		}
	}
	return ""
}

var numericTokenPattern = regexp.MustCompile(`\d+`)

// numericCandidates lists every distinct numeric token in the payload, in
// order of appearance. The resolver probes each one as a possible
// conversation id when the extractors come up empty.
func numericCandidates(payload []byte) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, tok := range numericTokenPattern.FindAllString(string(payload), -1) {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// flexibleID decodes a JSON string or number into its string form.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		// tolerate unexpected shapes: extraction simply yields nothing
		*f = ""
		return nil
	}
	*f = flexibleID(n.String())
	return nil
}
