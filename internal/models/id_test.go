package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDDecodesStringAndNumber(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ID
	}{
		{"string", `"abc-1"`, "abc-1"},
		{"number", `77`, "77"},
		{"large number", `9007199254740993`, "9007199254740993"},
		{"null", `null`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &id))
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestRealtimeEnvelopeAcceptsNumericConversationID(t *testing.T) {
	var env RealtimeEnvelope
	raw := `{"conversation_id":77,"message":{"id":"m1","content":"hi"}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	assert.Equal(t, ID("77"), env.ConversationID)
	assert.NotEmpty(t, env.Message)
}
