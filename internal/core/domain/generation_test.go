package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerationRequest_Conversation(t *testing.T) {
	tests := []struct {
		name string
		req  GenerationRequest
		want []Message
	}{
		{
			name: "single prompt gets default system prompt",
			req:  NewPromptRequest("analyse this"),
			want: []Message{
				{Role: RoleSystem, Content: DefaultSystemPrompt},
				{Role: RoleUser, Content: "analyse this"},
			},
		},
		{
			name: "custom system prompt",
			req:  NewPromptRequest("q").WithSystem("be brief"),
			want: []Message{
				{Role: RoleSystem, Content: "be brief"},
				{Role: RoleUser, Content: "q"},
			},
		},
		{
			name: "transcript gets default system prompt",
			req: NewTranscriptRequest([]Message{
				{Role: RoleUser, Content: "q1"},
				{Role: RoleAssistant, Content: "a1"},
				{Role: RoleUser, Content: "q2"},
			}),
			want: []Message{
				{Role: RoleSystem, Content: DefaultSystemPrompt},
				{Role: RoleUser, Content: "q1"},
				{Role: RoleAssistant, Content: "a1"},
				{Role: RoleUser, Content: "q2"},
			},
		},
		{
			name: "transcript keeps its own system message",
			req: NewTranscriptRequest([]Message{
				{Role: RoleSystem, Content: "custom"},
				{Role: RoleUser, Content: "q"},
			}),
			want: []Message{
				{Role: RoleSystem, Content: "custom"},
				{Role: RoleUser, Content: "q"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.req.Conversation())
		})
	}
}

func TestGenerationKind_String(t *testing.T) {
	assert.Equal(t, "single_prompt", SinglePrompt.String())
	assert.Equal(t, "transcript", Transcript.String())
	assert.Equal(t, "unknown", GenerationKind(9).String())
}
