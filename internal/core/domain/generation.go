package domain

// GenerationKind tags the shape of a GenerationRequest.
type GenerationKind int

const (
	// SinglePrompt carries one prompt string.
	SinglePrompt GenerationKind = iota

	// Transcript carries a full message history.
	Transcript
)

// String returns the string representation.
func (k GenerationKind) String() string {
	switch k {
	case SinglePrompt:
		return "single_prompt"
	case Transcript:
		return "transcript"
	default:
		return "unknown"
	}
}

// DefaultSystemPrompt is prepended when a request carries no system prompt.
const DefaultSystemPrompt = "You are a cybersecurity expert."

// DefaultAnalysisPrompt is the built-in analysis template.
// The %s placeholder receives the vulnerability block.
const DefaultAnalysisPrompt = `Analyse the following CVE and write a detailed report.

%s

Provide the following sections:

1. Summary: the nature of the vulnerability and its impact, in plain language
2. Attack vector: how an attacker could exploit it
3. Impact scope: what damage exploitation could cause
4. Remediation: concrete fixes and mitigations
5. Prevention: how to avoid similar weaknesses in the future

Be precise and professional, but keep it readable for non-specialists.`

// GenerationRequest is input for the text-generation collaborator.
// Adapters switch on Kind; Prompt is used for SinglePrompt and
// Messages for Transcript.
type GenerationRequest struct {
	Kind     GenerationKind
	Prompt   string
	Messages []Message

	// System overrides DefaultSystemPrompt when non-empty.
	System string
}

// NewPromptRequest builds a SinglePrompt request.
func NewPromptRequest(prompt string) GenerationRequest {
	return GenerationRequest{Kind: SinglePrompt, Prompt: prompt}
}

// NewTranscriptRequest builds a Transcript request.
func NewTranscriptRequest(msgs []Message) GenerationRequest {
	return GenerationRequest{Kind: Transcript, Messages: msgs}
}

// WithSystem returns a copy of r with the system prompt set.
func (r GenerationRequest) WithSystem(system string) GenerationRequest {
	r.System = system
	return r
}

// SystemPrompt returns the effective system prompt. A leading system
// message in a transcript takes precedence over the System field.
func (r GenerationRequest) SystemPrompt() string {
	if r.Kind == Transcript && len(r.Messages) > 0 && r.Messages[0].Role == RoleSystem {
		return r.Messages[0].Content
	}
	if r.System != "" {
		return r.System
	}
	return DefaultSystemPrompt
}

// Conversation resolves the request to a message list with exactly one
// leading system message followed by the user/assistant turns.
func (r GenerationRequest) Conversation() []Message {
	out := []Message{{Role: RoleSystem, Content: r.SystemPrompt()}}
	switch r.Kind {
	case SinglePrompt:
		out = append(out, Message{Role: RoleUser, Content: r.Prompt})
	case Transcript:
		for _, m := range r.Messages {
			if m.Role == RoleSystem {
				continue
			}
			out = append(out, m)
		}
	}
	return out
}
