package agent

import (
	"encoding/json"
	"strings"

	"vaidhya-backend/internal/knowledge"
)

// Closed enum sets for the avatar-facing fields. Values outside these sets
// are coerced to defaults rather than rejected so a turn always renders.
const (
	DefaultExpression = "default"
	DefaultAnimation  = "TalkingOne"
	DefaultType       = "information"
)

var facialExpressions = map[string]bool{
	"smile": true, "sad": true, "angry": true,
	"surprised": true, "funnyFace": true, "default": true,
}

var animations = map[string]bool{
	"Idle": true, "TalkingOne": true, "TalkingThree": true,
	"SadIdle": true, "Defeated": true, "Angry": true,
	"Surprised": true, "DismissingGesture": true, "ThoughtfulHeadShake": true,
}

// ReplyMessage is one validated message of a structured reply. Probabilities
// carry the scoring output computed for the turn; OriginalText holds the
// pre-translation English text when the reply was translated.
type ReplyMessage struct {
	Text             string                          `json:"text"`
	FacialExpression string                          `json:"facialExpression"`
	Animation        string                          `json:"animation"`
	Type             string                          `json:"type,omitempty"`
	Probabilities    []knowledge.ProbabilityResult   `json:"probabilities,omitempty"`
	OriginalText     string                          `json:"originalText,omitempty"`
}

// StructuredReply is the validated, enum-constrained reply for one turn. The
// dialogue never surfaces an empty or error-shaped object: every failure path
// produces a complete reply.
type StructuredReply struct {
	Messages []ReplyMessage `json:"messages"`
}

// AttachProbabilities sets the scoring output on every message uniformly.
func (r *StructuredReply) AttachProbabilities(results []knowledge.ProbabilityResult) {
	for i := range r.Messages {
		r.Messages[i].Probabilities = results
	}
}

// DecodeReply turns a raw model completion into a validated StructuredReply.
// It extracts the outermost JSON object from the content, decodes it, and
// coerces out-of-enum fields to defaults. Content without a decodable message
// list becomes a single plain-prose message so the turn still produces
// visible output.
func DecodeReply(content string) StructuredReply {
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return plainTextReply(content)
	}

	var parsed StructuredReply
	if err := json.Unmarshal([]byte(content[start:end+1]), &parsed); err != nil || len(parsed.Messages) == 0 {
		return plainTextReply(content)
	}

	for i := range parsed.Messages {
		m := &parsed.Messages[i]
		if m.Text == "" {
			m.Text = "I'm not sure what to say."
		}
		m.Text = CleanTextForSpeech(m.Text)
		if !facialExpressions[m.FacialExpression] {
			m.FacialExpression = DefaultExpression
		}
		if !animations[m.Animation] {
			m.Animation = DefaultAnimation
		}
		if m.Type == "" {
			m.Type = DefaultType
		}
	}
	return parsed
}

func plainTextReply(content string) StructuredReply {
	if content == "" {
		content = "I'm not sure what to say."
	}
	return StructuredReply{Messages: []ReplyMessage{{
		Text:             CleanTextForSpeech(content),
		FacialExpression: DefaultExpression,
		Animation:        DefaultAnimation,
		Type:             DefaultType,
	}}}
}

// Canned replies for the failure paths. Each is a complete structured reply
// with the affect the avatar should show.

// FallbackReply is the generic apology used when a turn cannot be understood.
func FallbackReply() StructuredReply {
	return StructuredReply{Messages: []ReplyMessage{{
		Text:             "I apologize, but I'm having trouble understanding. Could you please rephrase that?",
		FacialExpression: "sad",
		Animation:        "SadIdle",
		Type:             DefaultType,
	}}}
}

// RateLimitedReply is returned when the generation collaborator answers 429.
func RateLimitedReply() StructuredReply {
	return StructuredReply{Messages: []ReplyMessage{{
		Text:             "I'm receiving too many requests. Please wait a moment.",
		FacialExpression: "sad",
		Animation:        "Defeated",
		Type:             DefaultType,
	}}}
}

// ConnectionTroubleReply covers transport failures and timeouts.
func ConnectionTroubleReply() StructuredReply {
	return StructuredReply{Messages: []ReplyMessage{{
		Text:             "I'm having trouble connecting. Please try again.",
		FacialExpression: "sad",
		Animation:        "Defeated",
		Type:             DefaultType,
	}}}
}

// InvalidResponseReply covers well-formed but unusable collaborator output.
func InvalidResponseReply() StructuredReply {
	return StructuredReply{Messages: []ReplyMessage{{
		Text:             "I received an invalid response. Please try again.",
		FacialExpression: "sad",
		Animation:        "Defeated",
		Type:             DefaultType,
	}}}
}

// GreetingReply opens a session when the user sends an empty message. It is
// not appended to history.
func GreetingReply() StructuredReply {
	return StructuredReply{Messages: []ReplyMessage{
		{
			Text:             "Hello, I'm Dr. Vaidya, your healthcare assistant. How are you feeling today?",
			FacialExpression: "smile",
			Animation:        DefaultAnimation,
			Type:             "question",
		},
		{
			Text:             "You can describe any symptoms you're experiencing and I'll do my best to help.",
			FacialExpression: "smile",
			Animation:        DefaultAnimation,
			Type:             DefaultType,
		},
	}}
}
