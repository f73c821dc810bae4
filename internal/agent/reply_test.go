package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaidhya-backend/internal/knowledge"
)

func TestDecodeReplyValid(t *testing.T) {
	content := `{"messages": [
		{"text": "How long have you had the fever", "facialExpression": "smile", "animation": "TalkingOne", "type": "question"},
		{"text": "Any other symptoms", "facialExpression": "default", "animation": "Idle"}
	]}`

	reply := DecodeReply(content)
	require.Len(t, reply.Messages, 2)

	assert.Equal(t, "How long have you had the fever.", reply.Messages[0].Text)
	assert.Equal(t, "smile", reply.Messages[0].FacialExpression)
	assert.Equal(t, "question", reply.Messages[0].Type)
	// Missing type defaults to information.
	assert.Equal(t, "information", reply.Messages[1].Type)
}

func TestDecodeReplyCoercesUnknownEnums(t *testing.T) {
	content := `{"messages": [
		{"text": "Hello", "facialExpression": "grimace", "animation": "Backflip"}
	]}`

	reply := DecodeReply(content)
	require.Len(t, reply.Messages, 1)
	assert.Equal(t, DefaultExpression, reply.Messages[0].FacialExpression)
	assert.Equal(t, DefaultAnimation, reply.Messages[0].Animation)
}

func TestDecodeReplyExtractsEmbeddedJSON(t *testing.T) {
	content := "Sure, here is my answer:\n" +
		`{"messages": [{"text": "Rest well", "facialExpression": "smile", "animation": "TalkingOne"}]}` +
		"\nHope that helps!"

	reply := DecodeReply(content)
	require.Len(t, reply.Messages, 1)
	assert.Equal(t, "Rest well.", reply.Messages[0].Text)
	assert.Equal(t, "smile", reply.Messages[0].FacialExpression)
}

func TestDecodeReplyPlainProse(t *testing.T) {
	reply := DecodeReply("You should rest and stay hydrated")
	require.Len(t, reply.Messages, 1)
	assert.Equal(t, "You should rest and stay hydrated.", reply.Messages[0].Text)
	assert.Equal(t, DefaultExpression, reply.Messages[0].FacialExpression)
	assert.Equal(t, DefaultAnimation, reply.Messages[0].Animation)
	assert.Equal(t, DefaultType, reply.Messages[0].Type)
}

func TestDecodeReplyMalformedJSON(t *testing.T) {
	reply := DecodeReply(`{"messages": [{"text": "broken"`)
	require.Len(t, reply.Messages, 1)
	assert.NotEmpty(t, reply.Messages[0].Text)
	assert.Equal(t, DefaultExpression, reply.Messages[0].FacialExpression)
}

func TestDecodeReplyEmptyMessageList(t *testing.T) {
	reply := DecodeReply(`{"messages": []}`)
	require.Len(t, reply.Messages, 1)
	assert.NotEmpty(t, reply.Messages[0].Text)
}

func TestDecodeReplyEmptyText(t *testing.T) {
	reply := DecodeReply(`{"messages": [{"text": "", "facialExpression": "smile", "animation": "Idle"}]}`)
	require.Len(t, reply.Messages, 1)
	assert.Equal(t, "I'm not sure what to say.", reply.Messages[0].Text)
}

func TestAttachProbabilities(t *testing.T) {
	reply := StructuredReply{Messages: []ReplyMessage{
		{Text: "one"}, {Text: "two"},
	}}
	results := []knowledge.ProbabilityResult{{Disease: "Flu", Probability: 0.8}}

	reply.AttachProbabilities(results)

	for _, m := range reply.Messages {
		require.Len(t, m.Probabilities, 1)
		assert.Equal(t, "Flu", m.Probabilities[0].Disease)
	}
}

func TestCannedRepliesAreComplete(t *testing.T) {
	for name, reply := range map[string]StructuredReply{
		"fallback":     FallbackReply(),
		"rate_limited": RateLimitedReply(),
		"connection":   ConnectionTroubleReply(),
		"invalid":      InvalidResponseReply(),
		"greeting":     GreetingReply(),
	} {
		require.NotEmpty(t, reply.Messages, name)
		for _, m := range reply.Messages {
			assert.NotEmpty(t, m.Text, name)
			assert.True(t, facialExpressions[m.FacialExpression], name)
			assert.True(t, animations[m.Animation], name)
		}
	}
}

func TestRateLimitedReplyAffect(t *testing.T) {
	reply := RateLimitedReply()
	require.Len(t, reply.Messages, 1)
	assert.Equal(t, "sad", reply.Messages[0].FacialExpression)
	assert.Equal(t, "Defeated", reply.Messages[0].Animation)
}
