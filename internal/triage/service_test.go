package triage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vaidhya-backend/internal/agent"
	"vaidhya-backend/internal/conversation"
	"vaidhya-backend/internal/knowledge"
	"vaidhya-backend/internal/logger"
	"vaidhya-backend/internal/metrics"
)

const testKB = `diseaseCode,disease,symptomCode,symptom,weight,noise
D1,Flu,S1,fever,0.8,0.1
D1,Flu,S2,cough,0.6,0.2
D2,Cold,S1,fever,0.5,0.1
`

func testKnowledge(t *testing.T) *knowledge.Index {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kb.csv")
	require.NoError(t, os.WriteFile(path, []byte(testKB), 0o644))
	ix, _, err := knowledge.Load(path)
	require.NoError(t, err)
	return ix
}

// fakeGenerator returns a fixed completion or error and records the prompt it
// was handed.
type fakeGenerator struct {
	content string
	err     error

	lastHistory     []conversation.ContextMessage
	lastUserContent string
	calls           int
}

func (f *fakeGenerator) Generate(_ context.Context, history []conversation.ContextMessage, userContent string) (string, error) {
	f.calls++
	f.lastHistory = history
	f.lastUserContent = userContent
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

// fakeTranslator prefixes translated text so tests can tell the direction.
type fakeTranslator struct {
	calls int
}

func (f *fakeTranslator) Translate(_ context.Context, text, source, target string) string {
	f.calls++
	if target == agent.EnglishTag {
		return "en:" + text
	}
	return target + ":" + text
}

// identityTranslator leaves text untouched, like a fail-open client would.
type identityTranslator struct{}

func (identityTranslator) Translate(_ context.Context, text, _, _ string) string {
	return text
}

func newTestService(t *testing.T, gen agent.Generator, tr agent.Translator) (Service, *conversation.Store) {
	t.Helper()
	log := logger.New(logger.Config{Level: "debug", Output: io.Discard})
	store := conversation.NewStore(conversation.NewNoopRepository(), log)
	svc := NewService(Deps{
		Store:             store,
		Index:             testKnowledge(t),
		Generator:         gen,
		Translator:        tr,
		Metrics:           metrics.New(prometheus.NewRegistry()),
		Logger:            log,
		GenerationTimeout: 5 * time.Second,
	})
	return svc, store
}

func TestRespondHappyPath(t *testing.T) {
	gen := &fakeGenerator{content: `{"messages": [
		{"text": "How long have you had the fever", "facialExpression": "smile", "animation": "TalkingOne", "type": "question"}
	]}`}
	svc, store := newTestService(t, gen, identityTranslator{})
	ctx := context.Background()

	reply := svc.Respond(ctx, "s1", "I have a fever and a cough", "en")

	require.Len(t, reply.Messages, 1)
	assert.Equal(t, "How long have you had the fever.", reply.Messages[0].Text)
	assert.Equal(t, "smile", reply.Messages[0].FacialExpression)

	// Both diseases clear the probability floor and ride along on the reply.
	require.NotEmpty(t, reply.Messages[0].Probabilities)
	assert.Equal(t, "Cold", reply.Messages[0].Probabilities[0].Disease)

	// History holds the user turn followed by the assistant turn.
	history := store.GetOrCreate(ctx, "s1")
	require.Len(t, history, 2)
	assert.Equal(t, conversation.RoleUser, history[0].Role)
	assert.Equal(t, "I have a fever and a cough", history[0].Content)
	assert.Equal(t, conversation.RoleAssistant, history[1].Role)
	assert.Equal(t, "How long have you had the fever.", history[1].Content)
}

func TestRespondPromptCarriesSymptomsAndProbabilities(t *testing.T) {
	gen := &fakeGenerator{content: `{"messages": [{"text": "ok"}]}`}
	svc, _ := newTestService(t, gen, identityTranslator{})

	svc.Respond(context.Background(), "s1", "fever and cough here", "en")

	assert.Contains(t, gen.lastUserContent, "Current symptoms: fever, cough")
	assert.Contains(t, gen.lastUserContent, "User message: fever and cough here")
	assert.Contains(t, gen.lastUserContent, "Current probabilities:")
	// The user turn is already in the history handed to generation.
	require.Len(t, gen.lastHistory, 1)
	assert.Equal(t, conversation.RoleUser, gen.lastHistory[0].Role)
}

func TestRespondRateLimited(t *testing.T) {
	gen := &fakeGenerator{err: agent.ErrRateLimited}
	svc, store := newTestService(t, gen, identityTranslator{})
	ctx := context.Background()

	reply := svc.Respond(ctx, "s1", "I have a fever", "en")

	require.Len(t, reply.Messages, 1)
	assert.Equal(t, "I'm receiving too many requests. Please wait a moment.", reply.Messages[0].Text)
	assert.Equal(t, "sad", reply.Messages[0].FacialExpression)
	assert.Equal(t, "Defeated", reply.Messages[0].Animation)

	// Probabilities still reflect the scored history.
	assert.NotEmpty(t, reply.Messages[0].Probabilities)

	// The canned reply enters history like any assistant turn.
	history := store.GetOrCreate(ctx, "s1")
	require.Len(t, history, 2)
	assert.Equal(t, conversation.RoleAssistant, history[1].Role)
	assert.Equal(t, reply.Messages[0].Text, history[1].Content)
}

func TestRespondGenericFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("connection reset")}
	svc, _ := newTestService(t, gen, identityTranslator{})

	reply := svc.Respond(context.Background(), "s1", "I have a fever", "en")

	require.Len(t, reply.Messages, 1)
	assert.NotEmpty(t, reply.Messages[0].Text)
	assert.Equal(t, "sad", reply.Messages[0].FacialExpression)
}

func TestRespondEmptyCompletion(t *testing.T) {
	gen := &fakeGenerator{err: agent.ErrEmptyCompletion}
	svc, _ := newTestService(t, gen, identityTranslator{})

	reply := svc.Respond(context.Background(), "s1", "I have a fever", "en")

	require.Len(t, reply.Messages, 1)
	assert.NotEmpty(t, reply.Messages[0].Text)
}

func TestRespondEmptyMessageGreets(t *testing.T) {
	gen := &fakeGenerator{}
	svc, store := newTestService(t, gen, identityTranslator{})
	ctx := context.Background()

	reply := svc.Respond(ctx, "s1", "   ", "en")

	require.NotEmpty(t, reply.Messages)
	assert.Zero(t, gen.calls, "greeting must not call generation")
	assert.Empty(t, store.GetOrCreate(ctx, "s1"), "greeting must not touch history")
}

func TestRespondTranslatesNonEnglishTurn(t *testing.T) {
	gen := &fakeGenerator{content: `{"messages": [{"text": "Please rest"}]}`}
	tr := &fakeTranslator{}
	svc, store := newTestService(t, gen, tr)
	ctx := context.Background()

	reply := svc.Respond(ctx, "s1", "mujhe bukhar hai", "hi")

	// The inbound message reaches generation in English.
	assert.Contains(t, gen.lastUserContent, "User message: en:mujhe bukhar hai")

	// The outbound reply is translated and keeps the English original.
	require.Len(t, reply.Messages, 1)
	assert.True(t, strings.HasPrefix(reply.Messages[0].Text, "hi-IN:"))
	assert.Equal(t, "Please rest.", reply.Messages[0].OriginalText)

	// History stores the user's original text and the assistant's English.
	history := store.GetOrCreate(ctx, "s1")
	require.Len(t, history, 2)
	assert.Equal(t, "mujhe bukhar hai", history[0].Content)
	assert.Equal(t, "Please rest.", history[1].Content)
}

func TestRespondEnglishSkipsTranslation(t *testing.T) {
	gen := &fakeGenerator{content: `{"messages": [{"text": "Please rest"}]}`}
	tr := &fakeTranslator{}
	svc, _ := newTestService(t, gen, tr)

	reply := svc.Respond(context.Background(), "s1", "I have a fever", "en-IN")

	assert.Zero(t, tr.calls)
	require.Len(t, reply.Messages, 1)
	assert.Empty(t, reply.Messages[0].OriginalText)
}

func TestRespondAccumulatesSymptomsAcrossTurns(t *testing.T) {
	gen := &fakeGenerator{content: `{"messages": [{"text": "Noted"}]}`}
	svc, _ := newTestService(t, gen, identityTranslator{})
	ctx := context.Background()

	svc.Respond(ctx, "s1", "I have a fever", "en")
	svc.Respond(ctx, "s1", "now also a cough", "en")

	// Second turn sees symptoms from both user messages.
	assert.Contains(t, gen.lastUserContent, "Current symptoms: fever, cough")
}

func TestClearResetsSession(t *testing.T) {
	gen := &fakeGenerator{content: `{"messages": [{"text": "Noted"}]}`}
	svc, store := newTestService(t, gen, identityTranslator{})
	ctx := context.Background()

	svc.Respond(ctx, "s1", "I have a fever", "en")
	require.NotEmpty(t, store.GetOrCreate(ctx, "s1"))

	svc.Clear(ctx, "s1")
	assert.Empty(t, svc.History(ctx, "s1"))
}
