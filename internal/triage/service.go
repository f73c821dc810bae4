package triage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"vaidhya-backend/internal/agent"
	"vaidhya-backend/internal/conversation"
	"vaidhya-backend/internal/knowledge"
	"vaidhya-backend/internal/logger"
	"vaidhya-backend/internal/metrics"
)

// Service runs one dialogue turn end to end: symptom extraction, probability
// scoring, generation, reply validation and session bookkeeping. Every
// failure past scoring degrades to a canned structured reply; the dialogue
// never visibly breaks.
type Service interface {
	Respond(ctx context.Context, sessionID, userMessage, languageCode string) agent.StructuredReply
	History(ctx context.Context, sessionID string) []conversation.Message
	Clear(ctx context.Context, sessionID string)
}

// Deps are the collaborators injected into the orchestrator.
type Deps struct {
	Store             *conversation.Store
	Index             *knowledge.Index
	Generator         agent.Generator
	Translator        agent.Translator
	Metrics           *metrics.Metrics
	Logger            logger.Logger
	GenerationTimeout time.Duration
}

type service struct {
	store      *conversation.Store
	index      *knowledge.Index
	generator  agent.Generator
	translator agent.Translator
	metrics    *metrics.Metrics
	log        logger.Logger
	genTimeout time.Duration
}

// NewService constructs the dialogue orchestrator.
func NewService(deps Deps) Service {
	timeout := deps.GenerationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &service{
		store:      deps.Store,
		index:      deps.Index,
		generator:  deps.Generator,
		translator: deps.Translator,
		metrics:    deps.Metrics,
		log:        deps.Logger,
		genTimeout: timeout,
	}
}

// Respond processes one turn for a session. Turns for the same session are
// serialized by the store's per-identifier lock so the append-then-read of
// history cannot race; turns for different sessions run concurrently.
func (s *service) Respond(ctx context.Context, sessionID, userMessage, languageCode string) agent.StructuredReply {
	unlock := s.store.LockTurn(sessionID)
	defer unlock()

	target := agent.NormalizeLanguageCode(languageCode)

	// An empty message opens the session with a greeting; history stays
	// untouched and no generation call is made.
	if strings.TrimSpace(userMessage) == "" {
		s.metrics.Turns.WithLabelValues(metrics.OutcomeGreeting).Inc()
		reply := agent.GreetingReply()
		s.translateReply(ctx, &reply, target)
		return reply
	}

	s.store.Append(ctx, sessionID, conversation.RoleUser, userMessage)

	// Generation runs in English; non-English input is translated first
	// (fail-open: on translation failure the original text is used).
	english := userMessage
	if target != agent.EnglishTag {
		english = s.translator.Translate(ctx, userMessage, target, agent.EnglishTag)
	}

	history := s.store.ContextView(ctx, sessionID)

	var userTexts []string
	for _, m := range history {
		if m.Role == conversation.RoleUser {
			userTexts = append(userTexts, m.Content)
		}
	}
	symptoms := knowledge.ExtractAll(userTexts, s.index)
	results := knowledge.Score(symptoms, s.index)

	userContent := fmt.Sprintf("Current symptoms: %s. User message: %s. Current probabilities: %s",
		strings.Join(symptoms, ", "), english, knowledge.FormatSummary(results))

	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	start := time.Now()
	content, err := s.generator.Generate(genCtx, history, userContent)
	s.metrics.GenerationDuration.Observe(time.Since(start).Seconds())

	var reply agent.StructuredReply
	switch {
	case err == nil:
		reply = agent.DecodeReply(content)
		s.metrics.Turns.WithLabelValues(metrics.OutcomeOK).Inc()
	case errors.Is(err, agent.ErrRateLimited):
		reply = agent.RateLimitedReply()
		s.metrics.Turns.WithLabelValues(metrics.OutcomeRateLimited).Inc()
		s.log.Warn("generation rate limited", logger.String("session_id", sessionID))
	case errors.Is(err, agent.ErrEmptyCompletion):
		reply = agent.InvalidResponseReply()
		s.metrics.Turns.WithLabelValues(metrics.OutcomeInvalid).Inc()
		s.log.Warn("generation returned empty completion", logger.String("session_id", sessionID))
	default:
		reply = agent.ConnectionTroubleReply()
		s.metrics.Turns.WithLabelValues(metrics.OutcomeError).Inc()
		s.log.Error("generation failed", logger.String("session_id", sessionID), logger.Err(err))
	}

	reply.AttachProbabilities(results)

	// Assistant messages go into history in English, fallbacks included.
	for _, m := range reply.Messages {
		s.store.Append(ctx, sessionID, conversation.RoleAssistant, m.Text)
	}

	s.translateReply(ctx, &reply, target)
	return reply
}

// translateReply converts reply texts to the target language after history
// bookkeeping, keeping the English original alongside. English targets are a
// no-op.
func (s *service) translateReply(ctx context.Context, reply *agent.StructuredReply, target string) {
	if target == agent.EnglishTag {
		return
	}
	for i := range reply.Messages {
		m := &reply.Messages[i]
		translated := s.translator.Translate(ctx, m.Text, agent.EnglishTag, target)
		if translated != m.Text {
			m.OriginalText = m.Text
			m.Text = translated
		}
	}
}

func (s *service) History(ctx context.Context, sessionID string) []conversation.Message {
	return s.store.GetOrCreate(ctx, sessionID)
}

// Clear destroys the session under its turn lock so an in-flight turn cannot
// resurrect the durable record mid-delete.
func (s *service) Clear(ctx context.Context, sessionID string) {
	unlock := s.store.LockTurn(sessionID)
	defer unlock()
	s.store.Clear(ctx, sessionID)
}
