package conversation

import (
	"context"
	"sync"
	"time"

	"vaidhya-backend/internal/logger"
)

// Store owns all in-memory sessions and is the single writer to the durable
// repository. First access with an unseen identifier creates an empty
// session; at most one in-memory representation exists per identifier.
//
// A persistence failure never fails the caller: the in-memory history stays
// authoritative for the process lifetime and the failure is logged as a
// recoverable event.
type Store struct {
	mu        sync.Mutex
	sessions  map[string]*session
	turnLocks map[string]*sync.Mutex
	repo      Repository
	log       logger.Logger
}

type session struct {
	messages []Message
}

// NewStore creates an empty store writing through the given repository.
func NewStore(repo Repository, log logger.Logger) *Store {
	return &Store{
		sessions:  make(map[string]*session),
		turnLocks: make(map[string]*sync.Mutex),
		repo:      repo,
		log:       log,
	}
}

// getOrCreate must be called with s.mu held.
func (s *Store) getOrCreate(ctx context.Context, id string) *session {
	if sess, ok := s.sessions[id]; ok {
		return sess
	}

	sess := &session{}
	// Pick up a durable record from a previous process if one exists. Errors
	// degrade to an empty session rather than failing the turn.
	history, err := s.repo.Load(ctx, id)
	if err != nil {
		s.log.Warn("failed to load durable session, starting empty",
			logger.String("session_id", id), logger.Err(err))
	} else {
		sess.messages = history
	}
	s.sessions[id] = sess
	return sess
}

// GetOrCreate returns a copy of the session's message log, creating an empty
// session for an unseen identifier. It never fails.
func (s *Store) GetOrCreate(ctx context.Context, id string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreate(ctx, id)
	return append([]Message(nil), sess.messages...)
}

// Append adds a message with the current timestamp, persists the full history
// synchronously, and returns the updated log. The durable write overwrites
// the whole record; a write failure is logged and the in-memory append still
// succeeds.
func (s *Store) Append(ctx context.Context, id string, role Role, content string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreate(ctx, id)
	sess.messages = append(sess.messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})

	if err := s.repo.Save(ctx, id, sess.messages); err != nil {
		s.log.Warn("failed to persist session, in-memory state remains authoritative",
			logger.String("session_id", id),
			logger.Int("history_len", len(sess.messages)),
			logger.Err(err))
	}

	return append([]Message(nil), sess.messages...)
}

// ContextView projects the full history without timestamps. This is the
// conversation context handed to the generation collaborator; it is
// deliberately unbounded, matching the behavior this service reproduces.
func (s *Store) ContextView(ctx context.Context, id string) []ContextMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := s.getOrCreate(ctx, id)
	view := make([]ContextMessage, len(sess.messages))
	for i, m := range sess.messages {
		view[i] = ContextMessage{Role: m.Role, Content: m.Content}
	}
	return view
}

// Clear removes both the in-memory session and its durable record.
// Subsequent access behaves as a brand-new session.
func (s *Store) Clear(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Warn("failed to delete durable session",
			logger.String("session_id", id), logger.Err(err))
	}
}

// LockTurn serializes whole dialogue turns per identifier: two concurrent
// turns for the same session would otherwise race on append-then-read of the
// history. Turns for different identifiers proceed concurrently. The returned
// function releases the lock.
//
// Locks are keyed by identifier, not attached to the session object, and
// Clear never removes them: a turn already queued on the lock when its
// session is cleared still excludes the next turn for the same identifier.
func (s *Store) LockTurn(id string) func() {
	s.mu.Lock()
	lock, ok := s.turnLocks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.turnLocks[id] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
