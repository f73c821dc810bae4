package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Repository is the durable backend for session histories: one record per
// session identifier, overwritten in full on every save. Load returns
// (nil, nil) when no record exists.
type Repository interface {
	Load(ctx context.Context, id string) ([]Message, error)
	Save(ctx context.Context, id string, history []Message) error
	Delete(ctx context.Context, id string) error
}

type postgresRepo struct {
	db *sql.DB
}

// NewPostgresRepository returns a Repository backed by the conversations
// table. The full message list is serialized as JSONB per row; write cost is
// O(history length) per append, which is fine for short triage sessions.
func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Load(ctx context.Context, id string) ([]Message, error) {
	var historyJSON []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT history FROM conversations WHERE id = $1`, id,
	).Scan(&historyJSON)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "load conversation")
	}

	var history []Message
	if len(historyJSON) > 0 {
		if err := json.Unmarshal(historyJSON, &history); err != nil {
			return nil, errors.Wrap(err, "unmarshal conversation history")
		}
	}
	return history, nil
}

func (r *postgresRepo) Save(ctx context.Context, id string, history []Message) error {
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return errors.Wrap(err, "marshal conversation history")
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO conversations (id, history, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (id) DO UPDATE SET
			history = $2,
			updated_at = $3
	`, id, historyJSON, time.Now().UTC())
	return errors.Wrap(err, "save conversation")
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	return errors.Wrap(err, "delete conversation")
}

type noopRepo struct{}

// NewNoopRepository returns a Repository that persists nothing. Used when no
// database is configured; sessions then live only in process memory.
func NewNoopRepository() Repository {
	return noopRepo{}
}

func (noopRepo) Load(ctx context.Context, id string) ([]Message, error) { return nil, nil }

func (noopRepo) Save(ctx context.Context, id string, history []Message) error { return nil }

func (noopRepo) Delete(ctx context.Context, id string) error { return nil }
