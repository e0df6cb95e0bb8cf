package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"ragchat/internal/domain"
)

// SQLiteStore persists conversation history in two relational tables:
// users keyed by the externally supplied identifier, and an append-only
// chat_turns log foreign-keyed to it. The auto-increment id breaks
// timestamp ties, so load order always matches insertion order.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id          INTEGER PRIMARY KEY,
	external_id TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS chat_turns (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id    INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	role       TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_turns_user ON chat_turns(user_id, created_at, id);
`

// NewSQLiteStore opens (creating if needed) the history database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	// The busy timeout serializes concurrent writers instead of failing
	// them; writes for one user never interleave mid-turn.
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_fk=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// EnsureUser creates the user if absent. Idempotent.
func (s *SQLiteStore) EnsureUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users(external_id) VALUES(?)`, userID)
	if err != nil {
		return fmt.Errorf("failed to ensure user %s: %w", userID, err)
	}
	return nil
}

// LoadHistory returns the user's turns in chronological order. A user with
// no prior turns (or no row at all) gets an empty slice, not an error.
func (s *SQLiteStore) LoadHistory(ctx context.Context, userID string) ([]domain.ChatTurn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.role, t.content, t.created_at
		FROM chat_turns t
		JOIN users u ON u.id = t.user_id
		WHERE u.external_id = ?
		ORDER BY t.created_at, t.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", userID, err)
	}
	defer rows.Close()

	turns := []domain.ChatTurn{}
	for rows.Next() {
		var role, content string
		var createdAt time.Time
		if err := rows.Scan(&role, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, domain.ChatTurn{
			UserID:    userID,
			Role:      domain.ParseRole(role),
			Content:   content,
			Timestamp: createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", userID, err)
	}

	return turns, nil
}

// AppendTurn appends a single turn as one atomic insert. The user must
// exist; appending for an unregistered user fails instead of silently
// inserting nothing.
func (s *SQLiteStore) AppendTurn(ctx context.Context, userID string, role domain.Role, content string) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_turns(user_id, role, content, created_at)
		SELECT id, ?, ?, ? FROM users WHERE external_id = ?`,
		role.String(), content, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to append %s turn for %s: %w", role, userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to append %s turn for %s: %w", role, userID, err)
	}
	if n == 0 {
		return fmt.Errorf("failed to append %s turn: %w: %s", role, domain.ErrUnknownUser, userID)
	}
	return nil
}

// AppendExchange commits the user question and assistant answer in a single
// transaction, so a dangling user turn can never persist.
func (s *SQLiteStore) AppendExchange(ctx context.Context, userID, question, answer string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin exchange for %s: %w", userID, err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, turn := range []struct {
		role    domain.Role
		content string
	}{
		{domain.RoleUser, question},
		{domain.RoleAssistant, answer},
	} {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO chat_turns(user_id, role, content, created_at)
			SELECT id, ?, ?, ? FROM users WHERE external_id = ?`,
			turn.role.String(), turn.content, now, userID)
		if err != nil {
			return fmt.Errorf("failed to append %s turn for %s: %w", turn.role, userID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to append %s turn for %s: %w", turn.role, userID, err)
		}
		if n == 0 {
			return fmt.Errorf("failed to append exchange: %w: %s", domain.ErrUnknownUser, userID)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit exchange for %s: %w", userID, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
