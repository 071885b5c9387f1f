package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/codbun/chatcore/providers/ai"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id            TEXT PRIMARY KEY,
	provider_kind TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	position      INTEGER NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS exchanges (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	position        INTEGER NOT NULL,
	user_text       TEXT NOT NULL,
	response_text   TEXT NOT NULL,
	avatar_ref      TEXT NOT NULL DEFAULT '',
	failure_message TEXT NOT NULL DEFAULT '',
	attachments     TEXT NOT NULL DEFAULT '[]',
	created_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS exchanges_by_conversation ON exchanges(conversation_id, position);
`

// SQLiteMedium persists the collection in a SQLite database. Each save
// replaces the whole collection inside one transaction, matching the
// wholesale snapshot semantics of FileMedium.
type SQLiteMedium struct {
	db *sql.DB
}

// OpenSQLiteMedium opens (and migrates) the database at the given path.
func OpenSQLiteMedium(path string) (*SQLiteMedium, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}
	return &SQLiteMedium{db: db}, nil
}

// Close releases the underlying database handle.
func (m *SQLiteMedium) Close() error {
	return m.db.Close()
}

// Load reads the whole collection, conversations and exchanges in stored
// order.
func (m *SQLiteMedium) Load(ctx context.Context) (Collection, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT id, provider_kind, title, created_at, updated_at FROM conversations ORDER BY position`)
	if err != nil {
		return Collection{}, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var collection Collection
	for rows.Next() {
		var conversation Conversation
		var kind, createdAt, updatedAt string
		if err := rows.Scan(&conversation.ID, &kind, &conversation.Title, &createdAt, &updatedAt); err != nil {
			return Collection{}, fmt.Errorf("scanning conversation: %w", err)
		}
		conversation.ProviderKind = ai.Kind(kind)
		if conversation.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return Collection{}, fmt.Errorf("parsing created_at: %w", err)
		}
		if conversation.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return Collection{}, fmt.Errorf("parsing updated_at: %w", err)
		}
		collection.Conversations = append(collection.Conversations, conversation)
	}
	if err := rows.Err(); err != nil {
		return Collection{}, fmt.Errorf("iterating conversations: %w", err)
	}

	for i := range collection.Conversations {
		exchanges, err := m.loadExchanges(ctx, collection.Conversations[i].ID)
		if err != nil {
			return Collection{}, err
		}
		collection.Conversations[i].Exchanges = exchanges
	}
	return collection, nil
}

func (m *SQLiteMedium) loadExchanges(ctx context.Context, conversationID string) ([]Exchange, error) {
	rows, err := m.db.QueryContext(ctx,
		`SELECT id, user_text, response_text, avatar_ref, failure_message, attachments, created_at
		 FROM exchanges WHERE conversation_id = ? ORDER BY position`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("querying exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []Exchange
	for rows.Next() {
		var exchange Exchange
		var attachments, createdAt string
		if err := rows.Scan(&exchange.ID, &exchange.UserText, &exchange.ResponseText,
			&exchange.AvatarRef, &exchange.FailureMessage, &attachments, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning exchange: %w", err)
		}
		if err := json.Unmarshal([]byte(attachments), &exchange.Attachments); err != nil {
			return nil, fmt.Errorf("decoding attachments: %w", err)
		}
		if exchange.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		exchanges = append(exchanges, exchange)
	}
	return exchanges, rows.Err()
}

// Save replaces the stored collection in one transaction.
func (m *SQLiteMedium) Save(ctx context.Context, collection Collection) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM exchanges`); err != nil {
		return fmt.Errorf("clearing exchanges: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations`); err != nil {
		return fmt.Errorf("clearing conversations: %w", err)
	}

	for position, conversation := range collection.Conversations {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO conversations (id, provider_kind, title, position, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			conversation.ID, string(conversation.ProviderKind), conversation.Title, position,
			conversation.CreatedAt.Format(time.RFC3339Nano), conversation.UpdatedAt.Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("inserting conversation: %w", err)
		}

		for seq, exchange := range conversation.Exchanges {
			attachments, err := json.Marshal(exchange.Attachments)
			if err != nil {
				return fmt.Errorf("encoding attachments: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO exchanges (id, conversation_id, position, user_text, response_text, avatar_ref, failure_message, attachments, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				exchange.ID, conversation.ID, seq, exchange.UserText, exchange.ResponseText,
				exchange.AvatarRef, exchange.FailureMessage, string(attachments),
				exchange.CreatedAt.Format(time.RFC3339Nano),
			); err != nil {
				return fmt.Errorf("inserting exchange: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing save: %w", err)
	}
	return nil
}

var _ Medium = (*SQLiteMedium)(nil)
