package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/bryanwahyu/clarify/internal/domain/conversation"
)

type ConversationRepository struct{ db *sql.DB }

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) Create(ctx context.Context, recordID, ownerID string, createdAt int64) (string, error) {
	const q = `INSERT INTO conversations (id, homework_id, owner_id, created_at) VALUES ($1,$2,$3,$4)`
	id := uuid.NewString()
	if _, err := r.db.ExecContext(ctx, q, id, recordID, ownerID, createdAt); err != nil {
		return "", err
	}
	return id, nil
}

// Append adds a message; seq (BIGSERIAL) keeps append order
func (r *ConversationRepository) Append(ctx context.Context, conversationID string, t conversation.Turn) error {
	const q = `
INSERT INTO conversation_messages (conversation_id, role, text, timestamp_ms, audio_url)
SELECT id, $2::text, $3::text, $4::bigint, $5::text FROM conversations WHERE id = $1;`

	res, err := r.db.ExecContext(ctx, q, conversationID, string(t.Role), t.Text, t.Timestamp, t.AudioURL)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", conversation.ErrNotFound, conversationID)
	}
	return nil
}

func (r *ConversationRepository) GetByRecord(ctx context.Context, recordID string) (*conversation.Conversation, error) {
	var c conversation.Conversation
	err := r.db.QueryRowContext(ctx,
		"SELECT id, homework_id, owner_id, created_at FROM conversations WHERE homework_id = $1 LIMIT 1", recordID,
	).Scan(&c.ID, &c.RecordID, &c.OwnerID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: record %s", conversation.ErrNotFound, recordID)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT role, text, timestamp_ms, audio_url FROM conversation_messages WHERE conversation_id = $1 ORDER BY seq ASC", c.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	c.Messages = []conversation.Turn{}
	for rows.Next() {
		var t conversation.Turn
		var role string
		if err := rows.Scan(&role, &t.Text, &t.Timestamp, &t.AudioURL); err != nil {
			return nil, err
		}
		t.Role = conversation.Role(role)
		c.Messages = append(c.Messages, t)
	}
	return &c, rows.Err()
}
