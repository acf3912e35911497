package conversation

import (
	"context"
	"errors"
)

var (
	// ErrConversation wraps background failures creating or appending to a conversation.
	ErrConversation = errors.New("conversation write failed")
	ErrNotFound     = errors.New("conversation not found")
)

// Repository port for conversations
type Repository interface {
	Create(ctx context.Context, recordID, ownerID string, createdAt int64) (string, error)
	Append(ctx context.Context, conversationID string, t Turn) error
	// GetByRecord returns the conversation created for the record, messages in append order.
	GetByRecord(ctx context.Context, recordID string) (*Conversation, error)
}
