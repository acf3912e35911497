package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/bryanwahyu/clarify/internal/domain/conversation"
)

type ConversationRepository struct {
	mu       sync.RWMutex
	byID     map[string]*conversation.Conversation
	byRecord map[string]string
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		byID:     map[string]*conversation.Conversation{},
		byRecord: map[string]string{},
	}
}

func (r *ConversationRepository) Create(ctx context.Context, recordID, ownerID string, createdAt int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = &conversation.Conversation{
		ID:        id,
		RecordID:  recordID,
		OwnerID:   ownerID,
		Messages:  []conversation.Turn{},
		CreatedAt: createdAt,
	}
	r.byRecord[recordID] = id
	return id, nil
}

func (r *ConversationRepository) Append(ctx context.Context, conversationID string, t conversation.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byID[conversationID]
	if !ok {
		return fmt.Errorf("%w: %s", conversation.ErrNotFound, conversationID)
	}
	c.Messages = append(c.Messages, t)
	return nil
}

func (r *ConversationRepository) GetByRecord(ctx context.Context, recordID string) (*conversation.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byRecord[recordID]
	if !ok {
		return nil, fmt.Errorf("%w: record %s", conversation.ErrNotFound, recordID)
	}
	c := *r.byID[id]
	c.Messages = slices.Clone(c.Messages)
	return &c, nil
}
