package homework

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/clarify/internal/application"
	"github.com/bryanwahyu/clarify/internal/domain/conversation"
	domain "github.com/bryanwahyu/clarify/internal/domain/homework"
	"github.com/bryanwahyu/clarify/internal/domain/speech"
)

// DefaultBackgroundTimeout bounds each background persistence, storage or speech step.
const DefaultBackgroundTimeout = 2 * time.Minute

// Analyzer is the inference use-case the orchestrator depends on.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.Request) (domain.Result, error)
	FollowUp(ctx context.Context, question, priorExplanation string, lang domain.Language) (string, error)
}

// BackgroundObserver counts background failures by stage.
type BackgroundObserver interface {
	BackgroundFailure(stage string)
}

// Service implements the homework use-cases.
// Service is safe for concurrent use; per-request state lives on Session.
type Service struct {
	AI            Analyzer
	Speech        speech.Synthesizer
	Records       domain.Repository
	Conversations conversation.Repository
	Store         domain.ObjectStore
	Clock         application.Clock
	Log           *zap.Logger
	Metrics       BackgroundObserver

	// BackgroundTimeout bounds each background step. Zero means DefaultBackgroundTimeout.
	BackgroundTimeout time.Duration
	// UploadImages stores the submitted photo and sets ImageURL on the record.
	UploadImages bool
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func (s *Service) backgroundTimeout() time.Duration {
	if s.BackgroundTimeout <= 0 {
		return DefaultBackgroundTimeout
	}
	return s.BackgroundTimeout
}

func (s *Service) nowMS() int64 { return application.NowMillis(s.Clock) }

// NewSession starts an empty session for the owner.
func (s *Service) NewSession(ownerID string) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		CreatedAt:      time.UnixMilli(s.nowMS()),
		svc:            s,
		ctx:            ctx,
		cancel:         cancel,
		recordID:       newPromise[domain.RecordID](),
		conversationID: newPromise[string](),
		audio:          newPromise[[]byte](),
	}
}

//
// ==== USE CASES ====
//

// Ask answers a follow-up question without session state.
func (s *Service) Ask(ctx context.Context, question, priorExplanation string, lang domain.Language) (string, error) {
	return s.AI.FollowUp(ctx, question, priorExplanation, lang)
}

// Speak synthesizes arbitrary text, used for demo audio.
func (s *Service) Speak(ctx context.Context, text string, lang domain.Language) ([]byte, error) {
	if !lang.Valid() {
		return nil, fmt.Errorf("%w: unsupported target language %q", domain.ErrInvalidRequest, lang)
	}
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", domain.ErrInvalidRequest)
	}
	return s.Speech.Synthesize(ctx, text, lang.SpeechCode())
}

// List returns the owner's history, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]*domain.Record, error) {
	return s.Records.List(ctx, ownerID)
}

// Get returns one record. Records owned by someone else look absent.
func (s *Service) Get(ctx context.Context, ownerID string, id domain.RecordID) (*domain.Record, error) {
	rec, err := s.Records.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != ownerID {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return rec, nil
}

func (s *Service) Delete(ctx context.Context, ownerID string, id domain.RecordID) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	return s.Records.Delete(ctx, id)
}

func (s *Service) DeleteAll(ctx context.Context, ownerID string) error {
	return s.Records.DeleteAll(ctx, ownerID)
}

// Conversation returns the follow-up transcript stored for a record.
func (s *Service) Conversation(ctx context.Context, ownerID string, id domain.RecordID) (*conversation.Conversation, error) {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return nil, err
	}
	return s.Conversations.GetByRecord(ctx, string(id))
}
