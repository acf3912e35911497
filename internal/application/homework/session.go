package homework

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/clarify/internal/domain/conversation"
	domain "github.com/bryanwahyu/clarify/internal/domain/homework"
	"github.com/bryanwahyu/clarify/internal/domain/speech"
)

// Session holds the state of one analysis: the result shown to the user,
// the follow-up transcript and the background enrichment tasks.
// Background continuations mutate it only while the session is open.
type Session struct {
	ID        string
	OwnerID   string
	CreatedAt time.Time

	svc    *Service
	ctx    context.Context
	cancel context.CancelFunc
	tasks  sync.WaitGroup
	askMu  sync.Mutex

	mu               sync.Mutex
	request          domain.Request
	submitting       bool
	result           *domain.Result
	record           *domain.Record
	transcript       []conversation.Turn
	explanationAudio []byte
	answerAudio      []byte
	lastAppend       chan struct{}
	finalized        bool
	closed           bool

	recordID       *promise[domain.RecordID]
	conversationID *promise[string]
	audio          *promise[[]byte]
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	ID             string              `json:"session_id"`
	OwnerID        string              `json:"owner_id"`
	TargetLanguage domain.Language     `json:"target_language,omitempty"`
	Result         *domain.Result      `json:"result,omitempty"`
	RecordID       domain.RecordID     `json:"record_id,omitempty"`
	ConversationID string              `json:"conversation_id,omitempty"`
	Transcript     []conversation.Turn `json:"transcript"`
	ImageURL       string              `json:"image_url,omitempty"`
	AudioURL       string              `json:"audio_url,omitempty"`
	AudioReady     bool                `json:"audio_ready"`
	AnswerAudio    bool                `json:"answer_audio_ready"`
	Closed         bool                `json:"closed"`
}

// Submit runs the analysis. It is the only step the caller waits on; on
// failure the session stays empty and Submit may be called again.
func (s *Session) Submit(ctx context.Context, req domain.Request) (domain.Result, error) {
	if err := req.Validate(); err != nil {
		return domain.Result{}, err
	}

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return domain.Result{}, ErrSessionClosed
	case s.result != nil || s.submitting:
		s.mu.Unlock()
		return domain.Result{}, ErrAlreadySubmitted
	}
	s.submitting = true
	s.mu.Unlock()

	res, err := s.svc.AI.Analyze(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitting = false
	if err != nil {
		return domain.Result{}, err
	}
	s.request = req
	s.result = &res
	s.record = domain.NewRecord(s.OwnerID, req.TargetLanguage, res, s.svc.nowMS())
	return res, nil
}

// Finalize starts background enrichment for the submitted result and returns
// immediately: persist the record then create its conversation, and in
// parallel synthesize the explanation then attach the audio once the record
// id exists. Calling it again is a no-op.
func (s *Session) Finalize() error {
	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return ErrSessionClosed
	case s.result == nil:
		s.mu.Unlock()
		return ErrNotSubmitted
	case s.finalized:
		s.mu.Unlock()
		return nil
	}
	s.finalized = true
	rec := *s.record
	img := s.request.Image
	explanation := s.result.Explanation
	lang := s.request.TargetLanguage
	s.mu.Unlock()

	s.spawn(func() { s.persist(rec, img) })
	s.spawn(func() { s.synthesize(explanation, lang) })
	return nil
}

// Ask answers a follow-up question. The user turn is recorded before the
// inference call and the assistant turn after it; durable appends and
// answer audio happen in the background.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("%w: question is required", domain.ErrInvalidRequest)
	}

	s.askMu.Lock()
	defer s.askMu.Unlock()

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return "", ErrSessionClosed
	case s.result == nil:
		s.mu.Unlock()
		return "", ErrNotSubmitted
	}
	prior := s.result.Explanation
	lang := s.request.TargetLanguage
	user := conversation.Turn{Role: conversation.RoleUser, Text: question, Timestamp: s.svc.nowMS()}
	s.transcript = append(s.transcript, user)
	s.answerAudio = nil
	s.mu.Unlock()
	s.appendDurable(user)

	answer, err := s.svc.AI.FollowUp(ctx, question, prior, lang)
	if err != nil {
		return "", err
	}

	assistant := conversation.Turn{Role: conversation.RoleAssistant, Text: answer, Timestamp: s.svc.nowMS()}
	if !s.mutate(func() { s.transcript = append(s.transcript, assistant) }) {
		return answer, nil
	}
	s.appendDurable(assistant)
	s.spawn(func() { s.synthesizeAnswer(answer, lang) })
	return answer, nil
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:          s.ID,
		OwnerID:     s.OwnerID,
		Transcript:  append([]conversation.Turn(nil), s.transcript...),
		AudioReady:  s.explanationAudio != nil,
		AnswerAudio: s.answerAudio != nil,
		Closed:      s.closed,
	}
	if s.result != nil {
		res := *s.result
		snap.Result = &res
		snap.TargetLanguage = s.request.TargetLanguage
	}
	if s.record != nil {
		snap.RecordID = s.record.ID
		snap.ImageURL = s.record.ImageURL
		snap.AudioURL = s.record.AudioURL
	}
	if id, ok, err := s.conversationID.peek(); ok && err == nil {
		snap.ConversationID = id
	}
	return snap
}

// ExplanationAudio returns the synthesized explanation once it is ready.
func (s *Session) ExplanationAudio() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.explanationAudio, s.explanationAudio != nil
}

// AwaitAudio blocks until the explanation audio is synthesized or has failed.
func (s *Session) AwaitAudio(ctx context.Context) ([]byte, error) {
	return s.audio.await(ctx)
}

// AnswerAudio returns the audio for the latest follow-up answer once it is ready.
func (s *Session) AnswerAudio() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answerAudio, s.answerAudio != nil
}

// Wait blocks until every background task started so far has finished.
func (s *Session) Wait() { s.tasks.Wait() }

// Close discards the session: in-flight background calls are cancelled and
// no further result is written to it.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
}

//
// ==== BACKGROUND ====
//

func (s *Session) spawn(f func()) {
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		f()
	}()
}

// mutate applies f unless the session was closed.
func (s *Session) mutate(f func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	f()
	return true
}

func (s *Session) step() (context.Context, context.CancelFunc) {
	return context.WithTimeout(s.ctx, s.svc.backgroundTimeout())
}

func (s *Session) fail(stage string, err error, fields ...zap.Field) {
	if s.svc.Metrics != nil {
		s.svc.Metrics.BackgroundFailure(stage)
	}
	fields = append(fields,
		zap.String("owner", s.OwnerID),
		zap.String("session", s.ID),
		zap.String("stage", stage),
		zap.Error(err),
	)
	s.svc.logger().Error("background task failed", fields...)
}

func (s *Session) persist(rec domain.Record, img *domain.Image) {
	if img != nil && s.svc.UploadImages {
		ctx, cancel := s.step()
		url, err := s.svc.Store.Upload(ctx, ImageKey(s.OwnerID, rec.Timestamp, img.MIMEType), img.Data, img.MIMEType)
		cancel()
		if err != nil {
			s.fail("image-upload", fmt.Errorf("%w: upload image: %w", domain.ErrPersistence, err))
		} else {
			rec.ImageURL = url
		}
	}

	ctx, cancel := s.step()
	id, err := s.svc.Records.Create(ctx, &rec)
	cancel()
	if err != nil {
		err = fmt.Errorf("%w: create record: %w", domain.ErrPersistence, err)
		s.recordID.resolve("", err)
		s.conversationID.resolve("", fmt.Errorf("%w: record was not persisted", conversation.ErrConversation))
		s.fail("persist", err)
		return
	}
	s.recordID.resolve(id, nil)
	s.mutate(func() {
		s.record.ID = id
		s.record.ImageURL = rec.ImageURL
	})

	ctx, cancel = s.step()
	convID, err := s.svc.Conversations.Create(ctx, string(id), s.OwnerID, s.svc.nowMS())
	cancel()
	if err != nil {
		err = fmt.Errorf("%w: create: %w", conversation.ErrConversation, err)
		s.conversationID.resolve("", err)
		s.fail("conversation", err, zap.String("record", string(id)))
		return
	}
	s.conversationID.resolve(convID, nil)
}

func (s *Session) synthesize(explanation string, lang domain.Language) {
	ctx, cancel := s.step()
	audio, err := s.svc.Speech.Synthesize(ctx, explanation, lang.SpeechCode())
	cancel()
	if err != nil {
		err = wrapAudio(err)
		s.audio.resolve(nil, err)
		s.fail("synthesize", err)
		return
	}
	s.audio.resolve(audio, nil)
	s.mutate(func() { s.explanationAudio = audio })

	// fan-in: the attach needs the record id as well
	id, err := s.recordID.await(s.ctx)
	if err != nil {
		s.svc.logger().Debug("audio attach skipped",
			zap.String("session", s.ID),
			zap.Error(err),
		)
		return
	}
	s.attachAudio(id, audio)
}

func (s *Session) attachAudio(id domain.RecordID, audio []byte) {
	ctx, cancel := s.step()
	defer cancel()

	url, err := s.svc.Store.Upload(ctx, AudioKey(s.OwnerID, s.svc.nowMS()), audio, audioContentType)
	if err != nil {
		s.fail("audio-upload", wrapAudio(err), zap.String("record", string(id)))
		return
	}
	if err := s.svc.Records.Update(ctx, id, domain.Patch{AudioURL: &url}); err != nil {
		s.fail("audio-attach", fmt.Errorf("%w: attach audio: %w", domain.ErrPersistence, err), zap.String("record", string(id)))
		return
	}
	s.mutate(func() { s.record.AudioURL = url })
}

// appendDurable queues a turn for the conversation store. Appends keep the
// order they were queued in and wait for the conversation id; if it never
// resolves the turn stays in memory only.
func (s *Session) appendDurable(t conversation.Turn) {
	s.mu.Lock()
	prev := s.lastAppend
	done := make(chan struct{})
	s.lastAppend = done
	s.mu.Unlock()

	s.spawn(func() {
		defer close(done)
		if prev != nil {
			select {
			case <-prev:
			case <-s.ctx.Done():
				return
			}
		}
		convID, err := s.conversationID.await(s.ctx)
		if err != nil {
			return
		}
		ctx, cancel := s.step()
		defer cancel()
		if err := s.svc.Conversations.Append(ctx, convID, t); err != nil {
			s.fail("conversation-append", fmt.Errorf("%w: append: %w", conversation.ErrConversation, err), zap.String("conversation", convID))
		}
	})
}

func (s *Session) synthesizeAnswer(answer string, lang domain.Language) {
	ctx, cancel := s.step()
	defer cancel()
	audio, err := s.svc.Speech.Synthesize(ctx, answer, lang.SpeechCode())
	if err != nil {
		// answer audio is optional
		s.svc.logger().Debug("answer audio failed", zap.String("session", s.ID), zap.Error(err))
		return
	}
	s.mutate(func() { s.answerAudio = audio })
}

func wrapAudio(err error) error {
	if errors.Is(err, speech.ErrAudio) {
		return err
	}
	return fmt.Errorf("%w: %w", speech.ErrAudio, err)
}
