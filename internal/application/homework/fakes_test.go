package homework

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/bryanwahyu/clarify/internal/domain/conversation"
	domain "github.com/bryanwahyu/clarify/internal/domain/homework"
)

// recorder keeps the order in which collaborators were called.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(c string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, c)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.calls)
}

func (r *recorder) index(c string) int { return slices.Index(r.list(), c) }

func (r *recorder) has(c string) bool { return r.index(c) >= 0 }

type fakeAnalyzer struct {
	rec       *recorder
	result    domain.Result
	err       error
	answer    string
	followErr error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req domain.Request) (domain.Result, error) {
	f.rec.add("ai.analyze")
	if f.err != nil {
		return domain.Result{}, f.err
	}
	return f.result, nil
}

func (f *fakeAnalyzer) FollowUp(ctx context.Context, question, prior string, lang domain.Language) (string, error) {
	f.rec.add("ai.followup")
	if f.followErr != nil {
		return "", f.followErr
	}
	return f.answer, nil
}

type fakeSpeech struct {
	rec   *recorder
	gate  chan struct{}
	err   error
	audio []byte
}

func (f *fakeSpeech) Synthesize(ctx context.Context, text, code string) ([]byte, error) {
	f.rec.add("speech.synthesize:" + code)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	f.rec.add("speech.done")
	return f.audio, nil
}

type fakeRecords struct {
	rec       *recorder
	gate      chan struct{}
	createErr error

	mu      sync.Mutex
	saved   []domain.Record
	patches []domain.Patch
	byID    map[domain.RecordID]*domain.Record
}

func (f *fakeRecords) Create(ctx context.Context, r *domain.Record) (domain.RecordID, error) {
	f.rec.add("records.create")
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.createErr != nil {
		return "", f.createErr
	}
	f.mu.Lock()
	f.saved = append(f.saved, *r)
	f.mu.Unlock()
	f.rec.add("records.created")
	return "rec-1", nil
}

func (f *fakeRecords) Update(ctx context.Context, id domain.RecordID, p domain.Patch) error {
	f.rec.add("records.update:" + string(id))
	f.mu.Lock()
	f.patches = append(f.patches, p)
	f.mu.Unlock()
	return nil
}

func (f *fakeRecords) List(ctx context.Context, ownerID string) ([]*domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Record
	for _, r := range f.byID {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecords) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (f *fakeRecords) Delete(ctx context.Context, id domain.RecordID) error {
	f.rec.add("records.delete:" + string(id))
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

func (f *fakeRecords) DeleteAll(ctx context.Context, ownerID string) error {
	f.rec.add("records.delete-all:" + ownerID)
	return nil
}

type fakeConversations struct {
	rec       *recorder
	createErr error

	mu    sync.Mutex
	turns []conversation.Turn
}

func (f *fakeConversations) Create(ctx context.Context, recordID, ownerID string, createdAt int64) (string, error) {
	f.rec.add("conversations.create:" + recordID)
	if f.createErr != nil {
		return "", f.createErr
	}
	return "conv-1", nil
}

func (f *fakeConversations) Append(ctx context.Context, convID string, t conversation.Turn) error {
	f.rec.add("conversations.append:" + string(t.Role))
	f.mu.Lock()
	f.turns = append(f.turns, t)
	f.mu.Unlock()
	return nil
}

func (f *fakeConversations) GetByRecord(ctx context.Context, recordID string) (*conversation.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &conversation.Conversation{ID: "conv-1", RecordID: recordID, Messages: slices.Clone(f.turns)}, nil
}

type fakeStore struct {
	rec *recorder
	err error
}

func (f *fakeStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.rec.add("store.upload:" + key)
	if f.err != nil {
		return "", f.err
	}
	return "https://cdn.test/" + key, nil
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type countingMetrics struct {
	mu     sync.Mutex
	stages []string
}

func (m *countingMetrics) BackgroundFailure(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stages = append(m.stages, stage)
}

type harness struct {
	rec     *recorder
	ai      *fakeAnalyzer
	speech  *fakeSpeech
	records *fakeRecords
	convs   *fakeConversations
	store   *fakeStore
	metrics *countingMetrics
	logs    *observer.ObservedLogs
	svc     *Service
}

var mathResult = domain.Result{
	OriginalText:   "Solve for x: 2x + 5 = 13",
	TranslatedText: "Resuelve para x: 2x + 5 = 13",
	Explanation:    "Resta 5 de ambos lados y divide entre 2. x = 4.",
	Subject:        "Math",
	SourceLanguage: "English",
}

var mathRequest = domain.Request{Text: "Solve for x: 2x + 5 = 13", TargetLanguage: domain.LanguageSpanish}

func newHarness(t *testing.T) *harness {
	t.Helper()
	rec := &recorder{}
	core, logs := observer.New(zap.DebugLevel)
	h := &harness{
		rec:     rec,
		ai:      &fakeAnalyzer{rec: rec, result: mathResult, answer: "Porque queremos dejar x sola."},
		speech:  &fakeSpeech{rec: rec, audio: []byte("ID3-mp3")},
		records: &fakeRecords{rec: rec, byID: map[domain.RecordID]*domain.Record{}},
		convs:   &fakeConversations{rec: rec},
		store:   &fakeStore{rec: rec},
		metrics: &countingMetrics{},
		logs:    logs,
	}
	h.svc = &Service{
		AI:                h.ai,
		Speech:            h.speech,
		Records:           h.records,
		Conversations:     h.convs,
		Store:             h.store,
		Clock:             fixedClock{t: time.UnixMilli(1700000000000)},
		Log:               zap.New(core),
		Metrics:           h.metrics,
		BackgroundTimeout: 5 * time.Second,
	}
	return h
}

func (h *harness) failures(stage string) []observer.LoggedEntry {
	return h.logs.Filter(func(e observer.LoggedEntry) bool {
		return e.Message == "background task failed" && e.ContextMap()["stage"] == stage
	}).All()
}

var errTransport = errors.New("transport: connection refused")
