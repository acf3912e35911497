package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	domain "github.com/bryanwahyu/clarify/internal/domain/homework"
)

// HomeworkRepository keeps records in process memory. Used by the memory
// driver and by tests.
type HomeworkRepository struct {
	mu      sync.RWMutex
	records map[domain.RecordID]domain.Record
}

func NewHomeworkRepository() *HomeworkRepository {
	return &HomeworkRepository{records: map[domain.RecordID]domain.Record{}}
}

func (r *HomeworkRepository) Create(ctx context.Context, rec *domain.Record) (domain.RecordID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := domain.RecordID(uuid.NewString())
	cp := *rec
	cp.ID = id

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[id] = cp
	return id, nil
}

func (r *HomeworkRepository) Update(ctx context.Context, id domain.RecordID, p domain.Patch) error {
	if p.Empty() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if p.AudioURL != nil {
		rec.AudioURL = *p.AudioURL
	}
	if p.ImageURL != nil {
		rec.ImageURL = *p.ImageURL
	}
	r.records[id] = rec
	return nil
}

func (r *HomeworkRepository) List(ctx context.Context, ownerID string) ([]*domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := lo.FilterMap(lo.Values(r.records), func(rec domain.Record, _ int) (*domain.Record, bool) {
		cp := rec
		return &cp, rec.OwnerID == ownerID
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp == out[j].Timestamp {
			return out[i].ID > out[j].ID
		}
		return out[i].Timestamp > out[j].Timestamp
	})
	return out, nil
}

func (r *HomeworkRepository) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return &rec, nil
}

func (r *HomeworkRepository) Delete(ctx context.Context, id domain.RecordID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}

func (r *HomeworkRepository) DeleteAll(ctx context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rec := range r.records {
		if rec.OwnerID == ownerID {
			delete(r.records, id)
		}
	}
	return nil
}

// Ping satisfies the readiness checker.
func (r *HomeworkRepository) Ping(ctx context.Context) error { return nil }
