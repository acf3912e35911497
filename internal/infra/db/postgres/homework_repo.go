package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	domain "github.com/bryanwahyu/clarify/internal/domain/homework"
)

type HomeworkRepository struct{ db *sql.DB }

func NewHomeworkRepository(db *sql.DB) *HomeworkRepository { return &HomeworkRepository{db: db} }

const homeworkColumns = `id, owner_id, image_url, audio_url, original_text, translated_text,
       explanation, subject, source_language, target_language, timestamp_ms`

// Create inserts the record under a fresh id
func (r *HomeworkRepository) Create(ctx context.Context, rec *domain.Record) (domain.RecordID, error) {
	const q = `
INSERT INTO homework
(id, owner_id, image_url, audio_url, original_text, translated_text,
 explanation, subject, source_language, target_language, timestamp_ms)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`

	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx, q,
		id, rec.OwnerID, rec.ImageURL, rec.AudioURL,
		rec.OriginalText, rec.TranslatedText, rec.Explanation,
		rec.Subject, rec.SourceLanguage, string(rec.TargetLanguage), rec.Timestamp,
	)
	if err != nil {
		return "", err
	}
	return domain.RecordID(id), nil
}

// Update applies the non-nil fields of the patch
func (r *HomeworkRepository) Update(ctx context.Context, id domain.RecordID, p domain.Patch) error {
	cols, args := patchColumns(p)
	if len(cols) == 0 {
		return nil
	}
	args = append(args, string(id))
	q := fmt.Sprintf("UPDATE homework SET %s WHERE id = $%d", strings.Join(cols, ", "), len(args))
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return nil
}

// List records of one owner, newest first
func (r *HomeworkRepository) List(ctx context.Context, ownerID string) ([]*domain.Record, error) {
	q := "SELECT " + homeworkColumns + " FROM homework WHERE owner_id = $1 ORDER BY timestamp_ms DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*domain.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *HomeworkRepository) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	q := "SELECT " + homeworkColumns + " FROM homework WHERE id = $1 LIMIT 1"
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return rec, err
}

func (r *HomeworkRepository) Delete(ctx context.Context, id domain.RecordID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM homework WHERE id = $1", string(id))
	return err
}

func (r *HomeworkRepository) DeleteAll(ctx context.Context, ownerID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM homework WHERE owner_id = $1", ownerID)
	return err
}

// Ping is used by the readiness check
func (r *HomeworkRepository) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*domain.Record, error) {
	var rec domain.Record
	var id, lang string
	if err := row.Scan(
		&id, &rec.OwnerID, &rec.ImageURL, &rec.AudioURL,
		&rec.OriginalText, &rec.TranslatedText, &rec.Explanation,
		&rec.Subject, &rec.SourceLanguage, &lang, &rec.Timestamp,
	); err != nil {
		return nil, err
	}
	rec.ID = domain.RecordID(id)
	rec.TargetLanguage = domain.Language(lang)
	return &rec, nil
}
