package homework

import "context"

// Repository port for persisting and querying homework records
type Repository interface {
	Create(ctx context.Context, r *Record) (RecordID, error)
	Update(ctx context.Context, id RecordID, p Patch) error
	// List returns the owner's records, newest first.
	List(ctx context.Context, ownerID string) ([]*Record, error)
	// Get fails with ErrNotFound when the record is absent.
	Get(ctx context.Context, id RecordID) (*Record, error)
	Delete(ctx context.Context, id RecordID) error
	DeleteAll(ctx context.Context, ownerID string) error
}

// ObjectStore port for audio and image uploads
type ObjectStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
