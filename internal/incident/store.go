package incident

import "context"

// Store is the persistence interface for incident records. Create returns
// the backend-assigned object identifier; callers may discard it.
type Store interface {
	Create(ctx context.Context, r *Record) (objectID string, err error)
	Get(ctx context.Context, id string) (*Record, bool, error)
	Recent(ctx context.Context, limit int) ([]*Record, error)
}
