package synclog

import "context"

// Repository is the append-only persistence contract for audit entries.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	ListRecent(ctx context.Context, page, limit int) ([]*Entry, int64, error)
}
