package history

import "context"

// Store is the capped append-only sink for distribution records. Newest
// first; implementations enforce the MaxRecords cap on append.
type Store interface {
	Append(ctx context.Context, record Record) error
	List(ctx context.Context) ([]Record, error)
}
