package authority

import "context"

// Store persists the authority singleton. Get returns a copy; Execute holds
// the record lock across validate and mutate so concurrent privileged
// changes serialize.
type Store interface {
	Get(ctx context.Context) (Record, error)
	Execute(ctx context.Context, validate func(*Record) error, mutate func(*Record)) (Record, error)
}
