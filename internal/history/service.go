package history

import (
	"context"
	"log/slog"

	dErrors "dasigov/pkg/domain-errors"
	"dasigov/pkg/requestcontext"
)

// Service records and serves the distribution history. Both pipelines write
// through it; a failed append is logged and surfaced but callers decide
// whether it blocks their operation.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Record appends one entry, stamping the request time when the caller left
// the timestamp unset.
func (s *Service) Record(ctx context.Context, record Record) error {
	if !record.Kind.Valid() {
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown history kind %q", record.Kind)
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = requestcontext.Now(ctx)
	}
	if err := s.store.Append(ctx, record); err != nil {
		s.logger.ErrorContext(ctx, "history append failed",
			"request_id", requestcontext.RequestID(ctx),
			"kind", record.Kind,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append history record")
	}
	return nil
}

// List returns records newest first, optionally filtered by kind. An empty
// kind means no filter.
func (s *Service) List(ctx context.Context, kind Kind) ([]Record, error) {
	records, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list history")
	}
	if kind == "" {
		return records, nil
	}
	if !kind.Valid() {
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown history kind %q", kind)
	}
	filtered := records[:0:0]
	for _, r := range records {
		if r.Kind == kind {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}
