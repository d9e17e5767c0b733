package authority

import (
	"context"
	"log/slog"

	id "dasigov/pkg/domain"
	dErrors "dasigov/pkg/domain-errors"
	"dasigov/pkg/requestcontext"
)

// Service answers capability checks and manages the authority tier.
type Service struct {
	store  Store
	logger *slog.Logger
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// SetRoot initializes the root exactly once. Reassignment through this path
// is a conflict, which closes the takeover route.
func (s *Service) SetRoot(ctx context.Context, addr id.Address) error {
	if addr.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "root address is required")
	}
	_, err := s.store.Execute(ctx,
		func(r *Record) error {
			if r.HasRoot() {
				return dErrors.New(dErrors.CodeConflict, "authority root is already initialized")
			}
			return nil
		},
		func(r *Record) {
			r.Root = addr
		},
	)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "authority root initialized",
		"request_id", requestcontext.RequestID(ctx),
		"root", addr,
	)
	return nil
}

// IsRoot reports whether addr is the root.
func (s *Service) IsRoot(ctx context.Context, addr id.Address) (bool, error) {
	record, err := s.store.Get(ctx)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load authority record")
	}
	return record.IsRoot(addr), nil
}

// IsMember reports whether addr is in the member tier.
func (s *Service) IsMember(ctx context.Context, addr id.Address) (bool, error) {
	record, err := s.store.Get(ctx)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load authority record")
	}
	return record.IsMember(addr), nil
}

// HasAuthority reports whether addr is root or a member.
func (s *Service) HasAuthority(ctx context.Context, addr id.Address) (bool, error) {
	record, err := s.store.Get(ctx)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load authority record")
	}
	return record.HasAuthority(addr), nil
}

// RequireAuthority returns Unauthorized unless addr holds authority. The
// other services call this before every privileged mutation.
func (s *Service) RequireAuthority(ctx context.Context, addr id.Address) error {
	record, err := s.store.Get(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load authority record")
	}
	if !record.HasRoot() {
		return dErrors.New(dErrors.CodeUnauthorized, "authority root is not initialized")
	}
	if addr.IsZero() || !record.HasAuthority(addr) {
		return dErrors.New(dErrors.CodeUnauthorized, "caller does not hold authority")
	}
	return nil
}

// AddMember adds candidate to the member tier. Any authority holder may add.
func (s *Service) AddMember(ctx context.Context, candidate, requestedBy id.Address) error {
	if candidate.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "member address is required")
	}
	if err := s.RequireAuthority(ctx, requestedBy); err != nil {
		return err
	}
	_, err := s.store.Execute(ctx,
		func(r *Record) error { return r.CanAddMember(candidate) },
		func(r *Record) { r.ApplyAddMember(candidate) },
	)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "authority member added",
		"request_id", requestcontext.RequestID(ctx),
		"member", candidate,
		"requested_by", requestedBy,
	)
	return nil
}

// RemoveMember removes candidate from the member tier. Only root may remove;
// the member tier cannot shrink itself. Removing a non-member is a no-op.
func (s *Service) RemoveMember(ctx context.Context, candidate, requestedBy id.Address) error {
	if candidate.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "member address is required")
	}
	_, err := s.store.Execute(ctx,
		func(r *Record) error {
			if !r.IsRoot(requestedBy) {
				return dErrors.New(dErrors.CodeUnauthorized, "only root may remove members")
			}
			return nil
		},
		func(r *Record) { r.ApplyRemoveMember(candidate) },
	)
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "authority member removed",
		"request_id", requestcontext.RequestID(ctx),
		"member", candidate,
	)
	return nil
}

// Members returns the current member tier.
func (s *Service) Members(ctx context.Context) ([]id.Address, error) {
	record, err := s.store.Get(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load authority record")
	}
	return record.Members, nil
}

// Root returns the root address, zero if uninitialized.
func (s *Service) Root(ctx context.Context) (id.Address, error) {
	record, err := s.store.Get(ctx)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load authority record")
	}
	return record.Root, nil
}
