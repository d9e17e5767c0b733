package registration

import (
	"context"
	"log/slog"
	"math/big"
	"strings"

	"dasigov/internal/history"
	"dasigov/internal/ledger"
	"dasigov/internal/platform/metrics"
	"dasigov/internal/signature"
	id "dasigov/pkg/domain"
	dErrors "dasigov/pkg/domain-errors"
	"dasigov/pkg/platform/sentinel"
	"dasigov/pkg/requestcontext"
)

// Authority answers capability checks for privileged operations.
type Authority interface {
	RequireAuthority(ctx context.Context, addr id.Address) error
}

// Historian records token movements.
type Historian interface {
	Record(ctx context.Context, record history.Record) error
}

// Service orchestrates intake, decisions, and issuance.
type Service struct {
	store     Store
	authority Authority
	ledger    ledger.Gateway
	historian Historian
	verifier  signature.Verifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewService(
	store Store,
	authority Authority,
	gateway ledger.Gateway,
	historian Historian,
	verifier signature.Verifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:     store,
		authority: authority,
		ledger:    gateway,
		historian: historian,
		verifier:  verifier,
		metrics:   m,
		logger:    logger,
	}
}

// SubmitRequest carries one registration submission.
type SubmitRequest struct {
	ExternalKey string
	Personal    PersonalData
	Address     id.Address
	Signature   []byte
}

// Submit validates a submission, verifies proof of wallet control, and
// creates the linked Registrant + WalletMapping pair.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (PublicView, error) {
	req.ExternalKey = strings.TrimSpace(req.ExternalKey)
	req.Personal.Name = strings.TrimSpace(req.Personal.Name)

	switch {
	case req.ExternalKey == "":
		return PublicView{}, dErrors.New(dErrors.CodeValidation, "external key is required")
	case req.Personal.Name == "":
		return PublicView{}, dErrors.New(dErrors.CodeValidation, "name is required")
	case req.Address.IsZero():
		return PublicView{}, dErrors.New(dErrors.CodeValidation, "wallet address is required")
	case len(req.Signature) == 0:
		return PublicView{}, dErrors.New(dErrors.CodeValidation, "proof-of-control signature is required")
	}

	message := AttestationMessage(req.Personal.Name, req.ExternalKey, req.Address)
	if !s.verifier.Verify(message, req.Signature, req.Address) {
		return PublicView{}, dErrors.New(dErrors.CodeUnauthorized, "proof-of-control signature does not verify for this wallet")
	}

	now := requestcontext.Now(ctx)
	rid := id.NewRegistrantID(req.ExternalKey, req.Address, now)

	registrant := Registrant{
		ID:          rid,
		ExternalKey: req.ExternalKey,
		Personal:    req.Personal,
		Status:      StatusPending,
		SubmittedAt: now,
	}
	mapping := WalletMapping{
		ID:          rid,
		Address:     req.Address,
		Approved:    false,
		TotalIssued: big.NewInt(0),
		CreatedAt:   now,
	}

	if err := s.store.CreateLinked(ctx, registrant, mapping); err != nil {
		if dErrors.Is(err, sentinel.ErrConflict) {
			return PublicView{}, dErrors.Wrap(err, dErrors.CodeConflict, "external key or wallet address is already registered")
		}
		return PublicView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create registration")
	}

	if s.metrics != nil {
		s.metrics.RegistrationsSubmitted.Inc()
	}
	s.logger.InfoContext(ctx, "registration submitted",
		"request_id", requestcontext.RequestID(ctx),
		"registrant_id", rid,
		"address", req.Address,
	)
	return publicView(mapping), nil
}

// Approve flips the registrant to approved and issues one voting token.
// Status flip, mint, and history append form one logical transaction: a
// failed mint reverts the flip before anything is observable as approved.
func (s *Service) Approve(ctx context.Context, addr, decidedBy id.Address) (AdminView, error) {
	if err := s.authority.RequireAuthority(ctx, decidedBy); err != nil {
		return AdminView{}, err
	}

	now := requestcontext.Now(ctx)
	registrant, mapping, err := s.store.Execute(ctx, addr,
		func(r *Registrant, _ *WalletMapping) error { return r.CanApprove() },
		func(r *Registrant, m *WalletMapping) {
			r.ApplyApproval(decidedBy, now)
			m.Approved = true
			m.TotalIssued = new(big.Int).Add(m.TotalIssued, id.OneToken)
		},
	)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return AdminView{}, dErrors.New(dErrors.CodeNotFound, "no registration for this address")
		}
		return AdminView{}, err
	}

	if err := s.ledger.Mint(ctx, addr, id.OneToken); err != nil {
		// Compensation: the approval is only durable if the mint succeeded.
		_, _, revertErr := s.store.Execute(ctx, addr, nil,
			func(r *Registrant, m *WalletMapping) {
				r.RevertApproval()
				m.Approved = false
				m.TotalIssued = new(big.Int).Sub(m.TotalIssued, id.OneToken)
			},
		)
		if revertErr != nil {
			s.logger.ErrorContext(ctx, "approval rollback failed",
				"request_id", requestcontext.RequestID(ctx),
				"address", addr,
			)
		}
		return AdminView{}, dErrors.Wrap(err, dErrors.CodeUpstream, "token mint failed; approval rolled back")
	}

	if err := s.historian.Record(ctx, history.Record{
		ID:              registrant.ID,
		Address:         addr,
		Amount:          id.OneToken,
		Kind:            history.KindApproval,
		Timestamp:       now,
		ActingAuthority: decidedBy,
	}); err != nil {
		return AdminView{}, err
	}

	if s.metrics != nil {
		s.metrics.RegistrationsApproved.Inc()
	}
	s.logger.InfoContext(ctx, "registration approved",
		"request_id", requestcontext.RequestID(ctx),
		"registrant_id", registrant.ID,
		"address", addr,
		"decided_by", decidedBy,
	)
	return NewAdminView(registrant, mapping), nil
}

// Reject marks the registration rejected. Terminal; no ledger effect.
func (s *Service) Reject(ctx context.Context, addr, decidedBy id.Address, reason string) (AdminView, error) {
	if err := s.authority.RequireAuthority(ctx, decidedBy); err != nil {
		return AdminView{}, err
	}

	now := requestcontext.Now(ctx)
	registrant, mapping, err := s.store.Execute(ctx, addr,
		func(r *Registrant, _ *WalletMapping) error { return r.CanReject() },
		func(r *Registrant, _ *WalletMapping) { r.ApplyRejection(decidedBy, reason, now) },
	)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return AdminView{}, dErrors.New(dErrors.CodeNotFound, "no registration for this address")
		}
		return AdminView{}, err
	}

	if s.metrics != nil {
		s.metrics.RegistrationsRejected.Inc()
	}
	s.logger.InfoContext(ctx, "registration rejected",
		"request_id", requestcontext.RequestID(ctx),
		"registrant_id", registrant.ID,
		"decided_by", decidedBy,
	)
	return NewAdminView(registrant, mapping), nil
}

// UpdateTokens is the manual top-up path: mints amount to addr and bumps the
// mapping's issued total.
func (s *Service) UpdateTokens(ctx context.Context, addr id.Address, amount *big.Int, decidedBy id.Address) (AdminView, error) {
	if err := s.authority.RequireAuthority(ctx, decidedBy); err != nil {
		return AdminView{}, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return AdminView{}, dErrors.New(dErrors.CodeInvalidInput, "amount must be greater than zero")
	}

	// Existence check up front so an unknown address is NotFound, not a mint.
	if _, err := s.store.FindMappingByAddress(ctx, addr); err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return AdminView{}, dErrors.New(dErrors.CodeNotFound, "no registration for this address")
		}
		return AdminView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load wallet mapping")
	}

	if err := s.ledger.Mint(ctx, addr, amount); err != nil {
		return AdminView{}, dErrors.Wrap(err, dErrors.CodeUpstream, "token mint failed")
	}

	now := requestcontext.Now(ctx)
	registrant, mapping, err := s.store.Execute(ctx, addr, nil,
		func(_ *Registrant, m *WalletMapping) {
			m.TotalIssued = new(big.Int).Add(m.TotalIssued, amount)
		},
	)
	if err != nil {
		return AdminView{}, dErrors.Wrap(err, dErrors.CodeInternal, "minted but failed to record issued total")
	}

	if err := s.historian.Record(ctx, history.Record{
		ID:              mapping.ID,
		Address:         addr,
		Amount:          amount,
		Kind:            history.KindManual,
		Timestamp:       now,
		ActingAuthority: decidedBy,
	}); err != nil {
		return AdminView{}, err
	}
	return NewAdminView(registrant, mapping), nil
}

// QueryPublic returns the anonymized view for an address. Unknown addresses
// get a zeroed record, not an error; callers cannot probe which addresses
// exist by error shape.
func (s *Service) QueryPublic(ctx context.Context, addr id.Address) (PublicView, error) {
	mapping, err := s.store.FindMappingByAddress(ctx, addr)
	if err != nil {
		if dErrors.Is(err, sentinel.ErrNotFound) {
			return PublicView{Address: addr, TotalIssued: "0"}, nil
		}
		return PublicView{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load wallet mapping")
	}
	return publicView(mapping), nil
}

// QueryAdmin merges personal data with the anonymized fields for review.
func (s *Service) QueryAdmin(ctx context.Context, caller id.Address) ([]AdminView, error) {
	if err := s.authority.RequireAuthority(ctx, caller); err != nil {
		return nil, err
	}
	return s.adminViews(ctx, "")
}

// QueryPending lists only undecided registrations.
func (s *Service) QueryPending(ctx context.Context, caller id.Address) ([]AdminView, error) {
	if err := s.authority.RequireAuthority(ctx, caller); err != nil {
		return nil, err
	}
	return s.adminViews(ctx, StatusPending)
}

// ApprovedSnapshot returns the addresses of all currently approved
// registrants. The governance engine passes this as the release airdrop list.
func (s *Service) ApprovedSnapshot(ctx context.Context) ([]id.Address, error) {
	addrs, err := s.store.ApprovedAddresses(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to snapshot approved addresses")
	}
	return addrs, nil
}

// RecordIssuance bumps the issued total for addr after an out-of-pipeline
// mint (proposal-release airdrop). Unknown addresses are ignored: the ledger
// is the source of truth for balances, the mapping only mirrors what the
// pipeline issued.
func (s *Service) RecordIssuance(ctx context.Context, addr id.Address, amount *big.Int) error {
	_, _, err := s.store.Execute(ctx, addr, nil,
		func(_ *Registrant, m *WalletMapping) {
			m.TotalIssued = new(big.Int).Add(m.TotalIssued, amount)
		},
	)
	if err != nil && !dErrors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record issuance")
	}
	return nil
}

func (s *Service) adminViews(ctx context.Context, filter Status) ([]AdminView, error) {
	registrants, mappings, err := s.store.ListPairs(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}
	views := make([]AdminView, 0, len(registrants))
	for i, r := range registrants {
		if filter != "" && r.Status != filter {
			continue
		}
		views = append(views, NewAdminView(r, mappings[i]))
	}
	return views, nil
}

func publicView(m WalletMapping) PublicView {
	return PublicView{
		ID:          m.ID,
		Address:     m.Address,
		Approved:    m.Approved,
		TotalIssued: id.FormatAmount(m.TotalIssued),
	}
}
