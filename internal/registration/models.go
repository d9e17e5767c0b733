// Package registration implements the intake and approval pipeline. Personal
// data and the anonymized wallet mapping are separate records created
// together under one hash id; only the Registrant side ever carries a name.
package registration

import (
	"math/big"
	"time"

	id "dasigov/pkg/domain"
	dErrors "dasigov/pkg/domain-errors"
)

// Status is the registrant lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// PersonalData is the identity claim a registrant submits. It lives only on
// the Registrant record and in the admin projection.
type PersonalData struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Registrant is the personal-data side of a submission.
//
// Invariants:
//   - ExternalKey is unique across all registrants
//   - Status transitions: pending → approved, pending → rejected; both terminal
//   - Never deleted; rejection is a status, not removal
type Registrant struct {
	ID              id.RegistrantID
	ExternalKey     string
	Personal        PersonalData
	Status          Status
	SubmittedAt     time.Time
	DecidedAt       *time.Time
	DecidedBy       id.Address
	RejectionReason string
}

// CanApprove checks the approval preconditions without mutating.
func (r *Registrant) CanApprove() error {
	switch r.Status {
	case StatusApproved:
		return dErrors.New(dErrors.CodeConflict, "registration is already approved")
	case StatusRejected:
		return dErrors.New(dErrors.CodePreconditionFailed, "registration was rejected")
	}
	return nil
}

// ApplyApproval flips the registrant to approved. Call CanApprove first.
func (r *Registrant) ApplyApproval(decidedBy id.Address, now time.Time) {
	r.Status = StatusApproved
	r.DecidedBy = decidedBy
	r.DecidedAt = &now
}

// RevertApproval undoes ApplyApproval. Compensation path for a failed mint:
// the approval is only durable once the mint succeeded.
func (r *Registrant) RevertApproval() {
	r.Status = StatusPending
	r.DecidedBy = ""
	r.DecidedAt = nil
}

// CanReject checks the rejection preconditions without mutating.
func (r *Registrant) CanReject() error {
	switch r.Status {
	case StatusRejected:
		return dErrors.New(dErrors.CodeConflict, "registration is already rejected")
	case StatusApproved:
		return dErrors.New(dErrors.CodePreconditionFailed, "registration is already approved")
	}
	return nil
}

// ApplyRejection flips the registrant to rejected. Terminal; there is no
// re-approval path.
func (r *Registrant) ApplyRejection(decidedBy id.Address, reason string, now time.Time) {
	r.Status = StatusRejected
	r.DecidedBy = decidedBy
	r.DecidedAt = &now
	r.RejectionReason = reason
}

// WalletMapping is the anonymized, publicly queryable counterpart to a
// Registrant. Shares the same id; carries no personal data.
//
// Invariant: Approved == true iff the linked Registrant.Status == approved.
type WalletMapping struct {
	ID          id.RegistrantID
	Address     id.Address
	Approved    bool
	TotalIssued *big.Int
	CreatedAt   time.Time
}

// PublicView is what anyone may see for an address. Unknown addresses get the
// zero value, not an error.
type PublicView struct {
	ID          id.RegistrantID `json:"id"`
	Address     id.Address      `json:"address"`
	Approved    bool            `json:"approved"`
	TotalIssued string          `json:"total_issued"`
}

// AdminView merges a Registrant with its WalletMapping for administrative
// review. Computed on read, never stored.
type AdminView struct {
	ID              id.RegistrantID `json:"id"`
	ExternalKey     string          `json:"external_key"`
	Personal        PersonalData    `json:"personal"`
	Address         id.Address      `json:"address"`
	Status          Status          `json:"status"`
	Approved        bool            `json:"approved"`
	TotalIssued     string          `json:"total_issued"`
	SubmittedAt     time.Time       `json:"submitted_at"`
	DecidedAt       *time.Time      `json:"decided_at,omitempty"`
	DecidedBy       id.Address      `json:"decided_by,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
}

// NewAdminView is the read-side projection over the two canonical entities.
func NewAdminView(r Registrant, m WalletMapping) AdminView {
	return AdminView{
		ID:              r.ID,
		ExternalKey:     r.ExternalKey,
		Personal:        r.Personal,
		Address:         m.Address,
		Status:          r.Status,
		Approved:        m.Approved,
		TotalIssued:     id.FormatAmount(m.TotalIssued),
		SubmittedAt:     r.SubmittedAt,
		DecidedAt:       r.DecidedAt,
		DecidedBy:       r.DecidedBy,
		RejectionReason: r.RejectionReason,
	}
}
