// Package authority owns the singleton authority record: the one-time-set
// root address and the member (owner/director) tier. Every privileged
// operation in the other pipelines consults this package.
package authority

import (
	id "dasigov/pkg/domain"
	dErrors "dasigov/pkg/domain-errors"
)

// Record is the authority singleton.
//
// Invariants:
//   - Root is set at most once and never reassigned
//   - Root is never present in Members
//   - Members holds canonical addresses, no duplicates
type Record struct {
	Root    id.Address   `json:"root"`
	Members []id.Address `json:"members"`
}

// HasRoot reports whether the root has been initialized. No privileged
// operation succeeds before it is.
func (r *Record) HasRoot() bool { return !r.Root.IsZero() }

// IsRoot reports whether addr is the root.
func (r *Record) IsRoot(addr id.Address) bool {
	return r.HasRoot() && r.Root == addr
}

// IsMember reports whether addr sits in the member tier.
func (r *Record) IsMember(addr id.Address) bool {
	for _, m := range r.Members {
		if m == addr {
			return true
		}
	}
	return false
}

// HasAuthority reports whether addr is root or a member.
func (r *Record) HasAuthority(addr id.Address) bool {
	return r.IsRoot(addr) || r.IsMember(addr)
}

// CanAddMember checks the add preconditions without mutating.
func (r *Record) CanAddMember(candidate id.Address) error {
	if r.IsRoot(candidate) {
		return dErrors.New(dErrors.CodeInvariantViolation, "root cannot be added as a member")
	}
	if r.IsMember(candidate) {
		return dErrors.New(dErrors.CodeConflict, "address is already a member")
	}
	return nil
}

// ApplyAddMember appends candidate. Call CanAddMember first.
func (r *Record) ApplyAddMember(candidate id.Address) {
	r.Members = append(r.Members, candidate)
}

// ApplyRemoveMember drops candidate if present. Removing a non-member is a
// no-op, not an error.
func (r *Record) ApplyRemoveMember(candidate id.Address) {
	kept := r.Members[:0]
	for _, m := range r.Members {
		if m != candidate {
			kept = append(kept, m)
		}
	}
	r.Members = kept
}
