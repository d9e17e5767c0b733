package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the ledger adapter
// return these (optionally wrapped) so services can translate them into
// coded domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: record does not exist in store
// - ErrConflict: uniqueness constraint hit (external key, wallet address)
// - ErrAlreadyUsed: one-shot resource already consumed (root already set, vote already cast)
// - ErrInvalidState: entity in wrong state for requested transition
// - ErrUnavailable: collaborator temporarily unreachable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrAlreadyUsed  = errors.New("already used")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
