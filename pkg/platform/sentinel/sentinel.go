package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and collaborators return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: member, claim or decision does not exist in the store
//   - ErrConflict: a record with the same key already exists
//   - ErrInvalidState: claim is not in a state that allows the operation
//   - ErrUnavailable: collaborator is temporarily unavailable (open circuit, no backend)
//
// Business-rule outcomes never use these; they are recorded as validation issues.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
