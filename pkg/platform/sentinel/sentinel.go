package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, directories and sinks
// return these (optionally wrapped) so services can translate them into coded
// domain errors from pkg/domain-errors.
//
//   - ErrNotFound: the entity does not exist in the store
//   - ErrConflict: the key is already bound to something else
//   - ErrUnavailable: a backing service (Redis, Postgres, Kafka) cannot be reached
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
