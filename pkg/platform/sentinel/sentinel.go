package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: key is absent or its time-to-live elapsed
//   - ErrConflict: an optimistic write lost the race, or a generated key collided
//   - ErrUnavailable: the cache did not answer or did not confirm the operation
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
