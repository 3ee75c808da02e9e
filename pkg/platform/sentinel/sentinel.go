package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so callers can translate them into domain errors:
// - ErrNotFound: key does not exist in the store
// - ErrUnavailable: backend closed or unreachable
// - ErrCorrupt: persisted value cannot be decoded
// - ErrInvalidState: arguments the store cannot act on
var (
	ErrNotFound     = errors.New("not found")
	ErrUnavailable  = errors.New("unavailable")
	ErrCorrupt      = errors.New("corrupt")
	ErrInvalidState = errors.New("invalid state")
)
