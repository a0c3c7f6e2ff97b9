package registry

import "errors"

var (
	// ErrNotFound is returned when an operation requires an entity that
	// does not exist (delete or update of a missing client, calendar, or
	// post). Legitimate absence on a lookup returns (nil, nil) instead.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateCode is returned when a freshly generated client access
	// code collides with an existing client. The registry never silently
	// regenerates; the caller decides whether to retry.
	ErrDuplicateCode = errors.New("client code already exists")

	// ErrStorageDisabled is returned when an operation needs object
	// storage but none is configured.
	ErrStorageDisabled = errors.New("object storage not configured")
)
