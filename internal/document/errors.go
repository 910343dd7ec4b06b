package document

import "errors"

// Sentinel errors used across the document service. Handlers map these to
// HTTP statuses: ErrNotFound -> 404, ErrAccessDenied and
// ErrCannotRemoveCreator -> 403, ErrValidation -> 400.
var (
	ErrNotFound            = errors.New("document not found")
	ErrAccessDenied        = errors.New("access denied")
	ErrCannotRemoveCreator = errors.New("cannot remove the creator from collaborators")
	ErrValidation          = errors.New("invalid input")
)
