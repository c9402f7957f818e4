package services

import "errors"

// Failure taxonomy surfaced to the API layer. Handlers map these onto HTTP
// statuses; anything else is a 500 with a generic body.
var (
	ErrValidation     = errors.New("invalid input")
	ErrNotFound       = errors.New("conversation not found")
	ErrForbidden      = errors.New("conversation does not belong to the current user")
	ErrUpstream       = errors.New("model provider failure")
	ErrBadModelOutput = errors.New("model output did not match the expected contract")
)
