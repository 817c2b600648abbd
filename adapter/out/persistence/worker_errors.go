package persistence

import "tracker_worker/core/domain"

// Common persistence errors
var (
	ErrNotFound      = domain.ErrRowNotFound
	ErrUnknownSheet  = domain.ErrUnknownSheet
	ErrInvalidColumn = domain.ErrInvalidColumn
	ErrInvalidIndex  = domain.ErrInvalidIndex
	ErrInvalidInput  = domain.ErrInvalidInput
)
