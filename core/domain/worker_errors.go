package domain

import "errors"

// Record store errors shared by adapters and handlers.
var (
	ErrUnknownSheet  = errors.New("unknown sheet")
	ErrRowNotFound   = errors.New("row not found")
	ErrInvalidColumn = errors.New("invalid column")
	ErrInvalidIndex  = errors.New("invalid row index")
	ErrInvalidInput  = errors.New("invalid input")
)
