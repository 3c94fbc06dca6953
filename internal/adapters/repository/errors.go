package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("run not found")
	ErrDuplicate     = errors.New("run already stored")
	ErrInvalidLimit  = errors.New("invalid list limit")
	ErrInvalidRecord = errors.New("invalid run record")
	ErrUnknownDriver = errors.New("unknown store driver")
)
