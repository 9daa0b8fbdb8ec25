package internalerr

import "errors"

// Sentinel errors shared by the exapt packages
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrDuplicate          = errors.New("duplicate entry")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrInvalidStructureID = errors.New("invalid structure id")
	ErrDivisionUndefined  = errors.New("division undefined: empty keyword profile")
	ErrUnavailable        = errors.New("source unavailable")
)
