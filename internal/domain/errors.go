package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrPremiumLocked      = errors.New("premium template locked")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrUnsupportedPlan    = errors.New("unsupported plan")
	ErrDuplicateOperation = errors.New("duplicate operation")
)
