package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrBettingClosed         = errors.New("betting is closed for this match")
	ErrReconciliationFault   = errors.New("scoring reconciliation fault")
)
