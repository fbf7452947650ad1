package auction

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrMalformedAccountData = errors.New("malformed account data")
	ErrNotInitialized       = errors.New("auction not initialized")
	ErrAlreadyInitialized   = errors.New("auction already initialized")
	ErrSettled              = errors.New("auction already settled")
)
