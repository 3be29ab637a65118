package interfaces

import "errors"

var (
	ErrConfigVersion    = errors.New("invalid config version used. please upgrade to hpos-config v2")
	ErrRegistration     = errors.New("registration error")
	ErrZtRegistration   = errors.New("zt registration error")
	ErrInitialization   = errors.New("initialization error")
	ErrCancelled        = errors.New("cancelled")
	ErrRetriesExhausted = errors.New("retries exhausted")
)
