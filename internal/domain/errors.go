package domain

import "errors"

var (
	ErrQuoteUnavailable  = errors.New("quote unavailable")
	ErrQuoteSource       = errors.New("quote source failure")
	ErrQuoteSourceAuth   = errors.New("quote source unauthorized")
	ErrGasSource         = errors.New("gas source failure")
	ErrNormalization     = errors.New("normalization failed")
	ErrInvalidPrice      = errors.New("invalid price")
	ErrNoRoutesAvailable = errors.New("no routes available")
	ErrDetection         = errors.New("detection failed")
	ErrPriceUnavailable  = errors.New("price unavailable")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrUnknownChain      = errors.New("unknown chain")
	ErrUnknownToken      = errors.New("unknown token")
	ErrNotFound          = errors.New("not found")
	ErrContextDone       = errors.New("context cancelled")
)
