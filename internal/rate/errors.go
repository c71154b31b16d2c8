package rate

import "errors"

var (
	// ErrRateLimited is returned once a subject has spent its reissue budget.
	ErrRateLimited = errors.New("reissue budget exhausted")
	// ErrCounterUnavailable wraps counter read and write failures. Callers
	// treat it as a store outage.
	ErrCounterUnavailable = errors.New("reissue counter unavailable")
)
