package services

import "errors"

// Business-condition sentinels. Handlers translate these to HTTP status
// codes; the services never return raw persistence errors for expected
// conditions.
var (
	// Not found.
	ErrLeadNotFound       = errors.New("lead not found")
	ErrContractorNotFound = errors.New("contractor not found")
	ErrPhotoNotFound      = errors.New("photo not found")
	ErrInterestNotFound   = errors.New("no interest found for this lead")

	// Invalid state.
	ErrLeadNotOpen    = errors.New("lead is not open")
	ErrNoActiveHold   = errors.New("no active hold on this lead")
	ErrNoHeldInterest = errors.New("contractor must hold an interest to be accepted")

	// Resource exhausted.
	ErrInsufficientCredits  = errors.New("not enough available lead credits")
	ErrPhotoLimitReached    = errors.New("photo limit reached")
	ErrFeaturedLimitReached = errors.New("featured photo limit reached")

	// Eligibility and validation.
	ErrNotEligible = errors.New("not eligible for this lead")
	ErrValidation  = errors.New("validation failed")

	// Retryable concurrency conflict (serialization failure or deadlock).
	ErrConflict = errors.New("concurrent update conflict, retry")
)
