package ratelimit

import "errors"

// Sentinel errors for limiter configuration.
var (
	// ErrInvalidProfile is returned when a limit profile has a non-positive
	// threshold.
	ErrInvalidProfile = errors.New("ratelimit: invalid limit profile")

	// ErrEmptyCategory is returned when a profile is registered without a
	// category name.
	ErrEmptyCategory = errors.New("ratelimit: category name is empty")

	// ErrMissingDefault is returned when a profile set lacks the default
	// category.
	ErrMissingDefault = errors.New("ratelimit: default profile is required")
)
