package leaderboardservice

import "errors"

var (
	// ErrMissingField reports a platform update request missing required
	// input; surfaced to HTTP as a bad request.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidPlatform reports an unknown platform name.
	ErrInvalidPlatform = errors.New("invalid platform")
)
