package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authentication errors
	ErrAuthFailed    = fmt.Errorf("authentication failed")
	ErrTokenExpired  = fmt.Errorf("access token expired")
	ErrSigningFailed = fmt.Errorf("developer token signing failed")
	ErrTimeout       = fmt.Errorf("operation timed out")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrRateLimited        = fmt.Errorf("rate limited")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTrackNotFound      = fmt.Errorf("track not found")

	// Input validation errors
	ErrInvalidInput        = fmt.Errorf("invalid input")
	ErrInvalidURL          = fmt.Errorf("unrecognized track URL")
	ErrUnsupportedPlatform = fmt.Errorf("unsupported platform")
	ErrMissingArgument     = fmt.Errorf("missing required argument")
	ErrInvalidFlag         = fmt.Errorf("invalid flag value")

	// Persistence errors
	ErrRecordNotFound = fmt.Errorf("record not found")
)
