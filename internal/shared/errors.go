package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	ErrDatabaseUnavailable = fmt.Errorf("database unavailable")

	// Library and session errors. Callers wrap these with %w and match with errors.Is.
	ErrValidation         = fmt.Errorf("validation error")
	ErrNotFound           = fmt.Errorf("not found")
	ErrInvariantViolation = fmt.Errorf("invariant violation")
	ErrEngineCommand      = fmt.Errorf("engine command failed")
	ErrChannel            = fmt.Errorf("event channel error")
	ErrInvalidState       = fmt.Errorf("invalid session state")

	ErrPlaylistNotFound = fmt.Errorf("playlist %w", ErrNotFound)
	ErrTrackNotFound    = fmt.Errorf("track %w", ErrNotFound)
	ErrNothingLoaded    = fmt.Errorf("loaded track %w", ErrNotFound)

	// Input validation errors
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
