package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Resolution errors
	ErrUnavailable    = fmt.Errorf("no usable result")
	ErrDescriptor     = fmt.Errorf("method descriptor unavailable")
	ErrInvalidID      = fmt.Errorf("placeholder song id is not resolvable")
	ErrSourceMismatch = fmt.Errorf("song source does not match resolver")
	ErrNoPlayableURL  = fmt.Errorf("no playable url")
	ErrPlaybackFailed = fmt.Errorf("cannot play this track")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrUnknownSource   = fmt.Errorf("unknown source")
)
