package cli

// SilentError marks an error whose message has already been printed to the
// user (e.g. by a confirmation prompt or a streamed agent process), so
// main's top-level error handler must not print it again.
type SilentError struct {
	cause error
}

// NewSilentError wraps cause as a SilentError.
func NewSilentError(cause error) *SilentError {
	return &SilentError{cause: cause}
}

func (e *SilentError) Error() string {
	return e.cause.Error()
}

func (e *SilentError) Unwrap() error {
	return e.cause
}
