package challenge

// ResolutionError means the human could not be reached while a challenge
// was blocking the page. The flow cannot make progress past it.
type ResolutionError struct {
	Cause error
}

func (e *ResolutionError) Error() string {
	return "waiting for challenge resolution: " + e.Cause.Error()
}

func (e *ResolutionError) Unwrap() error {
	return e.Cause
}
