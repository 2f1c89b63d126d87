package extraction

import "fmt"

// ExtractionError is a listing whose detail view could not be turned into
// a usable posting.
type ExtractionError struct {
	Platform   string
	PlatformID string
	Message    string
	Cause      error
}

func (e *ExtractionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction error for %s:%s: %s: %v", e.Platform, e.PlatformID, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction error for %s:%s: %s", e.Platform, e.PlatformID, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}
