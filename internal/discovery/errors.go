package discovery

import "fmt"

// UnknownPlatformError is returned for a platform tag with no registered spec.
type UnknownPlatformError struct {
	Tag string
}

func (e *UnknownPlatformError) Error() string {
	return fmt.Sprintf("unknown platform %q", e.Tag)
}

// LoginError is a failed platform login.
type LoginError struct {
	Platform string
	Message  string
	Cause    error
}

func (e *LoginError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s login failed: %s: %v", e.Platform, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s login failed: %s", e.Platform, e.Message)
}

func (e *LoginError) Unwrap() error {
	return e.Cause
}

// SearchError is a failure to open a platform's search results.
type SearchError struct {
	Platform string
	Title    string
	Cause    error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %s for %q failed: %v", e.Platform, e.Title, e.Cause)
}

func (e *SearchError) Unwrap() error {
	return e.Cause
}
