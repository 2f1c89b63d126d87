package browser

import "fmt"

// SessionError is a failure to start or drive the browser session itself.
// It is fatal for a run.
type SessionError struct {
	Message string
	Cause   error
}

func (e *SessionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("browser session error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("browser session error: %s", e.Message)
}

func (e *SessionError) Unwrap() error {
	return e.Cause
}

// ActionError is a failed action on an expected element.
type ActionError struct {
	Action   string
	Selector string
	Cause    error
}

func (e *ActionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %q failed: %v", e.Action, e.Selector, e.Cause)
	}
	return fmt.Sprintf("%s %q failed", e.Action, e.Selector)
}

func (e *ActionError) Unwrap() error {
	return e.Cause
}
