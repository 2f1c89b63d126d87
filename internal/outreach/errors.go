package outreach

import "fmt"

// DeliveryError represents a failure to draft or send an outreach message.
type DeliveryError struct {
	Mode      string
	Recipient string
	Message   string
	Cause     error
}

func (e *DeliveryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("outreach %s to %s: %s: %v", e.Mode, e.Recipient, e.Message, e.Cause)
	}
	return fmt.Sprintf("outreach %s to %s: %s", e.Mode, e.Recipient, e.Message)
}

func (e *DeliveryError) Unwrap() error {
	return e.Cause
}
