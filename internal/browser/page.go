// Package browser defines the page-automation boundary used by discovery,
// extraction and the apply wizard, plus a chromedp-backed implementation.
package browser

import (
	"context"
	"time"
)

// Default timeouts for page operations.
const (
	DefaultNavigationTimeout = 30 * time.Second
	DefaultActionTimeout     = 10 * time.Second
	DefaultReadTimeout       = 5 * time.Second
)

// FieldKind is the tag of a form input.
type FieldKind string

const (
	// FieldInput is an <input> element
	FieldInput FieldKind = "input"
	// FieldSelect is a <select> element
	FieldSelect FieldKind = "select"
	// FieldTextArea is a <textarea> element
	FieldTextArea FieldKind = "textarea"
)

// FormField is one question group found on an apply screen together with a
// selector that addresses its input element.
type FormField struct {
	Label     string    `json:"label"`
	Selector  string    `json:"selector"`
	Kind      FieldKind `json:"kind"`
	InputType string    `json:"input_type,omitempty"`
	Required  bool      `json:"required,omitempty"`
}

// IsChoice reports whether the field only accepts one of a fixed set of values.
func (f FormField) IsChoice() bool {
	return f.Kind == FieldSelect || f.InputType == "radio"
}

// Page is the single browsing context driven by the automation. Presence
// checks (IsVisible) never fail; they resolve to false on timeout. Actions
// return an error when the expected element cannot be acted on.
type Page interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	IsVisible(ctx context.Context, selector string, timeout time.Duration) bool
	Text(ctx context.Context, selector string) (string, error)
	InnerHTML(ctx context.Context, selector string) (string, error)
	Click(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
	Clear(ctx context.Context, selector string) error
	UploadFile(ctx context.Context, selector, path string) error
	SelectOption(ctx context.Context, selector, value string) error
	IsChecked(ctx context.Context, selector string) (bool, error)

	// Attributes enumerates every element matching selector and returns the
	// non-empty values of attr in document order.
	Attributes(ctx context.Context, selector, attr string) ([]string, error)

	// ScrollListing scrolls the list container that follows headerSelector by
	// the summed height of the rendered itemSelector elements, or by one
	// container height when none are rendered.
	ScrollListing(ctx context.Context, headerSelector, itemSelector string) error

	// FormFields returns the question groups currently rendered under any of
	// groupSelectors, in document order.
	FormFields(ctx context.Context, groupSelectors []string) ([]FormField, error)

	CurrentURL(ctx context.Context) (string, error)
}
