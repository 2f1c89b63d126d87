// Package types provides type definitions for structured data used throughout the jobhunter system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
	"time"
)

// Platform is the tag of an external job-listing source.
type Platform string

const (
	// PlatformLinkedIn is the LinkedIn jobs board
	PlatformLinkedIn Platform = "linkedin"
	// PlatformKariyer is the Kariyer.net jobs board
	PlatformKariyer Platform = "kariyer.net"
)

// Normalize lowercases and trims a user-entered platform tag.
func (p Platform) Normalize() Platform {
	return Platform(strings.ToLower(strings.TrimSpace(string(p))))
}

// DisplayName returns the human-facing name of the platform.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformLinkedIn:
		return "LinkedIn"
	case PlatformKariyer:
		return "Kariyer.net"
	}
	return string(p)
}

// ApplicationMethod records how a posting was applied to.
type ApplicationMethod string

const (
	// MethodNone means no application was made
	MethodNone ApplicationMethod = "none"
	// MethodEmail means an outreach email was drafted or sent
	MethodEmail ApplicationMethod = "email"
	// MethodInlineApply means the in-page apply wizard was completed
	MethodInlineApply ApplicationMethod = "inline_apply"
)

// ParseApplicationMethod converts a stored string to an ApplicationMethod.
func ParseApplicationMethod(s string) (ApplicationMethod, error) {
	switch m := ApplicationMethod(s); m {
	case MethodNone, MethodEmail, MethodInlineApply:
		return m, nil
	case "":
		return MethodNone, nil
	}
	return "", fmt.Errorf("unknown application method %q", s)
}

// PostingKey is the composite natural key of a posting.
type PostingKey struct {
	Platform   Platform
	PlatformID string
}

func (k PostingKey) String() string {
	return string(k.Platform) + ":" + k.PlatformID
}

// Posting is a normalized job listing keyed by (Platform, PlatformID).
type Posting struct {
	Platform          Platform          `json:"platform"`
	PlatformID        string            `json:"platform_id"`
	Title             string            `json:"title"`
	Company           string            `json:"company"`
	Location          string            `json:"location,omitempty"`
	Description       string            `json:"description,omitempty"`
	URL               string            `json:"url"`
	ContactEmail      string            `json:"contact_email,omitempty"`
	HasInlineApply    bool              `json:"has_inline_apply"`
	PostedAt          time.Time         `json:"posted_at"`
	ScrapedAt         time.Time         `json:"scraped_at"`
	Applied           bool              `json:"applied"`
	AppliedAt         *time.Time        `json:"applied_at,omitempty"`
	ApplicationMethod ApplicationMethod `json:"application_method"`
	Notes             *string           `json:"notes,omitempty"` // last failure reason
}

// Key returns the composite key of the posting.
func (p *Posting) Key() PostingKey {
	return PostingKey{Platform: p.Platform, PlatformID: p.PlatformID}
}

// ApplicationRecord is the persisted audit row of one dispatch.
type ApplicationRecord struct {
	ID           string            `json:"id"`
	Key          PostingKey        `json:"key"`
	Method       ApplicationMethod `json:"method"`
	Successful   bool              `json:"successful"`
	ErrorMessage string            `json:"error_message,omitempty"`
	EmailSubject string            `json:"email_subject,omitempty"`
	AttemptedAt  time.Time         `json:"attempted_at"`
}
