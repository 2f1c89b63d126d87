package types

import (
	"fmt"
	"strings"
)

// EmailMode selects whether outreach is drafted to disk or transmitted.
type EmailMode string

const (
	// EmailModeDraft writes the message as an .eml draft
	EmailModeDraft EmailMode = "draft"
	// EmailModeSend delivers the message over SMTP
	EmailModeSend EmailMode = "send"
)

// ParseEmailMode accepts the canonical names plus the "autosend" alias.
func ParseEmailMode(s string) (EmailMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "draft":
		return EmailModeDraft, nil
	case "send", "autosend", "auto_send":
		return EmailModeSend, nil
	}
	return "", fmt.Errorf("unknown email mode %q", s)
}

// UserProfile is the read-only user configuration for one hunt.
type UserProfile struct {
	Platforms       []Platform        `json:"platforms" validate:"required,min=1"`
	JobTitles       []string          `json:"job_titles" validate:"required,min=1,dive,required"`
	CVFilePath      string            `json:"cv_file_path,omitempty"`
	EmailMode       EmailMode         `json:"email_mode,omitempty" validate:"omitempty,oneof=draft send"`
	ShowBrowser     bool              `json:"show_browser,omitempty"`
	TemplateAnswers map[string]string `json:"template_answers,omitempty"`
}

// Answer returns the profile's answer for key, if any.
func (u *UserProfile) Answer(key string) (string, bool) {
	if u == nil || u.TemplateAnswers == nil {
		return "", false
	}
	v, ok := u.TemplateAnswers[key]
	return v, ok
}

// QuestionType is the input shape of a template question.
type QuestionType string

const (
	// QuestionText is a free-text answer
	QuestionText QuestionType = "text"
	// QuestionSelect is a choice among options
	QuestionSelect QuestionType = "select"
	// QuestionBoolean is a yes/no choice
	QuestionBoolean QuestionType = "boolean"
)

// TemplateQuestion is one entry of the predefined question catalogue.
type TemplateQuestion struct {
	Key      string       `json:"key"`
	Question string       `json:"question"`
	Type     QuestionType `json:"type"`
	Options  []string     `json:"options,omitempty"`
	Keywords []string     `json:"keywords"`
}

// Matches reports whether any keyword occurs in the (lowercased) question text.
func (q *TemplateQuestion) Matches(questionText string) bool {
	lower := strings.ToLower(questionText)
	for _, kw := range q.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
