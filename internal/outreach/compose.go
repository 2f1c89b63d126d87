// Package outreach composes application emails for postings that publish a
// contact address and either drafts them to disk or sends them over SMTP.
package outreach

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/jonathan/jobhunter/internal/types"
)

// Message is a composed outreach email.
type Message struct {
	To       string
	Subject  string
	Text     string
	HTML     string
	Resume   string // CV path, empty when none is configured
	FromName string
	From     string
}

// Composer renders outreach messages for one sender.
type Composer struct {
	SenderName  string
	SenderEmail string
}

// Subject returns the subject line for posting.
func (c Composer) Subject(posting *types.Posting) string {
	return fmt.Sprintf("Application for %s Position - %s", posting.Title, c.SenderName)
}

// Compose builds the message for posting from the profile's answers.
func (c Composer) Compose(posting *types.Posting, profile *types.UserProfile) (*Message, error) {
	text := c.body(posting, profile)
	var html bytes.Buffer
	if err := goldmark.Convert([]byte(text), &html); err != nil {
		return nil, fmt.Errorf("failed to render html body: %w", err)
	}

	msg := &Message{
		To:       posting.ContactEmail,
		Subject:  c.Subject(posting),
		Text:     text,
		HTML:     html.String(),
		FromName: c.SenderName,
		From:     c.SenderEmail,
	}
	if profile != nil {
		msg.Resume = profile.CVFilePath
	}
	return msg, nil
}

func (c Composer) body(posting *types.Posting, profile *types.UserProfile) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line("Dear Hiring Manager,")
	line("")
	line("I hope this email finds you well. I am writing to express my strong interest in the %s position at %s that I found on %s.",
		posting.Title, posting.Company, posting.Platform.DisplayName())
	line("")

	if v, ok := profile.Answer("experience_level"); ok && v != "" {
		line("As a %s professional, I believe I would be a great fit for this role.", strings.ToLower(v))
	}
	if v, ok := profile.Answer("tech_stack"); ok && v != "" {
		line("My technical expertise includes: %s.", v)
	}
	if v, ok := profile.Answer("years_of_experience"); ok && v != "" {
		line("I have %s years of professional experience in software development.", v)
	}
	line("")
	line("I am particularly drawn to this opportunity because of your company's reputation and the interesting challenges this role presents. " +
		"I would welcome the opportunity to discuss how my skills and enthusiasm can contribute to your team's success.")
	line("")

	if working, _ := profile.Answer("currently_working"); strings.EqualFold(working, "yes") {
		if notice, ok := profile.Answer("notice_period"); ok && notice != "" {
			line("I am currently employed but can start with %s notice period.", notice)
		}
	} else {
		line("I am immediately available to start.")
	}
	if v, ok := profile.Answer("location_preference"); ok && v != "" {
		line("I am open to %s work arrangements.", strings.ToLower(v))
	}

	line("")
	line("I have attached my resume for your review. I would be happy to provide any additional information you might need " +
		"and am available for an interview at your convenience.")
	line("")
	line("Thank you for considering my application. I look forward to hearing from you soon.")
	line("")
	// Trailing double spaces keep the signature lines apart in the HTML part.
	line("Best regards,  ")
	line("%s  ", c.SenderName)
	line("%s", c.SenderEmail)
	return b.String()
}
