// Package apply drives the multi-step inline apply wizard for one posting
// to a terminal outcome.
package apply

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/jobhunter/internal/browser"
	"github.com/jonathan/jobhunter/internal/challenge"
	"github.com/jonathan/jobhunter/internal/logging"
	"github.com/jonathan/jobhunter/internal/types"
)

// DefaultStepBudget bounds the number of wizard steps.
const DefaultStepBudget = 10

// Probe timeouts.
const (
	DefaultVisibilityProbe = 2 * time.Second
	DefaultCheckboxProbe   = 1 * time.Second
)

// Terminal reasons.
const (
	ReasonEntryNotFound   = "entry control not found"
	ReasonStuck           = "stuck: no progress control"
	ReasonBudgetExhausted = "step budget exhausted"
	ReasonNoInlineApply   = "posting has no inline apply"
)

// State is the machine's position in the wizard.
type State int

const (
	// StateStart has not touched the page yet
	StateStart State = iota
	// StateLocating looks for the apply entry control
	StateLocating
	// StateStepping fills and advances wizard screens
	StateStepping
	// StateSuccess saw the confirmation marker
	StateSuccess
	// StateAbandoned stopped without confirmation
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateLocating:
		return "locating"
	case StateStepping:
		return "stepping"
	case StateSuccess:
		return "success"
	case StateAbandoned:
		return "abandoned"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether s ends an attempt.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateAbandoned
}

// Result is the outcome of one attempt. Steps counts the wizard iterations
// executed, including the one that saw the confirmation marker. Err is the
// page error that abandoned the attempt, if any.
type Result struct {
	Applied bool
	Reason  string
	Steps   int
	State   State
	Err     error
}

// Selectors are the known variants of each wizard control, in priority order.
type Selectors struct {
	Entry          []string
	SuccessHeading string
	SuccessPhrases []string
	Next           []string
	FallbackNext   string
	FileInput      string
	QuestionGroups []string
	Checkboxes     []string
}

// DefaultSelectors returns the LinkedIn Easy Apply selectors.
func DefaultSelectors() Selectors {
	return Selectors{
		Entry: []string{
			".jobs-apply-button--top-card",
			".jobs-apply-button",
			"[data-control-name='jobdetails_topcard_inapply']",
		},
		SuccessHeading: ".artdeco-modal__header h2",
		SuccessPhrases: []string{"Application sent", "Your application was sent"},
		Next: []string{
			"button[aria-label='Continue to next step']",
			"button[aria-label='Review your application']",
			"button[aria-label='Submit application']",
			".jobs-easy-apply-modal footer button[data-control-name='continue_unify']",
		},
		FallbackNext: "button[type='submit']",
		FileInput:    "input[type='file']",
		QuestionGroups: []string{
			".jobs-easy-apply-form-section__grouping",
			".fb-single-line-text",
			".fb-dropdown",
			".application-question",
		},
		Checkboxes: []string{
			"input[type='checkbox'][required]",
			"input[type='checkbox'][name*='agree']",
			"input[type='checkbox'][name*='terms']",
			"input[type='checkbox'][name*='privacy']",
		},
	}
}

// Machine applies to postings through the inline wizard on a shared page.
type Machine struct {
	page      browser.Page
	catalogue []types.TemplateQuestion
	selectors Selectors
	budget    int
	probe     time.Duration
	boxProbe  time.Duration
	log       *zap.SugaredLogger
}

// Option configures a Machine.
type Option func(*Machine)

// WithStepBudget sets the maximum number of wizard steps.
func WithStepBudget(n int) Option {
	return func(m *Machine) { m.budget = n }
}

// WithSelectors replaces the default selectors.
func WithSelectors(s Selectors) Option {
	return func(m *Machine) { m.selectors = s }
}

// WithProbeTimeouts sets the visibility and checkbox probe timeouts.
func WithProbeTimeouts(visibility, checkbox time.Duration) Option {
	return func(m *Machine) {
		m.probe = visibility
		m.boxProbe = checkbox
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(m *Machine) { m.log = logging.OrNop(l) }
}

// New returns a machine answering questions from catalogue.
func New(page browser.Page, catalogue []types.TemplateQuestion, opts ...Option) *Machine {
	m := &Machine{
		page:      page,
		catalogue: catalogue,
		selectors: DefaultSelectors(),
		budget:    DefaultStepBudget,
		probe:     DefaultVisibilityProbe,
		boxProbe:  DefaultCheckboxProbe,
		log:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.budget <= 0 {
		m.budget = DefaultStepBudget
	}
	return m
}

// attempt is the ephemeral state of one dispatch.
type attempt struct {
	state     State
	step      int
	signature string
	result    Result
}

func (a *attempt) finish(state State, reason string) {
	a.state = state
	a.result = Result{Applied: state == StateSuccess, Reason: reason, Steps: a.step, State: state}
}

// abandon ends the attempt because of a page error.
func (a *attempt) abandon(format string, err error) {
	a.finish(StateAbandoned, fmt.Sprintf(format, err))
	a.result.Err = err
}

// unresolved reports whether err is a challenge nobody resolved. Such an
// error ends the attempt even where other page errors are only logged.
func unresolved(err error) bool {
	var re *challenge.ResolutionError
	return errors.As(err, &re)
}

// Apply drives the wizard for posting. Workflow failures are reported in
// the Result, never as errors.
func (m *Machine) Apply(ctx context.Context, posting *types.Posting, profile *types.UserProfile) Result {
	log := m.log.With(logging.FieldPlatform, posting.Platform, logging.FieldPlatformID, posting.PlatformID)
	answerer := NewAnswerer(profile, m.catalogue)
	a := &attempt{state: StateStart}

	for !a.state.Terminal() {
		if err := ctx.Err(); err != nil {
			a.finish(StateAbandoned, err.Error())
			a.result.Err = err
			break
		}
		switch a.state {
		case StateStart:
			m.start(ctx, a, posting)
		case StateLocating:
			m.locate(ctx, a)
		case StateStepping:
			m.stepOnce(ctx, a, posting, profile, answerer, log)
		}
	}

	if a.result.Applied {
		log.Infow("Applied inline", "steps", a.result.Steps)
	} else {
		log.Warnw("Inline apply abandoned", logging.FieldReason, a.result.Reason, "steps", a.result.Steps)
	}
	return a.result
}

func (m *Machine) start(ctx context.Context, a *attempt, posting *types.Posting) {
	if !posting.HasInlineApply {
		a.finish(StateAbandoned, ReasonNoInlineApply)
		return
	}
	if err := m.page.Navigate(ctx, posting.URL, 0); err != nil {
		a.abandon("failed to open posting: %v", err)
		return
	}
	a.state = StateLocating
}

func (m *Machine) locate(ctx context.Context, a *attempt) {
	for _, sel := range m.selectors.Entry {
		if !m.page.IsVisible(ctx, sel, m.probe) {
			continue
		}
		if err := m.page.Click(ctx, sel); err != nil {
			a.abandon("entry control not activated: %v", err)
			return
		}
		a.state = StateStepping
		return
	}
	a.finish(StateAbandoned, ReasonEntryNotFound)
}

func (m *Machine) stepOnce(ctx context.Context, a *attempt, posting *types.Posting, profile *types.UserProfile, answerer *Answerer, log *zap.SugaredLogger) {
	if a.step >= m.budget {
		a.finish(StateAbandoned, ReasonBudgetExhausted)
		return
	}
	log = log.With(logging.FieldStep, a.step+1)

	if m.succeeded(ctx) {
		a.step++
		a.finish(StateSuccess, "")
		return
	}

	fields := m.fill(ctx, profile, answerer, log)
	a.signature = m.signature(ctx, fields)
	if err := m.tickCheckboxes(ctx, log); err != nil {
		a.abandon("failed to tick checkbox: %v", err)
		return
	}

	advanced, err := m.advance(ctx)
	if err != nil {
		a.abandon("failed to advance: %v", err)
		return
	}
	if !advanced {
		log.Warnw("No progress control", "screen", a.signature)
		a.finish(StateAbandoned, ReasonStuck)
		return
	}
	a.step++
}

// succeeded reports whether the confirmation heading is shown.
func (m *Machine) succeeded(ctx context.Context) bool {
	sel := m.selectors.SuccessHeading
	if sel == "" || !m.page.IsVisible(ctx, sel, m.probe) {
		return false
	}
	text, err := m.page.Text(ctx, sel)
	if err != nil {
		return false
	}
	for _, phrase := range m.selectors.SuccessPhrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// fill uploads the CV and answers recognized questions. Errors are logged.
func (m *Machine) fill(ctx context.Context, profile *types.UserProfile, answerer *Answerer, log *zap.SugaredLogger) []browser.FormField {
	if profile != nil && profile.CVFilePath != "" && m.selectors.FileInput != "" &&
		m.page.IsVisible(ctx, m.selectors.FileInput, m.probe) {
		if err := m.page.UploadFile(ctx, m.selectors.FileInput, profile.CVFilePath); err != nil {
			log.Warnw("Resume upload failed", logging.FieldError, err)
		}
	}

	fields, err := m.page.FormFields(ctx, m.selectors.QuestionGroups)
	if err != nil {
		log.Warnw("Failed to read form fields", logging.FieldError, err)
		return nil
	}
	for _, f := range fields {
		if strings.TrimSpace(f.Label) == "" {
			continue
		}
		answer, rule, ok := answerer.Resolve(Question{Text: f.Label, Choice: f.IsChoice()})
		if !ok {
			if f.Required {
				log.Debugw("Required question left unanswered", "question", f.Label)
			}
			continue
		}
		if err := m.setField(ctx, f, answer); err != nil {
			log.Warnw("Failed to answer question", "question", f.Label, logging.FieldSelector, f.Selector, logging.FieldError, err)
			continue
		}
		log.Debugw("Answered question", "question", f.Label, "rule", rule)
	}
	return fields
}

func (m *Machine) setField(ctx context.Context, f browser.FormField, answer string) error {
	if f.IsChoice() {
		return m.page.SelectOption(ctx, f.Selector, answer)
	}
	return m.page.Type(ctx, f.Selector, answer)
}

// tickCheckboxes checks visible agreement and required checkboxes. Click
// errors are logged, except an unresolved challenge, which is returned.
func (m *Machine) tickCheckboxes(ctx context.Context, log *zap.SugaredLogger) error {
	for _, sel := range m.selectors.Checkboxes {
		if !m.page.IsVisible(ctx, sel, m.boxProbe) {
			continue
		}
		checked, err := m.page.IsChecked(ctx, sel)
		if err != nil {
			log.Warnw("Failed to read checkbox", logging.FieldSelector, sel, logging.FieldError, err)
			continue
		}
		if checked {
			continue
		}
		if err := m.page.Click(ctx, sel); err != nil {
			if unresolved(err) {
				return err
			}
			log.Warnw("Failed to tick checkbox", logging.FieldSelector, sel, logging.FieldError, err)
		}
	}
	return nil
}

// advance clicks the first visible progress control. It reports false when
// none is visible.
func (m *Machine) advance(ctx context.Context) (bool, error) {
	candidates := m.selectors.Next
	if m.selectors.FallbackNext != "" {
		candidates = append(append([]string(nil), candidates...), m.selectors.FallbackNext)
	}
	for _, sel := range candidates {
		if !m.page.IsVisible(ctx, sel, m.probe) {
			continue
		}
		if err := m.page.Click(ctx, sel); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// signature summarizes the current screen as its heading and field labels.
func (m *Machine) signature(ctx context.Context, fields []browser.FormField) string {
	var parts []string
	if m.selectors.SuccessHeading != "" {
		if h, err := m.page.Text(ctx, m.selectors.SuccessHeading); err == nil {
			parts = append(parts, strings.TrimSpace(h))
		}
	}
	for _, f := range fields {
		parts = append(parts, strings.TrimSpace(f.Label))
	}
	return strings.Join(parts, " | ")
}
