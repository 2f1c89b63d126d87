package discovery

import (
	"context"

	"go.uber.org/zap"

	"github.com/jonathan/jobhunter/internal/browser"
	"github.com/jonathan/jobhunter/internal/challenge"
	"github.com/jonathan/jobhunter/internal/logging"
	"github.com/jonathan/jobhunter/internal/pacing"
	"github.com/jonathan/jobhunter/internal/types"
)

// DefaultMaxPerSession caps every search target.
const DefaultMaxPerSession = 50

// Credentials authenticate against platforms that require login.
type Credentials struct {
	Email    string
	Password string
}

// Config configures an Engine.
type Config struct {
	Registry          Registry
	Policy            *pacing.Policy
	Location          string
	MaxPerSession     int
	StagnationCeiling int
	Credentials       map[types.Platform]Credentials
	// Prompter handles login verification steps that need a human.
	Prompter challenge.Prompter
	Logger   *zap.SugaredLogger
}

// Engine discovers listings on the shared page.
type Engine struct {
	page     browser.Page
	registry Registry
	policy   *pacing.Policy
	location string
	maxJobs  int
	ceiling  int
	creds    map[types.Platform]Credentials
	prompter challenge.Prompter
	log      *zap.SugaredLogger
}

// NewEngine returns an engine driving page.
func NewEngine(page browser.Page, cfg Config) *Engine {
	e := &Engine{
		page:     page,
		registry: cfg.Registry,
		policy:   cfg.Policy,
		location: cfg.Location,
		maxJobs:  cfg.MaxPerSession,
		ceiling:  cfg.StagnationCeiling,
		creds:    cfg.Credentials,
		prompter: cfg.Prompter,
		log:      logging.OrNop(cfg.Logger),
	}
	if e.registry == nil {
		e.registry = DefaultRegistry()
	}
	if e.location == "" {
		e.location = DefaultLocation
	}
	if e.maxJobs <= 0 {
		e.maxJobs = DefaultMaxPerSession
	}
	if e.ceiling <= 0 {
		e.ceiling = DefaultStagnationCeiling
	}
	return e
}

// Spec returns the platform spec selected by platform.
func (e *Engine) Spec(platform types.Platform) (*PlatformSpec, error) {
	return e.registry.Lookup(string(platform))
}

// Location is the configured search location.
func (e *Engine) Location() string {
	return e.location
}

// EffectiveTarget caps target by the platform page ceiling and the
// per-session maximum.
func (e *Engine) EffectiveTarget(spec *PlatformSpec, target int) int {
	if target <= 0 || target > e.maxJobs {
		target = e.maxJobs
	}
	if spec.PageCeiling > 0 && target > spec.PageCeiling {
		target = spec.PageCeiling
	}
	return target
}

// Discover opens the platform's search results for title and collects up to
// target unique listings in order of first sight.
func (e *Engine) Discover(ctx context.Context, platform types.Platform, title string, target int) ([]Listing, error) {
	spec, err := e.Spec(platform)
	if err != nil {
		return nil, err
	}
	target = e.EffectiveTarget(spec, target)
	log := e.log.With(logging.FieldPlatform, spec.Platform, logging.FieldTitle, title)

	searchURL := spec.SearchURL(title, e.location)
	log.Infow("Searching", logging.FieldURL, searchURL, "target", target)
	if err := e.page.Navigate(ctx, searchURL, 0); err != nil {
		return nil, &SearchError{Platform: string(spec.Platform), Title: title, Cause: err}
	}
	if err := e.policy.AfterMore(ctx); err != nil {
		return nil, err
	}

	session := NewSession(target, e.ceiling)
	feed := &pageFeed{page: e.page, spec: spec, policy: e.policy}
	if err := Collect(ctx, feed, session, log); err != nil {
		return session.Listings(), err
	}
	log.Infow("Discovery finished",
		logging.FieldCount, session.Len(),
		"rounds", session.Rounds)
	return session.Listings(), nil
}

// pageFeed adapts a platform's results page to Feed.
type pageFeed struct {
	page   browser.Page
	spec   *PlatformSpec
	policy *pacing.Policy
}

func (f *pageFeed) Snapshot(ctx context.Context) []Listing {
	return ExtractIDs(ctx, f.page, f.spec.Strategies...)
}

func (f *pageFeed) More(ctx context.Context) error {
	if f.spec.More == nil {
		return ErrFeedExhausted
	}
	return f.spec.More(ctx, f.page, f.policy)
}
