// Package extraction turns a listing's detail view into a normalized posting.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/jobhunter/internal/browser"
	"github.com/jonathan/jobhunter/internal/discovery"
	"github.com/jonathan/jobhunter/internal/logging"
	"github.com/jonathan/jobhunter/internal/types"
)

// InlineApplyProbe bounds the check for an inline apply control.
const InlineApplyProbe = 2 * time.Second

// Extractor reads posting details from the shared page.
type Extractor struct {
	page     browser.Page
	location string
	now      func() time.Time
	log      *zap.SugaredLogger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock sets the clock stamped on ScrapedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(e *Extractor) { e.log = logging.OrNop(l) }
}

// WithLocation sets the search location used to build detail URLs.
func WithLocation(loc string) Option {
	return func(e *Extractor) { e.location = loc }
}

// New returns an extractor driving page.
func New(page browser.Page, opts ...Option) *Extractor {
	e := &Extractor{
		page:     page,
		location: discovery.DefaultLocation,
		now:      time.Now,
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractDetail opens the listing's detail view and assembles a posting.
// Missing location or description are left empty. A posting without both
// title and company is not usable and yields (nil, *ExtractionError).
func (e *Extractor) ExtractDetail(ctx context.Context, spec *discovery.PlatformSpec, listing discovery.Listing, query string) (*types.Posting, error) {
	platform := string(spec.Platform)
	detailURL := spec.DetailURL(listing.ID, query, e.location, listing.Link)
	if err := e.page.Navigate(ctx, detailURL, 0); err != nil {
		return nil, &ExtractionError{Platform: platform, PlatformID: listing.ID, Message: "failed to open detail view", Cause: err}
	}

	f := spec.Fields
	current, _ := e.page.CurrentURL(ctx)
	id, err := identify(f.IDPattern, listing.ID, current)
	if err != nil {
		return nil, &ExtractionError{Platform: platform, PlatformID: listing.ID, Message: err.Error()}
	}

	title := e.readText(ctx, f.Title)
	company := e.readText(ctx, f.Company)
	if title == "" || company == "" {
		return nil, &ExtractionError{Platform: platform, PlatformID: id, Message: "missing title or company"}
	}

	posting := &types.Posting{
		Platform:          spec.Platform,
		PlatformID:        id,
		Title:             title,
		Company:           company,
		Location:          e.readText(ctx, f.Location),
		Description:       e.readDescription(ctx, f.Description),
		ScrapedAt:         e.now().UTC(),
		ApplicationMethod: types.MethodNone,
	}

	posting.URL = spec.PostingURL(id, current)

	if spec.HasInlineApply && f.InlineApply != "" {
		posting.HasInlineApply = e.page.IsVisible(ctx, f.InlineApply, InlineApplyProbe)
	}
	posting.ContactEmail = ExtractContactEmail(posting.Description)

	e.log.Debugw("Extracted posting",
		logging.FieldPlatform, platform,
		logging.FieldPlatformID, id,
		logging.FieldTitle, title,
		logging.FieldCompany, company,
		"has_email", posting.ContactEmail != "",
		"has_inline_apply", posting.HasInlineApply)
	return posting, nil
}

// identify settles the posting id against the detail view's URL. A URL
// without an id keeps the listing id; a URL naming another posting means
// the view redirected and the listing is rejected.
func identify(pattern *regexp.Regexp, listed, current string) (string, error) {
	if pattern == nil {
		return listed, nil
	}
	m := pattern.FindStringSubmatch(current)
	if len(m) < 2 || m[1] == "" {
		if listed == "" {
			return "", errors.New("no posting id in listing or detail URL")
		}
		return listed, nil
	}
	if listed == "" {
		return m[1], nil
	}
	if m[1] != listed {
		return "", fmt.Errorf("detail view shows posting %s", m[1])
	}
	return listed, nil
}

func (e *Extractor) readText(ctx context.Context, selector string) string {
	if selector == "" {
		return ""
	}
	text, err := e.page.Text(ctx, selector)
	if err != nil {
		e.log.Debugw("Field not readable", logging.FieldSelector, selector, logging.FieldError, err)
		return ""
	}
	return strings.TrimSpace(text)
}

// readDescription prefers the rendered inner HTML and falls back to plain text.
func (e *Extractor) readDescription(ctx context.Context, selector string) string {
	if selector == "" {
		return ""
	}
	if html, err := e.page.InnerHTML(ctx, selector); err == nil {
		if text, err := HTMLToText(html); err == nil && text != "" {
			return text
		}
	}
	return e.readText(ctx, selector)
}
