package discovery

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jonathan/jobhunter/internal/browser"
	"github.com/jonathan/jobhunter/internal/pacing"
	"github.com/jonathan/jobhunter/internal/types"
)

// DefaultLocation is the search location when none is configured.
const DefaultLocation = "Turkey"

// MoreFunc requests more content on a platform's results page.
type MoreFunc func(ctx context.Context, page browser.Page, policy *pacing.Policy) error

// PlatformSpec is everything discovery and extraction need to know about
// one platform.
type PlatformSpec struct {
	Platform types.Platform
	// Aliases are additional lowercased tags that select this platform.
	Aliases []string
	// PageCeiling caps the per-search target.
	PageCeiling int
	// RequiresLogin marks platforms that need an authenticated session.
	RequiresLogin bool
	// HasInlineApply marks platforms that may expose an in-page apply flow.
	HasInlineApply bool

	SearchURL func(title, location string) string
	// DetailURL is the per-listing view for id. link is the hyperlink the id
	// was discovered under, possibly empty.
	DetailURL func(id, title, location, link string) string
	// PostingURL is the canonical URL stored on the posting.
	PostingURL func(id, current string) string

	Strategies []IDStrategy
	More       MoreFunc
	Fields     FieldSelectors
}

// FieldSelectors locate posting fields on a detail view.
type FieldSelectors struct {
	Title       string
	Company     string
	Location    string
	Description string
	InlineApply string
	// IDPattern, when set, reads the posting id from the detail view's URL.
	// It fills a missing listing id and rejects views that redirected to a
	// different posting.
	IDPattern *regexp.Regexp
}

// Matches reports whether tag selects this platform.
func (p *PlatformSpec) Matches(tag string) bool {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == string(p.Platform) {
		return true
	}
	for _, a := range p.Aliases {
		if tag == a {
			return true
		}
	}
	return false
}

// Registry is an ordered list of platform specs; lookup is first match wins.
type Registry []*PlatformSpec

// Lookup returns the spec selected by tag.
func (r Registry) Lookup(tag string) (*PlatformSpec, error) {
	for _, p := range r {
		if p.Matches(tag) {
			return p, nil
		}
	}
	return nil, &UnknownPlatformError{Tag: tag}
}

// DefaultRegistry returns the supported platforms.
func DefaultRegistry() Registry {
	return Registry{LinkedIn(), Kariyer()}
}

// LinkedIn selectors.
const (
	linkedInBase          = "https://www.linkedin.com"
	linkedInListHeader    = ".scaffold-layout__list-header.jobs-search-results-list__header--blue"
	linkedInCardSelector  = "[data-job-id]"
	linkedInPostedWithin  = "r604800"
	kariyerBase           = "https://www.kariyer.net"
	kariyerLoadMore       = ".pagination .next, .load-more"
	kariyerLoadMoreProbe  = 2 * time.Second
	kariyerCardSelector   = ".list-items .list-item[data-id], .job-list-item[data-id]"
	kariyerCardLinkSelect = ".list-items .list-item a, .job-list-item a"
)

var (
	linkedInIDPattern = regexp.MustCompile(`jobs/view/(\d+)`)
	kariyerIDPattern  = regexp.MustCompile(`ilan/(\d+)`)
)

// LinkedIn returns the LinkedIn platform spec.
func LinkedIn() *PlatformSpec {
	return &PlatformSpec{
		Platform:       types.PlatformLinkedIn,
		PageCeiling:    25,
		RequiresLogin:  true,
		HasInlineApply: true,
		SearchURL: func(title, location string) string {
			return fmt.Sprintf("%s/jobs/search/?keywords=%s&location=%s&f_TPR=%s",
				linkedInBase, url.QueryEscape(title), url.QueryEscape(location), linkedInPostedWithin)
		},
		DetailURL: func(id, title, location, _ string) string {
			return fmt.Sprintf("%s/jobs/search/?currentJobId=%s&keywords=%s&location=%s&f_TPR=%s",
				linkedInBase, url.QueryEscape(id), url.QueryEscape(title), url.QueryEscape(location), linkedInPostedWithin)
		},
		PostingURL: func(id, _ string) string {
			return fmt.Sprintf("%s/jobs/view/%s", linkedInBase, id)
		},
		Strategies: []IDStrategy{
			AttributeStrategy{Selector: linkedInCardSelector, Attribute: "data-job-id"},
			HrefStrategy{Selector: "a[href*='/jobs/view/']", Pattern: linkedInIDPattern, Base: linkedInBase},
		},
		More: func(ctx context.Context, page browser.Page, policy *pacing.Policy) error {
			if err := page.ScrollListing(ctx, linkedInListHeader, linkedInCardSelector); err != nil {
				return err
			}
			return policy.AfterMore(ctx)
		},
		Fields: FieldSelectors{
			Title:       ".job-details-jobs-unified-top-card__job-title h1, .jobs-unified-top-card__job-title a",
			Company:     ".job-details-jobs-unified-top-card__company-name a, .jobs-unified-top-card__company-name a",
			Location:    ".job-details-jobs-unified-top-card__tertiary-description-container .tvm__text--low-emphasis:first-child",
			Description: ".job-details-jobs-unified-top-card__job-description, .jobs-description__content .jobs-box__html-content",
			InlineApply: ".jobs-apply-button--top-card, .jobs-apply-button[data-control-name*='apply']",
		},
	}
}

// Kariyer returns the Kariyer.net platform spec. Kariyer.net has no inline
// apply flow and needs no login.
func Kariyer() *PlatformSpec {
	return &PlatformSpec{
		Platform:    types.PlatformKariyer,
		Aliases:     []string{"kariyer", "kariyernet"},
		PageCeiling: 20,
		SearchURL: func(title, _ string) string {
			return fmt.Sprintf("%s/is-ilanlari?q=%s", kariyerBase, url.QueryEscape(title))
		},
		DetailURL: func(id, _, _, link string) string {
			if link != "" {
				return link
			}
			return fmt.Sprintf("%s/is-ilani/ilan/%s", kariyerBase, id)
		},
		PostingURL: func(id, current string) string {
			if current != "" {
				return current
			}
			return fmt.Sprintf("%s/is-ilani/ilan/%s", kariyerBase, id)
		},
		Strategies: []IDStrategy{
			AttributeStrategy{Selector: kariyerCardSelector, Attribute: "data-id"},
			HrefStrategy{Selector: kariyerCardLinkSelect, Pattern: kariyerIDPattern, Base: kariyerBase},
			HrefStrategy{Selector: "a[href*='ilan/']", Pattern: kariyerIDPattern, Base: kariyerBase},
		},
		More: func(ctx context.Context, page browser.Page, policy *pacing.Policy) error {
			if !page.IsVisible(ctx, kariyerLoadMore, kariyerLoadMoreProbe) {
				return ErrFeedExhausted
			}
			if err := page.Click(ctx, kariyerLoadMore); err != nil {
				return err
			}
			return policy.AfterMore(ctx)
		},
		Fields: FieldSelectors{
			Title:       "h1.job-title, .job-detail-title",
			Company:     ".company-name, .job-company-name",
			Location:    ".job-location, .location",
			Description: ".job-description, .job-detail-content",
			IDPattern:   kariyerIDPattern,
		},
	}
}
