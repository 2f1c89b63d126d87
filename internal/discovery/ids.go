package discovery

import (
	"context"
	"regexp"
	"strings"

	"github.com/jonathan/jobhunter/internal/browser"
)

// IDStrategy reads listing identifiers from the current page.
type IDStrategy interface {
	Name() string
	Extract(ctx context.Context, page browser.Page) []Listing
}

// AttributeStrategy reads a stable per-item attribute.
type AttributeStrategy struct {
	Selector  string
	Attribute string
}

// Name implements IDStrategy.
func (a AttributeStrategy) Name() string { return "attribute " + a.Attribute }

// Extract implements IDStrategy.
func (a AttributeStrategy) Extract(ctx context.Context, page browser.Page) []Listing {
	values, err := page.Attributes(ctx, a.Selector, a.Attribute)
	if err != nil {
		return nil
	}
	out := make([]Listing, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, Listing{ID: v})
		}
	}
	return uniqueListings(out)
}

// HrefStrategy parses identifiers out of item hyperlinks. Pattern's first
// capture group is the identifier. Relative links are resolved against Base.
type HrefStrategy struct {
	Selector string
	Pattern  *regexp.Regexp
	Base     string
}

// Name implements IDStrategy.
func (h HrefStrategy) Name() string { return "href " + h.Pattern.String() }

// Extract implements IDStrategy.
func (h HrefStrategy) Extract(ctx context.Context, page browser.Page) []Listing {
	hrefs, err := page.Attributes(ctx, h.Selector, "href")
	if err != nil {
		return nil
	}
	out := make([]Listing, 0, len(hrefs))
	for _, href := range hrefs {
		m := h.Pattern.FindStringSubmatch(href)
		if len(m) < 2 || m[1] == "" {
			continue
		}
		out = append(out, Listing{ID: m[1], Link: absolute(h.Base, href)})
	}
	return uniqueListings(out)
}

// ExtractIDs runs strategies in order and returns the first non-empty
// result. It never fails; total failure is an empty slice.
func ExtractIDs(ctx context.Context, page browser.Page, strategies ...IDStrategy) []Listing {
	for _, s := range strategies {
		if ids := s.Extract(ctx, page); len(ids) > 0 {
			return ids
		}
	}
	return nil
}

func uniqueListings(in []Listing) []Listing {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, l := range in {
		if seen[l.ID] {
			continue
		}
		seen[l.ID] = true
		out = append(out, l)
	}
	return out
}

func absolute(base, href string) string {
	if base == "" || strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(href, "/")
}
