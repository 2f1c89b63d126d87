package pacing

import (
	"context"
	"time"

	"github.com/jonathan/jobhunter/internal/browser"
)

// Page decorates a browser.Page so every simulated user action is followed
// by the policy's delay. Reads and presence checks are not paced.
type Page struct {
	browser.Page
	policy *Policy
}

var _ browser.Page = (*Page)(nil)

// Wrap returns page paced by policy.
func Wrap(page browser.Page, policy *Policy) *Page {
	return &Page{Page: page, policy: policy}
}

func (p *Page) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := p.Page.Navigate(ctx, url, timeout); err != nil {
		return err
	}
	return p.policy.AfterAction(ctx)
}

func (p *Page) Click(ctx context.Context, selector string) error {
	if err := p.Page.Click(ctx, selector); err != nil {
		return err
	}
	return p.policy.AfterAction(ctx)
}

func (p *Page) Type(ctx context.Context, selector, text string) error {
	if err := p.Page.Type(ctx, selector, text); err != nil {
		return err
	}
	return p.policy.AfterTyping(ctx)
}

func (p *Page) UploadFile(ctx context.Context, selector, path string) error {
	if err := p.Page.UploadFile(ctx, selector, path); err != nil {
		return err
	}
	return p.policy.AfterAction(ctx)
}

func (p *Page) SelectOption(ctx context.Context, selector, value string) error {
	if err := p.Page.SelectOption(ctx, selector, value); err != nil {
		return err
	}
	return p.policy.AfterTyping(ctx)
}
