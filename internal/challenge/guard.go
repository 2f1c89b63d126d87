package challenge

import (
	"context"
	"time"

	"github.com/jonathan/jobhunter/internal/browser"
)

// Guarded is a browser.Page whose page transitions consult a Gate.
type Guarded struct {
	browser.Page
	gate *Gate
}

var _ browser.Page = (*Guarded)(nil)

// Guard wraps page so every Navigate and Click is followed by gate.CheckAndWait.
func Guard(page browser.Page, gate *Gate) *Guarded {
	return &Guarded{Page: page, gate: gate}
}

func (g *Guarded) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := g.Page.Navigate(ctx, url, timeout); err != nil {
		return err
	}
	_, err := g.gate.CheckAndWait(ctx)
	return err
}

func (g *Guarded) Click(ctx context.Context, selector string) error {
	if err := g.Page.Click(ctx, selector); err != nil {
		return err
	}
	_, err := g.gate.CheckAndWait(ctx)
	return err
}
