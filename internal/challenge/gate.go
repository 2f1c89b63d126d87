// Package challenge detects anti-automation verification screens and holds
// the flow until a human has resolved them.
package challenge

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/jobhunter/internal/browser"
	"github.com/jonathan/jobhunter/internal/logging"
)

// DefaultProbeTimeout bounds each signature probe.
const DefaultProbeTimeout = 1 * time.Second

// DefaultSignatures are the known verification surfaces.
func DefaultSignatures() []string {
	return []string{
		"iframe[src*='recaptcha']",
		".g-recaptcha",
		"#captcha",
		"[data-testid*='captcha']",
		".captcha",
		"iframe[title*='reCAPTCHA']",
		".challenge-form",
	}
}

// Prompter blocks until a human acknowledges message.
type Prompter interface {
	Acknowledge(ctx context.Context, message string) error
}

// PrompterFunc adapts a function to Prompter.
type PrompterFunc func(ctx context.Context, message string) error

// Acknowledge calls f.
func (f PrompterFunc) Acknowledge(ctx context.Context, message string) error {
	return f(ctx, message)
}

// State is the gate's position in its detection cycle.
type State int

const (
	// StateProbing scans the page for challenge signatures
	StateProbing State = iota
	// StateSuspended waits for a human acknowledgment
	StateSuspended
)

func (s State) String() string {
	switch s {
	case StateProbing:
		return "probing"
	case StateSuspended:
		return "suspended"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// PromptMessage is shown while the gate is suspended.
const PromptMessage = "A verification challenge is blocking the page. Solve it in the browser window, then press Enter to continue."

// Gate probes for challenge screens on a page.
type Gate struct {
	page         browser.Page
	prompter     Prompter
	signatures   []string
	probeTimeout time.Duration
	log          *zap.SugaredLogger

	// Suspensions counts acknowledgments requested over the gate's lifetime.
	Suspensions int
}

// Option configures a Gate.
type Option func(*Gate)

// WithSignatures replaces the default signature list.
func WithSignatures(sigs ...string) Option {
	return func(g *Gate) { g.signatures = sigs }
}

// WithProbeTimeout sets the per-signature probe timeout.
func WithProbeTimeout(d time.Duration) Option {
	return func(g *Gate) { g.probeTimeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(g *Gate) { g.log = logging.OrNop(l) }
}

// NewGate returns a gate probing page and suspending through prompter.
func NewGate(page browser.Page, prompter Prompter, opts ...Option) *Gate {
	g := &Gate{
		page:         page,
		prompter:     prompter,
		signatures:   DefaultSignatures(),
		probeTimeout: DefaultProbeTimeout,
		log:          logging.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// detect returns the first visible signature, or "".
func (g *Gate) detect(ctx context.Context) string {
	for _, sig := range g.signatures {
		if g.page.IsVisible(ctx, sig, g.probeTimeout) {
			return sig
		}
	}
	return ""
}

// CheckAndWait reports whether a challenge was present. When one is, it
// suspends until every signature has disappeared, re-probing after each
// acknowledgment. There is no bound on the number of acknowledgments. It
// fails only when the prompter fails or ctx is done.
func (g *Gate) CheckAndWait(ctx context.Context) (bool, error) {
	encountered := false
	state := StateProbing
	for {
		if err := ctx.Err(); err != nil {
			return encountered, err
		}
		switch state {
		case StateProbing:
			sig := g.detect(ctx)
			if sig == "" {
				if encountered {
					g.log.Infow("Challenge cleared", "suspensions", g.Suspensions)
				}
				return encountered, nil
			}
			if !encountered {
				g.log.Warnw("Challenge detected", logging.FieldSelector, sig)
			}
			encountered = true
			state = StateSuspended
		case StateSuspended:
			g.Suspensions++
			if err := g.prompter.Acknowledge(ctx, PromptMessage); err != nil {
				return encountered, &ResolutionError{Cause: err}
			}
			state = StateProbing
		}
	}
}
