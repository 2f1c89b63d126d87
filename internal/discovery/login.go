package discovery

import (
	"context"
	"time"

	"github.com/jonathan/jobhunter/internal/logging"
	"github.com/jonathan/jobhunter/internal/types"
)

// LinkedIn login selectors.
const (
	linkedInLoginURL       = linkedInBase + "/login"
	linkedInLoggedInMarker = "[data-test-id='nav-top-logo']"
	linkedInUsername       = "#username"
	linkedInPassword       = "#password"
	linkedInSubmit         = "button[type='submit']"
	linkedInPinInput       = "input[name='pin']"

	loggedInProbe = 3 * time.Second
	pinProbe      = 5 * time.Second
)

// VerificationMessage is shown when a platform asks for a security PIN.
const VerificationMessage = "LinkedIn security check detected. Complete the verification in the browser, then press Enter."

// Login authenticates on platform when its spec requires it. Platforms
// without login are a no-op.
func (e *Engine) Login(ctx context.Context, platform types.Platform) error {
	spec, err := e.Spec(platform)
	if err != nil {
		return err
	}
	if !spec.RequiresLogin {
		return nil
	}
	switch spec.Platform {
	case types.PlatformLinkedIn:
		return e.loginLinkedIn(ctx)
	}
	return &LoginError{Platform: string(spec.Platform), Message: "no login flow"}
}

func (e *Engine) loginLinkedIn(ctx context.Context) error {
	name := string(types.PlatformLinkedIn)
	log := e.log.With(logging.FieldPlatform, name)

	if err := e.page.Navigate(ctx, linkedInLoginURL, 0); err != nil {
		return &LoginError{Platform: name, Message: "failed to open login page", Cause: err}
	}
	if e.page.IsVisible(ctx, linkedInLoggedInMarker, loggedInProbe) {
		log.Infow("Already logged in")
		return nil
	}

	creds, ok := e.creds[types.PlatformLinkedIn]
	if !ok || creds.Email == "" || creds.Password == "" {
		return &LoginError{Platform: name, Message: "credentials not configured"}
	}
	if err := e.page.Type(ctx, linkedInUsername, creds.Email); err != nil {
		return &LoginError{Platform: name, Message: "failed to enter username", Cause: err}
	}
	if err := e.page.Type(ctx, linkedInPassword, creds.Password); err != nil {
		return &LoginError{Platform: name, Message: "failed to enter password", Cause: err}
	}
	if err := e.page.Click(ctx, linkedInSubmit); err != nil {
		return &LoginError{Platform: name, Message: "failed to submit login form", Cause: err}
	}
	if err := e.policy.AfterMore(ctx); err != nil {
		return err
	}

	if e.page.IsVisible(ctx, linkedInPinInput, pinProbe) {
		log.Warnw("Security verification requested")
		if e.prompter == nil {
			return &LoginError{Platform: name, Message: "verification required but no prompter configured"}
		}
		if err := e.prompter.Acknowledge(ctx, VerificationMessage); err != nil {
			return &LoginError{Platform: name, Message: "verification not acknowledged", Cause: err}
		}
	}
	log.Infow("Logged in")
	return nil
}
