// Package hunt runs discovery, dedup and dispatch for a user profile.
package hunt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/jobhunter/internal/apply"
	"github.com/jonathan/jobhunter/internal/challenge"
	"github.com/jonathan/jobhunter/internal/dedup"
	"github.com/jonathan/jobhunter/internal/discovery"
	"github.com/jonathan/jobhunter/internal/logging"
	"github.com/jonathan/jobhunter/internal/outreach"
	"github.com/jonathan/jobhunter/internal/pacing"
	"github.com/jonathan/jobhunter/internal/types"
)

// Discoverer finds listings on a platform.
type Discoverer interface {
	Spec(platform types.Platform) (*discovery.PlatformSpec, error)
	Login(ctx context.Context, platform types.Platform) error
	Discover(ctx context.Context, platform types.Platform, title string, target int) ([]discovery.Listing, error)
}

// Extractor reads a listing's detail view.
type Extractor interface {
	ExtractDetail(ctx context.Context, spec *discovery.PlatformSpec, listing discovery.Listing, query string) (*types.Posting, error)
}

// Applier completes the inline apply wizard.
type Applier interface {
	Apply(ctx context.Context, posting *types.Posting, profile *types.UserProfile) apply.Result
}

// Mailer delivers outreach email.
type Mailer interface {
	Deliver(ctx context.Context, posting *types.Posting, profile *types.UserProfile) (outreach.Delivery, error)
}

// Observer is told about run progress. Calls happen on the run goroutine.
type Observer interface {
	PlatformStarted(platform types.Platform)
	Discovered(platform types.Platform, title string, count int)
	Dispatched(index, total int, posting *types.Posting, outcome Outcome)
}

type nopObserver struct{}

func (nopObserver) PlatformStarted(types.Platform) {}
func (nopObserver) Discovered(types.Platform, string, int) {}
func (nopObserver) Dispatched(int, int, *types.Posting, Outcome) {}

// Deps are the collaborators of a Runner. Mailer and Applier may be nil,
// which disables that channel.
type Deps struct {
	Discovery Discoverer
	Extractor Extractor
	Ledger    *dedup.Adapter
	Applier   Applier
	Mailer    Mailer
	Policy    *pacing.Policy
	Observer  Observer
	Logger    *zap.SugaredLogger
	// Target is the number of listings requested per title.
	Target int
	Now    func() time.Time
}

// Runner executes hunts.
type Runner struct {
	Deps
	log *zap.SugaredLogger
}

// NewRunner returns a runner over deps.
func NewRunner(deps Deps) *Runner {
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Target <= 0 {
		deps.Target = discovery.DefaultMaxPerSession
	}
	return &Runner{Deps: deps, log: logging.OrNop(deps.Logger)}
}

// Run hunts every platform and title of profile. Per-posting and
// per-platform failures are recorded in the report; Run returns an error
// only when ctx ends or a blocking challenge cannot be resolved.
func (r *Runner) Run(ctx context.Context, profile *types.UserProfile) (*Report, error) {
	if profile == nil {
		return nil, errors.New("hunt requires a profile")
	}
	report := &Report{RunID: uuid.NewString(), StartedAt: r.Now()}
	log := r.log.With(logging.FieldRunID, report.RunID)
	log.Infow("Hunt started", "platforms", profile.Platforms, "titles", profile.JobTitles)

	var err error
	for _, platform := range profile.Platforms {
		if err = r.runPlatform(ctx, platform.Normalize(), profile, report, log); err != nil {
			break
		}
	}

	report.FinishedAt = r.Now()
	log.Infow("Hunt finished",
		"applied", report.Applied(),
		"dispatched", len(report.Items),
		"duration", report.FinishedAt.Sub(report.StartedAt).Round(time.Second))
	return report, err
}

// fatal reports whether err must end the whole run.
func fatal(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	var re *challenge.ResolutionError
	return errors.As(err, &re)
}

func (r *Runner) runPlatform(ctx context.Context, platform types.Platform, profile *types.UserProfile, report *Report, log *zap.SugaredLogger) error {
	log = log.With(logging.FieldPlatform, platform)
	r.Observer.PlatformStarted(platform)

	spec, err := r.Discovery.Spec(platform)
	if err != nil {
		log.Warnw("Skipping platform", logging.FieldError, err)
		report.platformFailed(platform, err)
		return nil
	}
	if spec.RequiresLogin {
		if err := r.Discovery.Login(ctx, spec.Platform); err != nil {
			if fatal(ctx, err) {
				return err
			}
			log.Errorw("Login failed", logging.FieldError, err)
			report.platformFailed(platform, err)
			return nil
		}
	}

	candidates, err := r.collect(ctx, spec, profile, report, log)
	if err != nil {
		return err
	}

	fresh, err := r.Ledger.FilterUnapplied(ctx, candidates)
	if err != nil {
		log.Errorw("Dedup failed", logging.FieldError, err)
		report.platformFailed(platform, err)
		return nil
	}
	log.Infow("Dispatching", logging.FieldCount, len(fresh))

	for i, p := range fresh {
		if i > 0 {
			if err := r.Policy.BetweenItems(ctx); err != nil {
				return err
			}
		}
		outcome, err := r.dispatch(ctx, p, profile, log)
		if err != nil {
			return err
		}
		report.Items = append(report.Items, Item{Posting: p, Outcome: outcome})
		r.Observer.Dispatched(i+1, len(fresh), p, outcome)
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	return nil
}

// collect discovers every title and extracts listings not yet applied to.
func (r *Runner) collect(ctx context.Context, spec *discovery.PlatformSpec, profile *types.UserProfile, report *Report, log *zap.SugaredLogger) ([]*types.Posting, error) {
	seen := map[string]struct{}{}
	var candidates []*types.Posting

	for _, title := range profile.JobTitles {
		listings, err := r.Discovery.Discover(ctx, spec.Platform, title, r.Target)
		if err != nil {
			if fatal(ctx, err) {
				return nil, err
			}
			// Listings gathered before the failure are still used.
			log.Warnw("Discovery failed", logging.FieldTitle, title, logging.FieldError, err)
		}
		report.Discovered += len(listings)
		r.Observer.Discovered(spec.Platform, title, len(listings))

		for _, l := range listings {
			if _, dup := seen[l.ID]; dup {
				continue
			}
			seen[l.ID] = struct{}{}

			key := types.PostingKey{Platform: spec.Platform, PlatformID: l.ID}
			applied, err := r.Ledger.IsApplied(ctx, key)
			if err != nil {
				log.Warnw("Applied check failed", logging.FieldPlatformID, l.ID, logging.FieldError, err)
			} else if applied {
				report.AlreadyApplied++
				continue
			}

			p, err := r.Extractor.ExtractDetail(ctx, spec, l, title)
			if err != nil {
				if fatal(ctx, err) {
					return nil, err
				}
				report.ExtractionFailures++
				log.Warnw("Extraction failed", logging.FieldPlatformID, l.ID, logging.FieldError, err)
				continue
			}
			if _, err := r.Ledger.Save(ctx, p); err != nil {
				log.Warnw("Failed to save posting", logging.FieldPlatformID, l.ID, logging.FieldError, err)
			}
			candidates = append(candidates, p)

			if err := r.Policy.BetweenItems(ctx); err != nil {
				return nil, err
			}
		}
	}
	return candidates, nil
}

// dispatch applies through the first available channel. It never panics.
// The error is non-nil only when the attempt hit a fault that ends the run;
// nothing is recorded for the posting then, so the next run retries it.
func (r *Runner) dispatch(ctx context.Context, p *types.Posting, profile *types.UserProfile, log *zap.SugaredLogger) (outcome Outcome, err error) {
	log = log.With(logging.FieldPlatformID, p.PlatformID, logging.FieldCompany, p.Company, logging.FieldTitle, p.Title)
	defer func() {
		if rec := recover(); rec != nil {
			outcome = Failed(fmt.Sprintf("panic: %v", rec))
			log.Errorw("Dispatch panicked", logging.FieldReason, outcome.Reason)
			r.recordFailure(ctx, p, types.MethodNone, outcome.Reason, "", log)
		}
	}()

	switch {
	case p.ContactEmail != "" && r.Mailer != nil:
		d, err := r.Mailer.Deliver(ctx, p, profile)
		if err != nil {
			outcome = Failed(err.Error())
			r.recordFailure(ctx, p, types.MethodEmail, outcome.Reason, d.Subject, log)
			return outcome, nil
		}
		r.recordSuccess(ctx, p, types.MethodEmail, d.Subject, log)
		outcome = Outcome{Kind: OutcomeEmailed}
	case p.HasInlineApply && r.Applier != nil:
		res := r.Applier.Apply(ctx, p, profile)
		if !res.Applied {
			outcome = Failed(res.Reason)
			if res.Err != nil && fatal(ctx, res.Err) {
				log.Errorw("Inline apply interrupted", logging.FieldError, res.Err)
				return outcome, res.Err
			}
			r.recordFailure(ctx, p, types.MethodInlineApply, outcome.Reason, "", log)
			return outcome, nil
		}
		r.recordSuccess(ctx, p, types.MethodInlineApply, "", log)
		outcome = Outcome{Kind: OutcomeAppliedInline}
	default:
		outcome = Outcome{Kind: OutcomeSkippedNoChannel}
	}
	log.Infow("Dispatched", logging.FieldOutcome, outcome.String())
	return outcome, nil
}

// recordSuccess persists an application that went out. Persistence errors
// are logged; the outcome stands because the application was made.
func (r *Runner) recordSuccess(ctx context.Context, p *types.Posting, method types.ApplicationMethod, subject string, log *zap.SugaredLogger) {
	if err := r.Ledger.MarkApplied(ctx, p, method); err != nil {
		log.Errorw("Failed to mark applied", logging.FieldError, err)
	}
	rec := &types.ApplicationRecord{Key: p.Key(), Method: method, Successful: true, EmailSubject: subject}
	if err := r.Ledger.RecordAttempt(ctx, rec); err != nil {
		log.Warnw("Failed to record attempt", logging.FieldError, err)
	}
}

func (r *Runner) recordFailure(ctx context.Context, p *types.Posting, method types.ApplicationMethod, reason, subject string, log *zap.SugaredLogger) {
	log.Warnw("Dispatch failed", logging.FieldReason, reason)
	if err := r.Ledger.RecordFailure(ctx, p, reason); err != nil {
		log.Warnw("Failed to record failure", logging.FieldError, err)
	}
	rec := &types.ApplicationRecord{Key: p.Key(), Method: method, ErrorMessage: reason, EmailSubject: subject}
	if err := r.Ledger.RecordAttempt(ctx, rec); err != nil {
		log.Warnw("Failed to record attempt", logging.FieldError, err)
	}
}
