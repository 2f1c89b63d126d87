package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/jonathan/jobhunter/internal/apply"
	"github.com/jonathan/jobhunter/internal/browser"
	"github.com/jonathan/jobhunter/internal/challenge"
	"github.com/jonathan/jobhunter/internal/config"
	"github.com/jonathan/jobhunter/internal/console"
	"github.com/jonathan/jobhunter/internal/db"
	"github.com/jonathan/jobhunter/internal/dedup"
	"github.com/jonathan/jobhunter/internal/discovery"
	"github.com/jonathan/jobhunter/internal/extraction"
	"github.com/jonathan/jobhunter/internal/hunt"
	"github.com/jonathan/jobhunter/internal/logging"
	"github.com/jonathan/jobhunter/internal/outreach"
	"github.com/jonathan/jobhunter/internal/pacing"
	"github.com/jonathan/jobhunter/internal/types"
)

func newLogger() (*zap.SugaredLogger, error) {
	return logging.New(logging.Options{JSON: jsonLogs, Verbose: verbose})
}

// ledger opens the configured store and optional seen-cache. The returned
// func closes both.
func ledger(ctx context.Context, s *config.Settings, log *zap.SugaredLogger) (*dedup.Adapter, func(), error) {
	store, err := db.Open(ctx, s.StoreOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	opts := []dedup.Option{dedup.WithLogger(log)}
	closers := []func() error{store.Close}

	if s.RedisURL != "" {
		cache, err := db.ConnectSeenCache(ctx, s.RedisURL)
		if err != nil {
			// The store alone is authoritative.
			log.Warnw("Seen-cache unavailable", logging.FieldError, err)
		} else {
			opts = append(opts, dedup.WithSeenCache(cache))
			closers = append(closers, cache.Close)
		}
	}

	closeAll := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warnw("Close failed", logging.FieldError, err)
			}
		}
	}
	return dedup.New(store, opts...), closeAll, nil
}

// hunter holds what one hunt needs beyond the browser session.
type hunter struct {
	settings  *config.Settings
	catalogue []types.TemplateQuestion
	ledger    *dedup.Adapter
	console   *console.Console
	out       io.Writer
	log       *zap.SugaredLogger
}

// run opens a browser session and hunts once for profile.
func (h *hunter) run(ctx context.Context, profile *types.UserProfile) (*hunt.Report, error) {
	opts := browser.DefaultOptions()
	opts.Headless = !profile.ShowBrowser
	opts.Logger = h.log

	var report *hunt.Report
	err := browser.WithSession(ctx, opts, func(raw browser.Page) error {
		runner := h.runner(raw)
		var err error
		report, err = runner.Run(ctx, profile)
		return err
	})
	if report != nil {
		if perr := console.PrintReport(h.out, report); perr != nil {
			h.log.Warnw("Failed to print report", logging.FieldError, perr)
		}
	}
	return report, err
}

// runner stacks the page decorators and builds the components over them.
func (h *hunter) runner(raw browser.Page) *hunt.Runner {
	s := h.settings
	policy := pacing.NewPolicy(s.ActionDelay())
	paced := pacing.Wrap(raw, policy)
	gate := challenge.NewGate(paced, h.console, challenge.WithLogger(h.log))
	page := challenge.Guard(paced, gate)

	engine := discovery.NewEngine(page, discovery.Config{
		Policy:        policy,
		Location:      s.SearchLocation,
		MaxPerSession: s.MaxJobsPerSession,
		Credentials:   s.Credentials(),
		Prompter:      h.console,
		Logger:        h.log,
	})
	return hunt.NewRunner(hunt.Deps{
		Discovery: engine,
		Extractor: extraction.New(page, extraction.WithLocation(s.SearchLocation), extraction.WithLogger(h.log)),
		Ledger:    h.ledger,
		Applier:   apply.New(page, h.catalogue, apply.WithLogger(h.log)),
		Mailer:    outreach.NewMailer(s.MailAccount(), s.DraftsDir, outreach.WithLogger(h.log)),
		Policy:    policy,
		Observer:  console.NewProgress(h.out),
		Logger:    h.log,
		Target:    s.MaxJobsPerSession,
	})
}
