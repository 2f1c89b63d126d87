package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/jonathan/jobhunter/internal/logging"
)

// DefaultUserAgent is presented by the automated browser.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options configures the browser session.
type Options struct {
	Headless          bool
	UserAgent         string
	WindowWidth       int
	WindowHeight      int
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	ReadTimeout       time.Duration
	Logger            *zap.SugaredLogger
}

// DefaultOptions returns sensible defaults for a headless session.
func DefaultOptions() *Options {
	return &Options{
		Headless:          true,
		UserAgent:         DefaultUserAgent,
		WindowWidth:       1920,
		WindowHeight:      1080,
		NavigationTimeout: DefaultNavigationTimeout,
		ActionTimeout:     DefaultActionTimeout,
		ReadTimeout:       DefaultReadTimeout,
	}
}

// Session is a chromedp-driven browser tab implementing Page.
type Session struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	opts        Options
	log         *zap.SugaredLogger
}

var _ Page = (*Session)(nil)

// Open launches Chrome and opens one tab. The returned session must be
// closed by the caller; prefer WithSession, which guarantees it.
func Open(ctx context.Context, opts *Options) (*Session, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	o := *opts
	defaults := DefaultOptions()
	if o.UserAgent == "" {
		o.UserAgent = defaults.UserAgent
	}
	if o.WindowWidth == 0 || o.WindowHeight == 0 {
		o.WindowWidth, o.WindowHeight = defaults.WindowWidth, defaults.WindowHeight
	}
	if o.NavigationTimeout == 0 {
		o.NavigationTimeout = defaults.NavigationTimeout
	}
	if o.ActionTimeout == 0 {
		o.ActionTimeout = defaults.ActionTimeout
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = defaults.ReadTimeout
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", o.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-blink-features", "AutomationControlled"),
			chromedp.Flag("disable-features", "VizDisplayCompositor"),
			chromedp.UserAgent(o.UserAgent),
			chromedp.WindowSize(o.WindowWidth, o.WindowHeight),
		)...,
	)

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	// The first Run starts the browser; it must not carry a timeout or the
	// browser would be torn down when the timeout fires.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, &SessionError{Message: "failed to launch browser", Cause: err}
	}

	s := &Session{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		opts:        o,
		log:         logging.OrNop(o.Logger),
	}
	s.log.Infow("Browser session opened", "headless", o.Headless)
	return s, nil
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() error {
	if s.cancelTab == nil {
		return nil
	}
	err := chromedp.Cancel(s.ctx)
	s.cancelTab()
	s.cancelAlloc()
	s.cancelTab, s.cancelAlloc = nil, nil
	s.log.Infow("Browser session closed")
	if err != nil && err != context.Canceled {
		return &SessionError{Message: "failed to close browser", Cause: err}
	}
	return nil
}

// WithSession opens a session, hands it to fn and closes it on every exit path.
func WithSession(ctx context.Context, opts *Options, fn func(Page) error) (err error) {
	s, err := Open(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

// run executes actions against the tab, bounded by timeout and by the
// caller's ctx.
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

// Navigate loads url and waits for the load event.
func (s *Session) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = s.opts.NavigationTimeout
	}
	if err := s.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		return &ActionError{Action: "navigate", Selector: url, Cause: err}
	}
	return nil
}

// IsVisible waits up to timeout for selector to become visible.
func (s *Session) IsVisible(ctx context.Context, selector string, timeout time.Duration) bool {
	err := s.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
	return err == nil
}

// Text returns the rendered text of the first element matching selector.
func (s *Session) Text(ctx context.Context, selector string) (string, error) {
	var text string
	if err := s.run(ctx, s.opts.ReadTimeout, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", &ActionError{Action: "read text", Selector: selector, Cause: err}
	}
	return text, nil
}

// InnerHTML returns the inner HTML of the first element matching selector.
func (s *Session) InnerHTML(ctx context.Context, selector string) (string, error) {
	var html string
	if err := s.run(ctx, s.opts.ReadTimeout, chromedp.InnerHTML(selector, &html, chromedp.ByQuery)); err != nil {
		return "", &ActionError{Action: "read html", Selector: selector, Cause: err}
	}
	return html, nil
}

// Click waits for selector to be visible and clicks it.
func (s *Session) Click(ctx context.Context, selector string) error {
	err := s.run(ctx, s.opts.ActionTimeout,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible),
	)
	if err != nil {
		return &ActionError{Action: "click", Selector: selector, Cause: err}
	}
	return nil
}

// Type replaces the value of an input with text.
func (s *Session) Type(ctx context.Context, selector, text string) error {
	err := s.run(ctx, s.opts.ActionTimeout,
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
	if err != nil {
		return &ActionError{Action: "type", Selector: selector, Cause: err}
	}
	return nil
}

// Clear empties an input.
func (s *Session) Clear(ctx context.Context, selector string) error {
	err := s.run(ctx, s.opts.ActionTimeout,
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.Clear(selector, chromedp.ByQuery),
	)
	if err != nil {
		return &ActionError{Action: "clear", Selector: selector, Cause: err}
	}
	return nil
}

// UploadFile sets path on a file input.
func (s *Session) UploadFile(ctx context.Context, selector, path string) error {
	if _, err := os.Stat(path); err != nil {
		return &ActionError{Action: "upload", Selector: selector, Cause: err}
	}
	err := s.run(ctx, s.opts.ActionTimeout,
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.SetUploadFiles(selector, []string{path}, chromedp.ByQuery),
	)
	if err != nil {
		return &ActionError{Action: "upload", Selector: selector, Cause: err}
	}
	return nil
}

// SelectOption picks the option whose value or visible label equals value.
// For a radio input it clicks the radio of the same group matching value.
func (s *Session) SelectOption(ctx context.Context, selector, value string) error {
	var ok bool
	if err := s.run(ctx, s.opts.ActionTimeout, chromedp.Evaluate(script(selectOptionJS, selector, value), &ok)); err != nil {
		return &ActionError{Action: "select", Selector: selector, Cause: err}
	}
	if !ok {
		return &ActionError{Action: "select", Selector: selector, Cause: fmt.Errorf("no option %q", value)}
	}
	return nil
}

// IsChecked reports the checked state of a checkbox or radio input.
func (s *Session) IsChecked(ctx context.Context, selector string) (bool, error) {
	var checked bool
	if err := s.run(ctx, s.opts.ReadTimeout, chromedp.Evaluate(script(isCheckedJS, selector), &checked)); err != nil {
		return false, &ActionError{Action: "read checked", Selector: selector, Cause: err}
	}
	return checked, nil
}

// Attributes returns attr for every element matching selector.
func (s *Session) Attributes(ctx context.Context, selector, attr string) ([]string, error) {
	var values []string
	if err := s.run(ctx, s.opts.ReadTimeout, chromedp.Evaluate(script(attributesJS, selector, attr), &values)); err != nil {
		return nil, &ActionError{Action: "read attributes", Selector: selector, Cause: err}
	}
	return values, nil
}

// ScrollListing scrolls the results container following headerSelector.
func (s *Session) ScrollListing(ctx context.Context, headerSelector, itemSelector string) error {
	var scrolled bool
	if err := s.run(ctx, s.opts.ActionTimeout, chromedp.Evaluate(script(scrollListingJS, headerSelector, itemSelector), &scrolled)); err != nil {
		return &ActionError{Action: "scroll", Selector: headerSelector, Cause: err}
	}
	if !scrolled {
		return &ActionError{Action: "scroll", Selector: headerSelector, Cause: fmt.Errorf("list container not found")}
	}
	return nil
}

// FormFields tags each question group's input with a unique attribute and
// returns selectors for them. An input inside nested groups is reported
// once, under the first group selector that reaches it.
func (s *Session) FormFields(ctx context.Context, groupSelectors []string) ([]FormField, error) {
	var fields []FormField
	if err := s.run(ctx, s.opts.ReadTimeout, chromedp.Evaluate(script(formFieldsJS, groupSelectors), &fields)); err != nil {
		return nil, &ActionError{Action: "read form", Selector: fmt.Sprint(groupSelectors), Cause: err}
	}
	return uniqueFields(fields), nil
}

// uniqueFields drops repeated selectors, keeping the first.
func uniqueFields(fields []FormField) []FormField {
	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if seen[f.Selector] {
			continue
		}
		seen[f.Selector] = true
		out = append(out, f)
	}
	return out
}

// CurrentURL returns the location of the tab.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var u string
	if err := s.run(ctx, s.opts.ReadTimeout, chromedp.Location(&u)); err != nil {
		return "", &ActionError{Action: "read location", Cause: err}
	}
	return u, nil
}

// script renders a JS function template with JSON-encoded arguments.
func script(tmpl string, args ...any) string {
	encoded := make([]any, len(args))
	for i, a := range args {
		b, _ := json.Marshal(a)
		encoded[i] = string(b)
	}
	return fmt.Sprintf(tmpl, encoded...)
}

const isCheckedJS = `(function(sel) {
	const el = document.querySelector(sel);
	return !!(el && el.checked);
})(%s)`

const attributesJS = `(function(sel, attr) {
	return Array.from(document.querySelectorAll(sel))
		.map(el => el.getAttribute(attr))
		.filter(v => v);
})(%s, %s)`

const selectOptionJS = `(function(sel, want) {
	const el = document.querySelector(sel);
	if (!el) return false;
	if (el.type === 'radio') {
		const scope = el.form || document;
		for (const r of scope.querySelectorAll('input[type=radio][name="' + el.name + '"]')) {
			const label = r.labels && r.labels.length ? r.labels[0].textContent.trim() : '';
			if (r.value === want || label === want) {
				r.click();
				return true;
			}
		}
		return false;
	}
	if (!el.options) return false;
	for (const opt of el.options) {
		if (opt.value === want || opt.text.trim() === want) {
			el.value = opt.value;
			el.dispatchEvent(new Event('change', { bubbles: true }));
			return true;
		}
	}
	return false;
})(%s, %s)`

const scrollListingJS = `(function(headerSel, itemSel) {
	const header = document.querySelector(headerSel);
	if (!header || !header.nextElementSibling) return false;
	const container = header.nextElementSibling;
	const items = container.querySelectorAll(itemSel);
	if (items.length > 0) {
		let total = 0;
		items.forEach(item => { total += item.offsetHeight; });
		container.scrollTop += total;
	} else {
		container.scrollTop += container.clientHeight;
	}
	return true;
})(%s, %s)`

const formFieldsJS = `(function(groupSels) {
	window.__jhFieldSeq = window.__jhFieldSeq || 0;
	const out = [];
	const seen = new Set();
	const emitted = new Set();
	for (const sel of groupSels) {
		for (const group of document.querySelectorAll(sel)) {
			if (seen.has(group)) continue;
			seen.add(group);
			const input = group.querySelector('input:not([type=hidden]):not([type=file]):not([type=checkbox]), select, textarea');
			if (!input || emitted.has(input)) continue;
			emitted.add(input);
			let id = input.getAttribute('data-jh-field');
			if (!id) {
				id = String(++window.__jhFieldSeq);
				input.setAttribute('data-jh-field', id);
			}
			out.push({
				label: (group.textContent || '').trim(),
				selector: '[data-jh-field="' + id + '"]',
				kind: input.tagName.toLowerCase(),
				input_type: (input.getAttribute('type') || '').toLowerCase(),
				required: input.required || input.getAttribute('aria-required') === 'true',
			});
		}
	}
	return out;
})(%s)`
