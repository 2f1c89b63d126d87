// Package browsertest provides an in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonathan/jobhunter/internal/browser"
)

// ErrNotFound is returned by reads and actions on selectors the fake does not know.
var ErrNotFound = errors.New("element not found")

// Page is a scriptable browser.Page. State maps are keyed by selector;
// Attrs is keyed by "selector|attr" and Errors by "action:selector"
// (for example "click:#submit"). Hooks run after the call is recorded and
// may mutate state to simulate page transitions.
type Page struct {
	mu sync.Mutex

	URL     string
	Visible map[string]bool
	Texts   map[string]string
	HTML    map[string]string
	Attrs   map[string][]string
	Checked map[string]bool
	Values  map[string]string
	Fields  []browser.FormField
	Errors  map[string]error

	OnNavigate func(p *Page, url string)
	OnClick    func(p *Page, selector string)
	OnScroll   func(p *Page)

	Calls []string
}

var _ browser.Page = (*Page)(nil)

// New returns an empty page.
func New() *Page {
	return &Page{
		Visible: map[string]bool{},
		Texts:   map[string]string{},
		HTML:    map[string]string{},
		Attrs:   map[string][]string{},
		Checked: map[string]bool{},
		Values:  map[string]string{},
		Errors:  map[string]error{},
	}
}

func (p *Page) record(format string, args ...any) {
	p.Calls = append(p.Calls, fmt.Sprintf(format, args...))
}

func (p *Page) failure(action, selector string) error {
	if err, ok := p.Errors[action+":"+selector]; ok {
		return err
	}
	return nil
}

// CallCount returns how many recorded calls equal call.
func (p *Page) CallCount(call string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.Calls {
		if c == call {
			n++
		}
	}
	return n
}

// Recorded returns a copy of the call log.
func (p *Page) Recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Calls...)
}

// SetVisible toggles presence of selector.
func (p *Page) SetVisible(selector string, visible bool) {
	p.Visible[selector] = visible
}

func (p *Page) Navigate(ctx context.Context, url string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.record("navigate %s", url)
	if err := p.failure("navigate", url); err != nil {
		p.mu.Unlock()
		return err
	}
	p.URL = url
	hook := p.OnNavigate
	p.mu.Unlock()
	if hook != nil {
		hook(p, url)
	}
	return nil
}

func (p *Page) IsVisible(_ context.Context, selector string, _ time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("visible %s", selector)
	return p.Visible[selector]
}

func (p *Page) Text(_ context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("text %s", selector)
	if err := p.failure("text", selector); err != nil {
		return "", err
	}
	t, ok := p.Texts[selector]
	if !ok {
		return "", ErrNotFound
	}
	return t, nil
}

func (p *Page) InnerHTML(_ context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("html %s", selector)
	if err := p.failure("html", selector); err != nil {
		return "", err
	}
	h, ok := p.HTML[selector]
	if !ok {
		return "", ErrNotFound
	}
	return h, nil
}

func (p *Page) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.record("click %s", selector)
	if err := p.failure("click", selector); err != nil {
		p.mu.Unlock()
		return err
	}
	hook := p.OnClick
	p.mu.Unlock()
	if hook != nil {
		hook(p, selector)
	}
	return nil
}

func (p *Page) Type(_ context.Context, selector, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("type %s %s", selector, text)
	if err := p.failure("type", selector); err != nil {
		return err
	}
	p.Values[selector] = text
	return nil
}

func (p *Page) Clear(_ context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("clear %s", selector)
	if err := p.failure("clear", selector); err != nil {
		return err
	}
	delete(p.Values, selector)
	return nil
}

func (p *Page) UploadFile(_ context.Context, selector, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("upload %s %s", selector, path)
	if err := p.failure("upload", selector); err != nil {
		return err
	}
	p.Values[selector] = path
	return nil
}

func (p *Page) SelectOption(_ context.Context, selector, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("select %s %s", selector, value)
	if err := p.failure("select", selector); err != nil {
		return err
	}
	p.Values[selector] = value
	return nil
}

func (p *Page) IsChecked(_ context.Context, selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("checked %s", selector)
	if err := p.failure("checked", selector); err != nil {
		return false, err
	}
	return p.Checked[selector], nil
}

func (p *Page) Attributes(_ context.Context, selector, attr string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("attrs %s %s", selector, attr)
	if err := p.failure("attrs", selector); err != nil {
		return nil, err
	}
	return append([]string(nil), p.Attrs[selector+"|"+attr]...), nil
}

func (p *Page) ScrollListing(_ context.Context, headerSelector, _ string) error {
	p.mu.Lock()
	p.record("scroll %s", headerSelector)
	if err := p.failure("scroll", headerSelector); err != nil {
		p.mu.Unlock()
		return err
	}
	hook := p.OnScroll
	p.mu.Unlock()
	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *Page) FormFields(_ context.Context, _ []string) ([]browser.FormField, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("fields")
	if err := p.failure("fields", ""); err != nil {
		return nil, err
	}
	return append([]browser.FormField(nil), p.Fields...), nil
}

func (p *Page) CurrentURL(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.URL, nil
}
