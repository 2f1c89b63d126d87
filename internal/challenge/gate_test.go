package challenge

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobhunter/internal/browser/browsertest"
)

// resolvingPrompter clears the challenge after n acknowledgments.
type resolvingPrompter struct {
	page     *browsertest.Page
	selector string
	n        int
	calls    int
}

func (p *resolvingPrompter) Acknowledge(_ context.Context, _ string) error {
	p.calls++
	if p.calls >= p.n {
		p.page.SetVisible(p.selector, false)
	}
	return nil
}

func TestCheckAndWait_NoChallenge(t *testing.T) {
	page := browsertest.New()
	prompter := &resolvingPrompter{page: page}
	gate := NewGate(page, prompter)

	encountered, err := gate.CheckAndWait(context.Background())
	require.NoError(t, err)
	assert.False(t, encountered)
	assert.Equal(t, 0, prompter.calls)
	assert.Equal(t, len(DefaultSignatures()), len(page.Recorded()))
}

func TestCheckAndWait_ResolvedAfterNPrompts(t *testing.T) {
	tests := []struct {
		name string
		n    int
	}{
		{"first acknowledgment", 1},
		{"third acknowledgment", 3},
		{"many acknowledgments", 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := browsertest.New()
			page.SetVisible(".g-recaptcha", true)
			prompter := &resolvingPrompter{page: page, selector: ".g-recaptcha", n: tt.n}
			gate := NewGate(page, prompter)

			encountered, err := gate.CheckAndWait(context.Background())
			require.NoError(t, err)
			assert.True(t, encountered)
			assert.Equal(t, tt.n, prompter.calls)
			assert.Equal(t, tt.n, gate.Suspensions)
		})
	}
}

func TestCheckAndWait_ReprobesAllSignatures(t *testing.T) {
	page := browsertest.New()
	page.SetVisible("#captcha", true)
	page.SetVisible(".challenge-form", true)

	calls := 0
	prompter := PrompterFunc(func(context.Context, string) error {
		calls++
		switch calls {
		case 1:
			page.SetVisible("#captcha", false)
		case 2:
			page.SetVisible(".challenge-form", false)
		}
		return nil
	})
	gate := NewGate(page, prompter)

	encountered, err := gate.CheckAndWait(context.Background())
	require.NoError(t, err)
	assert.True(t, encountered)
	assert.Equal(t, 2, calls)
}

func TestCheckAndWait_PrompterFailure(t *testing.T) {
	page := browsertest.New()
	page.SetVisible(".captcha", true)
	gate := NewGate(page, PrompterFunc(func(context.Context, string) error { return io.EOF }))

	encountered, err := gate.CheckAndWait(context.Background())
	require.Error(t, err)
	assert.True(t, encountered)
	assert.True(t, errors.Is(err, io.EOF))
	var re *ResolutionError
	assert.ErrorAs(t, err, &re)
}

func TestCheckAndWait_ContextCancelled(t *testing.T) {
	page := browsertest.New()
	page.SetVisible(".captcha", true)
	ctx, cancel := context.WithCancel(context.Background())
	gate := NewGate(page, PrompterFunc(func(context.Context, string) error {
		cancel()
		return nil
	}))

	_, err := gate.CheckAndWait(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestWithSignatures(t *testing.T) {
	page := browsertest.New()
	page.SetVisible(".g-recaptcha", true)
	gate := NewGate(page, nil, WithSignatures("#only-this"), WithProbeTimeout(10*time.Millisecond))

	encountered, err := gate.CheckAndWait(context.Background())
	require.NoError(t, err)
	assert.False(t, encountered)
}

func TestGuard_ChecksAfterTransitions(t *testing.T) {
	page := browsertest.New()
	prompter := &resolvingPrompter{page: page, selector: "#captcha", n: 2}
	page.OnClick = func(p *browsertest.Page, selector string) {
		if selector == "#apply" {
			p.SetVisible("#captcha", true)
		}
	}
	guarded := Guard(page, NewGate(page, prompter))
	ctx := context.Background()

	require.NoError(t, guarded.Navigate(ctx, "https://example.com", time.Second))
	assert.Equal(t, 0, prompter.calls)

	require.NoError(t, guarded.Click(ctx, "#apply"))
	assert.Equal(t, 2, prompter.calls)
}

func TestGuard_ActionErrorSkipsGate(t *testing.T) {
	page := browsertest.New()
	page.Errors["click:#apply"] = errors.New("not clickable")
	guarded := Guard(page, NewGate(page, nil))

	err := guarded.Click(context.Background(), "#apply")
	require.Error(t, err)
	assert.Equal(t, 1, page.CallCount("click #apply"))
	assert.Equal(t, 0, page.CallCount("visible #captcha"))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "probing", StateProbing.String())
	assert.Equal(t, "suspended", StateSuspended.String())
}
