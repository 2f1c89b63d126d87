package console

import (
	"context"
	"strings"

	"github.com/pterm/pterm"

	"github.com/jonathan/jobhunter/internal/types"
)

// PromptProfile asks for a profile interactively. Catalogue questions are
// asked in order; blank answers are left out of the answer map.
func (c *Console) PromptProfile(ctx context.Context, catalogue []types.TemplateQuestion) (*types.UserProfile, error) {
	pterm.Fprintln(c.out, pterm.Bold.Sprint("Job hunt profile"))

	platforms, err := c.Ask(ctx, "Platforms (comma separated: linkedin, kariyer.net)", string(types.PlatformLinkedIn))
	if err != nil {
		return nil, err
	}
	profile := &types.UserProfile{TemplateAnswers: map[string]string{}}
	for _, p := range splitList(platforms) {
		profile.Platforms = append(profile.Platforms, types.Platform(p).Normalize())
	}

	for len(profile.JobTitles) == 0 {
		titles, err := c.Ask(ctx, "Job titles (comma separated)", "")
		if err != nil {
			return nil, err
		}
		profile.JobTitles = splitList(titles)
	}

	if profile.CVFilePath, err = c.Ask(ctx, "CV file path (optional)", ""); err != nil {
		return nil, err
	}

	for {
		mode, err := c.Ask(ctx, "Email mode (draft or send)", string(types.EmailModeDraft))
		if err != nil {
			return nil, err
		}
		if profile.EmailMode, err = types.ParseEmailMode(mode); err == nil {
			break
		}
		pterm.Warning.WithWriter(c.out).Println(err.Error())
	}

	if profile.ShowBrowser, err = c.Confirm(ctx, "Show the browser window", false); err != nil {
		return nil, err
	}

	for _, q := range catalogue {
		label := q.Question
		if len(q.Options) > 0 {
			label += " (" + strings.Join(q.Options, "/") + ")"
		}
		answer, err := c.Ask(ctx, label, "")
		if err != nil {
			return nil, err
		}
		if answer != "" {
			profile.TemplateAnswers[q.Key] = answer
		}
	}
	return profile, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
