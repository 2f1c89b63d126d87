package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/jobhunter/internal/schemas"
	"github.com/jonathan/jobhunter/internal/types"
)

type profileFile struct {
	Platforms       []string          `json:"platforms"`
	JobTitles       []string          `json:"job_titles"`
	CVFilePath      string            `json:"cv_file_path"`
	EmailMode       string            `json:"email_mode"`
	ShowBrowser     bool              `json:"show_browser"`
	TemplateAnswers map[string]string `json:"template_answers"`
}

// LoadProfile reads and validates the profile JSON at path.
func LoadProfile(path string) (*types.UserProfile, error) {
	data, err := os.ReadFile(ExpandHome(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes and validates a profile document.
func ParseProfile(data []byte) (*types.UserProfile, error) {
	if err := schemas.Validate(schemas.Profile, data); err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	var raw profileFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse profile JSON: %w", err)
	}

	mode, err := types.ParseEmailMode(raw.EmailMode)
	if err != nil {
		return nil, fmt.Errorf("invalid profile: %w", err)
	}
	p := &types.UserProfile{
		JobTitles:       raw.JobTitles,
		CVFilePath:      ExpandHome(raw.CVFilePath),
		EmailMode:       mode,
		ShowBrowser:     raw.ShowBrowser,
		TemplateAnswers: raw.TemplateAnswers,
	}
	for _, tag := range raw.Platforms {
		p.Platforms = append(p.Platforms, types.Platform(tag).Normalize())
	}
	if err := ValidateProfile(p); err != nil {
		return nil, err
	}
	return p, nil
}

// ValidateProfile checks a profile built from any source.
func ValidateProfile(p *types.UserProfile) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	if p.CVFilePath != "" {
		if _, err := os.Stat(p.CVFilePath); err != nil {
			return fmt.Errorf("invalid profile: cv file not found: %s", p.CVFilePath)
		}
	}
	return nil
}
