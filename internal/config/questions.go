package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonathan/jobhunter/internal/schemas"
	"github.com/jonathan/jobhunter/internal/types"
)

//go:embed questions.default.json
var defaultQuestions []byte

type catalogueFile struct {
	TemplateQuestions []types.TemplateQuestion `json:"template_questions"`
}

// DefaultQuestions returns the built-in question catalogue.
func DefaultQuestions() []types.TemplateQuestion {
	qs, err := ParseQuestions(defaultQuestions)
	if err != nil {
		panic(fmt.Sprintf("built-in question catalogue is invalid: %v", err))
	}
	return qs
}

// LoadQuestions reads the catalogue at path, or the built-in catalogue
// when path is empty.
func LoadQuestions(path string) ([]types.TemplateQuestion, error) {
	if path == "" {
		return DefaultQuestions(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read question catalogue %s: %w", path, err)
	}
	return ParseQuestions(data)
}

// ParseQuestions validates a catalogue against its schema and decodes it.
// Keys must be unique; catalogue order is preserved.
func ParseQuestions(data []byte) ([]types.TemplateQuestion, error) {
	if err := schemas.Validate(schemas.QuestionCatalogue, data); err != nil {
		return nil, fmt.Errorf("invalid question catalogue: %w", err)
	}
	var f catalogueFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse question catalogue: %w", err)
	}
	seen := map[string]bool{}
	for _, q := range f.TemplateQuestions {
		if seen[q.Key] {
			return nil, fmt.Errorf("invalid question catalogue: duplicate key %q", q.Key)
		}
		seen[q.Key] = true
	}
	return f.TemplateQuestions, nil
}
