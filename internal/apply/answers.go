package apply

import (
	"sort"
	"strings"

	"github.com/jonathan/jobhunter/internal/types"
)

// Question is a form question as seen by the answer rules.
type Question struct {
	Text string
	// Choice marks fields limited to a fixed set of values.
	Choice bool
}

// AnswerRule proposes an answer for a question.
type AnswerRule interface {
	Name() string
	Answer(q Question) (string, bool)
}

// Answerer evaluates rules in order; the first rule with an answer wins.
type Answerer struct {
	rules []AnswerRule
}

// NewAnswerer returns the standard precedence chain: a profile key found in
// the question text, then a catalogue keyword match answered by the
// profile, then the catalogue's first option for choice fields.
func NewAnswerer(profile *types.UserProfile, catalogue []types.TemplateQuestion) *Answerer {
	var answers map[string]string
	if profile != nil {
		answers = profile.TemplateAnswers
	}
	return &Answerer{rules: []AnswerRule{
		newProfileKeyRule(answers),
		catalogueRule{catalogue: catalogue, answers: answers},
		catalogueDefaultRule{catalogue: catalogue},
	}}
}

// Resolve returns the answer for q and the name of the rule that produced it.
func (a *Answerer) Resolve(q Question) (answer, rule string, ok bool) {
	for _, r := range a.rules {
		if v, ok := r.Answer(q); ok {
			return v, r.Name(), true
		}
	}
	return "", "", false
}

// profileKeyRule matches profile answer keys contained in the question text.
// Keys are tried longest first, then lexicographically, so matching is
// deterministic when several keys occur.
type profileKeyRule struct {
	keys    []string
	answers map[string]string
}

func newProfileKeyRule(answers map[string]string) profileKeyRule {
	keys := make([]string, 0, len(answers))
	for k, v := range answers {
		if strings.TrimSpace(k) != "" && v != "" {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return profileKeyRule{keys: keys, answers: answers}
}

func (profileKeyRule) Name() string { return "profile key" }

func (r profileKeyRule) Answer(q Question) (string, bool) {
	lower := strings.ToLower(q.Text)
	for _, k := range r.keys {
		if strings.Contains(lower, strings.ToLower(k)) {
			return r.answers[k], true
		}
	}
	return "", false
}

// firstMatch returns the first catalogue entry whose keywords match text.
func firstMatch(catalogue []types.TemplateQuestion, text string) *types.TemplateQuestion {
	for i := range catalogue {
		if catalogue[i].Matches(text) {
			return &catalogue[i]
		}
	}
	return nil
}

// catalogueRule answers a keyword-matched catalogue entry from the profile.
type catalogueRule struct {
	catalogue []types.TemplateQuestion
	answers   map[string]string
}

func (catalogueRule) Name() string { return "catalogue keyword" }

func (r catalogueRule) Answer(q Question) (string, bool) {
	tq := firstMatch(r.catalogue, q.Text)
	if tq == nil {
		return "", false
	}
	v, ok := r.answers[tq.Key]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// catalogueDefaultRule falls back to the matched entry's first option, for
// choice fields only.
type catalogueDefaultRule struct {
	catalogue []types.TemplateQuestion
}

func (catalogueDefaultRule) Name() string { return "catalogue default" }

func (r catalogueDefaultRule) Answer(q Question) (string, bool) {
	if !q.Choice {
		return "", false
	}
	tq := firstMatch(r.catalogue, q.Text)
	if tq == nil || len(tq.Options) == 0 {
		return "", false
	}
	return tq.Options[0], true
}
