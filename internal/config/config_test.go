package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobhunter/internal/outreach"
	"github.com/jonathan/jobhunter/internal/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "appsettings.yaml", `
linkedin_email: me@example.com
linkedin_password: hunter2
delay_between_actions_ms: 500
max_jobs_per_session: 20
search_location: Istanbul
sqlite_path: /tmp/jobs.db
email:
  provider: outlook
  email: me@example.com
  sender_name: Me
`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", s.LinkedInEmail)
	assert.Equal(t, 500*time.Millisecond, s.ActionDelay())
	assert.Equal(t, 20, s.MaxJobsPerSession)
	assert.Equal(t, "Istanbul", s.SearchLocation)
	assert.Equal(t, "/tmp/jobs.db", s.StoreOptions().SQLitePath)

	acct := s.MailAccount()
	assert.Equal(t, "smtp-mail.outlook.com", acct.SMTPServer)
	assert.Equal(t, outreach.DefaultSMTPPort, acct.SMTPPort)
	assert.True(t, acct.EnableSSL)

	creds := s.Credentials()
	assert.Equal(t, "hunter2", creds[types.PlatformLinkedIn].Password)
}

func TestLoad_JSONAndDefaults(t *testing.T) {
	path := writeFile(t, "appsettings.json", `{"sqlite_path": "/tmp/x.db"}`)

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, s.ActionDelay())
	assert.Equal(t, 50, s.MaxJobsPerSession)
	assert.Equal(t, "Turkey", s.SearchLocation)
	assert.Equal(t, "smtp.gmail.com", s.MailAccount().SMTPServer)
	assert.Empty(t, s.Credentials())
	assert.NotContains(t, s.DraftsDir, "~")
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "appsettings.yaml", "search_location: Ankara\nsqlite_path: /tmp/x.db\n")
	t.Setenv("JOBHUNTER_SEARCH_LOCATION", "Izmir")
	t.Setenv("JOBHUNTER_EMAIL_PASSWORD", "app-password")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Izmir", s.SearchLocation)
	assert.Equal(t, "app-password", s.Email.Password)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := func() Settings {
		return Settings{
			DelayBetweenActionsMS: 2000,
			MaxJobsPerSession:     50,
			SearchLocation:        "Turkey",
			SQLitePath:            "/tmp/x.db",
			DraftsDir:             "/tmp/drafts",
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{"valid", func(*Settings) {}, ""},
		{"negative delay", func(s *Settings) { s.DelayBetweenActionsMS = -1 }, "DelayBetweenActionsMS"},
		{"zero max jobs", func(s *Settings) { s.MaxJobsPerSession = 0 }, "MaxJobsPerSession"},
		{"bad email", func(s *Settings) { s.Email.Email = "not-an-email" }, "Email.Email"},
		{"bad provider", func(s *Settings) { s.Email.Provider = "yahoo" }, "Provider"},
		{"password without email", func(s *Settings) { s.LinkedInPassword = "x" }, "linkedin_email"},
		{"no store", func(s *Settings) { s.SQLitePath = "" }, "sqlite_path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".jobhunter", "x.db"), ExpandHome("~/.jobhunter/x.db"))
	assert.Equal(t, "/abs/path", ExpandHome("/abs/path"))
	assert.Equal(t, "~user/x", ExpandHome("~user/x"))
}

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile([]byte(`{
		"platforms": ["LinkedIn", "Kariyer.net"],
		"job_titles": ["Go Developer"],
		"email_mode": "autosend",
		"template_answers": {"years_of_experience": "5"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, []types.Platform{types.PlatformLinkedIn, types.PlatformKariyer}, p.Platforms)
	assert.Equal(t, types.EmailModeSend, p.EmailMode)
	assert.Equal(t, "5", p.TemplateAnswers["years_of_experience"])
}

func TestParseProfile_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no titles", `{"platforms": ["linkedin"], "job_titles": []}`},
		{"bad mode", `{"platforms": ["linkedin"], "job_titles": ["x"], "email_mode": "fax"}`},
		{"missing cv", `{"platforms": ["linkedin"], "job_titles": ["x"], "cv_file_path": "/does/not/exist.pdf"}`},
		{"malformed", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseProfile([]byte(tt.doc))
			assert.ErrorContains(t, err, "invalid profile")
		})
	}
}

func TestLoadProfile(t *testing.T) {
	cv := writeFile(t, "cv.pdf", "%PDF")
	path := writeFile(t, "profile.json", `{"platforms": ["linkedin"], "job_titles": ["SRE"], "cv_file_path": "`+filepath.ToSlash(cv)+`"}`)

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, types.EmailModeDraft, p.EmailMode)
	assert.Equal(t, filepath.ToSlash(cv), p.CVFilePath)
}

func TestDefaultQuestions(t *testing.T) {
	qs := DefaultQuestions()
	require.NotEmpty(t, qs)
	keys := map[string]bool{}
	for _, q := range qs {
		keys[q.Key] = true
		assert.NotEmpty(t, q.Keywords, q.Key)
	}
	for _, k := range []string{"years_of_experience", "experience_level", "currently_working", "notice_period", "tech_stack", "location_preference"} {
		assert.True(t, keys[k], k)
	}
}

func TestLoadQuestions(t *testing.T) {
	path := writeFile(t, "questions.json", `{"template_questions": [
		{"key": "phone", "question": "Phone?", "type": "text", "keywords": ["phone"]}
	]}`)
	qs, err := LoadQuestions(path)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	assert.Equal(t, types.QuestionText, qs[0].Type)

	qs, err = LoadQuestions("")
	require.NoError(t, err)
	assert.Equal(t, DefaultQuestions(), qs)
}

func TestParseQuestions_Invalid(t *testing.T) {
	_, err := ParseQuestions([]byte(`{"template_questions": [
		{"key": "phone", "question": "Phone?", "type": "text", "keywords": ["phone"]},
		{"key": "phone", "question": "Mobile?", "type": "text", "keywords": ["mobile"]}
	]}`))
	assert.ErrorContains(t, err, "duplicate key")

	_, err = ParseQuestions([]byte(`{"template_questions": [{"key": "a", "question": "q", "type": "select", "keywords": ["x"]}]}`))
	assert.ErrorContains(t, err, "invalid question catalogue")
}
