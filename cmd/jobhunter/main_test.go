package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/jobhunter/internal/db"
	"github.com/jonathan/jobhunter/internal/types"
)

// execute runs the root command in-process. Flag variables are package
// level, so every test passes the flags it depends on explicitly.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(bytes.NewReader(nil))
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"hunt", "history", "schedule", "validate-questions"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestValidateQuestions_Valid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "questions.json", `{
		"template_questions": [
			{"key": "years_of_experience", "question": "Years of experience?", "type": "text", "keywords": ["years", "experience"]},
			{"key": "relocation", "question": "Willing to relocate?", "type": "boolean", "keywords": ["relocate"], "options": ["Yes", "No"]}
		]
	}`)

	out, err := execute(t, "validate-questions", "--questions", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation passed (2 questions)")
}

func TestValidateQuestions_Invalid(t *testing.T) {
	path := writeFile(t, t.TempDir(), "questions.json", `{
		"template_questions": [
			{"key": "relocation", "question": "Willing to relocate?", "type": "boolean", "keywords": ["relocate"]}
		]
	}`)

	_, err := execute(t, "validate-questions", "--questions", path)
	require.Error(t, err)
}

func TestValidateQuestions_MissingFile(t *testing.T) {
	_, err := execute(t, "validate-questions", "--questions", filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
}

func TestHistory_ListsRecentApplications(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "jobs.db")

	store, err := db.OpenSQLite(dbPath)
	require.NoError(t, err)
	ctx := context.Background()
	p := &types.Posting{
		Platform:   types.PlatformLinkedIn,
		PlatformID: "4012345678",
		Title:      "Backend Engineer",
		Company:    "Acme",
		URL:        "https://www.linkedin.com/jobs/view/4012345678/",
		ScrapedAt:  time.Now().UTC(),
	}
	inserted, err := store.InsertIfAbsent(ctx, p)
	require.NoError(t, err)
	require.True(t, inserted)
	updated, err := store.UpdateApplication(ctx, p.Key(), time.Now().UTC().Add(-time.Hour), types.MethodEmail)
	require.NoError(t, err)
	require.True(t, updated)
	require.NoError(t, store.Close())

	cfg := writeFile(t, dir, "appsettings.yaml", "sqlite_path: "+dbPath+"\ndrafts_dir: "+filepath.Join(dir, "drafts")+"\n")

	out, err := execute(t, "history", "--config", cfg, "--days", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "Backend Engineer")
	assert.Contains(t, out, "1 applications in the last 7 days")
}

func TestHistory_Empty(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "appsettings.yaml", "sqlite_path: "+filepath.Join(dir, "empty.db")+"\ndrafts_dir: "+filepath.Join(dir, "drafts")+"\n")

	out, err := execute(t, "history", "--config", cfg, "--days", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "No applications in the last 3 days.")
}

func TestSchedule_RejectsBadCron(t *testing.T) {
	dir := t.TempDir()
	cv := writeFile(t, dir, "cv.pdf", "%PDF")
	profile := writeFile(t, dir, "profile.json", `{"platforms": ["linkedin"], "job_titles": ["Go Developer"], "cv_file_path": "`+cv+`"}`)
	cfg := writeFile(t, dir, "appsettings.yaml", "sqlite_path: "+filepath.Join(dir, "s.db")+"\ndrafts_dir: "+filepath.Join(dir, "drafts")+"\n")

	_, err := execute(t, "schedule", "--config", cfg, "--profile", profile, "--cron", "not a cron")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid schedule")
}
