package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobhunter/internal/config"
	"github.com/jonathan/jobhunter/internal/console"
)

var huntCommand = &cobra.Command{
	Use:   "hunt",
	Short: "Discover postings and apply to the new ones",
	Long: `Logs in where required, searches every platform for every job title in the profile,
skips postings already applied to, and dispatches the rest by email or inline apply.

Without --profile the profile is asked for interactively.`,
	RunE: runHuntCmd,
}

var (
	huntProfilePath   string
	huntQuestionsPath string
)

func init() {
	huntCommand.Flags().StringVarP(&huntProfilePath, "profile", "p", "", "Path to profile JSON (prompted when omitted)")
	huntCommand.Flags().StringVarP(&huntQuestionsPath, "questions", "q", "", "Path to question catalogue JSON (built-in catalogue when omitted)")

	rootCmd.AddCommand(huntCommand)
}

func runHuntCmd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	questionsPath := huntQuestionsPath
	if questionsPath == "" {
		questionsPath = settings.QuestionsPath
	}
	catalogue, err := config.LoadQuestions(questionsPath)
	if err != nil {
		return err
	}

	term := console.New(cmd.InOrStdin(), cmd.OutOrStdout())
	profile, err := loadOrPromptProfile(cmd, term, catalogue)
	if err != nil {
		return err
	}

	adapter, closeStore, err := ledger(ctx, settings, log)
	if err != nil {
		return err
	}
	defer closeStore()

	h := &hunter{
		settings:  settings,
		catalogue: catalogue,
		ledger:    adapter,
		console:   term,
		out:       cmd.OutOrStdout(),
		log:       log,
	}
	report, err := h.run(ctx, profile)
	if err != nil {
		return fmt.Errorf("hunt aborted: %w", err)
	}
	log.Debugw("Run complete", "run_id", report.RunID)
	return nil
}
