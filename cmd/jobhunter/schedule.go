package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobhunter/internal/config"
	"github.com/jonathan/jobhunter/internal/console"
	"github.com/jonathan/jobhunter/internal/scheduler"
)

var scheduleCommand = &cobra.Command{
	Use:   "schedule",
	Short: "Run hunts on a recurring schedule",
	Long: `Runs an unattended hunt for the given profile on a schedule until interrupted.
A run that is still going when the next one is due causes that tick to be skipped.`,
	RunE: runScheduleCmd,
}

var (
	scheduleEvery     time.Duration
	scheduleCron      string
	scheduleNow       bool
	scheduleProfile   string
	scheduleQuestions string
)

func init() {
	scheduleCommand.Flags().DurationVar(&scheduleEvery, "every", 24*time.Hour, "Interval between runs")
	scheduleCommand.Flags().StringVar(&scheduleCron, "cron", "", "Cron expression, overrides --every")
	scheduleCommand.Flags().BoolVar(&scheduleNow, "now", false, "Run once immediately before waiting")
	scheduleCommand.Flags().StringVarP(&scheduleProfile, "profile", "p", "", "Path to profile JSON (required)")
	scheduleCommand.Flags().StringVarP(&scheduleQuestions, "questions", "q", "", "Path to question catalogue JSON")
	_ = scheduleCommand.MarkFlagRequired("profile")

	rootCmd.AddCommand(scheduleCommand)
}

func runScheduleCmd(cmd *cobra.Command, _ []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	questionsPath := scheduleQuestions
	if questionsPath == "" {
		questionsPath = settings.QuestionsPath
	}
	catalogue, err := config.LoadQuestions(questionsPath)
	if err != nil {
		return err
	}
	profile, err := config.LoadProfile(scheduleProfile)
	if err != nil {
		return err
	}

	spec := scheduleCron
	if spec == "" {
		if scheduleEvery <= 0 {
			return errors.New("--every must be positive")
		}
		spec = scheduler.Every(scheduleEvery)
	}

	job := func(ctx context.Context) error {
		adapter, closeStore, err := ledger(ctx, settings, log)
		if err != nil {
			return err
		}
		defer closeStore()
		h := &hunter{
			settings:  settings,
			catalogue: catalogue,
			ledger:    adapter,
			console:   console.New(cmd.InOrStdin(), cmd.OutOrStdout()),
			out:       cmd.OutOrStdout(),
			log:       log,
		}
		_, err = h.run(ctx, profile)
		return err
	}

	s, err := scheduler.New(spec, job, log)
	if err != nil {
		return err
	}
	return s.Run(cmd.Context(), scheduleNow)
}
