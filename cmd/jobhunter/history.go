package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/jobhunter/internal/config"
	"github.com/jonathan/jobhunter/internal/console"
)

var historyCommand = &cobra.Command{
	Use:   "history",
	Short: "List postings applied to recently",
	RunE:  runHistoryCmd,
}

var historyDays int

func init() {
	historyCommand.Flags().IntVarP(&historyDays, "days", "d", 7, "Look-back window in days")

	rootCmd.AddCommand(historyCommand)
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	settings, err := config.Load(configPath)
	if err != nil {
		return err
	}
	adapter, closeStore, err := ledger(cmd.Context(), settings, log)
	if err != nil {
		return err
	}
	defer closeStore()

	postings, err := adapter.Recent(cmd.Context(), historyDays)
	if err != nil {
		return err
	}
	return console.PrintHistory(cmd.OutOrStdout(), postings, historyDays)
}
