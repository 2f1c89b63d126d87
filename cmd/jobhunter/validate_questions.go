package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/jobhunter/internal/config"
)

var validateQuestionsCommand = &cobra.Command{
	Use:   "validate-questions",
	Short: "Check a question catalogue against its schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		catalogue, err := config.LoadQuestions(validateQuestionsPath)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Validation passed (%d questions)\n", len(catalogue))
		return nil
	},
}

var validateQuestionsPath string

func init() {
	validateQuestionsCommand.Flags().StringVarP(&validateQuestionsPath, "questions", "q", "", "Path to question catalogue JSON (required)")
	_ = validateQuestionsCommand.MarkFlagRequired("questions")

	rootCmd.AddCommand(validateQuestionsCommand)
}
