package main

import (
	"github.com/spf13/cobra"

	"github.com/jonathan/jobhunter/internal/config"
	"github.com/jonathan/jobhunter/internal/console"
	"github.com/jonathan/jobhunter/internal/types"
)

func loadOrPromptProfile(cmd *cobra.Command, term *console.Console, catalogue []types.TemplateQuestion) (*types.UserProfile, error) {
	if huntProfilePath != "" {
		return config.LoadProfile(huntProfilePath)
	}
	profile, err := term.PromptProfile(cmd.Context(), catalogue)
	if err != nil {
		return nil, err
	}
	if err := config.ValidateProfile(profile); err != nil {
		return nil, err
	}
	return profile, nil
}
