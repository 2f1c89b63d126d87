// Package config loads application settings, the user profile and the
// question catalogue.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/jonathan/jobhunter/internal/db"
	"github.com/jonathan/jobhunter/internal/discovery"
	"github.com/jonathan/jobhunter/internal/outreach"
	"github.com/jonathan/jobhunter/internal/types"
)

// EnvPrefix prefixes environment overrides, e.g. JOBHUNTER_EMAIL_PASSWORD.
const EnvPrefix = "JOBHUNTER"

// Settings are the application settings.
type Settings struct {
	LinkedInEmail    string `mapstructure:"linkedin_email" validate:"omitempty,email"`
	LinkedInPassword string `mapstructure:"linkedin_password"`

	DelayBetweenActionsMS int    `mapstructure:"delay_between_actions_ms" validate:"gte=0,lte=60000"`
	MaxJobsPerSession     int    `mapstructure:"max_jobs_per_session" validate:"gte=1,lte=500"`
	SearchLocation        string `mapstructure:"search_location" validate:"required"`

	DatabaseURL string `mapstructure:"database_url" validate:"omitempty,url"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	RedisURL    string `mapstructure:"redis_url" validate:"omitempty,url"`

	DraftsDir     string `mapstructure:"drafts_dir" validate:"required"`
	QuestionsPath string `mapstructure:"questions_path"`

	Email EmailSettings `mapstructure:"email"`
}

// EmailSettings configure outreach delivery.
type EmailSettings struct {
	SMTPServer string `mapstructure:"smtp_server"`
	SMTPPort   int    `mapstructure:"smtp_port" validate:"gte=0,lte=65535"`
	Email      string `mapstructure:"email" validate:"omitempty,email"`
	Password   string `mapstructure:"password"`
	SenderName string `mapstructure:"sender_name"`
	EnableSSL  bool   `mapstructure:"enable_ssl"`
	Provider   string `mapstructure:"provider" validate:"omitempty,oneof=gmail outlook other"`
}

// SetDefaults registers every key with its default, which also makes each
// key overridable from the environment.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("linkedin_email", "")
	v.SetDefault("linkedin_password", "")
	v.SetDefault("delay_between_actions_ms", 2000)
	v.SetDefault("max_jobs_per_session", discovery.DefaultMaxPerSession)
	v.SetDefault("search_location", discovery.DefaultLocation)
	v.SetDefault("database_url", "")
	v.SetDefault("sqlite_path", filepath.Join("~", ".jobhunter", "jobhunter.db"))
	v.SetDefault("redis_url", "")
	v.SetDefault("drafts_dir", filepath.Join("~", ".jobhunter", "drafts"))
	v.SetDefault("questions_path", "")

	v.SetDefault("email.smtp_server", "")
	v.SetDefault("email.smtp_port", outreach.DefaultSMTPPort)
	v.SetDefault("email.email", "")
	v.SetDefault("email.password", "")
	v.SetDefault("email.sender_name", "")
	v.SetDefault("email.enable_ssl", true)
	v.SetDefault("email.provider", string(outreach.ProviderGmail))
}

// Load reads settings from path, or from appsettings.{yaml,json,toml} in
// the working directory or ~/.jobhunter when path is empty. A missing
// default file is not an error. Environment variables override files.
func Load(path string) (*Settings, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("appsettings")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".jobhunter"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	s.SQLitePath = ExpandHome(s.SQLitePath)
	s.DraftsDir = ExpandHome(s.DraftsDir)
	s.QuestionsPath = ExpandHome(s.QuestionsPath)

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

var validate = validator.New()

// Validate checks field constraints and cross-field rules.
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("config error: %s failed %q validation", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}
	if s.LinkedInPassword != "" && s.LinkedInEmail == "" {
		return errors.New("config error: 'linkedin_password' requires 'linkedin_email'")
	}
	if s.DatabaseURL == "" && s.SQLitePath == "" {
		return errors.New("config error: one of 'database_url' or 'sqlite_path' is required")
	}
	return nil
}

// ActionDelay is the configured pause after page actions.
func (s *Settings) ActionDelay() time.Duration {
	return time.Duration(s.DelayBetweenActionsMS) * time.Millisecond
}

// StoreOptions selects the persistent store backend.
func (s *Settings) StoreOptions() db.Options {
	return db.Options{DatabaseURL: s.DatabaseURL, SQLitePath: s.SQLitePath}
}

// Credentials returns login credentials per platform.
func (s *Settings) Credentials() map[types.Platform]discovery.Credentials {
	creds := map[types.Platform]discovery.Credentials{}
	if s.LinkedInEmail != "" {
		creds[types.PlatformLinkedIn] = discovery.Credentials{Email: s.LinkedInEmail, Password: s.LinkedInPassword}
	}
	return creds
}

// MailAccount returns the outreach account with provider defaults applied.
func (s *Settings) MailAccount() outreach.Account {
	e := s.Email
	return outreach.Account{
		SMTPServer: e.SMTPServer,
		SMTPPort:   e.SMTPPort,
		Email:      e.Email,
		Password:   e.Password,
		SenderName: e.SenderName,
		EnableSSL:  e.EnableSSL,
		Provider:   outreach.Provider(e.Provider),
	}.WithProviderDefaults()
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
