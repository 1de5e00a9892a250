package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	DefaultHost             = "0.0.0.0"
	DefaultPort             = 8080
	DefaultBufSize          = 100
	DefaultOrg              = "acme-corp"
	DefaultChannel          = "#general"
	DefaultReminderSchedule = "0 0 9 * * 1-5"
	DefaultReminderChannel  = "#onboarding"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Store     StoreConfig     `json:"store"`
	Workflows WorkflowsConfig `json:"workflows"`
	Slack     SlackConfig     `json:"slack"`
	GitHub    GitHubConfig    `json:"github"`
	GDrive    GDriveConfig    `json:"gdrive"`
	Notify    NotifyConfig    `json:"notify"`
	Reminders RemindersConfig `json:"reminders"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type StoreConfig struct {
	DataPath string `json:"dataPath"`
}

type WorkflowsConfig struct {
	Dir string `json:"dir,omitempty"` // overrides the embedded role templates
}

type SlackConfig struct {
	BotToken       string `json:"botToken,omitempty"`
	DefaultChannel string `json:"defaultChannel"`
}

type GitHubConfig struct {
	Token string `json:"token,omitempty"`
	Org   string `json:"org"`
}

type GDriveConfig struct {
	ServiceAccountKey string `json:"serviceAccountKey,omitempty"` // path to the JSON key file
}

type NotifyConfig struct {
	TelegramToken  string `json:"telegramToken,omitempty"`
	TelegramChatID int64  `json:"telegramChatId,omitempty"`
}

type RemindersConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule"`
	Channel  string `json:"channel"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Store: StoreConfig{
			DataPath: filepath.Join(ConfigDir(), "onboarding.json"),
		},
		Slack: SlackConfig{
			DefaultChannel: DefaultChannel,
		},
		GitHub: GitHubConfig{
			Org: DefaultOrg,
		},
		Reminders: RemindersConfig{
			Enabled:  true,
			Schedule: DefaultReminderSchedule,
			Channel:  DefaultReminderChannel,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".rampup")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if token := os.Getenv("SLACK_BOT_TOKEN"); token != "" {
		cfg.Slack.BotToken = token
	}
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		cfg.GitHub.Token = token
	}
	if org := os.Getenv("GITHUB_ORG"); org != "" {
		cfg.GitHub.Org = org
	}
	if key := os.Getenv("GDRIVE_SERVICE_ACCOUNT_KEY"); key != "" {
		cfg.GDrive.ServiceAccountKey = key
	}
	if path := os.Getenv("ONBOARD_DATA_PATH"); path != "" {
		cfg.Store.DataPath = path
	}
	if dir := os.Getenv("RAMPUP_WORKFLOWS_DIR"); dir != "" {
		cfg.Workflows.Dir = dir
	}
	if port := os.Getenv("PORT"); port != "" {
		if parsed, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = parsed
		}
	}
	if token := os.Getenv("RAMPUP_TELEGRAM_TOKEN"); token != "" {
		cfg.Notify.TelegramToken = token
	}
	if chatID := os.Getenv("RAMPUP_TELEGRAM_CHAT_ID"); chatID != "" {
		if parsed, err := strconv.ParseInt(chatID, 10, 64); err == nil {
			cfg.Notify.TelegramChatID = parsed
		}
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Store.DataPath == "" {
		cfg.Store.DataPath = DefaultConfig().Store.DataPath
	}
	if cfg.Slack.DefaultChannel == "" {
		cfg.Slack.DefaultChannel = DefaultChannel
	}
	if cfg.GitHub.Org == "" {
		cfg.GitHub.Org = DefaultOrg
	}
	if cfg.Reminders.Schedule == "" {
		cfg.Reminders.Schedule = DefaultReminderSchedule
	}
	if cfg.Reminders.Channel == "" {
		cfg.Reminders.Channel = DefaultReminderChannel
	}

	return cfg, nil
}

func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(ConfigPath(), data, 0644)
}
