package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"homepulse/internal/models"
)

// Config represents configuration data for the monitoring service.
type Config struct {
	CheckIntervalSec int             `yaml:"check_interval_sec"`
	DailySummaryHour int             `yaml:"daily_summary_hour"`
	SendSummaryNow   bool            `yaml:"send_summary_now"`
	DatabasePath     string          `yaml:"database_path"`
	Listen           string          `yaml:"listen"`
	DevicesPath      string          `yaml:"devices_path"`
	RetentionDays    int             `yaml:"retention_days"`
	ProbeWorkers     int             `yaml:"probe_workers"`
	Telegram         Telegram        `yaml:"telegram"`
	Email            Email           `yaml:"email"`
	Devices          []models.Device `yaml:"devices"`
}

// Telegram holds Bot API credentials.
type Telegram struct {
	BotToken string `yaml:"bot_token"`
	ChatID   string `yaml:"chat_id"`
}

// Email holds Brevo credentials and addresses.
type Email struct {
	APIKey string `yaml:"api_key"`
	From   string `yaml:"from"`
	To     string `yaml:"to"`
}

// DefaultDevicesPath is read when neither a devices path nor inline devices
// are configured.
const DefaultDevicesPath = "devices.json"

// DefaultConfig returns sensible defaults in case no configuration file is provided.
func DefaultConfig() Config {
	return Config{
		CheckIntervalSec: 60,
		DailySummaryHour: 9,
		DatabasePath:     filepath.Join("data", "homepulse.sqlite"),
		Listen:           ":8787",
		RetentionDays:    7,
		ProbeWorkers:     1,
	}
}

// Load reads configuration from a yaml file and applies environment
// overrides. Missing files fall back to defaults.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		content, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(content, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides file values with the recognised environment variables.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	var problems []string
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	num := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			problems = append(problems, fmt.Sprintf("%s must be an integer, got %q", key, v))
			return
		}
		*dst = n
	}

	num("CHECK_INTERVAL_SEC", &cfg.CheckIntervalSec)
	num("DAILY_SUMMARY_HOUR", &cfg.DailySummaryHour)
	if v, ok := lookup("SEND_SUMMARY_NOW"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			problems = append(problems, fmt.Sprintf("SEND_SUMMARY_NOW must be a boolean, got %q", v))
		} else {
			cfg.SendSummaryNow = b
		}
	}
	str("TELEGRAM_BOT_TOKEN", &cfg.Telegram.BotToken)
	str("TELEGRAM_CHAT_ID", &cfg.Telegram.ChatID)
	str("BREVO_API_KEY", &cfg.Email.APIKey)
	str("BREVO_FROM", &cfg.Email.From)
	str("BREVO_TO", &cfg.Email.To)
	str("DB_PATH", &cfg.DatabasePath)
	str("DEVICES_PATH", &cfg.DevicesPath)
	if v, ok := lookup("PORT"); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || port < 1 || port > 65535 {
			problems = append(problems, fmt.Sprintf("PORT must be between 1 and 65535, got %q", v))
		} else {
			cfg.Listen = ":" + strconv.Itoa(port)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid environment:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// Validate checks the configuration and reports every problem at once.
func Validate(cfg Config) error {
	problems := make([]string, 0)

	if cfg.CheckIntervalSec <= 0 {
		problems = append(problems, "check_interval_sec must be greater than 0")
	}
	if cfg.DailySummaryHour < 0 || cfg.DailySummaryHour > 23 {
		problems = append(problems, "daily_summary_hour must be between 0 and 23")
	}
	if cfg.RetentionDays < 1 {
		problems = append(problems, "retention_days must be at least 1")
	}
	if cfg.ProbeWorkers < 1 || cfg.ProbeWorkers > 32 {
		problems = append(problems, "probe_workers must be between 1 and 32")
	}
	if strings.TrimSpace(cfg.DatabasePath) == "" {
		problems = append(problems, "database_path cannot be empty")
	}
	if strings.TrimSpace(cfg.Listen) == "" {
		problems = append(problems, "listen cannot be empty")
	}

	if (cfg.Telegram.BotToken == "") != (cfg.Telegram.ChatID == "") {
		problems = append(problems, "telegram.bot_token and telegram.chat_id must be set together")
	}
	email := cfg.Email
	if email.APIKey != "" || email.From != "" || email.To != "" {
		if email.APIKey == "" {
			problems = append(problems, "email.api_key cannot be empty when e-mail is configured")
		}
		if !strings.Contains(email.From, "@") {
			problems = append(problems, "email.from must be a valid email address")
		}
		if !strings.Contains(email.To, "@") {
			problems = append(problems, "email.to must be a valid email address")
		}
	}

	problems = append(problems, deviceProblems(cfg.Devices)...)

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

// deviceProblems checks identity fields only. Unknown device types are
// accepted here and reported by the prober as failed checks.
func deviceProblems(devices []models.Device) []string {
	var problems []string
	seen := make(map[string]bool, len(devices))
	for i, d := range devices {
		if strings.TrimSpace(d.ID) == "" {
			problems = append(problems, fmt.Sprintf("device[%d].id cannot be empty", i))
			continue
		}
		if seen[d.ID] {
			problems = append(problems, fmt.Sprintf("duplicate device id: %s", d.ID))
		}
		seen[d.ID] = true
		if d.TimeoutMs < 0 {
			problems = append(problems, fmt.Sprintf("device[%d].timeoutMs cannot be negative", i))
		}
	}
	return problems
}
