package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// SMTPConfig is the outgoing mail server used for email notifications
type SMTPConfig struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
}

// Config holds all application-level configuration
type Config struct {
	// Storage
	DatabaseURL  string `json:"database_url"` // empty keeps trips in memory
	SettingsPath string `json:"settings_path"`
	CheckLogPath string `json:"check_log_path"` // CSV log of every check attempt, empty disables it

	// Browser
	EntryURL      string `json:"entry_url"`
	DebuggerURL   string `json:"debugger_url"` // attach to a running browser instead of launching one
	ShowBrowser   bool   `json:"show_browser"` // run Chrome with a visible window
	LoadTimeoutMs int    `json:"load_timeout_ms"`

	// Scraper
	MaxPages    int `json:"max_pages"`
	TripDelayMs int `json:"trip_delay_ms"` // pause between trips in a sweep
	MaxRetries  int `json:"max_retries"`   // database connection attempts

	// Service
	HTTPAddr string     `json:"http_addr"`
	Debug    bool       `json:"debug"`
	SMTP     SMTPConfig `json:"smtp"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		SettingsPath:  "settings.json5",
		CheckLogPath:  "output/checks.csv",
		EntryURL:      "https://www.amtrak.com/home.html",
		LoadTimeoutMs: 20000,
		MaxPages:      5,
		TripDelayMs:   2000,
		MaxRetries:    3,
		HTTPAddr:      "127.0.0.1:8089",
		SMTP:          SMTPConfig{Port: 587},
	}
}

// LoadTimeout returns the surface load wait as a duration
func (c *Config) LoadTimeout() time.Duration {
	if c.LoadTimeoutMs <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.LoadTimeoutMs) * time.Millisecond
}

// Load builds the configuration from defaults, then the config file (and its
// .local sibling) when it exists, then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := readLayered(path, cfg); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.SettingsPath = getEnv("SETTINGS_PATH", cfg.SettingsPath)
	cfg.CheckLogPath = getEnv("CHECK_LOG_PATH", cfg.CheckLogPath)
	cfg.EntryURL = getEnv("ENTRY_URL", cfg.EntryURL)
	cfg.DebuggerURL = getEnv("CHROME_DEBUGGER_URL", cfg.DebuggerURL)
	cfg.ShowBrowser = getEnvBool("SHOW_BROWSER", cfg.ShowBrowser)
	cfg.LoadTimeoutMs = getEnvInt("LOAD_TIMEOUT_MS", cfg.LoadTimeoutMs)
	cfg.MaxPages = getEnvInt("MAX_PAGES", cfg.MaxPages)
	cfg.TripDelayMs = getEnvInt("TRIP_DELAY_MS", cfg.TripDelayMs)
	cfg.MaxRetries = getEnvInt("MAX_RETRIES", cfg.MaxRetries)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.Debug = getEnvBool("DEBUG", cfg.Debug)
	cfg.SMTP.Server = getEnv("SMTP_SERVER", cfg.SMTP.Server)
	cfg.SMTP.Port = getEnvInt("SMTP_PORT", cfg.SMTP.Port)
	cfg.SMTP.EmailAddress = getEnv("SMTP_EMAIL", cfg.SMTP.EmailAddress)
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", cfg.SMTP.Password)
}

// readLayered merges <name>.<ext> and <name>.local.<ext> over cfg, the local
// file winning. Returns os.ErrNotExist when neither file exists.
func readLayered(path string, cfg *Config) error {
	found := false

	base, err := readFile(path)
	if err != nil {
		return err
	}
	if base != nil {
		if err := mergo.Merge(cfg, base, mergo.WithOverride); err != nil {
			return err
		}
		found = true
	}

	ext := filepath.Ext(path)
	local, err := readFile(strings.TrimSuffix(path, ext) + ".local" + ext)
	if err != nil {
		return err
	}
	if local != nil {
		if err := mergo.Merge(cfg, local, mergo.WithOverride); err != nil {
			return err
		}
		found = true
	}

	if !found {
		return os.ErrNotExist
	}
	return nil
}

func readFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out Config
	if err := json5.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &out, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
