// Package config provides application configuration management with support for environment variables, command-line flags, and .env files.
package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the application configuration.
type Config struct {
	App    AppConfig
	Logger LoggerConfig
	Sheets SheetsConfig
	Access AccessConfig
	Cache  CacheConfig
	Server ServerConfig
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level string
}

// SheetsConfig holds the spreadsheet endpoints and submission tuning.
type SheetsConfig struct {
	// InventoryURL is the published CSV export of the inventory sheet.
	InventoryURL string `validate:"required,url"`
	// ResponsesURL is the published CSV export of the response log.
	ResponsesURL string `validate:"omitempty,url"`
	// RolesURL is the optional login sheet mapping email to role.
	RolesURL string `validate:"omitempty,url"`
	// WriteURL is the form endpoint that appends response rows. Empty
	// means the deployment is read-only.
	WriteURL string `validate:"omitempty,url"`

	// AffirmativeChoice is the choice value counted as a positive vote.
	AffirmativeChoice string
	// VoteChoice is the choice value the vote endpoint submits.
	VoteChoice string
	// SettleDelay is how long a submission waits after dispatch so a
	// follow-up reload can observe the new row.
	SettleDelay time.Duration
}

// AccessConfig holds identity and authorization configuration.
type AccessConfig struct {
	// PublicMode forces the whole server read-only: no identity, no
	// writes, no dashboard.
	PublicMode bool
	// AdminEmails grants dashboard access in addition to the roles sheet.
	AdminEmails []string `validate:"dive,email"`
}

// CacheConfig holds snapshot cache configuration.
type CacheConfig struct {
	// Path is the SQLite file for the last-good CSV cache. Empty disables
	// caching.
	Path string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// PageSize is the default items page size.
	PageSize int
}

// LoadConfig loads configuration from multiple sources with precedence:
// 1. Command-line flags (highest priority).
// 2. Environment variables.
// 3. .env file.
// 4. Default values (lowest priority).
func LoadConfig() (*Config, error) {
	env := flag.String("env", "", "Environment (development, staging, production)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error)")

	inventoryURL := flag.String("inventory-url", "", "Published CSV URL of the inventory sheet")
	responsesURL := flag.String("responses-url", "", "Published CSV URL of the response log sheet")
	rolesURL := flag.String("roles-url", "", "Published CSV URL of the roles sheet")
	writeURL := flag.String("write-url", "", "Form endpoint that appends response rows")
	affirmativeChoice := flag.String("affirmative-choice", "", "Choice value counted as a positive vote (default: WANT)")
	voteChoice := flag.String("vote-choice", "", "Choice value submitted by the vote endpoint (default: thumbs_up)")
	settleDelay := flag.String("settle-delay", "", "Wait after a dispatched submission (default: 650ms)")

	publicMode := flag.String("public", "", "Force read-only public mode (default: false)")
	adminEmails := flag.String("admin-emails", "", "Comma-separated emails with dashboard access")

	cachePath := flag.String("cache-path", "", "SQLite file for the snapshot cache (empty: disabled)")

	serverPort := flag.String("port", "", "Server port (default: 8080)")
	readTimeout := flag.String("read-timeout", "", "HTTP read timeout (default: 15s)")
	writeTimeout := flag.String("write-timeout", "", "HTTP write timeout (default: 15s)")
	idleTimeout := flag.String("idle-timeout", "", "HTTP idle timeout (default: 60s)")
	pageSize := flag.String("page-size", "", "Default items page size (default: 40)")

	envFile := flag.String("env-file", ".env", "Path to .env file")

	flag.Parse()

	// Load .env file if it exists (silently ignore if not found).
	_ = loadEnvFile(*envFile)

	cfg := &Config{
		App: AppConfig{
			Environment: getConfigValue(*env, "ENV", "development"),
		},
		Logger: LoggerConfig{
			Level: getConfigValue(*logLevel, "LOG_LEVEL", "info"),
		},
		Sheets: SheetsConfig{
			InventoryURL:      getConfigValue(*inventoryURL, "INVENTORY_CSV_URL", ""),
			ResponsesURL:      getConfigValue(*responsesURL, "RESPONSES_CSV_URL", ""),
			RolesURL:          getConfigValue(*rolesURL, "ROLES_CSV_URL", ""),
			WriteURL:          getConfigValue(*writeURL, "WRITE_URL", ""),
			AffirmativeChoice: getConfigValue(*affirmativeChoice, "AFFIRMATIVE_CHOICE", "WANT"),
			VoteChoice:        getConfigValue(*voteChoice, "VOTE_CHOICE", "thumbs_up"),
		},
		Access: AccessConfig{
			PublicMode:  getBoolConfigValue(*publicMode, "PUBLIC_MODE", false),
			AdminEmails: splitEmails(getConfigValue(*adminEmails, "ADMIN_EMAILS", "")),
		},
		Cache: CacheConfig{
			Path: getConfigValue(*cachePath, "CACHE_PATH", ""),
		},
		Server: ServerConfig{
			Port:     getConfigValue(*serverPort, "SERVER_PORT", "8080"),
			PageSize: getIntConfigValue(*pageSize, "PAGE_SIZE", 40),
		},
	}

	// Parse durations.
	settleDelayStr := getConfigValue(*settleDelay, "SETTLE_DELAY", "650ms")
	settleDelayDuration, err := time.ParseDuration(settleDelayStr)
	if err != nil {
		return nil, fmt.Errorf("invalid settle delay %q: %w", settleDelayStr, err)
	}
	cfg.Sheets.SettleDelay = settleDelayDuration

	readTimeoutStr := getConfigValue(*readTimeout, "SERVER_READ_TIMEOUT", "15s")
	readTimeoutDuration, err := time.ParseDuration(readTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout %q: %w", readTimeoutStr, err)
	}
	cfg.Server.ReadTimeout = readTimeoutDuration

	writeTimeoutStr := getConfigValue(*writeTimeout, "SERVER_WRITE_TIMEOUT", "15s")
	writeTimeoutDuration, err := time.ParseDuration(writeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout %q: %w", writeTimeoutStr, err)
	}
	cfg.Server.WriteTimeout = writeTimeoutDuration

	idleTimeoutStr := getConfigValue(*idleTimeout, "SERVER_IDLE_TIMEOUT", "60s")
	idleTimeoutDuration, err := time.ParseDuration(idleTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid idle timeout %q: %w", idleTimeoutStr, err)
	}
	cfg.Server.IdleTimeout = idleTimeoutDuration

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Sheets.SettleDelay < 0 {
		return errors.New("settle delay cannot be negative")
	}
	if c.Server.PageSize < 1 {
		return errors.New("page size must be at least 1")
	}

	validate := validator.New()
	if err := validate.Struct(c.Sheets); err != nil {
		return fmt.Errorf("sheets: %w", err)
	}
	if err := validate.Struct(c.Access); err != nil {
		return fmt.Errorf("access: %w", err)
	}

	return nil
}

// splitEmails parses a comma-separated email list, lower-casing entries.
func splitEmails(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	emails := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			emails = append(emails, p)
		}
	}
	return emails
}

// getConfigValue returns the first non-empty value from flag, env var, or default.
func getConfigValue(flagValue, envKey, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}

	if envValue := os.Getenv(envKey); envValue != "" {
		return envValue
	}

	return defaultValue
}

// getBoolConfigValue returns a bool from flag, env var, or default.
// Accepts: "true", "1", "yes" (case-insensitive) as true; anything else is false.
func getBoolConfigValue(flagValue, envKey string, defaultValue bool) bool {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	strValue = strings.ToLower(strValue)
	return strValue == "true" || strValue == "1" || strValue == "yes"
}

// getIntConfigValue returns an int from flag, env var, or default.
func getIntConfigValue(flagValue, envKey string, defaultValue int) int {
	strValue := getConfigValue(flagValue, envKey, "")
	if strValue == "" {
		return defaultValue
	}
	var result int
	if _, err := fmt.Sscanf(strValue, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}

// loadEnvFile loads environment variables from a .env file.
// Format: KEY=value (one per line, # for comments).
func loadEnvFile(path string) error {
	file, err := os.Open(path) //#nosec G304 -- Config file path from user input is expected
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Remove quotes if present.
		value = strings.Trim(value, `"'`)

		// Only set if not already set (env vars take precedence over .env file).
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("failed to set env var %s: %w", key, err)
			}
		}
	}

	return scanner.Err()
}
