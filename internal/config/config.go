package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/haninge-digit/zeebe-report/internal/domain"
)

// Config represents application configuration
type Config struct {
	Search   SearchConfig   `json:"search"`
	Template TemplateConfig `json:"template"`
	Mail     MailConfig     `json:"mail"`
	Report   ReportConfig   `json:"report"`
	Logging  LoggingConfig  `json:"logging"`
	Debug    bool           `json:"debug"`
}

// SearchConfig represents search backend configuration
type SearchConfig struct {
	URL          string        `json:"url"`
	IndexPrefix  string        `json:"index_prefix"`
	IndexVersion string        `json:"index_version"`
	MaxHits      int           `json:"max_hits"`
	Timeout      time.Duration `json:"timeout"`
	WorkerMarker string        `json:"worker_marker"`
}

// TemplateConfig represents report template configuration.
// Dir takes precedence over BaseURL when set.
type TemplateConfig struct {
	BaseURL string        `json:"base_url"`
	Dir     string        `json:"dir"`
	Name    string        `json:"name"`
	Timeout time.Duration `json:"timeout"`
}

// MailConfig represents mail delivery configuration
type MailConfig struct {
	From            string        `json:"from"`
	Recipient       string        `json:"recipient"`
	SenderPrincipal string        `json:"sender_principal"`
	SupportAddress  string        `json:"support_address"`
	GraphURL        string        `json:"graph_url"`
	AuthorityURL    string        `json:"authority_url"`
	TenantID        string        `json:"tenant_id"`
	ClientID        string        `json:"client_id"`
	ClientSecret    string        `json:"-"`
	Timeout         time.Duration `json:"timeout"`
}

// ReportConfig represents which periods are dispatched and how they are titled
type ReportConfig struct {
	Title       string `json:"title"`
	SendDaily   bool   `json:"send_daily"`
	SendWeekly  bool   `json:"send_weekly"`
	SendMonthly bool   `json:"send_monthly"`

	// WeekNumbering is "iso" or "monday" (weeks counted from the first
	// Monday of the year, as strftime %W)
	WeekNumbering string `json:"week_numbering"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"` // json, text
}

// Load loads configuration from environment variables and defaults.
// Values that are set but cannot be parsed are reported as CONFIG_4001.
// Files given in envFiles are loaded first; with none, ./.env is tried.
// A missing file is not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, domain.ErrConfiguration(fmt.Sprintf("env file: %v", err))
		}
	} else {
		_ = godotenv.Load()
	}

	env := &envReader{}
	debug := env.getEnvBool("DEBUG", false)
	level := getEnv("LOG_LEVEL", "info")
	if debug {
		level = "debug"
	}

	config := &Config{
		Search: SearchConfig{
			URL:          normalizeURL(getEnv("ES_URL", "elasticsearch-master.camunda-zeebe:9200")),
			IndexPrefix:  getEnv("ES_INDEX_PREFIX", "zeebe-record_process-instance-creation"),
			IndexVersion: getEnv("ES_INDEX_VERSION", "8.1.2"),
			MaxHits:      env.getEnvInt("ES_MAX_HITS", 1000),
			Timeout:      env.getEnvDuration("ES_TIMEOUT", 30*time.Second),
			WorkerMarker: getEnv("WORKER_MARKER", domain.DefaultWorkerMarker),
		},
		Template: TemplateConfig{
			BaseURL: getEnv("TEMPLATE_URL", "https://raw.githubusercontent.com/haninge-digit/digit-public-jinja-templates/main"),
			Dir:     getEnv("TEMPLATE_DIR", ""),
			Name:    getEnv("TEMPLATE_NAME", "report.jinja2.html"),
			Timeout: env.getEnvDuration("TEMPLATE_TIMEOUT", 15*time.Second),
		},
		Mail: MailConfig{
			From:            getEnv("MAIL_FROM", "NoReply@haninge.se"),
			Recipient:       getEnv("REPORT_RECIPIENT", "digit@haninge.se"),
			SenderPrincipal: getEnv("MAIL_SENDER_PRINCIPAL", "noreply@haninge.se"),
			SupportAddress:  getEnv("MAIL_SUPPORT_ADDRESS", "digit@haninge.se"),
			GraphURL:        strings.TrimRight(getEnv("GRAPH_URL", "https://graph.microsoft.com/v1.0"), "/"),
			AuthorityURL:    strings.TrimRight(getEnv("AD_AUTHORITY_URL", "https://login.microsoftonline.com"), "/"),
			TenantID:        os.Getenv("AD_TENANT_ID"),
			ClientID:        os.Getenv("AD_CLIENT_ID"),
			ClientSecret:    os.Getenv("AD_CLIENT_SECRET"),
			Timeout:         env.getEnvDuration("MAIL_TIMEOUT", 30*time.Second),
		},
		Report: ReportConfig{
			Title:         getEnv("REPORT_TITLE", "Camunda"),
			SendDaily:     env.getEnvBool("SEND_DAILY", true),
			SendWeekly:    env.getEnvBool("SEND_WEEKLY", true),
			SendMonthly:   env.getEnvBool("SEND_MONTHLY", false),
			WeekNumbering: getEnv("REPORT_WEEK_NUMBERING", string(domain.WeekISO)),
		},
		Logging: LoggingConfig{
			Level:  level,
			Format: getEnv("LOG_FORMAT", "text"),
		},
		Debug: debug,
	}

	if err := env.err(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := validateURL("ES_URL", c.Search.URL); err != nil {
		return err
	}

	if c.Search.MaxHits <= 0 {
		return domain.ErrConfiguration("ES_MAX_HITS must be positive")
	}

	if c.Search.IndexPrefix == "" {
		return domain.ErrConfiguration("ES_INDEX_PREFIX is required")
	}

	if c.Template.Name == "" {
		return domain.ErrConfiguration("TEMPLATE_NAME is required")
	}

	if c.Template.Dir == "" {
		if err := validateURL("TEMPLATE_URL", c.Template.BaseURL); err != nil {
			return err
		}
	}

	if _, err := domain.ParseWeekNumbering(c.Report.WeekNumbering); err != nil {
		return domain.ErrConfiguration(err.Error())
	}

	if c.Mail.Recipient == "" {
		return domain.ErrConfiguration("REPORT_RECIPIENT is required")
	}

	if err := validateURL("GRAPH_URL", c.Mail.GraphURL); err != nil {
		return err
	}

	if err := validateURL("AD_AUTHORITY_URL", c.Mail.AuthorityURL); err != nil {
		return err
	}

	return nil
}

// HasMailCredentials reports whether all Azure AD client credentials are set
func (c *Config) HasMailCredentials() bool {
	return c.Mail.TenantID != "" && c.Mail.ClientID != "" && c.Mail.ClientSecret != ""
}

// DispatchEnabled reports whether reports of the given period kind are mailed
func (c *Config) DispatchEnabled(kind domain.PeriodKind) bool {
	switch kind {
	case domain.PeriodDaily:
		return c.Report.SendDaily
	case domain.PeriodWeekly:
		return c.Report.SendWeekly
	case domain.PeriodMonthly:
		return c.Report.SendMonthly
	default:
		return false
	}
}

// IndexName returns the daily index holding process instance creations for date
func (c SearchConfig) IndexName(date string) string {
	return fmt.Sprintf("%s_%s_%s", c.IndexPrefix, c.IndexVersion, date)
}

// Helper functions for environment variables

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader reads typed variables and remembers those that could not be parsed
type envReader struct {
	malformed []string
}

func (r *envReader) getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
		r.reject(key, value)
	}
	return defaultValue
}

func (r *envReader) getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		boolValue, err := strconv.ParseBool(value)
		if err == nil {
			return boolValue
		}
		r.reject(key, value)
	}
	return defaultValue
}

func (r *envReader) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err == nil {
			return duration
		}
		r.reject(key, value)
	}
	return defaultValue
}

func (r *envReader) reject(key, value string) {
	r.malformed = append(r.malformed, fmt.Sprintf("%s=%q", key, value))
}

func (r *envReader) err() error {
	if len(r.malformed) == 0 {
		return nil
	}
	return domain.ErrConfiguration("malformed values: " + strings.Join(r.malformed, ", "))
}

// normalizeURL adds a scheme to bare host:port addresses
func normalizeURL(raw string) string {
	if raw == "" || strings.Contains(raw, "://") {
		return raw
	}
	return "http://" + raw
}

func validateURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return domain.ErrConfiguration(fmt.Sprintf("%s is not a valid URL: %q", key, raw))
	}
	return nil
}
