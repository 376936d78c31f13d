package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haninge-digit/zeebe-report/internal/domain"
)

// clearEnv blanks every variable Load reads so the host environment does
// not leak into the tests.
func clearEnv(t *testing.T) {
	for _, key := range []string{
		"ES_URL", "ES_INDEX_PREFIX", "ES_INDEX_VERSION", "ES_MAX_HITS", "ES_TIMEOUT", "WORKER_MARKER",
		"TEMPLATE_URL", "TEMPLATE_DIR", "TEMPLATE_NAME", "TEMPLATE_TIMEOUT",
		"MAIL_FROM", "REPORT_RECIPIENT", "MAIL_SENDER_PRINCIPAL", "MAIL_SUPPORT_ADDRESS",
		"GRAPH_URL", "AD_AUTHORITY_URL", "AD_TENANT_ID", "AD_CLIENT_ID", "AD_CLIENT_SECRET", "MAIL_TIMEOUT",
		"REPORT_TITLE", "SEND_DAILY", "SEND_WEEKLY", "SEND_MONTHLY", "REPORT_WEEK_NUMBERING",
		"DEBUG", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "http://elasticsearch-master.camunda-zeebe:9200", cfg.Search.URL)
	assert.Equal(t, 1000, cfg.Search.MaxHits)
	assert.Equal(t, "_worker", cfg.Search.WorkerMarker)
	assert.Equal(t, "report.jinja2.html", cfg.Template.Name)
	assert.Equal(t, "https://graph.microsoft.com/v1.0", cfg.Mail.GraphURL)
	assert.Equal(t, 30*time.Second, cfg.Mail.Timeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "iso", cfg.Report.WeekNumbering)
	assert.False(t, cfg.HasMailCredentials())

	assert.True(t, cfg.DispatchEnabled(domain.PeriodDaily))
	assert.True(t, cfg.DispatchEnabled(domain.PeriodWeekly))
	assert.False(t, cfg.DispatchEnabled(domain.PeriodMonthly))
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ES_URL", "https://search.example:9243")
	t.Setenv("ES_MAX_HITS", "250")
	t.Setenv("ES_TIMEOUT", "5s")
	t.Setenv("SEND_MONTHLY", "true")
	t.Setenv("DEBUG", "true")
	t.Setenv("AD_TENANT_ID", "tenant")
	t.Setenv("AD_CLIENT_ID", "client")
	t.Setenv("AD_CLIENT_SECRET", "secret")
	t.Setenv("GRAPH_URL", "http://graph.local/v1.0/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://search.example:9243", cfg.Search.URL)
	assert.Equal(t, 250, cfg.Search.MaxHits)
	assert.Equal(t, 5*time.Second, cfg.Search.Timeout)
	assert.True(t, cfg.DispatchEnabled(domain.PeriodMonthly))
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.HasMailCredentials())
	assert.Equal(t, "http://graph.local/v1.0", cfg.Mail.GraphURL)
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	for _, key := range []string{"REPORT_RECIPIENT", "ES_INDEX_VERSION"} {
		require.NoError(t, os.Unsetenv(key))
	}
	path := filepath.Join(t.TempDir(), "report.env")
	require.NoError(t, os.WriteFile(path, []byte("REPORT_RECIPIENT=ops@example.se\nES_INDEX_VERSION=8.3.0\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = os.Unsetenv("REPORT_RECIPIENT")
		_ = os.Unsetenv("ES_INDEX_VERSION")
	})

	assert.Equal(t, "ops@example.se", cfg.Mail.Recipient)
	assert.Equal(t, "zeebe-record_process-instance-creation_8.3.0_2022-12-18", cfg.Search.IndexName("2022-12-18"))
}

func TestLoad_MalformedValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("SEND_MONTHLY", "yes")
	t.Setenv("ES_MAX_HITS", "abc")
	t.Setenv("MAIL_TIMEOUT", "30")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeConfiguration, domain.ErrorCodeOf(err))
	assert.Contains(t, err.Error(), `SEND_MONTHLY="yes"`)
	assert.Contains(t, err.Error(), `ES_MAX_HITS="abc"`)
	assert.Contains(t, err.Error(), `MAIL_TIMEOUT="30"`)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Equal(t, domain.ErrCodeConfiguration, domain.ErrorCodeOf(err))
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Search:   SearchConfig{URL: "http://es:9200", IndexPrefix: "p", MaxHits: 1000},
			Template: TemplateConfig{BaseURL: "https://templates.example", Name: "report.jinja2.html"},
			Mail: MailConfig{
				Recipient:    "a@example.se",
				GraphURL:     "https://graph.microsoft.com/v1.0",
				AuthorityURL: "https://login.microsoftonline.com",
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "bad search url", mutate: func(c *Config) { c.Search.URL = "::" }, wantErr: true},
		{name: "zero hits", mutate: func(c *Config) { c.Search.MaxHits = 0 }, wantErr: true},
		{name: "no template name", mutate: func(c *Config) { c.Template.Name = "" }, wantErr: true},
		{name: "template dir wins over bad url", mutate: func(c *Config) { c.Template.BaseURL = ""; c.Template.Dir = "./templates" }},
		{name: "no recipient", mutate: func(c *Config) { c.Mail.Recipient = "" }, wantErr: true},
		{name: "bad graph url", mutate: func(c *Config) { c.Mail.GraphURL = "graph" }, wantErr: true},
		{name: "missing credentials is fine", mutate: func(c *Config) { c.Mail.ClientSecret = "" }},
		{name: "monday week numbering", mutate: func(c *Config) { c.Report.WeekNumbering = "monday" }},
		{name: "unknown week numbering", mutate: func(c *Config) { c.Report.WeekNumbering = "sunday" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
