// AngelaMos | 2026
// config_test.go

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/thesis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	c, err := load("")
	require.NoError(t, err)

	assert.Equal(t, "token", c.Cookie.Name)
	assert.Equal(t, time.Hour, c.Janitor.Interval)
	assert.Equal(t, 24*time.Hour, c.Janitor.Retention)
	assert.Equal(t, 24*time.Hour, c.Verification.CodeTTL)
	assert.Equal(t, time.Hour, c.Verification.ResetTTL)
	assert.Equal(t, "log", c.Mail.Sender)
	assert.Equal(t, "0.0.0.0:8080", c.Server.Address())
	assert.Equal(t, 20, c.RateLimit.AuthRequests)
	assert.Equal(t, 5, c.RateLimit.AuthBurst)
	assert.Equal(t, 5, c.Verification.MaxAttempts)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JANITOR_INTERVAL", "15m")
	t.Setenv("PORT", "9090")

	c, err := load("")
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, c.Janitor.Interval)
	assert.Equal(t, 9090, c.Server.Port)
}

func TestLoad_YAMLFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
app:
  name: Archive Test
storage:
  root: /var/lib/theses
`), 0o600))

	c, err := load(path)
	require.NoError(t, err)

	assert.Equal(t, "Archive Test", c.App.Name)
	assert.Equal(t, "/var/lib/theses", c.Storage.Root)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing database",
			env:     map[string]string{"REDIS_URL": "redis://x"},
			wantErr: "DATABASE_URL",
		},
		{
			name: "smtp without host",
			env: map[string]string{
				"DATABASE_URL": "postgres://x",
				"REDIS_URL":    "redis://x",
				"MAIL_SENDER":  "smtp",
			},
			wantErr: "SMTP_HOST",
		},
		{
			name: "unknown sender",
			env: map[string]string{
				"DATABASE_URL": "postgres://x",
				"REDIS_URL":    "redis://x",
				"MAIL_SENDER":  "pigeon",
			},
			wantErr: "mail.sender",
		},
		{
			name: "insecure cookie in production",
			env: map[string]string{
				"DATABASE_URL": "postgres://x",
				"REDIS_URL":    "redis://x",
				"ENVIRONMENT":  "production",
			},
			wantErr: "COOKIE_SECURE",
		},
		{
			name: "auth limit disabled",
			env: map[string]string{
				"DATABASE_URL":             "postgres://x",
				"REDIS_URL":                "redis://x",
				"RATE_LIMIT_AUTH_REQUESTS": "0",
			},
			wantErr: "RATE_LIMIT_AUTH_REQUESTS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DATABASE_URL", "")
			t.Setenv("REDIS_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
