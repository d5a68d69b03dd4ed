package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  readTimeout: 5s
database:
  driver: MySQL
  host: db
  port: 3306
  user: app
  password: secret
  name: medassist
ai:
  defaultProvider: gemini
  gemini:
    model: gemini-1.5-pro
kafka:
  brokers: [k1:9092]
`), 0o600))

	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("KAFKA_BROKERS", "k2:9092, k3:9092")
	t.Setenv("PORT", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "gemini", cfg.AI.DefaultProvider)
	assert.Equal(t, "g-key", cfg.AI.Gemini.APIKey)
	assert.Equal(t, "gemini-1.5-pro", cfg.AI.Gemini.Model)
	assert.Equal(t, []string{"k2:9092", "k3:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "app:secret@tcp(db:3306)/medassist?parseTime=true&charset=utf8mb4&loc=UTC", cfg.MySQLDSN())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 3, cfg.AI.MaxTurns)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [port"), 0o600))
	_, err := Load(path)
	assert.ErrorContains(t, err, "parse config")
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv(envMap(map[string]string{
		"AI_PROVIDER":     "  Gemini ",
		"OPENAI_API_KEY":  "sk-1",
		"OPENAI_BASE_URL": "http://proxy/v1",
		"DATABASE_DRIVER": "memory",
		"JWT_SECRET":      "s3cret",
		"PORT":            "not-a-number",
		"LOG_LEVEL":       "   ",
	}))
	assert.Equal(t, "Gemini", cfg.AI.DefaultProvider)
	assert.Equal(t, "sk-1", cfg.AI.OpenAI.APIKey)
	assert.Equal(t, "http://proxy/v1", cfg.AI.OpenAI.BaseURL)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "gemini", cfg.AI.DefaultProvider)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "sqlite"
	assert.ErrorContains(t, cfg.Validate(), "unknown database driver")

	cfg = Default()
	cfg.AI.DefaultProvider = "anthropic"
	assert.ErrorContains(t, cfg.Validate(), "unknown ai provider")

	cfg = Default()
	cfg.RateLimit.AssessmentsPerMinute = 0
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 10, cfg.RateLimit.AssessmentsPerMinute)
}

func TestPostgresDSN(t *testing.T) {
	cfg := Default()
	cfg.Database.Host, cfg.Database.Port = "localhost", 5432
	cfg.Database.User, cfg.Database.Password, cfg.Database.Name = "u", "p", "medassist"
	assert.Equal(t, "host=localhost port=5432 user=u password=p dbname=medassist sslmode=disable", cfg.PostgresDSN())

	cfg.Database.DSN = "postgres://x"
	assert.Equal(t, "postgres://x", cfg.PostgresDSN())
}
