package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
server:
  port: 9090
  corsOrigins: ["http://localhost:5173"]
database:
  driver: postgres
  host: db
  port: 5432
  user: clarify
  password: secret
  name: clarify
storage:
  provider: minio
  endpoint: minio:9000
  bucketName: clarify
ai:
  provider: openai
  apiKey: from-file
  timeout: 45s
speech:
  apiKey: el-key
auth:
  apiKeys:
    student-1: k1
session:
  backgroundTimeout: 30s
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFileWithDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "openai", cfg.AI.Provider)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Session.BackgroundTimeout)
	assert.Equal(t, 512, cfg.Session.CacheSize)

	assert.Equal(t, "https://api.elevenlabs.io/v1", cfg.Speech.BaseURL)
	assert.Equal(t, "21m00Tcm4TlvDq8ikWAM", cfg.Speech.VoiceID)
	assert.Equal(t, "eleven_multilingual_v2", cfg.Speech.ModelID)
	assert.Equal(t, 0.5, cfg.Speech.Stability)
	assert.Equal(t, 0.75, cfg.Speech.SimilarityBoost)
	assert.Equal(t, 60*time.Second, cfg.Speech.Timeout)
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("AI_API_KEY", "from-env")
	t.Setenv("DB_DRIVER", "pgx")
	t.Setenv("API_KEYS", "alice:a1,bob:b2")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.AI.APIKey)
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, map[string]string{"alice": "a1", "bob": "b2"}, cfg.Auth.APIKeys)
	// untouched by env
	assert.Equal(t, "db", cfg.Database.Host)
}

func TestLoadMissingFileUsesEnv(t *testing.T) {
	t.Setenv("AI_API_KEY", "k")
	t.Setenv("ELEVENLABS_API_KEY", "el")
	t.Setenv("STORAGE_ENDPOINT", "localhost:9000")
	t.Setenv("STORAGE_BUCKET", "clarify")
	t.Setenv("API_KEYS", "dev:dev-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "gemini", cfg.AI.Provider)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{
			Storage: Storage{Endpoint: "minio:9000", BucketName: "b"},
			AI:      AI{APIKey: "k"},
			Speech:  Speech{APIKey: "el"},
			Auth:    Auth{APIKeys: map[string]string{"o": "k"}},
		}
		c.applyDefaults()
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"ok", func(*Config) {}, ""},
		{"driver", func(c *Config) { c.Database.Driver = "sqlite" }, "database.driver"},
		{"provider", func(c *Config) { c.AI.Provider = "claude" }, "ai.provider"},
		{"storage", func(c *Config) { c.Storage.Provider = "gcs" }, "storage.provider"},
		{"minio endpoint", func(c *Config) { c.Storage.Endpoint = "" }, "storage.endpoint"},
		{"s3 without endpoint", func(c *Config) { c.Storage.Provider = "s3"; c.Storage.Endpoint = "" }, ""},
		{"public url", func(c *Config) { c.Storage.PublicBaseURL = "not a url" }, "storage.publicBaseURL"},
		{"ai key", func(c *Config) { c.AI.APIKey = "" }, "ai.apiKey"},
		{"speech key", func(c *Config) { c.Speech.APIKey = "" }, "speech.apiKey"},
		{"api keys", func(c *Config) { c.Auth.APIKeys = nil }, "auth.apiKeys"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDSN(t *testing.T) {
	c := &Config{Database: Database{Host: "db", Port: 3306, User: "u", Password: "p@ss", Name: "clarify", SSLMode: "disable"}}

	assert.Equal(t, "u:p@ss@tcp(db:3306)/clarify?parseTime=true&charset=utf8mb4&loc=UTC&clientFoundRows=true", c.MySQLDSN())
	assert.Equal(t, "postgres://u:p%40ss@db:3306/clarify?sslmode=disable", c.PostgresDSN())
}
