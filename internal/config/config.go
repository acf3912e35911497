package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Server struct {
	Port            int           `yaml:"port" env:"PORT"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	IdleTimeout     time.Duration `yaml:"idleTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	CORSOrigins     []string      `yaml:"corsOrigins" env:"CORS_ORIGINS"`
	Production      bool          `yaml:"production" env:"PRODUCTION"`
	MaxImageBytes   int64         `yaml:"maxImageBytes"`
}

type Database struct {
	// Driver: mysql | postgres | pgx | memory
	Driver   string `yaml:"driver" env:"DB_DRIVER"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     int    `yaml:"port" env:"DB_PORT"`
	User     string `yaml:"user" env:"DB_USER"`
	Password string `yaml:"password" env:"DB_PASSWORD"`
	Name     string `yaml:"name" env:"DB_NAME"`
	SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE"`
}

type Storage struct {
	// Provider: minio | s3
	Provider      string `yaml:"provider" env:"STORAGE_PROVIDER"`
	Endpoint      string `yaml:"endpoint" env:"STORAGE_ENDPOINT"`
	AccessKey     string `yaml:"accessKey" env:"STORAGE_ACCESS_KEY"`
	SecretKey     string `yaml:"secretKey" env:"STORAGE_SECRET_KEY"`
	BucketName    string `yaml:"bucketName" env:"STORAGE_BUCKET"`
	Region        string `yaml:"region" env:"STORAGE_REGION"`
	UseSSL        bool   `yaml:"useSSL" env:"STORAGE_USE_SSL"`
	PublicBaseURL string `yaml:"publicBaseURL" env:"STORAGE_PUBLIC_BASE_URL"`
	UploadImages  bool   `yaml:"uploadImages" env:"STORAGE_UPLOAD_IMAGES"`
}

type AI struct {
	// Provider: gemini | openai
	Provider string        `yaml:"provider" env:"AI_PROVIDER"`
	APIKey   string        `yaml:"apiKey" env:"AI_API_KEY"`
	Model    string        `yaml:"model" env:"AI_MODEL"`
	BaseURL  string        `yaml:"baseURL" env:"AI_BASE_URL"`
	Timeout  time.Duration `yaml:"timeout"`
}

type Speech struct {
	APIKey          string        `yaml:"apiKey" env:"ELEVENLABS_API_KEY"`
	BaseURL         string        `yaml:"baseURL" env:"ELEVENLABS_BASE_URL"`
	VoiceID         string        `yaml:"voiceID" env:"ELEVENLABS_VOICE_ID"`
	ModelID         string        `yaml:"modelID" env:"ELEVENLABS_MODEL_ID"`
	Stability       float64       `yaml:"stability"`
	SimilarityBoost float64       `yaml:"similarityBoost"`
	Timeout         time.Duration `yaml:"timeout"`
}

type Auth struct {
	// APIKeys maps owner id -> api key. Env format: owner1:key1,owner2:key2
	APIKeys map[string]string `yaml:"apiKeys" env:"API_KEYS"`
}

type RateLimit struct {
	Capacity        int `yaml:"capacity"`
	RefillPerSecond int `yaml:"refillPerSecond"`
}

type Session struct {
	CacheSize         int           `yaml:"cacheSize"`
	BackgroundTimeout time.Duration `yaml:"backgroundTimeout"`
}

type Config struct {
	Server    Server    `yaml:"server"`
	Database  Database  `yaml:"database"`
	Storage   Storage   `yaml:"storage"`
	AI        AI        `yaml:"ai"`
	Speech    Speech    `yaml:"speech"`
	Auth      Auth      `yaml:"auth"`
	RateLimit RateLimit `yaml:"rateLimit"`
	Session   Session   `yaml:"session"`
}

// Load baca file config.yaml, lalu .env dan environment variable menimpa secret/endpoint.
// File yang tidak ada bukan error: semua bisa datang dari env.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	s := &c.Server
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 15 * time.Second
	}
	// analyze waits on inference, keep it above ai.timeout
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 90 * time.Second
	}
	if s.IdleTimeout == 0 {
		s.IdleTimeout = 60 * time.Second
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = 30 * time.Second
	}
	if s.MaxImageBytes == 0 {
		s.MaxImageBytes = 10 << 20
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Storage.Provider == "" {
		c.Storage.Provider = "minio"
	}
	if c.Storage.Region == "" {
		c.Storage.Region = "us-east-1"
	}

	if c.AI.Provider == "" {
		c.AI.Provider = "gemini"
	}
	if c.AI.Timeout == 0 {
		c.AI.Timeout = 60 * time.Second
	}

	sp := &c.Speech
	if sp.BaseURL == "" {
		sp.BaseURL = "https://api.elevenlabs.io/v1"
	}
	if sp.VoiceID == "" {
		sp.VoiceID = "21m00Tcm4TlvDq8ikWAM"
	}
	if sp.ModelID == "" {
		sp.ModelID = "eleven_multilingual_v2"
	}
	if sp.Stability == 0 {
		sp.Stability = 0.5
	}
	if sp.SimilarityBoost == 0 {
		sp.SimilarityBoost = 0.75
	}
	if sp.Timeout == 0 {
		sp.Timeout = 60 * time.Second
	}

	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 30
	}
	if c.RateLimit.RefillPerSecond == 0 {
		c.RateLimit.RefillPerSecond = 1
	}
	if c.Session.CacheSize == 0 {
		c.Session.CacheSize = 512
	}
	if c.Session.BackgroundTimeout == 0 {
		c.Session.BackgroundTimeout = 2 * time.Minute
	}
}

// Validate checks enumerations and the keys every deployment needs.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case "mysql", "postgres", "pgx", "memory":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unknown driver %q", c.Database.Driver))
	}
	switch c.Storage.Provider {
	case "minio", "s3":
	default:
		errs = append(errs, fmt.Errorf("storage.provider: unknown provider %q", c.Storage.Provider))
	}
	if c.Storage.BucketName == "" {
		errs = append(errs, errors.New("storage.bucketName is required"))
	}
	if c.Storage.Provider == "minio" && c.Storage.Endpoint == "" {
		errs = append(errs, errors.New("storage.endpoint is required for minio"))
	}
	if c.Storage.PublicBaseURL != "" {
		if _, err := url.ParseRequestURI(c.Storage.PublicBaseURL); err != nil {
			errs = append(errs, fmt.Errorf("storage.publicBaseURL: %w", err))
		}
	}
	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Errorf("ai.provider: unknown provider %q", c.AI.Provider))
	}
	if c.AI.APIKey == "" {
		errs = append(errs, errors.New("ai.apiKey is required"))
	}
	if c.Speech.APIKey == "" {
		errs = append(errs, errors.New("speech.apiKey is required"))
	}
	if len(c.Auth.APIKeys) == 0 {
		errs = append(errs, errors.New("auth.apiKeys needs at least one owner"))
	}
	return errors.Join(errs...)
}

// Helper untuk build DSN MySQL. clientFoundRows supaya UPDATE tanpa perubahan tetap dihitung.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC&clientFoundRows=true",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}
