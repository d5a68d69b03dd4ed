package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         int           `yaml:"port"`
		PublicPaths  []string      `yaml:"publicPaths"`
		CORSOrigins  []string      `yaml:"corsOrigins"`
		ReadTimeout  time.Duration `yaml:"readTimeout"`
		WriteTimeout time.Duration `yaml:"writeTimeout"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // postgres | mysql | memory
		DSN      string `yaml:"dsn"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
		// Seed is a YAML fixture loaded by the memory driver.
		Seed string `yaml:"seed"`
	} `yaml:"database"`

	AI struct {
		DefaultProvider string        `yaml:"defaultProvider"`
		Timeout         time.Duration `yaml:"timeout"`
		MaxTokens       int           `yaml:"maxTokens"`
		MaxTurns        int           `yaml:"maxTurns"`
		OpenAI          Provider      `yaml:"openai"`
		Gemini          Provider      `yaml:"gemini"`
	} `yaml:"ai"`

	Auth struct {
		JWTSecret string `yaml:"jwtSecret"`
		Issuer    string `yaml:"issuer"`
	} `yaml:"auth"`

	RateLimit struct {
		AssessmentsPerMinute int    `yaml:"assessmentsPerMinute"`
		RedisAddr            string `yaml:"redisAddr"`
		RedisPassword        string `yaml:"redisPassword"`
		RedisDB              int    `yaml:"redisDB"`
	} `yaml:"rateLimit"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

type Provider struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseURL"`
}

// Load baca file config.yaml. A missing file is not an error: defaults and
// environment variables still apply.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, cfg.Validate()
}

func Default() *Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ReadTimeout = 15 * time.Second
	c.Server.WriteTimeout = 90 * time.Second
	c.Database.Driver = "postgres"
	c.Database.SSLMode = "disable"
	c.AI.DefaultProvider = "openai"
	c.AI.Timeout = 60 * time.Second
	c.AI.MaxTokens = 2048
	c.AI.MaxTurns = 3
	c.RateLimit.AssessmentsPerMinute = 10
	c.Kafka.Topic = "assessment.completed"
	c.Log.Level = "info"
	c.Log.Format = "json"
	return &c
}

// ApplyEnv overrides secrets and defaults from the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("AI_PROVIDER", &c.AI.DefaultProvider)
	str("OPENAI_API_KEY", &c.AI.OpenAI.APIKey)
	str("OPENAI_MODEL", &c.AI.OpenAI.Model)
	str("OPENAI_BASE_URL", &c.AI.OpenAI.BaseURL)
	str("GEMINI_API_KEY", &c.AI.Gemini.APIKey)
	str("GEMINI_MODEL", &c.AI.Gemini.Model)
	str("GEMINI_BASE_URL", &c.AI.Gemini.BaseURL)
	str("DATABASE_DRIVER", &c.Database.Driver)
	str("DATABASE_DSN", &c.Database.DSN)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("REDIS_ADDR", &c.RateLimit.RedisAddr)
	str("MINIO_ENDPOINT", &c.Minio.Endpoint)
	str("MINIO_ACCESS_KEY", &c.Minio.AccessKey)
	str("MINIO_SECRET_KEY", &c.Minio.SecretKey)
	str("MINIO_BUCKET", &c.Minio.BucketName)
	str("LOG_LEVEL", &c.Log.Level)
	if v, ok := lookup("KAFKA_BROKERS"); ok && strings.TrimSpace(v) != "" {
		c.Kafka.Brokers = splitList(v)
	}
	if v, ok := lookup("PORT"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			c.Server.Port = n
		}
	}
}

func (c *Config) Validate() error {
	c.Database.Driver = strings.ToLower(c.Database.Driver)
	switch c.Database.Driver {
	case "postgres", "mysql", "memory":
	default:
		return fmt.Errorf("unknown database driver %q (allowed: postgres, mysql, memory)", c.Database.Driver)
	}
	c.AI.DefaultProvider = strings.ToLower(c.AI.DefaultProvider)
	switch c.AI.DefaultProvider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unknown ai provider %q (allowed: openai, gemini)", c.AI.DefaultProvider)
	}
	if c.RateLimit.AssessmentsPerMinute <= 0 {
		c.RateLimit.AssessmentsPerMinute = 10
	}
	return nil
}

// PostgresDSN prefers an explicit dsn.
func (c *Config) PostgresDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
