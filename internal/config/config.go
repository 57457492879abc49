package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string

	GroqAPIKey  string
	GroqBaseURL string
	GroqModel   string
	LLMTimeout  time.Duration
	PromptDir   string

	DBDriver   string // sqlite | postgres
	DBDSN      string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	StaticDir string

	PlanSecret        string
	PlanTokenRequired bool

	NATSURL     string
	NATSSubject string

	LogLevel string
	LogDev   bool
}

// fileConfig is the optional YAML overlay. Env vars always win over it.
type fileConfig map[string]string

// Load reads .env (if present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()
	return build(nil)
}

// LoadFile is Load plus a YAML file whose keys are the env names in lower case
// (groq_api_key, db_driver, ...).
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		return build(nil), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}

	return build(fc), nil
}

func build(fc fileConfig) *Config {
	get := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		if v, ok := fc[strings.ToLower(key)]; ok && v != "" {
			return v
		}
		return def
	}

	// Парсим DB_PORT
	port, err := strconv.Atoi(get("DB_PORT", ""))
	if err != nil {
		port = 5432 // fallback
	}

	timeout, err := time.ParseDuration(get("LLM_TIMEOUT", "60s"))
	if err != nil {
		timeout = 60 * time.Second
	}

	return &Config{
		Port: get("PORT", "5000"),

		GroqAPIKey:  get("GROQ_API_KEY", ""),
		GroqBaseURL: get("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
		GroqModel:   get("GROQ_MODEL", "llama-3.3-70b-versatile"),
		LLMTimeout:  timeout,
		PromptDir:   get("PROMPT_DIR", "prompts"),

		DBDriver:   get("DB_DRIVER", "sqlite"),
		DBDSN:      get("DB_DSN", ""),
		DBHost:     get("DB_HOST", ""),
		DBPort:     port,
		DBUser:     get("DB_USER", ""),
		DBPassword: get("DB_PASSWORD", ""),
		DBName:     get("DB_NAME", ""),

		StaticDir: get("STATIC_DIR", "frontend/dist"),

		PlanSecret:        get("PLAN_SECRET", ""),
		PlanTokenRequired: parseBool(get("PLAN_TOKEN_REQUIRED", "")),

		NATSURL:     get("NATS_URL", ""),
		NATSSubject: get("NATS_SUBJECT", "nextstep.interactions"),

		LogLevel: get("LOG_LEVEL", "info"),
		LogDev:   parseBool(get("LOG_DEV", "")),
	}
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// DSN returns the data source for the configured driver. For postgres without
// an explicit DB_DSN the DB_HOST/DB_USER/... vars are used.
func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	if c.DBDriver == "postgres" {
		return c.ConnString()
	}
	return "data/procrastination.db"
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
