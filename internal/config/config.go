package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	OutputDir   string
	JSONFile    string
	ReportFile  string
	LogLevel    string
	HTTPTimeout time.Duration
	TaskTimeout time.Duration

	BrowserEnabled  bool
	BrowserMaxPages int
	ChromePath      string

	RedisURL       string
	DatabaseURL    string
	KafkaBrokers   []string
	KafkaTopic     string
	PushgatewayURL string

	HTTPPort         int
	APIKey           string
	TelegramBotToken string

	SSHPort           int
	SSHHostKeyPath    string
	SSHAuthorizedKeys string

	TracingEnabled bool
	OTLPEndpoint   string
}

var loadDotEnv = func() error { return godotenv.Load() }

func setDefaults(v *viper.Viper) {
	v.SetDefault("OUTPUT_DIR", ".")
	v.SetDefault("JSON_FILE", "rates.json")
	v.SetDefault("REPORT_FILE", "README.md")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_TIMEOUT_SECS", 10)
	v.SetDefault("TASK_TIMEOUT_SECS", 60)
	v.SetDefault("BROWSER_ENABLED", true)
	v.SetDefault("BROWSER_MAX_PAGES", 12)
	v.SetDefault("CHROME_PATH", "")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "bdt-rates")
	v.SetDefault("PUSHGATEWAY_URL", "")
	v.SetDefault("HTTP_PORT", 8080)
	v.SetDefault("TELEGRAM_BOT_TOKEN", "")
	v.SetDefault("SSH_PORT", 2222)
	v.SetDefault("SSH_HOST_KEY_PATH", ".ssh/id_ed25519")
	v.SetDefault("SSH_AUTHORIZED_KEYS", "")
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
}

// Load reads configuration from the environment, after merging a .env file if
// one exists. Every key has a default, so an empty environment is valid.
func Load() *Config {
	_ = loadDotEnv()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		OutputDir:         strings.TrimSpace(v.GetString("OUTPUT_DIR")),
		JSONFile:          strings.TrimSpace(v.GetString("JSON_FILE")),
		ReportFile:        strings.TrimSpace(v.GetString("REPORT_FILE")),
		LogLevel:          strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		BrowserEnabled:    v.GetBool("BROWSER_ENABLED"),
		ChromePath:        strings.TrimSpace(v.GetString("CHROME_PATH")),
		RedisURL:          strings.TrimSpace(v.GetString("REDIS_URL")),
		DatabaseURL:       strings.TrimSpace(v.GetString("DATABASE_URL")),
		KafkaBrokers:      splitList(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:        strings.TrimSpace(v.GetString("KAFKA_TOPIC")),
		PushgatewayURL:    strings.TrimSpace(v.GetString("PUSHGATEWAY_URL")),
		APIKey:            strings.TrimSpace(v.GetString("API_KEY")),
		TelegramBotToken:  v.GetString("TELEGRAM_BOT_TOKEN"),
		SSHHostKeyPath:    strings.TrimSpace(v.GetString("SSH_HOST_KEY_PATH")),
		SSHAuthorizedKeys: strings.TrimSpace(v.GetString("SSH_AUTHORIZED_KEYS")),
		TracingEnabled:    v.GetBool("TRACING_ENABLED"),
		OTLPEndpoint:      strings.TrimSpace(v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}

	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}
	if cfg.JSONFile == "" {
		cfg.JSONFile = "rates.json"
	}
	if cfg.ReportFile == "" {
		cfg.ReportFile = "README.md"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.KafkaTopic == "" {
		cfg.KafkaTopic = "bdt-rates"
	}
	if cfg.SSHHostKeyPath == "" {
		cfg.SSHHostKeyPath = ".ssh/id_ed25519"
	}

	cfg.HTTPTimeout = positiveSeconds(v, "HTTP_TIMEOUT_SECS", 10)
	cfg.TaskTimeout = positiveSeconds(v, "TASK_TIMEOUT_SECS", 60)
	cfg.BrowserMaxPages = positiveInt(v, "BROWSER_MAX_PAGES", 12)
	cfg.HTTPPort = positiveInt(v, "HTTP_PORT", 8080)
	cfg.SSHPort = positiveInt(v, "SSH_PORT", 2222)

	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, latest-snapshot cache disabled")
	}
	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, snapshot history disabled")
	}

	return cfg
}

func positiveInt(v *viper.Viper, key string, def int) int {
	raw := strings.TrimSpace(v.GetString(key))
	n := v.GetInt(key)
	if n <= 0 {
		if raw != "" {
			log.Printf("Warning: invalid %s=%q, defaulting to %d", key, raw, def)
		}
		return def
	}
	return n
}

func positiveSeconds(v *viper.Viper, key string, def int) time.Duration {
	return time.Duration(positiveInt(v, key, def)) * time.Second
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
