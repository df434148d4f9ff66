package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "LEGAL_SCANNER_CONFIG"
	databaseDSNEnv     = "DATABASE_DSN"
	geminiAPIKeyEnv    = "GEMINI_API_KEY"
	geminiModelEnv     = "GEMINI_MODEL"
	ocrInferenceURLEnv = "OCR_INFERENCE_URL"
	ocrAPIKeyEnv       = "OCR_API_KEY"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
	httpAddrEnv        = "HTTP_ADDR"
)

// Duration wraps time.Duration so YAML values like "45s" or "24h" decode.
type Duration time.Duration

// UnmarshalYAML parses the standard Go duration syntax.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds high-level settings required across the application.
type Config struct {
	Database      DatabaseConfig     `yaml:"database"`
	Server        ServerConfig       `yaml:"server"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Gemini        GeminiConfig       `yaml:"gemini"`
	OCR           OCRConfig          `yaml:"ocr"`
	Pipeline      PipelineConfig     `yaml:"pipeline"`
	Notifications NotificationConfig `yaml:"notifications"`
	Logging       LoggingConfig      `yaml:"logging"`
	Sites         []SiteConfig       `yaml:"sites"`
}

// DatabaseConfig describes the relational store. The DSN scheme selects the
// backend: postgres://... for Postgres, anything else is a SQLite path.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// ServerConfig describes the HTTP API surface.
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"staticDir"`
}

// SchedulerConfig defines how often the pipeline should run.
type SchedulerConfig struct {
	Interval Duration `yaml:"interval"`
}

// GeminiConfig defines how to contact the generative model API.
type GeminiConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// OCRConfig wires the remote render+OCR inference service used for PDFs
// without a text layer.
type OCRConfig struct {
	InferenceURL string `yaml:"inferenceUrl"`
	APIKey       string `yaml:"apiKey"`
}

// PipelineConfig bounds a single research run.
type PipelineConfig struct {
	MaxLinksPerPage int      `yaml:"maxLinksPerPage"`
	FetchTimeout    Duration `yaml:"fetchTimeout"`
	ValidateTimeout Duration `yaml:"validateTimeout"`
	ExtractTimeout  Duration `yaml:"extractTimeout"`
	CacheTTL        Duration `yaml:"cacheTtl"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send digest messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// LoggingConfig selects the log level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SiteConfig describes a single research topic with its scanner strategy
// and the pages to crawl.
type SiteConfig struct {
	Name         string            `yaml:"name"`
	Scanner      string            `yaml:"scanner"`
	Topic        string            `yaml:"topic"`
	Jurisdiction string            `yaml:"jurisdiction"`
	Pages        []PageConfig      `yaml:"pages"`
	Options      map[string]string `yaml:"options"`
}

// PageConfig holds a concrete page URL to scan for document links.
type PageConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Sites) == 0 {
		cfg.Sites = defaultConfig().Sites
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}

	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Gemini.Model = v
	}

	if v := os.Getenv(ocrInferenceURLEnv); v != "" {
		c.OCR.InferenceURL = v
	}

	if v := os.Getenv(ocrAPIKeyEnv); v != "" {
		c.OCR.APIKey = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.Server.Addr = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.StaticDir != "" {
		base.Server.StaticDir = override.Server.StaticDir
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	if override.Gemini.Endpoint != "" {
		base.Gemini.Endpoint = override.Gemini.Endpoint
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}

	if override.OCR.InferenceURL != "" {
		base.OCR.InferenceURL = override.OCR.InferenceURL
	}
	if override.OCR.APIKey != "" {
		base.OCR.APIKey = override.OCR.APIKey
	}

	if override.Pipeline.MaxLinksPerPage > 0 {
		base.Pipeline.MaxLinksPerPage = override.Pipeline.MaxLinksPerPage
	}
	if override.Pipeline.FetchTimeout > 0 {
		base.Pipeline.FetchTimeout = override.Pipeline.FetchTimeout
	}
	if override.Pipeline.ValidateTimeout > 0 {
		base.Pipeline.ValidateTimeout = override.Pipeline.ValidateTimeout
	}
	if override.Pipeline.ExtractTimeout > 0 {
		base.Pipeline.ExtractTimeout = override.Pipeline.ExtractTimeout
	}
	if override.Pipeline.CacheTTL > 0 {
		base.Pipeline.CacheTTL = override.Pipeline.CacheTTL
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Database:  DatabaseConfig{DSN: "legalscanner.db"},
		Server:    ServerConfig{Addr: ":8080", StaticDir: "static"},
		Scheduler: SchedulerConfig{Interval: Duration(24 * time.Hour)},
		Gemini: GeminiConfig{
			Endpoint: "https://generativelanguage.googleapis.com/v1beta",
			Model:    "gemini-1.5-flash",
		},
		Pipeline: PipelineConfig{
			MaxLinksPerPage: 50,
			FetchTimeout:    Duration(20 * time.Second),
			ValidateTimeout: Duration(15 * time.Second),
			ExtractTimeout:  Duration(60 * time.Second),
			CacheTTL:        Duration(24 * time.Hour),
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Sites: []SiteConfig{
			{
				Name:         "ibbi",
				Scanner:      "ibbi",
				Topic:        "insolvency and bankruptcy law",
				Jurisdiction: "India",
				Pages: []PageConfig{
					{Name: "legal-framework", URL: "https://ibbi.gov.in/legal-framework"},
				},
			},
		},
	}
}
