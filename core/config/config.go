package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"TELEGRAM_BOT_TOKEN"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file" envconfig:"LOG_FILE"`
	// Rotation of BotFile; zero values fall back to lumberjack defaults.
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// PortalConfig points at the university portal pages.
type PortalConfig struct {
	ResultURL    string        `yaml:"result_url" envconfig:"PORTAL_RESULT_URL"`
	AdmitCardURL string        `yaml:"admit_card_url" envconfig:"PORTAL_ADMIT_CARD_URL"`
	Timeout      time.Duration `yaml:"timeout" envconfig:"PORTAL_TIMEOUT"`
	UserAgent    string        `yaml:"user_agent" envconfig:"PORTAL_USER_AGENT"`
}

// RendererConfig selects and locates the headless PDF engine.
type RendererConfig struct {
	Backend string `yaml:"backend" envconfig:"RENDERER_BACKEND"`
	// Path to the engine executable; empty means look it up.
	Path            string        `yaml:"path" envconfig:"RENDERER_PATH"`
	WkhtmltopdfPath string        `yaml:"-" envconfig:"WKHTMLTOPDF_PATH"`
	AutoDownload    bool          `yaml:"auto_download" envconfig:"RENDERER_AUTO_DOWNLOAD"`
	NoSandbox       bool          `yaml:"no_sandbox" envconfig:"RENDERER_NO_SANDBOX"`
	Timeout         time.Duration `yaml:"timeout" envconfig:"RENDERER_TIMEOUT"`
}

// FilesConfig describes the working directory for rendered documents.
type FilesConfig struct {
	Dir    string        `yaml:"dir" envconfig:"FILES_DIR"`
	MaxAge time.Duration `yaml:"max_age" envconfig:"FILES_MAX_AGE"`
	// SweepInterval enables a background sweep; 0 sweeps only after deliveries.
	SweepInterval time.Duration `yaml:"sweep_interval" envconfig:"FILES_SWEEP_INTERVAL"`
}

// WorkersConfig sizes the lookup worker pool.
type WorkersConfig struct {
	Count      int           `yaml:"count" envconfig:"WORKERS"`
	QueueSize  int           `yaml:"queue_size" envconfig:"WORKERS_QUEUE_SIZE"`
	JobTimeout time.Duration `yaml:"job_timeout" envconfig:"WORKERS_JOB_TIMEOUT"`
}

// MetricsConfig controls the Prometheus exporter.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

// ShareConfig is the external share button shown after a delivery.
type ShareConfig struct {
	Text string `yaml:"text"`
	URL  string `yaml:"url" envconfig:"SHARE_URL"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// BackendChrome renders through headless Chrome/Chromium.
	BackendChrome = "chrome"
	// BackendWkhtmltopdf renders through the wkhtmltopdf binary.
	BackendWkhtmltopdf = "wkhtmltopdf"
)

// Defaults applied by Normalize.
const (
	DefaultResultURL     = "https://lnmuniversity.com/LNMU_ERP/SearchResultFirstPart_22_25.aspx"
	DefaultAdmitCardURL  = "https://lnmuniversity.com/UG2225/PrintAdmit_II_2225.aspx"
	DefaultPortalTimeout = 30 * time.Second
	DefaultRenderTimeout = 60 * time.Second
	DefaultFilesDir      = "results/lnmu"
	DefaultFilesMaxAge   = 120 * time.Second
	DefaultWorkers       = 4
	DefaultQueueSize     = 64
	DefaultJobTimeout    = 2 * time.Minute
	DefaultShareText     = "Share this bot"
	defaultShareMessage  = "Hey.. this is a bot which helps you download the result and admit card\n https://t.me/lnmu_result_bot"
)

// DefaultShareURL is the WhatsApp share link advertising the bot.
var DefaultShareURL = "https://api.whatsapp.com/send?text=" + url.QueryEscape(defaultShareMessage)

// Config aggregates the whole bot configuration.
type Config struct {
	Telegram TelegramConfig `yaml:"telegram"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Logging  LoggingConfig  `yaml:"logging"`
	Portal   PortalConfig   `yaml:"portal"`
	Renderer RendererConfig `yaml:"renderer"`
	Files    FilesConfig    `yaml:"files"`
	Workers  WorkersConfig  `yaml:"workers"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Share    ShareConfig    `yaml:"share"`
}

// Load reads .env, an optional YAML file and environment variables, in that order.
// A missing .env or YAML file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse YAML config: %w", err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates required fields and fills in defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		return fmt.Errorf("telegram token is required")
	}

	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm

	if err := normalizePortal(&cfg.Portal); err != nil {
		return err
	}
	if err := normalizeRenderer(&cfg.Renderer); err != nil {
		return err
	}

	if strings.TrimSpace(cfg.Files.Dir) == "" {
		cfg.Files.Dir = DefaultFilesDir
	}
	if cfg.Files.MaxAge <= 0 {
		cfg.Files.MaxAge = DefaultFilesMaxAge
	}
	if cfg.Files.SweepInterval < 0 {
		return fmt.Errorf("files.sweep_interval must be >= 0")
	}

	if cfg.Workers.Count <= 0 {
		cfg.Workers.Count = DefaultWorkers
	}
	if cfg.Workers.QueueSize <= 0 {
		cfg.Workers.QueueSize = DefaultQueueSize
	}
	if cfg.Workers.JobTimeout <= 0 {
		cfg.Workers.JobTimeout = DefaultJobTimeout
	}

	if strings.TrimSpace(cfg.Share.Text) == "" {
		cfg.Share.Text = DefaultShareText
	}
	if strings.TrimSpace(cfg.Share.URL) == "" {
		cfg.Share.URL = DefaultShareURL
	}
	return nil
}

func normalizePortal(p *PortalConfig) error {
	if strings.TrimSpace(p.ResultURL) == "" {
		p.ResultURL = DefaultResultURL
	}
	if strings.TrimSpace(p.AdmitCardURL) == "" {
		p.AdmitCardURL = DefaultAdmitCardURL
	}
	for name, raw := range map[string]string{"portal.result_url": p.ResultURL, "portal.admit_card_url": p.AdmitCardURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if p.Timeout <= 0 {
		p.Timeout = DefaultPortalTimeout
	}
	return nil
}

func normalizeRenderer(r *RendererConfig) error {
	backend := strings.ToLower(strings.TrimSpace(r.Backend))
	if backend == "" {
		backend = BackendChrome
	}
	switch backend {
	case BackendChrome:
	case BackendWkhtmltopdf:
		if strings.TrimSpace(r.Path) == "" {
			r.Path = strings.TrimSpace(r.WkhtmltopdfPath)
		}
	default:
		return fmt.Errorf("invalid renderer.backend %q; allowed: chrome, wkhtmltopdf", r.Backend)
	}
	r.Backend = backend
	if r.Timeout <= 0 {
		r.Timeout = DefaultRenderTimeout
	}
	return nil
}
