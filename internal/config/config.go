package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Alepazz/flight-monitor/internal/model"
)

// Config holds the full application configuration. It is resolved once
// per invocation from the config file merged with environment overrides
// and never mutated afterwards.
type Config struct {
	Route    RouteConfig    `yaml:"route" mapstructure:"route"`
	Search   SearchConfig   `yaml:"search" mapstructure:"search"`
	Provider ProviderConfig `yaml:"provider" mapstructure:"provider"`
	Store    StoreConfig    `yaml:"store" mapstructure:"store"`
	History  HistoryConfig  `yaml:"history" mapstructure:"history"`
	Notify   NotifyConfig   `yaml:"notify" mapstructure:"notify"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// RouteConfig describes the monitored route and travel window.
type RouteConfig struct {
	Origins     []string `yaml:"origins" mapstructure:"origins"`
	Destination string   `yaml:"destination" mapstructure:"destination"`
	DateFrom    string   `yaml:"date_from" mapstructure:"date_from"`
	DateTo      string   `yaml:"date_to" mapstructure:"date_to"`
	NightsMin   int      `yaml:"nights_min" mapstructure:"nights_min"`
	NightsMax   int      `yaml:"nights_max" mapstructure:"nights_max"`
	Adults      int      `yaml:"adults" mapstructure:"adults"`
}

// SearchConfig configures candidate generation and threshold evaluation.
type SearchConfig struct {
	PriceThresholdPP   float64 `yaml:"price_threshold_pp" mapstructure:"price_threshold_pp"`
	MaxStops           int     `yaml:"max_stops" mapstructure:"max_stops"`
	SampleEveryNDays   int     `yaml:"sample_every_n_days" mapstructure:"sample_every_n_days"`
	DelaySecs          int     `yaml:"delay_secs" mapstructure:"delay_secs"`
	Currency           string  `yaml:"currency" mapstructure:"currency"`
	MaxDaysAhead       int     `yaml:"max_days_ahead" mapstructure:"max_days_ahead"`
	CheckIntervalHours int     `yaml:"check_interval_hours" mapstructure:"check_interval_hours"`
}

// ProviderConfig configures the fare lookup provider.
type ProviderConfig struct {
	SerpAPIKey  string `yaml:"serpapi_key" mapstructure:"serpapi_key"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	Retries     int    `yaml:"retries" mapstructure:"retries"`
}

// StoreConfig configures the local run store.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// HistoryConfig configures the append-only price history files.
type HistoryConfig struct {
	Path      string `yaml:"path" mapstructure:"path"`
	DealsPath string `yaml:"deals_path" mapstructure:"deals_path"`
}

// NotifyConfig holds per-channel credentials. An empty credential set
// disables the channel.
type NotifyConfig struct {
	EmailTo            string          `yaml:"email_to" mapstructure:"email_to"`
	EmailFrom          string          `yaml:"email_from" mapstructure:"email_from"`
	EmailCC            string          `yaml:"email_cc" mapstructure:"email_cc"`
	EmailAppPassword   string          `yaml:"email_app_password" mapstructure:"email_app_password"`
	SMTPHost           string          `yaml:"smtp_host" mapstructure:"smtp_host"`
	SMTPPort           int             `yaml:"smtp_port" mapstructure:"smtp_port"`
	TelegramBotToken   string          `yaml:"telegram_bot_token" mapstructure:"telegram_bot_token"`
	TelegramChatID     string          `yaml:"telegram_chat_id" mapstructure:"telegram_chat_id"`
	Desktop            bool            `yaml:"desktop" mapstructure:"desktop"`
	SuppressAcrossRuns bool            `yaml:"suppress_across_runs" mapstructure:"suppress_across_runs"`
	Heartbeat          HeartbeatConfig `yaml:"heartbeat" mapstructure:"heartbeat"`
}

// HeartbeatConfig configures the weekly still-alive email sent when no
// deal alert has gone out recently.
type HeartbeatConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	Weekday int  `yaml:"weekday" mapstructure:"weekday"`
	Hour    int  `yaml:"hour" mapstructure:"hour"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// envOverrides maps the canonical sensitive environment variables onto
// their config keys. These names are part of the operational surface and
// take priority over file values.
var envOverrides = map[string]string{
	"notify.email_to":           "FLIGHT_EMAIL_TO",
	"notify.email_from":         "FLIGHT_EMAIL_FROM",
	"notify.email_cc":           "FLIGHT_EMAIL_CC",
	"notify.email_app_password": "FLIGHT_EMAIL_PASSWORD",
	"notify.telegram_bot_token": "FLIGHT_TELEGRAM_TOKEN",
	"notify.telegram_chat_id":   "FLIGHT_TELEGRAM_CHAT_ID",
	"provider.serpapi_key":      "FLIGHT_SERPAPI_KEY",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FLIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envOverrides {
		if err := v.BindEnv(key, env); err != nil {
			return nil, eris.Wrapf(err, "config: bind %s", env)
		}
	}

	// Defaults
	v.SetDefault("route.adults", 2)
	v.SetDefault("search.max_stops", 1)
	v.SetDefault("search.sample_every_n_days", 5)
	v.SetDefault("search.delay_secs", 4)
	v.SetDefault("search.currency", "EUR")
	v.SetDefault("search.max_days_ahead", 330)
	v.SetDefault("search.check_interval_hours", 12)
	v.SetDefault("provider.base_url", "https://serpapi.com")
	v.SetDefault("provider.timeout_secs", 45)
	v.SetDefault("provider.retries", 2)
	v.SetDefault("store.path", "flight-monitor.db")
	v.SetDefault("history.path", "price_history.jsonl")
	v.SetDefault("history.deals_path", "deals.txt")
	v.SetDefault("notify.smtp_host", "smtp.gmail.com")
	v.SetDefault("notify.smtp_port", 587)
	v.SetDefault("notify.desktop", true)
	v.SetDefault("notify.heartbeat.enabled", true)
	v.SetDefault("notify.heartbeat.weekday", 3)
	v.SetDefault("notify.heartbeat.hour", 21)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// DateRange returns the parsed travel window.
func (r RouteConfig) DateRange() (time.Time, time.Time, error) {
	from, err := time.Parse(model.DateFormat, r.DateFrom)
	if err != nil {
		return time.Time{}, time.Time{}, eris.Wrapf(err, "config: parse date_from %q", r.DateFrom)
	}
	to, err := time.Parse(model.DateFormat, r.DateTo)
	if err != nil {
		return time.Time{}, time.Time{}, eris.Wrapf(err, "config: parse date_to %q", r.DateTo)
	}
	return from, to, nil
}

// Delay returns the configured inter-request pacing delay.
func (s SearchConfig) Delay() time.Duration {
	return time.Duration(s.DelaySecs) * time.Second
}

// EmailEnabled reports whether the email channel has usable credentials.
func (n NotifyConfig) EmailEnabled() bool {
	return n.EmailTo != "" && n.EmailFrom != "" && n.EmailAppPassword != "" &&
		n.EmailAppPassword != "YOUR_APP_PASSWORD"
}

// TelegramEnabled reports whether the Telegram channel is configured.
func (n NotifyConfig) TelegramEnabled() bool {
	return n.TelegramBotToken != "" && n.TelegramChatID != ""
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
