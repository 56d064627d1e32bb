package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Alepazz/flight-monitor/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config.yaml",
	Long:  "Write a config.yaml with a sample route and every tunable at its default. Secrets can stay in the environment (FLIGHT_SERPAPI_KEY, FLIGHT_EMAIL_PASSWORD, ...).",
	RunE: func(cmd *cobra.Command, _ []string) error {
		const path = "config.yaml"

		if !configForce {
			if _, err := os.Stat(path); err == nil {
				return eris.Errorf("config init: %s already exists (use --force to overwrite)", path)
			}
		}

		out, err := yaml.Marshal(exampleConfig())
		if err != nil {
			return eris.Wrap(err, "config init: marshal")
		}
		if err := os.WriteFile(path, out, 0o644); err != nil {
			return eris.Wrap(err, "config init: write")
		}

		zap.L().Info("wrote starter config", zap.String("path", path))
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config.yaml")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

// exampleConfig is the starter configuration written by `config init`:
// a Milan-area to Malé route with every other field at its default.
func exampleConfig() *config.Config {
	return &config.Config{
		Route: config.RouteConfig{
			Origins:     []string{"MXP", "LIN", "BGY"},
			Destination: "MLE",
			DateFrom:    "2026-11-20",
			DateTo:      "2026-12-20",
			NightsMin:   7,
			NightsMax:   10,
			Adults:      2,
		},
		Search: config.SearchConfig{
			PriceThresholdPP:   650,
			MaxStops:           1,
			SampleEveryNDays:   5,
			DelaySecs:          4,
			Currency:           "EUR",
			MaxDaysAhead:       330,
			CheckIntervalHours: 12,
		},
		Provider: config.ProviderConfig{
			SerpAPIKey:  "YOUR_SERPAPI_KEY",
			BaseURL:     "https://serpapi.com",
			TimeoutSecs: 45,
			Retries:     2,
		},
		Store: config.StoreConfig{
			Path: "flight-monitor.db",
		},
		History: config.HistoryConfig{
			Path:      "price_history.jsonl",
			DealsPath: "deals.txt",
		},
		Notify: config.NotifyConfig{
			EmailTo:          "you@example.com",
			EmailFrom:        "you@example.com",
			EmailAppPassword: "YOUR_APP_PASSWORD",
			SMTPHost:         "smtp.gmail.com",
			SMTPPort:         587,
			Desktop:          true,
			Heartbeat: config.HeartbeatConfig{
				Enabled: true,
				Weekday: 3,
				Hour:    21,
			},
		},
		Log: config.LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}
