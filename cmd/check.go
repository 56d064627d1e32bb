package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Alepazz/flight-monitor/internal/history"
	"github.com/Alepazz/flight-monitor/internal/monitor"
	"github.com/Alepazz/flight-monitor/internal/notify"
	"github.com/Alepazz/flight-monitor/internal/provider"
	"github.com/Alepazz/flight-monitor/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one monitoring pass",
	Long:  "Generate the search space, look up fares, record history, and notify on deals. Intended to run from cron or launchd.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate(); err != nil {
			return err
		}

		st, err := store.NewSQLite(cfg.Store.Path)
		if err != nil {
			return eris.Wrap(err, "check: open store")
		}
		defer func() { _ = st.Close() }()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "check: migrate store")
		}

		hist := history.New(cfg.History.Path, cfg.History.DealsPath)
		prov := provider.NewSerpAPI(cfg.Provider)

		var notifiers []notify.Notifier
		var heartbeat *notify.Email
		if cfg.Notify.EmailEnabled() {
			heartbeat = notify.NewEmail(cfg)
			notifiers = append(notifiers, heartbeat)
		}
		if cfg.Notify.TelegramEnabled() {
			notifiers = append(notifiers, notify.NewTelegram(cfg))
		}
		if cfg.Notify.Desktop {
			notifiers = append(notifiers, notify.NewDesktop(cfg.Route.Origins, cfg.Route.Destination))
		}
		if len(notifiers) == 0 {
			zap.L().Warn("no notification channels configured, deals will only be logged")
		}

		var mon *monitor.Monitor
		if heartbeat != nil {
			mon = monitor.New(cfg, prov, st, hist, notifiers, heartbeat)
		} else {
			mon = monitor.New(cfg, prov, st, hist, notifiers, nil)
		}

		summary, err := mon.Run(ctx)
		if err != nil {
			zap.L().Error("run failed", zap.Error(err))
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return eris.Wrap(err, "check: encode summary")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
