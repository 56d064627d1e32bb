// Package notify fans qualifying deals out to the configured
// notification channels. Channels are independent: one failing channel
// never blocks another and never fails the run.
package notify

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Alepazz/flight-monitor/internal/model"
)

// Notifier delivers one run's deals over a single channel.
type Notifier interface {
	Name() string
	Send(ctx context.Context, deals []model.Itinerary) error
}

// Dispatch sends the deal set to every notifier concurrently and
// reports a per-channel outcome. Errors are captured and logged, never
// propagated. With zero deals no channel is invoked.
func Dispatch(ctx context.Context, notifiers []Notifier, deals []model.Itinerary) []model.ChannelOutcome {
	if len(deals) == 0 || len(notifiers) == 0 {
		return nil
	}

	outcomes := make([]model.ChannelOutcome, len(notifiers))
	g, gCtx := errgroup.WithContext(ctx)
	for i, n := range notifiers {
		i, n := i, n
		g.Go(func() error {
			outcome := model.ChannelOutcome{Channel: n.Name()}
			if err := n.Send(gCtx, deals); err != nil {
				outcome.Error = err.Error()
				zap.L().Error("notify: channel failed",
					zap.String("channel", n.Name()),
					zap.Error(err),
				)
			} else {
				outcome.Sent = true
				zap.L().Info("notify: channel delivered",
					zap.String("channel", n.Name()),
					zap.Int("deals", len(deals)),
				)
			}
			outcomes[i] = outcome
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
