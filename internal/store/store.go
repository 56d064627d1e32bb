package store

import (
	"context"
	"time"

	"github.com/Alepazz/flight-monitor/internal/model"
)

// Store persists run records, notified-deal keys and heartbeat state.
type Store interface {
	// Runs
	CreateRun(ctx context.Context) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, summary *model.RunSummary) error
	FailRun(ctx context.Context, runID string, msg string) error
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Cross-run notification suppression. LoadNotifiedDeals returns the
	// lowest price per person ever notified per deal key; implementations
	// fail open (empty map) on read errors.
	LoadNotifiedDeals(ctx context.Context) (map[model.DealKey]float64, error)
	RecordNotifiedDeals(ctx context.Context, deals []model.Itinerary, at time.Time) error

	// Heartbeat state
	LastAlertAt(ctx context.Context) (time.Time, error)
	SetLastAlertAt(ctx context.Context, at time.Time) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
