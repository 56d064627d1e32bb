package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alepazz/flight-monitor/internal/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func deal(origin, depart string, pricePP float64) model.Itinerary {
	return model.Itinerary{
		Origin:      origin,
		Destination: "MLE",
		DepartDate:  depart,
		ReturnDate:  "2026-11-27",
		PricePP:     pricePP,
	}
}

func TestRunLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := testStore(t)

	run, err := s.CreateRun(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusRunning, run.Status)

	summary := &model.RunSummary{
		CandidatesPlanned:  56,
		CandidatesSearched: 54,
		CandidatesFailed:   2,
		ItinerariesFound:   12,
		DealsFound:         1,
		BestPricePP:        640,
	}
	require.NoError(t, s.CompleteRun(ctx, run.ID, summary))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusComplete, runs[0].Status)
	require.NotNil(t, runs[0].Summary)
	assert.Equal(t, 54, runs[0].Summary.CandidatesSearched)
	assert.Equal(t, 640.0, runs[0].Summary.BestPricePP)
}

func TestFailRun(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := testStore(t)

	run, err := s.CreateRun(ctx)
	require.NoError(t, err)
	require.NoError(t, s.FailRun(ctx, run.ID, "provider: authentication required"))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.RunStatusFailed, runs[0].Status)
	assert.Equal(t, "provider: authentication required", runs[0].Error)
}

func TestCompleteRunUnknownID(t *testing.T) {
	t.Parallel()
	s := testStore(t)

	err := s.CompleteRun(context.Background(), "no-such-run", &model.RunSummary{})
	assert.Error(t, err)
}

func TestListRunsLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := testStore(t)

	for i := 0; i < 5; i++ {
		_, err := s.CreateRun(ctx)
		require.NoError(t, err)
	}

	runs, err := s.ListRuns(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, runs, 3)
}

func TestNotifiedDealsRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := testStore(t)

	empty, err := s.LoadNotifiedDeals(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	now := time.Now()
	require.NoError(t, s.RecordNotifiedDeals(ctx, []model.Itinerary{
		deal("MXP", "2026-11-20", 640),
		deal("LIN", "2026-11-25", 620),
	}, now))

	got, err := s.LoadNotifiedDeals(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 640.0, got[deal("MXP", "2026-11-20", 640).Key()])
}

func TestRecordNotifiedDealsKeepsLowestPrice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := testStore(t)
	key := deal("MXP", "2026-11-20", 0).Key()

	require.NoError(t, s.RecordNotifiedDeals(ctx, []model.Itinerary{deal("MXP", "2026-11-20", 640)}, time.Now()))
	// A later, higher price must not raise the recorded floor.
	require.NoError(t, s.RecordNotifiedDeals(ctx, []model.Itinerary{deal("MXP", "2026-11-20", 680)}, time.Now()))

	got, err := s.LoadNotifiedDeals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 640.0, got[key])

	// A lower price lowers it.
	require.NoError(t, s.RecordNotifiedDeals(ctx, []model.Itinerary{deal("MXP", "2026-11-20", 615)}, time.Now()))
	got, err = s.LoadNotifiedDeals(ctx)
	require.NoError(t, err)
	assert.Equal(t, 615.0, got[key])
}

func TestLastAlertAt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := testStore(t)

	got, err := s.LastAlertAt(ctx)
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	at := time.Date(2026, 9, 1, 21, 0, 0, 0, time.UTC)
	require.NoError(t, s.SetLastAlertAt(ctx, at))

	got, err = s.LastAlertAt(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(at))

	// Overwrites, no duplicate rows.
	later := at.Add(7 * 24 * time.Hour)
	require.NoError(t, s.SetLastAlertAt(ctx, later))
	got, err = s.LastAlertAt(ctx)
	require.NoError(t, err)
	assert.True(t, got.Equal(later))
}
