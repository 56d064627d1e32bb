// Package monitor sequences one monitoring run: candidate generation,
// paced fare lookups, aggregation, history persistence and notification
// dispatch. It is the single top-level failure boundary of a run.
package monitor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Alepazz/flight-monitor/internal/aggregate"
	"github.com/Alepazz/flight-monitor/internal/config"
	"github.com/Alepazz/flight-monitor/internal/history"
	"github.com/Alepazz/flight-monitor/internal/model"
	"github.com/Alepazz/flight-monitor/internal/notify"
	"github.com/Alepazz/flight-monitor/internal/provider"
	"github.com/Alepazz/flight-monitor/internal/search"
	"github.com/Alepazz/flight-monitor/internal/store"
)

// heartbeatSender is implemented by the email channel.
type heartbeatSender interface {
	SendHeartbeat(ctx context.Context, bestPP float64, totalItineraries int) error
}

// Monitor owns one run's state: the accumulating itinerary collection,
// the history store and the pacing limiter. Lookups are strictly
// sequential; the limiter enforces the minimum delay between consecutive
// provider calls as backpressure against the upstream engine.
type Monitor struct {
	cfg       *config.Config
	provider  provider.Provider
	store     store.Store
	history   *history.Store
	notifiers []notify.Notifier
	heartbeat heartbeatSender
	limiter   *rate.Limiter
	now       func() time.Time
}

// New wires a Monitor. heartbeat may be nil when email is not configured.
func New(
	cfg *config.Config,
	p provider.Provider,
	st store.Store,
	hist *history.Store,
	notifiers []notify.Notifier,
	heartbeat heartbeatSender,
) *Monitor {
	limit := rate.Inf
	if delay := cfg.Search.Delay(); delay > 0 {
		limit = rate.Every(delay)
	}
	return &Monitor{
		cfg:       cfg,
		provider:  p,
		store:     st,
		history:   hist,
		notifiers: notifiers,
		heartbeat: heartbeat,
		// Burst 1: the first lookup passes immediately, every
		// subsequent one waits the configured delay.
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
}

// Run executes one monitoring pass to completion and returns its
// summary. A returned error means the run is unrecoverable; partial
// history writes already flushed remain valid.
func (m *Monitor) Run(ctx context.Context) (*model.RunSummary, error) {
	log := zap.L().With(zap.String("route", model.RouteLabel(m.cfg.Route.Origins, m.cfg.Route.Destination)))
	started := m.now()

	run, err := m.store.CreateRun(ctx)
	if err != nil {
		log.Warn("monitor: failed to create run record", zap.Error(err))
		run = nil
	}
	fail := func(cause error) (*model.RunSummary, error) {
		if run != nil {
			if ferr := m.store.FailRun(ctx, run.ID, cause.Error()); ferr != nil {
				log.Warn("monitor: failed to mark run failed", zap.Error(ferr))
			}
		}
		return nil, cause
	}

	summary := &model.RunSummary{StartedAt: started.UTC()}

	candidates := search.Generate(m.cfg, started)
	summary.CandidatesPlanned = len(candidates)
	log.Info("monitor: starting run",
		zap.Int("candidates", len(candidates)),
		zap.Float64("threshold_pp", m.cfg.Search.PriceThresholdPP),
		zap.Int("max_stops", m.cfg.Search.MaxStops),
	)

	if len(candidates) == 0 {
		log.Info("monitor: travel window not searchable yet, nothing to do",
			zap.String("date_from", m.cfg.Route.DateFrom),
			zap.Int("max_days_ahead", m.cfg.Search.MaxDaysAhead),
		)
		return m.finish(ctx, run, summary)
	}

	collected, err := m.collect(ctx, candidates, summary, log)
	if err != nil {
		return fail(err)
	}

	m.enrichReturns(ctx, collected, log)

	agg := aggregate.Aggregate(collected, m.cfg.Search.PriceThresholdPP, m.cfg.Search.MaxStops)
	summary.ItinerariesFound = len(agg.Unique)
	summary.DealsFound = len(agg.Deals)
	if agg.Best != nil {
		summary.BestPricePP = agg.Best.PricePP
	}
	log.Info("monitor: search complete",
		zap.Int("searched", summary.CandidatesSearched),
		zap.Int("failed", summary.CandidatesFailed),
		zap.Int("itineraries", summary.ItinerariesFound),
		zap.Int("deals", summary.DealsFound),
	)

	m.appendHistory(agg, started, log)

	deals := m.suppress(ctx, agg.Deals, log)
	if len(deals) > 0 {
		summary.Channels = notify.Dispatch(ctx, m.notifiers, deals)
		summary.DealsNotified = len(deals)

		if err := m.history.AppendDeals(deals, started); err != nil {
			log.Warn("monitor: failed to append deals log", zap.Error(err))
		}
		if err := m.store.RecordNotifiedDeals(ctx, deals, started); err != nil {
			log.Warn("monitor: failed to record notified deals", zap.Error(err))
		}
		if err := m.store.SetLastAlertAt(ctx, started); err != nil {
			log.Warn("monitor: failed to record alert time", zap.Error(err))
		}
	} else {
		m.maybeHeartbeat(ctx, agg, started, log)
	}

	return m.finish(ctx, run, summary)
}

// collect performs the paced round-trip lookups. A transient failure
// skips the candidate; any other provider error aborts the run.
func (m *Monitor) collect(
	ctx context.Context,
	candidates []model.Candidate,
	summary *model.RunSummary,
	log *zap.Logger,
) ([]model.Itinerary, error) {
	var collected []model.Itinerary
	for i, c := range candidates {
		// Cancellation check point: the limiter wait aborts as soon as
		// the context is done, before the next lookup is issued.
		if err := m.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		log.Info("monitor: searching",
			zap.Int("candidate", i+1),
			zap.Int("of", len(candidates)),
			zap.String("origin", c.Origin),
			zap.String("depart", c.DepartDate()),
			zap.Int("nights", c.Nights),
		)

		itins, err := m.provider.Search(ctx, provider.Query{
			Origin:      c.Origin,
			Destination: m.cfg.Route.Destination,
			DepartDate:  c.DepartDate(),
			ReturnDate:  c.ReturnDate(),
			Adults:      m.cfg.Route.Adults,
			MaxStops:    m.cfg.Search.MaxStops,
			Currency:    m.cfg.Search.Currency,
		})
		if err != nil {
			if errors.Is(err, provider.ErrTransient) {
				summary.CandidatesFailed++
				log.Warn("monitor: lookup failed, skipping candidate",
					zap.String("origin", c.Origin),
					zap.String("depart", c.DepartDate()),
					zap.Error(err),
				)
				continue
			}
			return nil, err
		}

		summary.CandidatesSearched++
		for _, it := range itins {
			it.Nights = c.Nights
			collected = append(collected, it)
		}
	}
	return collected, nil
}

// enrichReturns fills in return-leg details with one paced one-way
// lookup per unique (return date, origin) pair. Failures fall back to
// the outbound leg's airline and stop count.
func (m *Monitor) enrichReturns(ctx context.Context, itins []model.Itinerary, log *zap.Logger) {
	type retKey struct{ date, origin string }
	type retInfo struct {
		airline  string
		duration string
		stops    int
		found    bool
	}

	uniq := make(map[retKey]retInfo)
	for _, it := range itins {
		uniq[retKey{it.ReturnDate, it.Origin}] = retInfo{}
	}

	for key := range uniq {
		if err := m.limiter.Wait(ctx); err != nil {
			return
		}
		results, err := m.provider.Search(ctx, provider.Query{
			Origin:      m.cfg.Route.Destination,
			Destination: key.origin,
			DepartDate:  key.date,
			Adults:      m.cfg.Route.Adults,
			MaxStops:    m.cfg.Search.MaxStops,
			Currency:    m.cfg.Search.Currency,
		})
		if err != nil {
			log.Warn("monitor: return lookup failed",
				zap.String("return_date", key.date),
				zap.String("origin", key.origin),
				zap.Error(err),
			)
			continue
		}
		for _, r := range results {
			if r.Stops > m.cfg.Search.MaxStops {
				continue
			}
			uniq[key] = retInfo{airline: r.Airline, duration: r.Duration, stops: r.Stops, found: true}
			break
		}
	}

	for i := range itins {
		info := uniq[retKey{itins[i].ReturnDate, itins[i].Origin}]
		if info.found {
			itins[i].ReturnAirline = info.airline
			itins[i].ReturnDuration = info.duration
			itins[i].ReturnStops = info.stops
		} else {
			itins[i].ReturnAirline = itins[i].Airline
			itins[i].ReturnStops = itins[i].Stops
		}
	}
}

// appendHistory writes one record per surviving itinerary. Write errors
// are warnings: best-effort durability, the run continues.
func (m *Monitor) appendHistory(agg aggregate.Result, at time.Time, log *zap.Logger) {
	for _, it := range agg.Unique {
		rec := model.HistoryRecord{
			Timestamp: at.UTC(),
			Itinerary: it,
			Deal:      it.PricePP <= m.cfg.Search.PriceThresholdPP,
		}
		if err := m.history.Append(rec); err != nil {
			log.Warn("monitor: history append failed", zap.Error(err))
		}
	}
}

// suppress applies cross-run notification suppression when enabled. A
// key already notified is dropped unless its price fell further below
// the previously notified price. Load failures fail open.
func (m *Monitor) suppress(ctx context.Context, deals []model.Itinerary, log *zap.Logger) []model.Itinerary {
	if !m.cfg.Notify.SuppressAcrossRuns || len(deals) == 0 {
		return deals
	}

	notified, err := m.store.LoadNotifiedDeals(ctx)
	if err != nil {
		log.Warn("monitor: failed to load notified deals, not suppressing", zap.Error(err))
		return deals
	}

	kept := deals[:0]
	for _, d := range deals {
		if prev, ok := notified[d.Key()]; ok && d.PricePP >= prev {
			log.Info("monitor: suppressing already-notified deal",
				zap.String("origin", d.Origin),
				zap.String("depart", d.DepartDate),
				zap.Float64("price_pp", d.PricePP),
				zap.Float64("notified_pp", prev),
			)
			continue
		}
		kept = append(kept, d)
	}
	return kept
}

// maybeHeartbeat sends the weekly still-alive email when the configured
// weekday/hour has been reached and no alert went out in the last week.
func (m *Monitor) maybeHeartbeat(ctx context.Context, agg aggregate.Result, now time.Time, log *zap.Logger) {
	hb := m.cfg.Notify.Heartbeat
	if !hb.Enabled || m.heartbeat == nil || agg.Best == nil {
		return
	}
	if int(now.Weekday()) != hb.Weekday || now.Hour() < hb.Hour {
		return
	}

	lastAlert, err := m.store.LastAlertAt(ctx)
	if err != nil {
		log.Warn("monitor: failed to load last alert time", zap.Error(err))
	}
	if !lastAlert.IsZero() && now.Sub(lastAlert) < 7*24*time.Hour {
		return
	}

	if err := m.heartbeat.SendHeartbeat(ctx, agg.Best.PricePP, len(agg.Unique)); err != nil {
		log.Warn("monitor: heartbeat send failed", zap.Error(err))
		return
	}
	if err := m.store.SetLastAlertAt(ctx, now); err != nil {
		log.Warn("monitor: failed to record heartbeat time", zap.Error(err))
	}
	log.Info("monitor: heartbeat sent")
}

func (m *Monitor) finish(ctx context.Context, run *model.Run, summary *model.RunSummary) (*model.RunSummary, error) {
	summary.FinishedAt = m.now().UTC()
	if run != nil {
		if err := m.store.CompleteRun(ctx, run.ID, summary); err != nil {
			zap.L().Warn("monitor: failed to save run summary", zap.Error(err))
		}
	}
	return summary, nil
}
