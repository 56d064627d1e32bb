// Package search expands the configured route and travel window into the
// ordered sequence of fare lookup candidates.
package search

import (
	"time"

	"github.com/Alepazz/flight-monitor/internal/config"
	"github.com/Alepazz/flight-monitor/internal/model"
)

// Generate expands the config into the concrete candidate sequence:
// origins in input order, departure dates from date_from to date_to
// stepped by sample_every_n_days (the first departure is always
// date_from), nights from nights_min to nights_max inclusive.
//
// The window is clamped to what the fare engine can actually answer:
// departures start no earlier than tomorrow and no search reaches past
// now + max_days_ahead. A window entirely outside that horizon yields no
// candidates. Generation is a pure function of config and now.
func Generate(cfg *config.Config, now time.Time) []model.Candidate {
	from, to, err := cfg.Route.DateRange()
	if err != nil {
		return nil
	}

	today := midnight(now)
	horizon := today.AddDate(0, 0, cfg.Search.MaxDaysAhead)

	start := from
	if tomorrow := today.AddDate(0, 0, 1); start.Before(tomorrow) {
		start = tomorrow
	}
	end := to
	if end.After(horizon) {
		end = horizon
	}
	if start.After(end) {
		return nil
	}

	stride := cfg.Search.SampleEveryNDays
	var candidates []model.Candidate
	for _, origin := range cfg.Route.Origins {
		for d := start; !d.After(end); d = d.AddDate(0, 0, stride) {
			for nights := cfg.Route.NightsMin; nights <= cfg.Route.NightsMax; nights++ {
				ret := d.AddDate(0, 0, nights)
				if ret.After(horizon) {
					continue
				}
				candidates = append(candidates, model.Candidate{
					Origin: origin,
					Depart: d,
					Return: ret,
					Nights: nights,
				})
			}
		}
	}
	return candidates
}

func midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
