// Package aggregate deduplicates, ranks and classifies priced
// itineraries collected across a run.
package aggregate

import (
	"sort"

	"github.com/Alepazz/flight-monitor/internal/model"
)

// Result holds the aggregated view of one run's itineraries.
type Result struct {
	// Best is the cheapest surviving itinerary, nil when none survived.
	Best *model.Itinerary
	// Unique is every surviving itinerary, ascending by price per person.
	Unique []model.Itinerary
	// Deals is the subset of Unique at or below the price threshold.
	Deals []model.Itinerary
}

// Aggregate filters out itineraries beyond maxStops, deduplicates by
// deal key keeping the lowest price per person (ties broken by lower
// stop count, then first seen), sorts ascending by price and classifies
// deals. The threshold boundary is inclusive. Empty input is not an
// error and yields a zero Result.
func Aggregate(itins []model.Itinerary, thresholdPP float64, maxStops int) Result {
	byKey := make(map[model.DealKey]model.Itinerary)
	order := make([]model.DealKey, 0, len(itins))

	for _, it := range itins {
		if it.Stops > maxStops {
			continue
		}
		key := it.Key()
		prev, seen := byKey[key]
		if !seen {
			byKey[key] = it
			order = append(order, key)
			continue
		}
		if it.PricePP < prev.PricePP ||
			(it.PricePP == prev.PricePP && it.Stops < prev.Stops) {
			byKey[key] = it
		}
	}

	unique := make([]model.Itinerary, 0, len(order))
	for _, key := range order {
		unique = append(unique, byKey[key])
	}
	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].PricePP < unique[j].PricePP
	})

	res := Result{Unique: unique}
	if len(unique) > 0 {
		res.Best = &unique[0]
	}
	for _, it := range unique {
		if it.PricePP <= thresholdPP {
			res.Deals = append(res.Deals, it)
		}
	}
	return res
}
