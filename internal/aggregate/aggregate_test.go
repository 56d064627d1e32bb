package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alepazz/flight-monitor/internal/model"
)

func itin(origin, depart string, pricePP float64, stops int) model.Itinerary {
	return model.Itinerary{
		Origin:      origin,
		Destination: "MLE",
		DepartDate:  depart,
		ReturnDate:  "2026-12-01",
		PricePP:     pricePP,
		PriceTotal:  pricePP * 2,
		Stops:       stops,
	}
}

func TestAggregateEmpty(t *testing.T) {
	t.Parallel()

	res := Aggregate(nil, 650, 1)

	assert.Nil(t, res.Best)
	assert.Empty(t, res.Unique)
	assert.Empty(t, res.Deals)
}

func TestAggregateDedupKeepsLowestPrice(t *testing.T) {
	t.Parallel()
	itins := []model.Itinerary{
		itin("MXP", "2026-11-20", 700, 1),
		itin("MXP", "2026-11-20", 640, 1), // same key, cheaper
		itin("LIN", "2026-11-20", 660, 0),
	}

	res := Aggregate(itins, 650, 1)

	require.Len(t, res.Unique, 2)
	assert.Equal(t, 640.0, res.Unique[0].PricePP)
	assert.Equal(t, "MXP", res.Unique[0].Origin)
	assert.Equal(t, 660.0, res.Unique[1].PricePP)
}

func TestAggregateTieBreakLowerStops(t *testing.T) {
	t.Parallel()
	itins := []model.Itinerary{
		itin("MXP", "2026-11-20", 650, 1),
		itin("MXP", "2026-11-20", 650, 0), // same key, same price, fewer stops
	}

	res := Aggregate(itins, 700, 1)

	require.Len(t, res.Unique, 1)
	assert.Equal(t, 0, res.Unique[0].Stops)
}

func TestAggregateTieBreakFirstSeen(t *testing.T) {
	t.Parallel()
	a := itin("MXP", "2026-11-20", 650, 1)
	a.Airline = "first"
	b := itin("MXP", "2026-11-20", 650, 1)
	b.Airline = "second"

	res := Aggregate([]model.Itinerary{a, b}, 700, 1)

	require.Len(t, res.Unique, 1)
	assert.Equal(t, "first", res.Unique[0].Airline)
}

func TestAggregateStopFilterBeforeDedup(t *testing.T) {
	t.Parallel()
	itins := []model.Itinerary{
		itin("MXP", "2026-11-20", 600, 2), // cheapest but too many stops
		itin("MXP", "2026-11-20", 700, 1),
	}

	res := Aggregate(itins, 650, 1)

	// The filtered itinerary must not shadow the surviving one.
	require.Len(t, res.Unique, 1)
	assert.Equal(t, 700.0, res.Unique[0].PricePP)
	assert.Empty(t, res.Deals)
}

func TestAggregateSortAscending(t *testing.T) {
	t.Parallel()
	itins := []model.Itinerary{
		itin("MXP", "2026-11-25", 700, 1),
		itin("MXP", "2026-11-20", 620, 1),
		itin("LIN", "2026-11-20", 655, 0),
	}

	res := Aggregate(itins, 650, 1)

	require.Len(t, res.Unique, 3)
	assert.Equal(t, []float64{620, 655, 700},
		[]float64{res.Unique[0].PricePP, res.Unique[1].PricePP, res.Unique[2].PricePP})
	require.NotNil(t, res.Best)
	assert.Equal(t, 620.0, res.Best.PricePP)
}

func TestAggregateThresholdInclusive(t *testing.T) {
	t.Parallel()
	itins := []model.Itinerary{
		itin("MXP", "2026-11-20", 650, 0), // exactly at threshold: a deal
		itin("LIN", "2026-11-20", 650.01, 0),
	}

	res := Aggregate(itins, 650, 1)

	require.Len(t, res.Deals, 1)
	assert.Equal(t, 650.0, res.Deals[0].PricePP)
}

func TestAggregateAllDeals(t *testing.T) {
	t.Parallel()
	itins := []model.Itinerary{
		itin("MXP", "2026-11-20", 600, 0),
		itin("LIN", "2026-11-25", 640, 1),
	}

	res := Aggregate(itins, 650, 1)

	assert.Len(t, res.Deals, 2)
	assert.Equal(t, res.Unique, res.Deals)
}
