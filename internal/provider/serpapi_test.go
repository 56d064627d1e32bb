package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alepazz/flight-monitor/internal/config"
)

func testQuery() Query {
	return Query{
		Origin:      "MXP",
		Destination: "MLE",
		DepartDate:  "2026-11-20",
		ReturnDate:  "2026-11-27",
		Adults:      2,
		MaxStops:    1,
		Currency:    "EUR",
	}
}

func serpServer(t *testing.T, handler http.HandlerFunc) *SerpAPI {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewSerpAPI(config.ProviderConfig{
		SerpAPIKey:  "test-key",
		BaseURL:     srv.URL,
		TimeoutSecs: 5,
		Retries:     0,
	})
}

const serpFixture = `{
	"search_metadata": {"google_flights_url": "https://www.google.com/travel/flights?x=1"},
	"best_flights": [
		{
			"price": 1300,
			"total_duration": 555,
			"layovers": [{"name": "Doha"}],
			"flights": [
				{"airline": "Qatar Airways",
				 "departure_airport": {"id": "MXP", "time": "2026-11-20 09:40"},
				 "arrival_airport": {"id": "DOH", "time": "2026-11-20 17:05"}},
				{"airline": "Qatar Airways",
				 "departure_airport": {"id": "DOH", "time": "2026-11-20 19:45"},
				 "arrival_airport": {"id": "MLE", "time": "2026-11-21 02:55"}}
			]
		}
	],
	"other_flights": [
		{"price": "€1.500", "stops": "Nonstop", "flights": [
			{"airline": "Neos",
			 "departure_airport": {"id": "MXP", "time": "2026-11-20 12:00"},
			 "arrival_airport": {"id": "MLE", "time": "2026-11-20 23:30"}}
		]},
		{"price": 0, "flights": []}
	]
}`

func TestSearchMapsResponse(t *testing.T) {
	t.Parallel()
	var gotURL string
	p := serpServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		_, _ = w.Write([]byte(serpFixture))
	})

	itins, err := p.Search(context.Background(), testQuery())
	require.NoError(t, err)

	// The unpriced entry is dropped.
	require.Len(t, itins, 2)

	first := itins[0]
	assert.Equal(t, "MXP", first.Origin)
	assert.Equal(t, "MLE", first.Destination)
	assert.Equal(t, 1300.0, first.PriceTotal)
	assert.Equal(t, 650.0, first.PricePP) // 1300 / 2 adults
	assert.Equal(t, 1, first.Stops)       // one layover
	assert.Equal(t, "Qatar Airways", first.Airline)
	assert.Equal(t, "2026-11-20 09:40", first.DepartTime)
	assert.Equal(t, "2026-11-21 02:55", first.ArriveTime)
	assert.Equal(t, "9h 15m", first.Duration)
	assert.Equal(t, "https://www.google.com/travel/flights?x=1", first.BookingLink)

	second := itins[1]
	assert.Equal(t, 1500.0, second.PriceTotal) // display-string price parsed
	assert.Equal(t, 750.0, second.PricePP)
	assert.Equal(t, 0, second.Stops) // "Nonstop" text

	// Request carries the engine, route and round-trip dates.
	assert.Contains(t, gotURL, "engine=google_flights")
	assert.Contains(t, gotURL, "departure_id=MXP")
	assert.Contains(t, gotURL, "arrival_id=MLE")
	assert.Contains(t, gotURL, "outbound_date=2026-11-20")
	assert.Contains(t, gotURL, "return_date=2026-11-27")
	assert.Contains(t, gotURL, "adults=2")
}

func TestSearchOneWay(t *testing.T) {
	t.Parallel()
	var gotURL string
	p := serpServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		_, _ = w.Write([]byte(`{"best_flights": [], "other_flights": []}`))
	})

	q := testQuery()
	q.ReturnDate = ""
	itins, err := p.Search(context.Background(), q)
	require.NoError(t, err)

	// Empty result is not an error.
	assert.Empty(t, itins)
	assert.Contains(t, gotURL, "type=2")
	assert.NotContains(t, gotURL, "return_date")
}

func TestSearchNonstopHint(t *testing.T) {
	t.Parallel()
	var gotURL string
	p := serpServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		_, _ = w.Write([]byte(`{}`))
	})

	q := testQuery()
	q.MaxStops = 0
	_, err := p.Search(context.Background(), q)
	require.NoError(t, err)
	assert.Contains(t, gotURL, "stops=1")
}

func TestSearchStatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		sentinel error
	}{
		{"unauthorized", http.StatusUnauthorized, ErrAuthRequired},
		{"forbidden", http.StatusForbidden, ErrAuthRequired},
		{"rate limited", http.StatusTooManyRequests, ErrTransient},
		{"server error", http.StatusInternalServerError, ErrTransient},
		{"bad gateway", http.StatusBadGateway, ErrTransient},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := serpServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := p.Search(context.Background(), testQuery())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.sentinel), "want %v in %v", tt.sentinel, err)
		})
	}
}

func TestSearchBadRequestIsNotTransient(t *testing.T) {
	t.Parallel()
	p := serpServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := p.Search(context.Background(), testQuery())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrTransient))
	assert.False(t, errors.Is(err, ErrAuthRequired))
}

func TestSearchRetriesTransient(t *testing.T) {
	t.Parallel()
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"best_flights": [], "other_flights": []}`))
	}))
	t.Cleanup(srv.Close)
	p := NewSerpAPI(config.ProviderConfig{
		SerpAPIKey: "test-key",
		BaseURL:    srv.URL,
		Retries:    1,
	})

	_, err := p.Search(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSearchEngineError(t *testing.T) {
	t.Parallel()
	p := serpServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": "Your searches for the month are exhausted."}`))
	})

	_, err := p.Search(context.Background(), testQuery())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted")
}

func TestSearchMissingKey(t *testing.T) {
	t.Parallel()
	p := NewSerpAPI(config.ProviderConfig{})

	_, err := p.Search(context.Background(), testQuery())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAuthRequired))
}

func TestSearchBookingLinkFallback(t *testing.T) {
	t.Parallel()
	p := serpServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"best_flights": [{"price": 900, "flights": []}]}`))
	})

	itins, err := p.Search(context.Background(), testQuery())
	require.NoError(t, err)
	require.Len(t, itins, 1)
	assert.Contains(t, itins[0].BookingLink, "google.com/travel/flights")
	assert.Contains(t, itins[0].BookingLink, "f=MXP")
}

func TestBookingURL(t *testing.T) {
	t.Parallel()
	u := BookingURL(testQuery())
	assert.Contains(t, u, "f=MXP")
	assert.Contains(t, u, "t=MLE")
	assert.Contains(t, u, "d=2026-11-20")
	assert.Contains(t, u, "r=2026-11-27")
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "45m", formatDuration(45))
	assert.Equal(t, "9h 15m", formatDuration(555))
	assert.Equal(t, "2h 0m", formatDuration(120))
}
