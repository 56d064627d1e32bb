// Package provider defines the fare lookup boundary and its SerpAPI
// implementation. The monitoring core only ever sees the Provider
// interface, so it can run against scripted fakes in tests.
package provider

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/Alepazz/flight-monitor/internal/model"
)

// Sentinel errors for the lookup boundary. Transient failures are
// recovered per candidate by the run controller; anything else aborts
// the run through the top-level boundary.
var (
	ErrTransient    = eris.New("provider: transient failure")
	ErrAuthRequired = eris.New("provider: authentication required")
)

// Query describes one fare lookup. An empty ReturnDate requests a
// one-way search (used by the return-leg enrichment pass).
type Query struct {
	Origin      string
	Destination string
	DepartDate  string
	ReturnDate  string
	Adults      int
	MaxStops    int
	Currency    string
}

// OneWay reports whether the query has no return leg.
func (q Query) OneWay() bool { return q.ReturnDate == "" }

// Provider returns zero or more priced itineraries for a query. An empty
// result is not an error. No ordering or completeness is guaranteed.
type Provider interface {
	Search(ctx context.Context, q Query) ([]model.Itinerary, error)
}
