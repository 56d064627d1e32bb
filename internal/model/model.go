package model

import "time"

// DateFormat is the wire format for all departure/return dates.
const DateFormat = "2006-01-02"

// Candidate is one (origin, departure, return) tuple queued for a fare
// lookup. Candidates are derived deterministically from config and exist
// only within a run.
type Candidate struct {
	Origin string
	Depart time.Time
	Return time.Time
	Nights int
}

// DepartDate returns the departure date in wire format.
func (c Candidate) DepartDate() string { return c.Depart.Format(DateFormat) }

// ReturnDate returns the return date in wire format.
func (c Candidate) ReturnDate() string { return c.Return.Format(DateFormat) }

// Itinerary is a priced round-trip result for a specific candidate.
// Immutable once produced by the fare provider, except for the return-leg
// detail fields filled in by the enrichment pass.
type Itinerary struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	DepartDate  string  `json:"depart_date"`
	ReturnDate  string  `json:"return_date"`
	Nights      int     `json:"nights"`
	PriceTotal  float64 `json:"price_total"`
	PricePP     float64 `json:"price_pp"`
	Currency    string  `json:"currency"`
	Stops       int     `json:"stops"`
	Airline     string  `json:"airline,omitempty"`
	DepartTime  string  `json:"depart_time,omitempty"`
	ArriveTime  string  `json:"arrive_time,omitempty"`
	Duration    string  `json:"duration,omitempty"`
	BookingLink string  `json:"booking_link"`

	// Return-leg details from the one-way enrichment pass.
	ReturnAirline  string `json:"return_airline,omitempty"`
	ReturnDuration string `json:"return_duration,omitempty"`
	ReturnStops    int    `json:"return_stops"`
}

// DealKey identifies a deal for dedup and notification suppression.
// Price may change across runs for the same key.
type DealKey struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	DepartDate  string `json:"depart_date"`
	ReturnDate  string `json:"return_date"`
}

// Key returns the itinerary's deal identity key.
func (i Itinerary) Key() DealKey {
	return DealKey{
		Origin:      i.Origin,
		Destination: i.Destination,
		DepartDate:  i.DepartDate,
		ReturnDate:  i.ReturnDate,
	}
}

// HistoryRecord is one evaluated itinerary appended to the price history
// log. Append-only, never rewritten.
type HistoryRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Itinerary
	Deal bool `json:"deal"`
}

// RunStatus represents the state of a monitoring run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is one recorded monitoring run.
type Run struct {
	ID        string      `json:"id"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// ChannelOutcome is the delivery result for one notification channel.
type ChannelOutcome struct {
	Channel string `json:"channel"`
	Sent    bool   `json:"sent"`
	Error   string `json:"error,omitempty"`
}

// RunSummary reports what one run did. Attempted and succeeded candidate
// counts are reported separately so partial data is never presented as
// complete.
type RunSummary struct {
	CandidatesPlanned  int              `json:"candidates_planned"`
	CandidatesSearched int              `json:"candidates_searched"`
	CandidatesFailed   int              `json:"candidates_failed"`
	ItinerariesFound   int              `json:"itineraries_found"`
	DealsFound         int              `json:"deals_found"`
	DealsNotified      int              `json:"deals_notified"`
	BestPricePP        float64          `json:"best_price_pp,omitempty"`
	Channels           []ChannelOutcome `json:"channels,omitempty"`
	StartedAt          time.Time        `json:"started_at"`
	FinishedAt         time.Time        `json:"finished_at"`
}
