package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Alepazz/flight-monitor/internal/config"
	"github.com/Alepazz/flight-monitor/internal/model"
	"github.com/Alepazz/flight-monitor/internal/resilience"
)

// SerpAPI looks up fares through the SerpAPI google_flights engine.
type SerpAPI struct {
	cfg    config.ProviderConfig
	client *http.Client
}

// NewSerpAPI creates a SerpAPI provider from config.
func NewSerpAPI(cfg config.ProviderConfig) *SerpAPI {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &SerpAPI{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type serpResponse struct {
	BestFlights  []serpItinerary `json:"best_flights"`
	OtherFlights []serpItinerary `json:"other_flights"`
	SearchMeta   struct {
		GoogleFlightsURL string `json:"google_flights_url"`
	} `json:"search_metadata"`
	Error string `json:"error"`
}

type serpItinerary struct {
	Price         priceValue `json:"price"`
	TotalDuration int        `json:"total_duration"`
	Layovers      []struct {
		Name string `json:"name"`
	} `json:"layovers"`
	Stops   string    `json:"stops"`
	Flights []serpLeg `json:"flights"`
}

type serpLeg struct {
	Airline      string `json:"airline"`
	FlightNumber string `json:"flight_number"`
	Departure    struct {
		ID   string `json:"id"`
		Time string `json:"time"`
	} `json:"departure_airport"`
	Arrival struct {
		ID   string `json:"id"`
		Time string `json:"time"`
	} `json:"arrival_airport"`
}

// priceValue tolerates both numeric and display-string prices in engine
// responses ("650", "€1.234").
type priceValue float64

func (p *priceValue) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*p = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		v, err := ParsePrice(raw)
		if err != nil {
			return err
		}
		*p = priceValue(v)
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*p = priceValue(v)
	return nil
}

// Search performs one fare lookup with bounded retries on transient
// failures. Inter-request pacing is the caller's concern.
func (s *SerpAPI) Search(ctx context.Context, q Query) ([]model.Itinerary, error) {
	if s.cfg.SerpAPIKey == "" {
		return nil, eris.Wrap(ErrAuthRequired, "provider: serpapi key missing")
	}

	endpoint := s.buildURL(q)

	var payload serpResponse
	if err := s.fetchWithRetry(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if payload.Error != "" {
		return nil, eris.Errorf("provider: serpapi error: %s", payload.Error)
	}

	raw := append(payload.BestFlights, payload.OtherFlights...)
	itins := make([]model.Itinerary, 0, len(raw))
	for _, item := range raw {
		if item.Price <= 0 {
			continue
		}
		itins = append(itins, s.mapItinerary(q, item, payload.SearchMeta.GoogleFlightsURL))
	}
	return itins, nil
}

func (s *SerpAPI) buildURL(q Query) string {
	v := url.Values{}
	v.Set("engine", "google_flights")
	v.Set("api_key", s.cfg.SerpAPIKey)
	v.Set("departure_id", q.Origin)
	v.Set("arrival_id", q.Destination)
	v.Set("outbound_date", q.DepartDate)
	if q.OneWay() {
		v.Set("type", "2")
	} else {
		v.Set("return_date", q.ReturnDate)
	}
	v.Set("adults", strconv.Itoa(max(q.Adults, 1)))
	if q.Currency != "" {
		v.Set("currency", q.Currency)
	}
	if q.MaxStops == 0 {
		v.Set("stops", "1") // engine value 1 = nonstop only
	}
	base := strings.TrimRight(s.cfg.BaseURL, "/")
	if base == "" {
		base = "https://serpapi.com"
	}
	return base + "/search.json?" + v.Encode()
}

func (s *SerpAPI) fetchWithRetry(ctx context.Context, endpoint string, out *serpResponse) error {
	cfg := resilience.DefaultRetryConfig()
	cfg.MaxAttempts = s.cfg.Retries + 1
	cfg.ShouldRetry = func(err error) bool { return errors.Is(err, ErrTransient) }
	cfg.OnRetry = func(attempt int, err error) {
		zap.L().Warn("provider: lookup failed, retrying",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return resilience.Do(ctx, cfg, func(ctx context.Context) error {
		return s.fetchOnce(ctx, endpoint, out)
	})
}

func (s *SerpAPI) fetchOnce(ctx context.Context, endpoint string, out *serpResponse) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return eris.Wrap(err, "provider: create request")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		if isNetworkTransient(err) {
			return eris.Wrap(ErrTransient, err.Error())
		}
		return eris.Wrap(err, "provider: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		msg := strings.TrimSpace(string(body))
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return eris.Wrapf(ErrAuthRequired, "provider: %s: %s", resp.Status, msg)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return eris.Wrapf(ErrTransient, "provider: %s: %s", resp.Status, msg)
		default:
			return eris.Errorf("provider: %s: %s", resp.Status, msg)
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return eris.Wrap(err, "provider: decode response")
	}
	return nil
}

func (s *SerpAPI) mapItinerary(q Query, raw serpItinerary, link string) model.Itinerary {
	adults := max(q.Adults, 1)
	total := float64(raw.Price)

	stops := len(raw.Layovers)
	if stops == 0 && raw.Stops != "" {
		stops = ParseStops(raw.Stops)
	}

	it := model.Itinerary{
		Origin:      q.Origin,
		Destination: q.Destination,
		DepartDate:  q.DepartDate,
		ReturnDate:  q.ReturnDate,
		PriceTotal:  total,
		PricePP:     math.Round(total/float64(adults)*100) / 100,
		Currency:    q.Currency,
		Stops:       stops,
		BookingLink: link,
	}
	if it.BookingLink == "" {
		it.BookingLink = BookingURL(q)
	}
	if raw.TotalDuration > 0 {
		it.Duration = formatDuration(raw.TotalDuration)
	}
	if len(raw.Flights) > 0 {
		it.Airline = raw.Flights[0].Airline
		it.DepartTime = raw.Flights[0].Departure.Time
		it.ArriveTime = raw.Flights[len(raw.Flights)-1].Arrival.Time
	}
	return it
}

// BookingURL builds a Google Flights deep link for the query, used when
// the engine response does not carry one.
func BookingURL(q Query) string {
	v := url.Values{}
	v.Set("f", q.Origin)
	v.Set("t", q.Destination)
	v.Set("d", q.DepartDate)
	if q.ReturnDate != "" {
		v.Set("r", q.ReturnDate)
	}
	if q.Adults > 0 {
		v.Set("ad", strconv.Itoa(q.Adults))
	}
	if q.Currency != "" {
		v.Set("curr", q.Currency)
	}
	return "https://www.google.com/travel/flights?" + v.Encode()
}

func formatDuration(minutes int) string {
	h, m := minutes/60, minutes%60
	if h == 0 {
		return strconv.Itoa(m) + "m"
	}
	return strconv.Itoa(h) + "h " + strconv.Itoa(m) + "m"
}

func isNetworkTransient(err error) bool {
	if errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
