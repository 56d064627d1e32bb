package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Alepazz/flight-monitor/internal/config"
	"github.com/Alepazz/flight-monitor/internal/model"
)

// maxDealsPerTelegram caps how many deals one Telegram message lists.
const maxDealsPerTelegram = 5

// Telegram delivers deal alerts through the Telegram bot API.
type Telegram struct {
	cfg         config.NotifyConfig
	route       string
	thresholdPP float64
	baseURL     string
	client      *http.Client
}

// NewTelegram creates the Telegram channel from config.
func NewTelegram(cfg *config.Config) *Telegram {
	return &Telegram{
		cfg:         cfg.Notify,
		route:       model.RouteLabel(cfg.Route.Origins, cfg.Route.Destination),
		thresholdPP: cfg.Search.PriceThresholdPP,
		baseURL:     "https://api.telegram.org",
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *Telegram) Name() string { return "telegram" }

// Send posts the deal summary via the bot sendMessage endpoint.
func (t *Telegram) Send(ctx context.Context, deals []model.Itinerary) error {
	if !t.cfg.TelegramEnabled() {
		return eris.New("notify: telegram not configured")
	}

	payload, err := json.Marshal(map[string]string{
		"chat_id":    t.cfg.TelegramChatID,
		"text":       t.message(deals),
		"parse_mode": "HTML",
	})
	if err != nil {
		return eris.Wrap(err, "notify: marshal telegram payload")
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.cfg.TelegramBotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create telegram request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: telegram request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: telegram returned status %d", resp.StatusCode)
	}
	return nil
}

func (t *Telegram) message(deals []model.Itinerary) string {
	if len(deals) > maxDealsPerTelegram {
		deals = deals[:maxDealsPerTelegram]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>Flights %s under €%.0f/pp!</b>\n\n", t.route, t.thresholdPP)
	for i, d := range deals {
		fmt.Fprintf(&b, "<b>#%d €%.0f/pp (€%.0f total)</b>\n", i+1, d.PricePP, d.PriceTotal)
		fmt.Fprintf(&b, "%s-%s (%dn)\n", d.DepartDate, d.ReturnDate, d.Nights)
		fmt.Fprintf(&b, "From: %s | %s\n", model.AirportName(d.Origin), d.Airline)
		fmt.Fprintf(&b, "%s | %s\n\n", d.Duration, stopsLabel(d.Stops))
	}
	return b.String()
}
