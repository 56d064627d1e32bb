package notify

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/Alepazz/flight-monitor/internal/config"
	"github.com/Alepazz/flight-monitor/internal/model"
)

// maxDealsPerEmail caps how many deals one alert email lists.
const maxDealsPerEmail = 10

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Email delivers deal alerts over SMTP with a text and an HTML body.
type Email struct {
	cfg         config.NotifyConfig
	route       string
	destination string
	adults      int
	thresholdPP float64
	interval    int

	send sendMailFunc
}

// NewEmail creates the email channel from config.
func NewEmail(cfg *config.Config) *Email {
	return &Email{
		cfg:         cfg.Notify,
		route:       model.RouteLabel(cfg.Route.Origins, cfg.Route.Destination),
		destination: cfg.Route.Destination,
		adults:      cfg.Route.Adults,
		thresholdPP: cfg.Search.PriceThresholdPP,
		interval:    cfg.Search.CheckIntervalHours,
		send:        smtp.SendMail,
	}
}

func (e *Email) Name() string { return "email" }

// Send delivers the deal alert email.
func (e *Email) Send(_ context.Context, deals []model.Itinerary) error {
	if !e.cfg.EmailEnabled() {
		return eris.New("notify: email not configured")
	}
	if len(deals) > maxDealsPerEmail {
		deals = deals[:maxDealsPerEmail]
	}

	subject := fmt.Sprintf("Flight %s from €%.0f/person!", e.route, deals[0].PricePP)
	msg, err := e.buildMessage(subject, e.textBody(deals), e.htmlBody(deals))
	if err != nil {
		return err
	}
	return e.deliver(msg)
}

// SendHeartbeat delivers the weekly still-alive email sent when no deal
// has been found recently.
func (e *Email) SendHeartbeat(_ context.Context, bestPP float64, totalItineraries int) error {
	if !e.cfg.EmailEnabled() {
		return eris.New("notify: email not configured")
	}

	subject := fmt.Sprintf("Flight monitor active — no deal under €%.0f/pp this week", e.thresholdPP)
	var b strings.Builder
	fmt.Fprintf(&b, "The flight monitor for %s is up and running.\n\n", e.route)
	fmt.Fprintf(&b, "No round trip under €%.0f/person was found this week.\n", e.thresholdPP)
	if totalItineraries > 0 {
		fmt.Fprintf(&b, "Best price in the last check: €%.0f/person (%d itineraries evaluated).\n",
			bestPP, totalItineraries)
	}
	fmt.Fprintf(&b, "\nStill checking every %d hours.\n\n-- flight-monitor %s\n", e.interval, e.route)

	msg, err := e.buildMessage(subject, b.String(), "")
	if err != nil {
		return err
	}
	return e.deliver(msg)
}

func (e *Email) recipients() []string {
	to := []string{e.cfg.EmailTo}
	if e.cfg.EmailCC != "" {
		to = append(to, e.cfg.EmailCC)
	}
	return to
}

func (e *Email) deliver(msg []byte) error {
	addr := fmt.Sprintf("%s:%d", e.cfg.SMTPHost, e.cfg.SMTPPort)
	auth := smtp.PlainAuth("", e.cfg.EmailFrom, e.cfg.EmailAppPassword, e.cfg.SMTPHost)
	if err := e.send(addr, auth, e.cfg.EmailFrom, e.recipients(), msg); err != nil {
		return eris.Wrap(err, "notify: send email")
	}
	return nil
}

// buildMessage assembles a multipart/alternative MIME message. An empty
// htmlBody produces a plain-text-only message.
func (e *Email) buildMessage(subject, textBody, htmlBody string) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.cfg.EmailFrom)
	fmt.Fprintf(&b, "To: %s\r\n", e.cfg.EmailTo)
	if e.cfg.EmailCC != "" {
		fmt.Fprintf(&b, "Cc: %s\r\n", e.cfg.EmailCC)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")

	if htmlBody == "" {
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(textBody)
		return []byte(b.String()), nil
	}

	var body strings.Builder
	w := multipart.NewWriter(&body)
	for _, part := range []struct{ contentType, content string }{
		{"text/plain; charset=utf-8", textBody},
		{"text/html; charset=utf-8", htmlBody},
	} {
		h := textproto.MIMEHeader{}
		h.Set("Content-Type", part.contentType)
		pw, err := w.CreatePart(h)
		if err != nil {
			return nil, eris.Wrap(err, "notify: build mime part")
		}
		if _, err := pw.Write([]byte(part.content)); err != nil {
			return nil, eris.Wrap(err, "notify: write mime part")
		}
	}
	if err := w.Close(); err != nil {
		return nil, eris.Wrap(err, "notify: close mime writer")
	}

	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%s\r\n\r\n", w.Boundary())
	b.WriteString(body.String())
	return []byte(b.String()), nil
}

func (e *Email) textBody(deals []model.Itinerary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d round trips under €%.0f/person!\n", len(deals), e.thresholdPP)
	fmt.Fprintf(&b, "Prices are for %d adults, round trip.\n\n", e.adults)

	dest := model.AirportName(e.destination)
	for i, d := range deals {
		fmt.Fprintf(&b, "#%d €%.0f/pp (€%.0f total for %d)\n", i+1, d.PricePP, d.PriceTotal, e.adults)
		fmt.Fprintf(&b, "   OUT    %s  %s → %s\n", d.DepartDate, model.AirportName(d.Origin), dest)
		fmt.Fprintf(&b, "          %s | %s | %s\n", d.Airline, d.Duration, stopsLabel(d.Stops))
		fmt.Fprintf(&b, "   BACK   %s  %s → %s\n", d.ReturnDate, dest, model.AirportName(d.Origin))
		fmt.Fprintf(&b, "          %s | %s | %s\n", orUnknown(d.ReturnAirline), orUnknown(d.ReturnDuration), stopsLabel(d.ReturnStops))
		fmt.Fprintf(&b, "   %d nights\n   %s\n\n", d.Nights, d.BookingLink)
	}
	fmt.Fprintf(&b, "-- flight-monitor %s\n", e.route)
	return b.String()
}

func (e *Email) htmlBody(deals []model.Itinerary) string {
	dest := model.AirportName(e.destination)

	var rows strings.Builder
	for _, d := range deals {
		fmt.Fprintf(&rows, `
		<tr style="border-bottom:1px solid #eee;">
			<td style="padding:14px;text-align:center;vertical-align:top;">
				<div style="font-size:28px;font-weight:bold;color:#2e7d32;">€%.0f</div>
				<div style="font-size:11px;color:#888;">/person round trip</div>
				<div style="font-size:11px;color:#aaa;">€%.0f for %d</div>
			</td>
			<td style="padding:14px;">
				<div style="margin-bottom:6px;"><b>OUT — %s</b> %s → %s<br>
					<span style="color:#666;font-size:13px;">%s | %s | %s</span></div>
				<div style="margin-bottom:6px;"><b>BACK — %s</b> %s → %s<br>
					<span style="color:#666;font-size:13px;">%s | %s | %s</span></div>
				<div style="font-size:12px;color:#888;margin-bottom:8px;">%d nights</div>
				<a href="%s" style="display:inline-block;background:#1a73e8;color:white;padding:6px 14px;border-radius:4px;text-decoration:none;font-size:13px;">View and book →</a>
			</td>
		</tr>`,
			d.PricePP, d.PriceTotal, e.adults,
			d.DepartDate, model.AirportName(d.Origin), dest,
			d.Airline, d.Duration, stopsLabel(d.Stops),
			d.ReturnDate, dest, model.AirportName(d.Origin),
			orUnknown(d.ReturnAirline), orUnknown(d.ReturnDuration), stopsLabel(d.ReturnStops),
			d.Nights, d.BookingLink)
	}

	return fmt.Sprintf(`
	<html><body style="font-family:Arial,sans-serif;max-width:600px;margin:0 auto;">
		<div style="background:#1a73e8;color:white;padding:20px;border-radius:8px 8px 0 0;">
			<h2 style="margin:0;">✈ Flights %s</h2>
			<p style="margin:5px 0 0;opacity:0.9;">%d round trips under €%.0f/person</p>
			<p style="margin:3px 0 0;opacity:0.7;font-size:13px;">Totals are for %d adults</p>
		</div>
		<table style="width:100%%;border-collapse:collapse;">%s</table>
		<div style="padding:15px;color:#888;font-size:12px;">flight-monitor %s</div>
	</body></html>`,
		e.route, len(deals), e.thresholdPP, e.adults, rows.String(), e.route)
}

func stopsLabel(stops int) string {
	switch stops {
	case 0:
		return "Direct"
	case 1:
		return "1 stop"
	default:
		return fmt.Sprintf("%d stops", stops)
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
