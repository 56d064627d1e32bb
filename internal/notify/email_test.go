package notify

import (
	"context"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alepazz/flight-monitor/internal/config"
)

func emailConfig() *config.Config {
	return &config.Config{
		Route: config.RouteConfig{
			Origins:     []string{"MXP", "LIN"},
			Destination: "MLE",
			Adults:      2,
		},
		Search: config.SearchConfig{
			PriceThresholdPP:   650,
			CheckIntervalHours: 12,
		},
		Notify: config.NotifyConfig{
			EmailTo:          "to@example.com",
			EmailFrom:        "from@example.com",
			EmailCC:          "cc@example.com",
			EmailAppPassword: "secret",
			SMTPHost:         "smtp.gmail.com",
			SMTPPort:         587,
		},
	}
}

type sentMail struct {
	addr string
	from string
	to   []string
	msg  []byte
}

func captureEmail(cfg *config.Config) (*Email, *sentMail) {
	e := NewEmail(cfg)
	var captured sentMail
	e.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		captured = sentMail{addr: addr, from: from, to: to, msg: msg}
		return nil
	}
	return e, &captured
}

func TestEmailSend(t *testing.T) {
	t.Parallel()
	e, sent := captureEmail(emailConfig())

	require.NoError(t, e.Send(context.Background(), testDeals()))

	assert.Equal(t, "smtp.gmail.com:587", sent.addr)
	assert.Equal(t, "from@example.com", sent.from)
	assert.Equal(t, []string{"to@example.com", "cc@example.com"}, sent.to)

	msg := string(sent.msg)
	assert.Contains(t, msg, "Subject: Flight Linate, Malpensa - Malé from €640/person!")
	assert.Contains(t, msg, "Cc: cc@example.com")
	assert.Contains(t, msg, "multipart/alternative")
	// Both bodies name the deal.
	assert.Contains(t, msg, "OUT    2026-11-20  Malpensa → Malé")
	assert.Contains(t, msg, "BACK   2026-11-27  Malé → Malpensa")
	assert.Contains(t, msg, "https://example.com/book")
	assert.Contains(t, msg, "<html>")
	assert.Contains(t, msg, "€640")
}

func TestEmailSendReturnLegFallbacks(t *testing.T) {
	t.Parallel()
	e, sent := captureEmail(emailConfig())

	deals := testDeals()
	deals[0].ReturnAirline = ""
	deals[0].ReturnDuration = ""
	require.NoError(t, e.Send(context.Background(), deals))

	assert.Contains(t, string(sent.msg), "n/a")
}

func TestEmailSendNotConfigured(t *testing.T) {
	t.Parallel()
	cfg := emailConfig()
	cfg.Notify.EmailAppPassword = "YOUR_APP_PASSWORD"
	e := NewEmail(cfg)

	assert.Error(t, e.Send(context.Background(), testDeals()))
}

func TestEmailHeartbeat(t *testing.T) {
	t.Parallel()
	e, sent := captureEmail(emailConfig())

	require.NoError(t, e.SendHeartbeat(context.Background(), 705, 12))

	msg := string(sent.msg)
	assert.Contains(t, msg, "Subject: Flight monitor active")
	assert.Contains(t, msg, "no deal under €650")
	assert.Contains(t, msg, "€705/person")
	assert.Contains(t, msg, "12 itineraries")
	assert.Contains(t, msg, "every 12 hours")
	// Heartbeat is plain text only.
	assert.NotContains(t, msg, "multipart/alternative")
}

func TestEmailNoCC(t *testing.T) {
	t.Parallel()
	cfg := emailConfig()
	cfg.Notify.EmailCC = ""
	e, sent := captureEmail(cfg)

	require.NoError(t, e.Send(context.Background(), testDeals()))
	assert.Equal(t, []string{"to@example.com"}, sent.to)
	assert.NotContains(t, string(sent.msg), "Cc:")
}
