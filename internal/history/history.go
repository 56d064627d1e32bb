// Package history appends evaluated itineraries to the append-only price
// history log and qualifying deals to a human-readable deals log.
// Neither file is ever truncated or rewritten by the monitor.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"

	"github.com/Alepazz/flight-monitor/internal/model"
)

// maxDealsLogged caps the deals.txt block per run.
const maxDealsLogged = 10

// Store writes the newline-delimited history file and the deals log.
type Store struct {
	path      string
	dealsPath string
}

// New creates a history store writing to the given file paths.
func New(path, dealsPath string) *Store {
	return &Store{path: path, dealsPath: dealsPath}
}

// Append durably writes one history record as a single JSON line. Each
// call opens, writes and closes the file so a crash mid-run loses at
// most the record being written.
func (s *Store) Append(rec model.HistoryRecord) error {
	line, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "history: marshal record")
	}
	return s.appendLine(s.path, append(line, '\n'))
}

// AppendDeals writes one dated block to the human-readable deals log,
// one summary line plus booking link per deal, capped at the top ten.
func (s *Store) AppendDeals(deals []model.Itinerary, now time.Time) error {
	if len(deals) == 0 {
		return nil
	}
	if len(deals) > maxDealsLogged {
		deals = deals[:maxDealsLogged]
	}

	var b []byte
	b = fmt.Appendf(b, "\n--- %s ---\n", now.Format("2006-01-02 15:04"))
	for _, d := range deals {
		b = fmt.Appendf(b, "€%.0f/pp | %s-%s (%dn) | %s | %s\n  → %s\n",
			d.PricePP, d.DepartDate, d.ReturnDate, d.Nights,
			model.AirportName(d.Origin), d.Airline, d.BookingLink)
	}
	return s.appendLine(s.dealsPath, b)
}

func (s *Store) appendLine(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return eris.Wrapf(err, "history: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	if _, err := f.Write(data); err != nil {
		return eris.Wrapf(err, "history: write %s", path)
	}
	return nil
}
