package model

import (
	"fmt"
	"sort"
	"strings"
)

// knownAirports maps IATA codes to display names used in notifications.
// Unknown codes fall back to the code itself.
var knownAirports = map[string]string{
	"MXP": "Malpensa",
	"LIN": "Linate",
	"BGY": "Bergamo",
	"MLE": "Malé",
	"FCO": "Fiumicino",
	"VCE": "Venezia",
	"BLQ": "Bologna",
	"NAP": "Napoli",
	"PMO": "Palermo",
	"CTA": "Catania",
	"TRN": "Torino",
	"FLR": "Firenze",
	"PSA": "Pisa",
}

// AirportName returns the display name for an IATA code, or the code
// itself when unknown.
func AirportName(code string) string {
	if name, ok := knownAirports[code]; ok {
		return name
	}
	return code
}

// RouteLabel renders a short human label for the monitored route,
// e.g. "Malpensa, Linate - Malé".
func RouteLabel(origins []string, destination string) string {
	seen := make(map[string]struct{}, len(origins))
	names := make([]string, 0, len(origins))
	for _, o := range origins {
		name := AirportName(o)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)

	label := strings.Join(names, ", ")
	if len(names) > 3 {
		label = fmt.Sprintf("%d airports", len(names))
	}
	return label + " - " + AirportName(destination)
}
