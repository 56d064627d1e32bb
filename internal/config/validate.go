package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks that the configuration is complete and internally
// consistent. A validation failure is fatal: the run must not start.
func (c *Config) Validate() error {
	var errs []string

	if len(c.Route.Origins) == 0 {
		errs = append(errs, "route.origins must not be empty")
	}
	for _, o := range c.Route.Origins {
		if !isIATA(o) {
			errs = append(errs, fmt.Sprintf("route.origins: %q is not a 3-letter IATA code", o))
		}
	}
	if !isIATA(c.Route.Destination) {
		errs = append(errs, fmt.Sprintf("route.destination: %q is not a 3-letter IATA code", c.Route.Destination))
	}

	from, to, err := c.Route.DateRange()
	if err != nil {
		errs = append(errs, "route.date_from/date_to must be YYYY-MM-DD dates")
	} else if from.After(to) {
		errs = append(errs, "route.date_from must not be after route.date_to")
	}

	if c.Route.NightsMin < 0 {
		errs = append(errs, "route.nights_min must not be negative")
	}
	if c.Route.NightsMax < c.Route.NightsMin {
		errs = append(errs, "route.nights_max must not be below route.nights_min")
	}
	if c.Route.Adults < 1 {
		errs = append(errs, "route.adults must be at least 1")
	}

	if c.Search.PriceThresholdPP <= 0 {
		errs = append(errs, "search.price_threshold_pp must be positive")
	}
	if c.Search.MaxStops < 0 {
		errs = append(errs, "search.max_stops must not be negative")
	}
	if c.Search.SampleEveryNDays < 1 {
		errs = append(errs, "search.sample_every_n_days must be at least 1")
	}
	if c.Search.DelaySecs < 0 {
		errs = append(errs, "search.delay_secs must not be negative")
	}

	if c.Provider.SerpAPIKey == "" {
		errs = append(errs, "provider.serpapi_key is required (or set FLIGHT_SERPAPI_KEY)")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func isIATA(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
