package notify

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/Alepazz/flight-monitor/internal/model"
)

// Desktop shows a best-effort OS banner for the cheapest deal. On
// platforms without a known notifier binary it is a silent no-op.
type Desktop struct {
	route string
	goos  string
}

// NewDesktop creates the OS banner channel.
func NewDesktop(origins []string, destination string) *Desktop {
	return &Desktop{
		route: model.RouteLabel(origins, destination),
		goos:  runtime.GOOS,
	}
}

func (d *Desktop) Name() string { return "desktop" }

// Send shows one banner for the best deal of the run.
func (d *Desktop) Send(ctx context.Context, deals []model.Itinerary) error {
	best := deals[0]
	title := fmt.Sprintf("Flight %s!", d.route)
	body := fmt.Sprintf("€%.0f/pp - %s from %s (%dn)",
		best.PricePP, best.DepartDate, model.AirportName(best.Origin), best.Nights)

	var cmd *exec.Cmd
	switch d.goos {
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s" sound name "Glass"`,
			escapeAppleScript(body), escapeAppleScript(title))
		cmd = exec.CommandContext(ctx, "osascript", "-e", script)
	case "linux":
		cmd = exec.CommandContext(ctx, "notify-send", title, body)
	default:
		return nil
	}

	// Missing binary or display is not a failure worth reporting.
	_ = cmd.Run()
	return nil
}

func escapeAppleScript(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
