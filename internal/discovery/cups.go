package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/alpiant/pos-kasir/internal/printer"
)

// CUPSSource lists CUPS queues with lpstat -p.
type CUPSSource struct {
	Runner printer.Runner
}

func (s *CUPSSource) Name() string { return "cups" }

func (s *CUPSSource) List(ctx context.Context) ([]printer.Destination, error) {
	res, err := s.Runner.Run(ctx, "lpstat", "-p")
	if err != nil {
		return nil, fmt.Errorf("lpstat not found, CUPS not installed: %w", err)
	}
	if !res.Success() {
		// lpstat exits non-zero when the scheduler has no queues or is down.
		return nil, fmt.Errorf("lpstat failed (exit %d): %s", res.ExitCode, strings.TrimSpace(string(res.Stderr)))
	}
	return parseLpstat(string(res.Stdout)), nil
}

// parseLpstat reads lines such as
//
//	printer EPSON_TM_T20 is idle.  enabled since Mon 01 Jan 2024
//
// Continuation lines (alerts, descriptions) are indented and skipped.
func parseLpstat(out string) []printer.Destination {
	var dests []printer.Destination
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 || fields[0] != "printer" {
			continue
		}
		name := fields[1]
		dests = append(dests, printer.Destination{
			Path:        printer.PrefixCUPS + name,
			Description: fmt.Sprintf("CUPS: %s (%s)", name, cupsStatus(line)),
		})
	}
	return dests
}

func cupsStatus(line string) string {
	switch {
	case strings.Contains(line, "idle"):
		return "✓ idle"
	case strings.Contains(line, "disabled"):
		return "⚠ disabled"
	case strings.Contains(line, "printing"):
		return "🖨 printing"
	default:
		return "?"
	}
}
