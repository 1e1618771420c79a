package discovery

import (
	"context"
	"fmt"
	"strings"

	"github.com/alpiant/pos-kasir/internal/printer"
)

const getPrinterScript = "Get-Printer | Select-Object -Property Name,DriverName,PortName,PrinterStatus | Format-List"

// virtualPrinters are spooler queues that never reach paper.
var virtualPrinters = []string{"pdf", "xps", "onenote", "fax", "microsoft print"}

// SpoolerSource lists Windows spooler printers. PowerShell Get-Printer needs
// Windows 8 or later; wmic covers older hosts.
type SpoolerSource struct {
	Runner printer.Runner
}

type spoolEntry struct {
	name, driver, port string
}

func (s *SpoolerSource) Name() string { return "winprint" }

func (s *SpoolerSource) List(ctx context.Context) ([]printer.Destination, error) {
	res, err := s.Runner.Run(ctx, "powershell", "-NoProfile", "-Command", getPrinterScript)
	if err == nil && res.Success() {
		return spoolDestinations(parseFormatList(string(res.Stdout))), nil
	}

	res, wmicErr := s.Runner.Run(ctx, "wmic", "printer", "get", "Name,PortName,DriverName", "/format:csv")
	if wmicErr != nil {
		return nil, fmt.Errorf("Get-Printer and wmic unavailable: %w", wmicErr)
	}
	if !res.Success() {
		return nil, fmt.Errorf("wmic exit status %d", res.ExitCode)
	}
	return spoolDestinations(parseWmicCSV(string(res.Stdout))), nil
}

// parseFormatList reads blocks of "Key : Value" lines separated by blanks.
func parseFormatList(out string) []spoolEntry {
	var (
		entries []spoolEntry
		cur     spoolEntry
	)
	flush := func() {
		if cur.name != "" {
			entries = append(entries, cur)
		}
		cur = spoolEntry{}
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "Name":
			cur.name = value
		case "DriverName":
			cur.driver = value
		case "PortName":
			cur.port = value
		}
	}
	flush()
	return entries
}

// parseWmicCSV reads Node,DriverName,Name,PortName rows; wmic sorts columns
// alphabetically regardless of the order requested.
func parseWmicCSV(out string) []spoolEntry {
	var entries []spoolEntry
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || i == 0 || strings.HasPrefix(line, "Node,") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 4 {
			continue
		}
		name := strings.TrimSpace(fields[2])
		if name == "" {
			continue
		}
		entries = append(entries, spoolEntry{
			name:   name,
			driver: strings.TrimSpace(fields[1]),
			port:   strings.TrimSpace(fields[3]),
		})
	}
	return entries
}

func spoolDestinations(entries []spoolEntry) []printer.Destination {
	var dests []printer.Destination
	for _, e := range entries {
		if isVirtualPrinter(e.name) {
			continue
		}
		dests = append(dests, printer.Destination{
			Path:        printer.PrefixSpooler + e.name,
			Description: fmt.Sprintf("🖨️ %s (Driver: %s, Port: %s)", e.name, e.driver, e.port),
		})
	}
	return dests
}

func isVirtualPrinter(name string) bool {
	lower := strings.ToLower(name)
	for _, v := range virtualPrinters {
		if strings.Contains(lower, v) {
			return true
		}
	}
	return false
}
