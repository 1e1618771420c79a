package command

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alpiant/pos-kasir/internal/discovery"
	"github.com/alpiant/pos-kasir/internal/job"
	"github.com/alpiant/pos-kasir/internal/printer"
	"github.com/alpiant/pos-kasir/pkg/receiptformat"
)

const maxDocumentSize = 1 << 20

func jobResult(j job.Job, message string) *Result {
	return &Result{
		Success: true,
		Message: message,
		Data:    jobData(j),
	}
}

func jobData(j job.Job) map[string]interface{} {
	data := map[string]interface{}{
		"id":          j.ID,
		"type":        j.Type,
		"destination": j.Destination,
		"status":      j.Status,
		"bytes":       j.Bytes,
		"created_at":  j.CreatedAt,
	}
	if j.Error != "" {
		data["error"] = j.Error
		data["error_kind"] = j.ErrorKind
	}
	return data
}

// handleTest prints the test page
// Usage: test
func (e *Executor) handleTest(ctx context.Context) *Result {
	j, err := e.service.PrintTest(ctx)
	if err != nil {
		return failure(err)
	}
	return jobResult(j, "Test print berhasil dikirim ke printer!")
}

// handleReceipt prints a receipt document
// Usage: receipt <file.json|url>
func (e *Executor) handleReceipt(ctx context.Context, args []string) *Result {
	if len(args) < 1 {
		return failuref("usage: receipt <file.json|url>")
	}

	data, err := loadDocument(ctx, args[0])
	if err != nil {
		return failuref("failed to load receipt: %v", err)
	}
	r, err := receiptformat.ParseReceipt(data)
	if err != nil {
		return failuref("invalid receipt: %v", err)
	}

	j, err := e.service.PrintReceipt(ctx, r.Transaction, r.Items)
	if err != nil {
		return failure(err)
	}
	return jobResult(j, "Struk berhasil dicetak!")
}

// handleLabels prints a label document
// Usage: labels <file.json|url>
func (e *Executor) handleLabels(ctx context.Context, args []string) *Result {
	if len(args) < 1 {
		return failuref("usage: labels <file.json|url>")
	}

	data, err := loadDocument(ctx, args[0])
	if err != nil {
		return failuref("failed to load labels: %v", err)
	}
	sheet, err := receiptformat.ParseLabels(data)
	if err != nil {
		return failuref("invalid labels: %v", err)
	}

	j, err := e.service.PrintLabels(ctx, sheet.Labels)
	if err != nil {
		return failure(err)
	}
	return jobResult(j, fmt.Sprintf("%d label berhasil dicetak!", sheet.Copies()))
}

// handlePort reads or stores the destination
// Usage: port get | set <path>
func (e *Executor) handlePort(args []string) *Result {
	if len(args) == 0 {
		return failuref("usage: port <get|set>")
	}

	switch args[0] {
	case "get":
		port, err := e.ports.PrinterPort()
		if err != nil {
			return failure(err)
		}
		if port == "" {
			return failure(printer.ErrNotConfigured())
		}
		target, err := printer.Route(port)
		data := map[string]interface{}{"path": port}
		if err == nil {
			data["transport"] = target.Kind
			data["address"] = target.Address
		}
		return &Result{Success: true, Message: port, Data: data}

	case "set":
		if len(args) < 2 {
			return failuref("usage: port set <path>")
		}
		path := strings.TrimSpace(args[1])
		target, err := CheckPort(path)
		if err != nil {
			return failure(err)
		}
		if err := e.ports.SetPrinterPort(path); err != nil {
			return failuref("failed to save printer port: %v", err)
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Printer port set to %s (%s)", path, target.Kind),
			Data:    map[string]interface{}{"path": path, "transport": target.Kind},
		}

	default:
		return failuref("unknown port subcommand: %s. Use: get, set", args[0])
	}
}

// CheckPort routes path and rejects the picker placeholders, which are
// not destinations themselves.
func CheckPort(path string) (printer.Target, error) {
	if path == "" {
		return printer.Target{}, printer.ErrNotConfigured()
	}
	if path == discovery.NetworkEntry.Path || path == discovery.ManualEntry.Path {
		return printer.Target{}, fmt.Errorf("'%s' is a placeholder; enter the printer address or name instead", path)
	}
	return printer.Route(path)
}

// handleJob handles job commands
// Usage: job list | status <id> | clear
func (e *Executor) handleJob(args []string) *Result {
	if len(args) == 0 {
		return failuref("usage: job <list|status|clear>")
	}

	switch args[0] {
	case "list":
		jobs := e.service.Jobs()
		jobList := make([]map[string]interface{}, len(jobs))
		for i, j := range jobs {
			jobList[i] = jobData(j)
		}
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Found %d job(s)", len(jobs)),
			Data:    map[string]interface{}{"jobs": jobList},
		}

	case "status":
		if len(args) < 2 {
			return failuref("usage: job status <id>")
		}
		j, ok := e.service.Job(args[1])
		if !ok {
			return failuref("job not found: %s", args[1])
		}
		return &Result{Success: true, Message: string(j.Status), Data: jobData(j)}

	case "clear":
		n := e.service.ClearCompleted()
		return &Result{
			Success: true,
			Message: fmt.Sprintf("Cleared %d completed job(s)", n),
			Data:    map[string]interface{}{"removed": n},
		}

	default:
		return failuref("unknown job subcommand: %s. Use: list, status, clear", args[0])
	}
}

// handleDetect lists destinations
// Usage: detect
func (e *Executor) handleDetect(ctx context.Context) *Result {
	dests := e.service.ListDestinations(ctx)

	var b strings.Builder
	for _, d := range dests {
		fmt.Fprintf(&b, "  %-32s %s\n", d.Path, d.Description)
	}
	return &Result{
		Success: true,
		Message: fmt.Sprintf("Found %d destination(s)\n%s", len(dests), b.String()),
		Data: map[string]interface{}{
			"count":        len(dests),
			"destinations": dests,
		},
	}
}

func (e *Executor) handleHelp() *Result {
	helpText := `Available Commands:

  detect
    Scan serial ports, USB printers, CUPS queues and Windows printers

  port get
    Show the configured printer destination

  port set <path>
    Store the printer destination. Examples of <path>:
      serial:/dev/ttyUSB0     serial:COM3
      network:192.168.1.100:9100
      cups:EPSON_TM_T20       winprint:POS-58
      /dev/usb/lp0

  test
    Print the connection test page

  receipt <file.json|url>
    Print a receipt document ({"transaction": {...}, "items": [...]})

  labels <file.json|url>
    Print barcode labels ({"labels": [...]} or a bare array)

  job list
    List print jobs

  job status <id>
    Get status of a specific job

  job clear
    Clear completed jobs

  help
    Show this help message

Examples:
  port set network:192.168.1.100:9100
  test
  receipt ./struk.json
  labels ./labels.json
`
	return &Result{Success: true, Message: helpText}
}

// loadDocument reads a JSON document from a file or an http(s) URL
func loadDocument(ctx context.Context, location string) ([]byte, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		return os.ReadFile(location)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch document from URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch document: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read document from URL: %w", err)
	}
	return data, nil
}
