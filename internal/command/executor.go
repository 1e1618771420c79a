// Package command provides the text command system shared by the CLI and
// the HTTP API.
package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alpiant/pos-kasir/internal/escpos"
	"github.com/alpiant/pos-kasir/internal/job"
	"github.com/alpiant/pos-kasir/internal/printer"
)

// Service is the print service the executor drives.
type Service interface {
	PrintReceipt(ctx context.Context, tx escpos.Transaction, items []escpos.Item) (job.Job, error)
	PrintTest(ctx context.Context) (job.Job, error)
	PrintLabels(ctx context.Context, labels []escpos.Label) (job.Job, error)
	ListDestinations(ctx context.Context) []printer.Destination
	Jobs() []job.Job
	Job(id string) (job.Job, bool)
	ClearCompleted() int
}

// PortStore holds the configured destination.
type PortStore interface {
	PrinterPort() (string, error)
	SetPrinterPort(path string) error
}

// Executor executes commands
type Executor struct {
	service Service
	ports   PortStore
}

// NewExecutor creates a new command executor
func NewExecutor(service Service, ports PortStore) *Executor {
	return &Executor{
		service: service,
		ports:   ports,
	}
}

// Result represents the result of executing a command
type Result struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
	Kind    printer.ErrorKind      `json:"kind,omitempty"`
}

func failure(err error) *Result {
	r := &Result{Success: false, Error: err.Error()}
	var pe *printer.PrintError
	if errors.As(err, &pe) {
		r.Kind = pe.Kind
	}
	return r
}

func failuref(format string, args ...interface{}) *Result {
	return &Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Execute executes a command string and returns a result
func (e *Executor) Execute(ctx context.Context, cmdStr string) *Result {
	parts := parseCommand(cmdStr)
	if len(parts) == 0 {
		return failuref("empty command")
	}

	command := parts[0]
	args := parts[1:]

	// "print test" reads the same as "test".
	if command == "print" {
		if len(args) == 0 {
			return failuref("usage: print <test|receipt|labels> [file]")
		}
		command, args = args[0], args[1:]
	}

	switch command {
	case "test":
		return e.handleTest(ctx)
	case "receipt":
		return e.handleReceipt(ctx, args)
	case "labels":
		return e.handleLabels(ctx, args)
	case "port":
		return e.handlePort(args)
	case "job":
		return e.handleJob(args)
	case "detect":
		return e.handleDetect(ctx)
	case "help":
		return e.handleHelp()
	default:
		return failuref("unknown command: %s. Type 'help' for available commands", command)
	}
}

// parseCommand parses a command string into parts, handling quoted strings
func parseCommand(cmdStr string) []string {
	cmdStr = strings.TrimSpace(cmdStr)
	if cmdStr == "" {
		return []string{}
	}

	var parts []string
	var current strings.Builder
	inQuotes := false
	quoteChar := byte(0)

	for i := 0; i < len(cmdStr); i++ {
		char := cmdStr[i]

		switch {
		case char == '"' || char == '\'':
			if !inQuotes {
				inQuotes = true
				quoteChar = char
			} else if char == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else {
				current.WriteByte(char)
			}
		case (char == ' ' || char == '\t') && !inQuotes:
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(char)
		}
	}

	if current.Len() > 0 {
		parts = append(parts, current.String())
	}

	return parts
}
