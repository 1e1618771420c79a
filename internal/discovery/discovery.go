// Package discovery lists the print destinations reachable from this host.
package discovery

import (
	"context"
	"io/fs"
	"os"
	"runtime"

	"github.com/alpiant/pos-kasir/internal/printer"
	"go.uber.org/zap"
)

// Synthetic entries appended to every listing.
var (
	NetworkEntry = printer.Destination{
		Path:        "network",
		Description: "🌐 Network Printer (TCP/IP — masukkan IP:PORT, contoh: 192.168.1.100:9100)",
	}
	ManualEntry = printer.Destination{
		Path:        "manual",
		Description: "✏️ Manual — Ketik nama printer / path device secara manual",
	}
)

// Source is one way of finding destinations.
type Source interface {
	Name() string
	List(ctx context.Context) ([]printer.Destination, error)
}

// Lister merges sources into a single listing.
type Lister struct {
	sources []Source
	logger  *zap.Logger
}

// NewLister creates a lister over sources, queried in order.
func NewLister(logger *zap.Logger, sources ...Source) *Lister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lister{sources: sources, logger: logger}
}

// List queries every source. A failing source is logged and skipped, so the
// result always ends with the network and manual entries.
func (l *Lister) List(ctx context.Context) []printer.Destination {
	var out []printer.Destination
	seen := make(map[string]bool)

	for _, src := range l.sources {
		found, err := src.List(ctx)
		if err != nil {
			l.logger.Warn("printer scan source failed", zap.String("source", src.Name()), zap.Error(err))
			continue
		}
		l.logger.Debug("printer scan source done", zap.String("source", src.Name()), zap.Int("found", len(found)))

		for _, d := range found {
			if seen[d.Path] {
				continue
			}
			seen[d.Path] = true
			out = append(out, d)
		}
	}

	out = append(out, NetworkEntry, ManualEntry)
	l.logger.Info("printer scan complete", zap.Int("total", len(out)))
	return out
}

// Options configures the platform sources.
type Options struct {
	Logger *zap.Logger
	Runner printer.Runner

	// GOOS selects sources; empty means runtime.GOOS.
	GOOS string

	// USB enriches /dev/usb/lp entries. Nil disables enrichment.
	USB USBEnumerator

	// User is checked for lp/dialout membership on Linux; empty means $USER.
	User string
}

// DefaultSources returns the sources that make sense on opts.GOOS.
func DefaultSources(opts Options) []Source {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Runner == nil {
		opts.Runner = printer.ExecRunner{}
	}
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	serial := NewSerialSource(goos, opts.Runner)
	switch goos {
	case "windows":
		return []Source{serial, &SpoolerSource{Runner: opts.Runner}}
	case "linux":
		user := opts.User
		if user == "" {
			user = os.Getenv("USER")
		}
		return []Source{
			serial,
			NewLPSource(opts.USB, opts.Logger),
			&CUPSSource{Runner: opts.Runner},
			&GroupCheck{Runner: opts.Runner, User: user, Logger: opts.Logger},
		}
	default:
		return []Source{serial, &CUPSSource{Runner: opts.Runner}}
	}
}

// New is a lister over DefaultSources.
func New(opts Options) *Lister {
	return NewLister(opts.Logger, DefaultSources(opts)...)
}

// probeFunc matches printer.ProbeWrite.
type probeFunc func(path string) (printer.WriteHint, fs.FileMode, error)

// globFunc matches filepath.Glob.
type globFunc func(pattern string) ([]string, error)

