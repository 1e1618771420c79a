package discovery

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/alpiant/pos-kasir/internal/printer"
)

// DefaultMonitorInterval is how often Monitor rescans.
const DefaultMonitorInterval = 10 * time.Second

// Monitor rescans periodically and reports destinations that appear or
// disappear, keyed by Path.
type Monitor struct {
	lister    interface{ List(context.Context) []printer.Destination }
	interval  time.Duration
	logger    *zap.Logger
	onAdded   func(printer.Destination)
	onRemoved func(printer.Destination)
}

// NewMonitor creates a monitor over l. A non-positive interval uses
// DefaultMonitorInterval.
func NewMonitor(l *Lister, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultMonitorInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{lister: l, interval: interval, logger: logger}
}

// OnAdded registers the callback for new destinations.
func (m *Monitor) OnAdded(fn func(printer.Destination)) { m.onAdded = fn }

// OnRemoved registers the callback for vanished destinations.
func (m *Monitor) OnRemoved(fn func(printer.Destination)) { m.onRemoved = fn }

// Run scans until ctx ends. The first scan is the baseline and reports
// nothing.
func (m *Monitor) Run(ctx context.Context) {
	previous := m.scan(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			current := m.scan(ctx)
			m.diff(previous, current)
			previous = current
		}
	}
}

func (m *Monitor) scan(ctx context.Context) map[string]printer.Destination {
	out := make(map[string]printer.Destination)
	for _, d := range m.lister.List(ctx) {
		out[d.Path] = d
	}
	return out
}

func (m *Monitor) diff(previous, current map[string]printer.Destination) {
	for path, d := range current {
		if _, ok := previous[path]; !ok {
			m.logger.Info("printer added", zap.String("path", path), zap.String("description", d.Description))
			if m.onAdded != nil {
				m.onAdded(d)
			}
		}
	}
	for path, d := range previous {
		if _, ok := current[path]; !ok {
			m.logger.Info("printer removed", zap.String("path", path))
			if m.onRemoved != nil {
				m.onRemoved(d)
			}
		}
	}
}
