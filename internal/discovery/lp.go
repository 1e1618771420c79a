package discovery

import (
	"context"
	"fmt"

	"github.com/alpiant/pos-kasir/internal/printer"
	"go.uber.org/zap"
)

const maxLPDevices = 10

// LPSource finds USB printer-class device nodes under /dev/usb.
type LPSource struct {
	usb    USBEnumerator
	logger *zap.Logger
	probe  probeFunc
}

// NewLPSource creates the Linux lp source. usb may be nil.
func NewLPSource(usb USBEnumerator, logger *zap.Logger) *LPSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LPSource{usb: usb, logger: logger, probe: printer.ProbeWrite}
}

func (s *LPSource) Name() string { return "lp" }

func (s *LPSource) List(ctx context.Context) ([]printer.Destination, error) {
	var out []printer.Destination
	for i := 0; i < maxLPDevices; i++ {
		path := fmt.Sprintf("/dev/usb/lp%d", i)
		hint, _, err := s.probe(path)
		if err != nil {
			continue
		}

		status := "✓ ready"
		if hint == printer.WriteUnlikely {
			status = "✗ butuh: sudo usermod -aG lp $USER"
		}
		out = append(out, printer.Destination{
			Path:        path,
			Description: fmt.Sprintf("USB Printer Direct — %s (%s)", path, status),
		})
	}

	if len(out) > 0 && s.usb != nil {
		s.annotate(out)
	}
	return out, nil
}

// annotate names lp nodes after the USB printers behind them. The kernel
// gives no portable way to pair a node with a device, so names are only
// added when the counts match.
func (s *LPSource) annotate(dests []printer.Destination) {
	devices, err := s.usb.Printers()
	if err != nil {
		s.logger.Debug("usb printer enumeration failed", zap.Error(err))
		return
	}
	if len(devices) != len(dests) {
		s.logger.Debug("usb printer count does not match lp nodes",
			zap.Int("usb", len(devices)), zap.Int("lp", len(dests)))
		return
	}
	for i := range dests {
		dests[i].Description += " — " + devices[i].String()
	}
}
