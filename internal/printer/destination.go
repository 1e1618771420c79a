// Package printer routes ESC/POS byte streams to serial ports, network
// printers, CUPS queues, the Windows spooler or raw device files.
package printer

import (
	"fmt"
	"strings"
)

// Kind identifies a transport.
type Kind string

const (
	KindSerial  Kind = "serial"
	KindNetwork Kind = "network"
	KindCUPS    Kind = "cups"
	KindSpooler Kind = "winprint"
	KindDevice  Kind = "device"
)

// Destination prefixes as stored in settings.
const (
	PrefixSerial  = "serial:"
	PrefixNetwork = "network:"
	PrefixCUPS    = "cups:"
	PrefixSpooler = "winprint:"
)

// Destination is a discovered or stored print target. Path encodes the
// transport, Description is for display only.
type Destination struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

// Target is the result of routing a destination path.
type Target struct {
	Kind    Kind
	Address string
}

func (t Target) String() string {
	return fmt.Sprintf("%s:%s", t.Kind, t.Address)
}

// Route decides which transport serves path. It never touches the system.
// Paths saved before prefixes existed fall back to the legacy heuristics
// (host:port, serial device names, then raw device file).
func Route(path string) (Target, error) {
	switch {
	case strings.HasPrefix(path, PrefixCUPS):
		return Target{Kind: KindCUPS, Address: strings.TrimPrefix(path, PrefixCUPS)}, nil

	case strings.HasPrefix(path, PrefixSpooler):
		return Target{Kind: KindSpooler, Address: strings.TrimPrefix(path, PrefixSpooler)}, nil

	case strings.HasPrefix(path, PrefixNetwork):
		addr := strings.TrimSpace(strings.TrimPrefix(path, PrefixNetwork))
		if !strings.Contains(addr, ":") {
			return Target{Kind: KindNetwork, Address: addr}, &PrintError{
				Kind:   ProtocolError,
				Target: addr,
				Message: fmt.Sprintf("Format alamat network salah: '%s'. "+
					"Gunakan IP:PORT (contoh: 192.168.1.100:9100)", addr),
			}
		}
		return Target{Kind: KindNetwork, Address: addr}, nil

	case strings.HasPrefix(path, PrefixSerial):
		return Target{Kind: KindSerial, Address: strings.TrimPrefix(path, PrefixSerial)}, nil

	case isUSBPrinterDevice(path):
		return Target{Kind: KindDevice, Address: path}, nil

	case strings.Contains(path, ":") && !strings.HasPrefix(path, "/") && !strings.HasPrefix(path, `\`):
		return Target{Kind: KindNetwork, Address: path}, nil

	case isSerialDeviceName(path):
		return Target{Kind: KindSerial, Address: path}, nil

	default:
		return Target{Kind: KindDevice, Address: path}, nil
	}
}

func isUSBPrinterDevice(path string) bool {
	return strings.HasPrefix(path, "/dev/usb/lp")
}

func isSerialDeviceName(path string) bool {
	return strings.HasPrefix(path, "/dev/tty") ||
		strings.HasPrefix(path, "/dev/cu.") ||
		strings.HasPrefix(path, "COM")
}
