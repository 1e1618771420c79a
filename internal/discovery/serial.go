package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alpiant/pos-kasir/internal/printer"
)

const serialComKey = `HKLM\HARDWARE\DEVICEMAP\SERIALCOMM`

// darwinSkip marks /dev/cu.* nodes that are never printers.
var darwinSkip = []string{"bluetooth", "debug-console", "wlan-debug"}

// SerialSource finds serial and USB-serial ports.
type SerialSource struct {
	goos   string
	runner printer.Runner

	glob     globFunc
	readlink func(string) (string, error)
	probe    probeFunc
}

// NewSerialSource creates a serial source for goos.
func NewSerialSource(goos string, runner printer.Runner) *SerialSource {
	return &SerialSource{
		goos:     goos,
		runner:   runner,
		glob:     filepath.Glob,
		readlink: os.Readlink,
		probe:    printer.ProbeWrite,
	}
}

func (s *SerialSource) Name() string { return "serial" }

func (s *SerialSource) List(ctx context.Context) ([]printer.Destination, error) {
	var (
		ports []string
		err   error
	)
	switch s.goos {
	case "windows":
		ports, err = s.windowsPorts(ctx)
	case "darwin":
		ports, err = s.darwinPorts()
	default:
		ports, err = s.linuxPorts()
	}
	if err != nil {
		return nil, err
	}

	out := make([]printer.Destination, 0, len(ports))
	for _, port := range ports {
		out = append(out, printer.Destination{
			Path:        printer.PrefixSerial + port,
			Description: fmt.Sprintf("%s — %s%s", serialKind(port), port, s.permissionMark(port)),
		})
	}
	return out, nil
}

func (s *SerialSource) linuxPorts() ([]string, error) {
	var ports []string
	for _, pattern := range []string{"/dev/ttyUSB*", "/dev/ttyACM*"} {
		matches, err := s.glob(pattern)
		if err != nil {
			return nil, err
		}
		ports = append(ports, matches...)
	}

	// Most ttyS nodes are placeholders registered by the platform 8250
	// driver whether or not a UART is present.
	matches, err := s.glob("/dev/ttyS*")
	if err != nil {
		return nil, err
	}
	for _, dev := range matches {
		link, err := s.readlink(filepath.Join("/sys/class/tty", filepath.Base(dev), "device", "subsystem"))
		if err != nil || filepath.Base(link) == "platform" {
			continue
		}
		ports = append(ports, dev)
	}

	return ports, nil
}

func (s *SerialSource) darwinPorts() ([]string, error) {
	matches, err := s.glob("/dev/cu.*")
	if err != nil {
		return nil, err
	}
	var ports []string
next:
	for _, dev := range matches {
		lower := strings.ToLower(dev)
		for _, skip := range darwinSkip {
			if strings.Contains(lower, skip) {
				continue next
			}
		}
		ports = append(ports, dev)
	}
	return ports, nil
}

// windowsPorts reads COM port names from the registry. Each value line looks
// like "    \Device\Serial0    REG_SZ    COM1".
func (s *SerialSource) windowsPorts(ctx context.Context) ([]string, error) {
	res, err := s.runner.Run(ctx, "reg", "query", serialComKey)
	if err != nil {
		return nil, fmt.Errorf("reg query: %w", err)
	}
	if !res.Success() {
		// The key is absent when the machine has no serial ports.
		return nil, nil
	}

	var ports []string
	for _, line := range strings.Split(string(res.Stdout), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 3 && fields[len(fields)-2] == "REG_SZ" {
			ports = append(ports, fields[len(fields)-1])
		}
	}
	sort.Strings(ports)
	return ports, nil
}

func serialKind(port string) string {
	switch {
	case strings.HasPrefix(port, "/dev/ttyUSB"), strings.HasPrefix(port, "/dev/ttyACM"),
		strings.HasPrefix(port, "/dev/cu.usb"):
		return "USB Serial"
	default:
		return "Serial Port"
	}
}

func (s *SerialSource) permissionMark(port string) string {
	if s.goos == "windows" {
		return ""
	}
	hint, _, err := s.probe(port)
	if err != nil {
		return " ⚠"
	}
	switch hint {
	case printer.WriteLikely:
		return " ✓"
	case printer.WriteUnlikely:
		return " ✗ (butuh: sudo usermod -aG dialout,lp $USER)"
	}
	return ""
}
