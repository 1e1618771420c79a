package discovery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/gousb"
)

// USBPrinter describes a USB device exposing the printer class.
type USBPrinter struct {
	Vendor       uint16
	Product      uint16
	Manufacturer string
	Model        string
	Bus          int
	Address      int
}

func (p USBPrinter) String() string {
	name := strings.TrimSpace(p.Manufacturer + " " + p.Model)
	if name == "" {
		return fmt.Sprintf("USB %04X:%04X", p.Vendor, p.Product)
	}
	return fmt.Sprintf("%s (%04X:%04X)", name, p.Vendor, p.Product)
}

// USBEnumerator lists USB printers.
type USBEnumerator interface {
	Printers() ([]USBPrinter, error)
}

// LibUSB enumerates printers through libusb.
type LibUSB struct{}

// Printers opens every printer-class device just long enough to read its
// strings. Devices that refuse to open are still reported by ID.
func (LibUSB) Printers() ([]USBPrinter, error) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	var found []USBPrinter
	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		if !isPrinterClass(desc) {
			return false
		}
		found = append(found, USBPrinter{
			Vendor:  uint16(desc.Vendor),
			Product: uint16(desc.Product),
			Bus:     desc.Bus,
			Address: desc.Address,
		})
		return true
	})
	defer func() {
		for _, d := range devs {
			d.Close()
		}
	}()

	for _, dev := range devs {
		for i := range found {
			if found[i].Bus != dev.Desc.Bus || found[i].Address != dev.Desc.Address {
				continue
			}
			found[i].Manufacturer, _ = dev.Manufacturer()
			found[i].Model, _ = dev.Product()
		}
	}

	if err != nil && len(found) == 0 {
		return nil, fmt.Errorf("failed to enumerate USB devices: %w", err)
	}

	// lp minors follow enumeration order on the bus.
	sort.Slice(found, func(i, j int) bool {
		if found[i].Bus != found[j].Bus {
			return found[i].Bus < found[j].Bus
		}
		return found[i].Address < found[j].Address
	})
	return found, nil
}

func isPrinterClass(desc *gousb.DeviceDesc) bool {
	if desc.Class == gousb.ClassPrinter {
		return true
	}
	for _, cfg := range desc.Configs {
		for _, iface := range cfg.Interfaces {
			for _, alt := range iface.AltSettings {
				if alt.Class == gousb.ClassPrinter {
					return true
				}
			}
		}
	}
	return false
}
