package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alpiant/pos-kasir/internal/config"
	"github.com/alpiant/pos-kasir/internal/printer"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Settings.Path = filepath.Join(t.TempDir(), "settings.yaml")
	cfg.Printing.TempDir = t.TempDir()
	return cfg
}

func TestNewNotConfigured(t *testing.T) {
	a, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	_, err = a.Jobs.PrintTest(context.Background())
	if printer.KindOf(err) != printer.NotConfigured {
		t.Errorf("kind = %s, want NotConfigured", printer.KindOf(err))
	}
}

func TestNewPrintsToDevice(t *testing.T) {
	a, err := New(testConfig(t), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	// A regular file stands in for /dev/usb/lp0.
	dev := filepath.Join(t.TempDir(), "lp0")
	if err := os.WriteFile(dev, nil, 0o666); err != nil {
		t.Fatal(err)
	}
	if err := a.Settings.SetPrinterPort(dev); err != nil {
		t.Fatal(err)
	}

	j, err := a.Jobs.PrintTest(context.Background())
	if err != nil {
		t.Fatalf("PrintTest: %v", err)
	}
	data, err := os.ReadFile(dev)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != j.Bytes || len(data) == 0 {
		t.Errorf("device got %d bytes, job reports %d", len(data), j.Bytes)
	}
}

func TestNewBadSettings(t *testing.T) {
	cfg := testConfig(t)
	if err := os.WriteFile(cfg.Settings.Path, []byte("key: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("expected error for corrupt settings file")
	}
}

func TestMonitorDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Printing.MonitorInterval = 0
	a, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.Monitor() != nil {
		t.Error("monitor should be nil when the interval is zero")
	}

	a.Config.Printing.MonitorInterval = time.Minute
	if a.Monitor() == nil {
		t.Error("monitor should be built for a positive interval")
	}
}
