package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"testing"

	"github.com/alpiant/pos-kasir/internal/printer"
)

// scriptRunner answers commands by name.
type scriptRunner struct {
	results map[string]printer.Result
	errs    map[string]error
	calls   []string
}

func (r *scriptRunner) Run(ctx context.Context, name string, args ...string) (printer.Result, error) {
	r.calls = append(r.calls, name)
	if err, ok := r.errs[name]; ok {
		return printer.Result{}, err
	}
	if res, ok := r.results[name]; ok {
		return res, nil
	}
	return printer.Result{}, &fs.PathError{Op: "exec", Path: name, Err: fs.ErrNotExist}
}

type staticSource struct {
	name  string
	dests []printer.Destination
	err   error
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) List(ctx context.Context) ([]printer.Destination, error) {
	return s.dests, s.err
}

func TestListerAlwaysAppendsSynthetic(t *testing.T) {
	got := NewLister(nil).List(context.Background())
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}
	if got[0].Path != "network" || got[1].Path != "manual" {
		t.Errorf("synthetic entries = %v", got)
	}
}

func TestListerSkipsFailingSources(t *testing.T) {
	l := NewLister(nil,
		staticSource{name: "broken", err: errors.New("boom")},
		staticSource{name: "cups", dests: []printer.Destination{{Path: "cups:A", Description: "CUPS: A"}}},
	)
	got := l.List(context.Background())
	if len(got) != 3 || got[0].Path != "cups:A" {
		t.Errorf("got %v", got)
	}
}

func TestListerDedup(t *testing.T) {
	l := NewLister(nil,
		staticSource{name: "a", dests: []printer.Destination{{Path: "/dev/usb/lp0", Description: "first"}}},
		staticSource{name: "b", dests: []printer.Destination{
			{Path: "/dev/usb/lp0", Description: "second"},
			{Path: "cups:B"},
		}},
	)
	got := l.List(context.Background())
	if len(got) != 4 {
		t.Fatalf("got %d entries: %v", len(got), got)
	}
	if got[0].Description != "first" {
		t.Errorf("dedup should keep first seen, got %q", got[0].Description)
	}
	seen := map[string]int{}
	for _, d := range got {
		seen[d.Path]++
	}
	for p, n := range seen {
		if n > 1 {
			t.Errorf("path %s appears %d times", p, n)
		}
	}
}

func TestDefaultSourcesNoDevices(t *testing.T) {
	for _, goos := range []string{"linux", "darwin", "windows"} {
		t.Run(goos, func(t *testing.T) {
			runner := &scriptRunner{}
			sources := DefaultSources(Options{GOOS: goos, Runner: runner, User: "kasir"})
			for _, src := range sources {
				switch s := src.(type) {
				case *SerialSource:
					s.glob = func(string) ([]string, error) { return nil, nil }
				case *LPSource:
					s.probe = func(string) (printer.WriteHint, fs.FileMode, error) {
						return printer.WriteUnknown, 0, fs.ErrNotExist
					}
				}
			}
			got := NewLister(nil, sources...).List(context.Background())
			if len(got) != 2 {
				t.Errorf("got %v, want only synthetic entries", got)
			}
		})
	}
}

func TestSerialSourceLinux(t *testing.T) {
	s := NewSerialSource("linux", &scriptRunner{})
	s.glob = func(pattern string) ([]string, error) {
		switch pattern {
		case "/dev/ttyUSB*":
			return []string{"/dev/ttyUSB0"}, nil
		case "/dev/ttyACM*":
			return []string{"/dev/ttyACM0"}, nil
		case "/dev/ttyS*":
			return []string{"/dev/ttyS0", "/dev/ttyS1"}, nil
		}
		return nil, nil
	}
	s.readlink = func(path string) (string, error) {
		if strings.Contains(path, "ttyS0") {
			return "../../../../bus/pnp", nil
		}
		return "../../../bus/platform", nil
	}
	s.probe = func(path string) (printer.WriteHint, fs.FileMode, error) {
		switch path {
		case "/dev/ttyUSB0":
			return printer.WriteLikely, 0o660, nil
		case "/dev/ttyACM0":
			return printer.WriteUnlikely, 0o600, nil
		}
		return printer.WriteUnknown, 0, errors.New("stat failed")
	}

	got, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []printer.Destination{
		{Path: "serial:/dev/ttyUSB0", Description: "USB Serial — /dev/ttyUSB0 ✓"},
		{Path: "serial:/dev/ttyACM0", Description: "USB Serial — /dev/ttyACM0 ✗ (butuh: sudo usermod -aG dialout,lp $USER)"},
		{Path: "serial:/dev/ttyS0", Description: "Serial Port — /dev/ttyS0 ⚠"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSerialSourceDarwinSkipsBluetooth(t *testing.T) {
	s := NewSerialSource("darwin", &scriptRunner{})
	s.glob = func(string) ([]string, error) {
		return []string{"/dev/cu.Bluetooth-Incoming-Port", "/dev/cu.debug-console", "/dev/cu.usbserial-1410"}, nil
	}
	s.probe = func(string) (printer.WriteHint, fs.FileMode, error) { return printer.WriteLikely, 0o666, nil }

	got, _ := s.List(context.Background())
	if len(got) != 1 || got[0].Path != "serial:/dev/cu.usbserial-1410" {
		t.Errorf("got %v", got)
	}
}

func TestSerialSourceWindowsRegistry(t *testing.T) {
	out := "\r\nHKEY_LOCAL_MACHINE\\HARDWARE\\DEVICEMAP\\SERIALCOMM\r\n" +
		"    \\Device\\Serial0    REG_SZ    COM1\r\n" +
		"    \\Device\\USBSER000    REG_SZ    COM3\r\n\r\n"
	runner := &scriptRunner{results: map[string]printer.Result{"reg": {Stdout: []byte(out)}}}
	s := NewSerialSource("windows", runner)

	got, err := s.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Path != "serial:COM1" || got[1].Path != "serial:COM3" {
		t.Fatalf("got %v", got)
	}
	if got[0].Description != "Serial Port — COM1" {
		t.Errorf("description = %q", got[0].Description)
	}
}

type fakeUSB struct {
	printers []USBPrinter
	err      error
}

func (f fakeUSB) Printers() ([]USBPrinter, error) { return f.printers, f.err }

func lpProbe(present map[string]printer.WriteHint) probeFunc {
	return func(path string) (printer.WriteHint, fs.FileMode, error) {
		hint, ok := present[path]
		if !ok {
			return printer.WriteUnknown, 0, &fs.PathError{Op: "stat", Path: path, Err: os.ErrNotExist}
		}
		return hint, 0o660, nil
	}
}

func TestLPSource(t *testing.T) {
	s := NewLPSource(nil, nil)
	s.probe = lpProbe(map[string]printer.WriteHint{
		"/dev/usb/lp0": printer.WriteLikely,
		"/dev/usb/lp2": printer.WriteUnlikely,
	})

	got, _ := s.List(context.Background())
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
	if got[0].Path != "/dev/usb/lp0" || got[0].Description != "USB Printer Direct — /dev/usb/lp0 (✓ ready)" {
		t.Errorf("lp0 = %+v", got[0])
	}
	if got[1].Description != "USB Printer Direct — /dev/usb/lp2 (✗ butuh: sudo usermod -aG lp $USER)" {
		t.Errorf("lp2 = %+v", got[1])
	}
}

func TestLPSourceUSBAnnotation(t *testing.T) {
	s := NewLPSource(fakeUSB{printers: []USBPrinter{{Vendor: 0x04B8, Product: 0x0E15, Manufacturer: "EPSON", Model: "TM-T20"}}}, nil)
	s.probe = lpProbe(map[string]printer.WriteHint{"/dev/usb/lp0": printer.WriteLikely})

	got, _ := s.List(context.Background())
	want := "USB Printer Direct — /dev/usb/lp0 (✓ ready) — EPSON TM-T20 (04B8:0E15)"
	if len(got) != 1 || got[0].Description != want {
		t.Errorf("got %v, want %q", got, want)
	}

	// ambiguous pairing leaves descriptions alone
	s.usb = fakeUSB{printers: []USBPrinter{{}, {}}}
	got, _ = s.List(context.Background())
	if strings.Contains(got[0].Description, "(0000:0000)") || strings.Contains(got[0].Description, "USB 0000") {
		t.Errorf("unexpected annotation: %q", got[0].Description)
	}
}

func TestUSBPrinterString(t *testing.T) {
	if got := (USBPrinter{Vendor: 0x0416, Product: 0x5011}).String(); got != "USB 0416:5011" {
		t.Errorf("got %q", got)
	}
}

func TestCUPSSource(t *testing.T) {
	out := "printer EPSON_TM_T20 is idle.  enabled since Mon 01 Jan 2024 10:00:00\n" +
		"printer POS58 disabled since Tue 02 Jan 2024 -\n" +
		"\treason unknown\n" +
		"printer Kitchen now printing Kitchen-12.  enabled since Wed\n" +
		"printer Odd unknown state\n"
	runner := &scriptRunner{results: map[string]printer.Result{"lpstat": {Stdout: []byte(out)}}}

	got, err := (&CUPSSource{Runner: runner}).List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []printer.Destination{
		{Path: "cups:EPSON_TM_T20", Description: "CUPS: EPSON_TM_T20 (✓ idle)"},
		{Path: "cups:POS58", Description: "CUPS: POS58 (⚠ disabled)"},
		{Path: "cups:Kitchen", Description: "CUPS: Kitchen (🖨 printing)"},
		{Path: "cups:Odd", Description: "CUPS: Odd (?)"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestCUPSSourceMissing(t *testing.T) {
	_, err := (&CUPSSource{Runner: &scriptRunner{}}).List(context.Background())
	if err == nil {
		t.Fatal("expected error when lpstat is missing")
	}
}

func TestSpoolerSourcePowerShell(t *testing.T) {
	out := "\r\nName          : EPSON TM-T82 Receipt\r\nDriverName    : EPSON TM-T82 Receipt5\r\nPortName      : USB001\r\nPrinterStatus : Normal\r\n\r\n" +
		"Name          : Microsoft Print to PDF\r\nDriverName    : Microsoft Print To PDF\r\nPortName      : PORTPROMPT:\r\nPrinterStatus : Normal\r\n\r\n" +
		"Name          : POS-58\r\nDriverName    : Generic / Text Only\r\nPortName      : USB002\r\nPrinterStatus : Normal\r\n"
	runner := &scriptRunner{results: map[string]printer.Result{"powershell": {Stdout: []byte(out)}}}

	got, err := (&SpoolerSource{Runner: runner}).List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
	if got[0].Path != "winprint:EPSON TM-T82 Receipt" {
		t.Errorf("path = %q", got[0].Path)
	}
	if got[0].Description != "🖨️ EPSON TM-T82 Receipt (Driver: EPSON TM-T82 Receipt5, Port: USB001)" {
		t.Errorf("description = %q", got[0].Description)
	}
	if got[1].Path != "winprint:POS-58" {
		t.Errorf("path = %q", got[1].Path)
	}
	for _, c := range runner.calls {
		if c == "wmic" {
			t.Error("wmic must not run when PowerShell succeeds")
		}
	}
}

func TestSpoolerSourceWmicFallback(t *testing.T) {
	out := "\r\r\nNode,DriverName,Name,PortName\r\r\n" +
		"KASIR,Generic / Text Only,POS-58,USB001\r\r\n" +
		"KASIR,Microsoft XPS Document Writer v4,Microsoft XPS Document Writer,PORTPROMPT:\r\r\n" +
		"KASIR,Send to OneNote,OneNote (Desktop),nul:\r\r\n"
	runner := &scriptRunner{
		results: map[string]printer.Result{
			"powershell": {ExitCode: 1},
			"wmic":       {Stdout: []byte(out)},
		},
	}

	got, err := (&SpoolerSource{Runner: runner}).List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].Path != "winprint:POS-58" {
		t.Fatalf("got %v", got)
	}
	if got[0].Description != "🖨️ POS-58 (Driver: Generic / Text Only, Port: USB001)" {
		t.Errorf("description = %q", got[0].Description)
	}
}

func TestMissingGroups(t *testing.T) {
	tests := []struct {
		out  string
		want []string
	}{
		{"kasir : kasir adm lp dialout sudo\n", nil},
		{"kasir : kasir adm sudo\n", []string{"lp", "dialout"}},
		{"kasir lpadmin dialout\n", []string{"lp"}},
	}
	for _, tt := range tests {
		got := missingGroups(tt.out)
		if fmt.Sprint(got) != fmt.Sprint(tt.want) {
			t.Errorf("missingGroups(%q) = %v, want %v", tt.out, got, tt.want)
		}
	}
}

func TestGroupCheckContributesNothing(t *testing.T) {
	runner := &scriptRunner{results: map[string]printer.Result{"groups": {Stdout: []byte("kasir : kasir\n")}}}
	g := &GroupCheck{Runner: runner, User: "kasir"}

	got, err := g.List(context.Background())
	if err != nil || len(got) != 0 {
		t.Errorf("List = %v, %v", got, err)
	}
	missing, _ := g.Missing(context.Background())
	if len(missing) != 2 {
		t.Errorf("missing = %v", missing)
	}
}
