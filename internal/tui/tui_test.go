package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alpiant/pos-kasir/internal/discovery"
	"github.com/alpiant/pos-kasir/internal/escpos"
	"github.com/alpiant/pos-kasir/internal/job"
	"github.com/alpiant/pos-kasir/internal/printer"
)

type fakeService struct {
	jobs    []job.Job
	testErr error
}

func (f *fakeService) PrintReceipt(ctx context.Context, tx escpos.Transaction, items []escpos.Item) (job.Job, error) {
	return job.Job{}, nil
}

func (f *fakeService) PrintTest(ctx context.Context) (job.Job, error) {
	return job.Job{ID: "t1"}, f.testErr
}

func (f *fakeService) PrintLabels(ctx context.Context, labels []escpos.Label) (job.Job, error) {
	return job.Job{}, nil
}

func (f *fakeService) ListDestinations(ctx context.Context) []printer.Destination {
	return []printer.Destination{
		{Path: "serial:/dev/ttyUSB0", Description: "USB Serial — /dev/ttyUSB0 ✓"},
		discovery.NetworkEntry,
		discovery.ManualEntry,
	}
}

func (f *fakeService) Jobs() []job.Job { return append([]job.Job(nil), f.jobs...) }

func (f *fakeService) Job(id string) (job.Job, bool) { return job.Job{}, false }

func (f *fakeService) ClearCompleted() int {
	n := len(f.jobs)
	f.jobs = nil
	return n
}

type memPorts struct {
	port string
}

func (m *memPorts) PrinterPort() (string, error) { return m.port, nil }

func (m *memPorts) SetPrinterPort(path string) error {
	m.port = path
	return nil
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func typeText(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func newPicker(t *testing.T, ports *memPorts) PrintersModel {
	t.Helper()
	svc := &fakeService{}
	m := NewPrintersModel(svc, ports)
	m.SetSize(80, 30)
	m.SetDestinations(svc.ListDestinations(context.Background()))
	return m
}

func TestNetworkAddress(t *testing.T) {
	tests := []struct {
		host, port string
		want       string
		wantErr    bool
	}{
		{"192.168.1.100", "", "192.168.1.100:9100", false},
		{" 10.0.0.5 ", "9101", "10.0.0.5:9101", false},
		{"10.0.0.5:9200", "", "10.0.0.5:9200", false},
		{"10.0.0.5:9200", "9101", "", true},
		{"[::1]:9200", "9100", "", true},
		{"printer.local", "515", "printer.local:515", false},
		{"::1", "9100", "[::1]:9100", false},
		{"", "9100", "", true},
		{"10.0.0.5", "abc", "", true},
		{"10.0.0.5", "70000", "", true},
	}
	for _, tt := range tests {
		got, err := networkAddress(tt.host, tt.port)
		if (err != nil) != tt.wantErr {
			t.Errorf("networkAddress(%q, %q) error = %v", tt.host, tt.port, err)
			continue
		}
		if got != tt.want {
			t.Errorf("networkAddress(%q, %q) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestPickerSelectsDiscoveredPath(t *testing.T) {
	ports := &memPorts{}
	m := newPicker(t, ports)

	m, _ = m.Update(key(tea.KeyEnter))
	if ports.port != "serial:/dev/ttyUSB0" {
		t.Errorf("port = %q", ports.port)
	}
	if m.Current() != "serial:/dev/ttyUSB0" || m.messageType != "success" {
		t.Errorf("current = %q message = %q", m.Current(), m.message)
	}
}

func TestPickerNetworkEntry(t *testing.T) {
	ports := &memPorts{}
	m := newPicker(t, ports)

	m, _ = m.Update(key(tea.KeyDown))
	m, _ = m.Update(key(tea.KeyEnter))
	if !m.InputActive() || m.mode != modeNetwork {
		t.Fatal("network entry did not open the address form")
	}
	if ports.port != "" {
		t.Fatalf("placeholder was stored: %q", ports.port)
	}

	// keys that would otherwise switch tabs go to the input
	m, _ = m.Update(typeText("10.0.0.5"))
	m, _ = m.Update(key(tea.KeyEnter))

	if ports.port != "network:10.0.0.5:9100" {
		t.Errorf("port = %q, want network:10.0.0.5:9100", ports.port)
	}
	if m.InputActive() {
		t.Error("form still open after save")
	}
}

func TestPickerNetworkRequiresHost(t *testing.T) {
	ports := &memPorts{port: "COM3"}
	m := newPicker(t, ports)

	m, _ = m.Update(key(tea.KeyDown))
	m, _ = m.Update(key(tea.KeyEnter))
	m, _ = m.Update(key(tea.KeyEnter))

	if m.messageType != "error" || !m.InputActive() {
		t.Errorf("message = %q (%s)", m.message, m.messageType)
	}
	if ports.port != "COM3" {
		t.Errorf("port changed to %q", ports.port)
	}

	m, _ = m.Update(key(tea.KeyEsc))
	if m.InputActive() {
		t.Error("esc did not close the form")
	}
}

func TestPickerManualEntry(t *testing.T) {
	ports := &memPorts{}
	m := newPicker(t, ports)

	m, _ = m.Update(key(tea.KeyDown))
	m, _ = m.Update(key(tea.KeyDown))
	m, _ = m.Update(key(tea.KeyEnter))
	if m.mode != modeManual {
		t.Fatal("manual entry did not open the text form")
	}

	m, _ = m.Update(typeText("network:10.0.0.9"))
	m, _ = m.Update(key(tea.KeyEnter))
	if ports.port != "" || m.messageType != "error" {
		t.Fatalf("address without port accepted: port=%q message=%q", ports.port, m.message)
	}

	m.manualInput.SetValue("cups:EPSON_TM_T20")
	m, _ = m.Update(key(tea.KeyEnter))
	if ports.port != "cups:EPSON_TM_T20" {
		t.Errorf("port = %q", ports.port)
	}
}

func TestPickerCursorBounds(t *testing.T) {
	m := newPicker(t, &memPorts{})
	m, _ = m.Update(key(tea.KeyUp))
	if m.cursor != 0 {
		t.Errorf("cursor = %d after up at top", m.cursor)
	}
	for i := 0; i < 10; i++ {
		m, _ = m.Update(key(tea.KeyDown))
	}
	if m.cursor != 2 {
		t.Errorf("cursor = %d, want 2", m.cursor)
	}

	m.SetDestinations(nil)
	if m.cursor != 0 {
		t.Errorf("cursor = %d after empty scan", m.cursor)
	}
	m, _ = m.Update(key(tea.KeyEnter))
}

func TestPickerScanAndTestPrint(t *testing.T) {
	svc := &fakeService{testErr: printer.ErrNotConfigured()}
	m := NewPrintersModel(svc, &memPorts{})

	cmd := m.Scan()
	if !m.scanning {
		t.Error("scanning not set")
	}
	m, _ = m.Update(cmd())
	if m.scanning || len(m.dests) != 3 {
		t.Errorf("scanning=%v dests=%d", m.scanning, len(m.dests))
	}

	m, cmd = m.Update(typeText("t"))
	if cmd == nil {
		t.Fatal("test print returned no command")
	}
	m, _ = m.Update(cmd())
	if m.messageType != "error" {
		t.Errorf("message = %q (%s)", m.message, m.messageType)
	}
}

func TestJobsRefreshNewestFirst(t *testing.T) {
	now := time.Now()
	svc := &fakeService{jobs: []job.Job{
		{ID: "a", Status: job.StatusCompleted, CreatedAt: now.Add(-time.Minute)},
		{ID: "b", Status: job.StatusFailed, CreatedAt: now},
	}}
	m := NewJobsModel(svc)
	m.SetSize(80, 30)
	m.Refresh()

	if m.jobs[0].ID != "b" || m.jobs[1].ID != "a" {
		t.Errorf("order = %s, %s", m.jobs[0].ID, m.jobs[1].ID)
	}
	if svc.jobs[0].ID != "a" {
		t.Error("service history was reordered")
	}

	m, _ = m.Update(typeText("c"))
	if len(m.jobs) != 0 || m.message != "Cleared 2 completed" {
		t.Errorf("jobs = %d message = %q", len(m.jobs), m.message)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"USB Serial — /dev/ttyUSB0", 10, "USB Ser..."},
		{"🖨 printer", 2, "🖨 "},
		{"anything", 0, "anything"},
		{"anything", -5, "anything"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestAppQuitAndTabs(t *testing.T) {
	a := NewApp(&fakeService{}, &memPorts{})
	a.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	a.Update(typeText("2"))
	if a.activeTab != TabJobs {
		t.Errorf("tab = %v", a.activeTab)
	}
	a.Update(key(tea.KeyTab))
	if a.activeTab != TabPrinters {
		t.Errorf("tab = %v after wrap", a.activeTab)
	}
	if a.View() == "" {
		t.Error("empty view")
	}

	_, cmd := a.Update(typeText("q"))
	if cmd == nil || !a.quitting {
		t.Error("q did not quit")
	}
}
