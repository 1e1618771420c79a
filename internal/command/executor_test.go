package command

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/alpiant/pos-kasir/internal/escpos"
	"github.com/alpiant/pos-kasir/internal/job"
	"github.com/alpiant/pos-kasir/internal/printer"
)

type fakeService struct {
	jobs     []job.Job
	err      error
	receipts int
	tests    int
	labels   []escpos.Label
	items    []escpos.Item
	cleared  int
}

func (f *fakeService) next(typ job.Type) job.Job {
	j := job.Job{ID: "job-1", Type: typ, Destination: "network:10.0.0.5:9100", Status: job.StatusCompleted}
	f.jobs = append(f.jobs, j)
	return j
}

func (f *fakeService) PrintReceipt(ctx context.Context, tx escpos.Transaction, items []escpos.Item) (job.Job, error) {
	if f.err != nil {
		return job.Job{}, f.err
	}
	f.receipts++
	f.items = items
	return f.next(job.TypeReceipt), nil
}

func (f *fakeService) PrintTest(ctx context.Context) (job.Job, error) {
	if f.err != nil {
		return job.Job{}, f.err
	}
	f.tests++
	return f.next(job.TypeTest), nil
}

func (f *fakeService) PrintLabels(ctx context.Context, labels []escpos.Label) (job.Job, error) {
	if f.err != nil {
		return job.Job{}, f.err
	}
	f.labels = labels
	return f.next(job.TypeLabels), nil
}

func (f *fakeService) ListDestinations(ctx context.Context) []printer.Destination {
	return []printer.Destination{
		{Path: "serial:/dev/ttyUSB0", Description: "USB Serial — /dev/ttyUSB0"},
		{Path: "network", Description: "Network"},
	}
}

func (f *fakeService) Jobs() []job.Job { return f.jobs }

func (f *fakeService) Job(id string) (job.Job, bool) {
	for _, j := range f.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return job.Job{}, false
}

func (f *fakeService) ClearCompleted() int {
	n := len(f.jobs)
	f.jobs = nil
	f.cleared += n
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

const receiptDoc = `{
  "version": "1.0",
  "transaction": {"id": "TRX-001", "total_amount": 15000, "payment_method": "cash", "amount_paid": 20000},
  "items": [{"name": "Kopi", "quantity": 1, "price_at_time": 15000}]
}`

const labelsDoc = `[
  {"name": "Kopi Bubuk", "price": 25000, "barcode": "8991234567891", "qty": 2},
  {"name": "Gula", "price": 14000, "barcode": "ABC-123", "qty": 1}
]`

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"   ", []string{}},
		{"test", []string{"test"}},
		{"port  set\tserial:COM3", []string{"port", "set", "serial:COM3"}},
		{`port set "winprint:POS 58"`, []string{"port", "set", "winprint:POS 58"}},
		{`receipt 'my receipt.json'`, []string{"receipt", "my receipt.json"}},
		{`port set "it's"`, []string{"port", "set", "it's"}},
	}
	for _, tt := range tests {
		got := parseCommand(tt.in)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseCommand(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExecuteUnknownAndEmpty(t *testing.T) {
	e := NewExecutor(&fakeService{}, &memPorts{})
	if r := e.Execute(context.Background(), ""); r.Success {
		t.Error("empty command succeeded")
	}
	r := e.Execute(context.Background(), "frobnicate")
	if r.Success || !strings.Contains(r.Error, "unknown command") {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestExecuteTest(t *testing.T) {
	svc := &fakeService{}
	e := NewExecutor(svc, &memPorts{})

	for _, cmd := range []string{"test", "print test"} {
		r := e.Execute(context.Background(), cmd)
		if !r.Success {
			t.Fatalf("%s failed: %+v", cmd, r)
		}
		if r.Data["id"] != "job-1" {
			t.Errorf("%s data = %v", cmd, r.Data)
		}
	}
	if svc.tests != 2 {
		t.Errorf("tests = %d, want 2", svc.tests)
	}
}

func TestExecutePrintErrorKind(t *testing.T) {
	svc := &fakeService{err: printer.ErrNotConfigured()}
	e := NewExecutor(svc, &memPorts{})

	r := e.Execute(context.Background(), "test")
	if r.Success {
		t.Fatal("expected failure")
	}
	if r.Kind != printer.NotConfigured {
		t.Errorf("kind = %q, want NotConfigured", r.Kind)
	}
	if !strings.Contains(r.Error, "Printer belum dikonfigurasi") {
		t.Errorf("error = %q", r.Error)
	}
}

func TestExecuteReceiptFromFile(t *testing.T) {
	svc := &fakeService{}
	e := NewExecutor(svc, &memPorts{})
	path := writeDoc(t, "receipt.json", receiptDoc)

	r := e.Execute(context.Background(), "receipt "+path)
	if !r.Success {
		t.Fatalf("receipt failed: %+v", r)
	}
	if svc.receipts != 1 || len(svc.items) != 1 {
		t.Fatalf("receipts = %d items = %v", svc.receipts, svc.items)
	}
	if svc.items[0].Subtotal != 15000 {
		t.Errorf("subtotal = %v, want 15000", svc.items[0].Subtotal)
	}
}

func TestExecuteReceiptInvalid(t *testing.T) {
	svc := &fakeService{}
	e := NewExecutor(svc, &memPorts{})

	if r := e.Execute(context.Background(), "receipt"); r.Success {
		t.Error("receipt without file succeeded")
	}
	if r := e.Execute(context.Background(), "receipt /does/not/exist.json"); r.Success {
		t.Error("missing file succeeded")
	}
	path := writeDoc(t, "bad.json", `{"transaction": {"id": "T1"}, "items": []}`)
	r := e.Execute(context.Background(), "receipt "+path)
	if r.Success || !strings.Contains(r.Error, "invalid receipt") {
		t.Errorf("unexpected result: %+v", r)
	}
	if svc.receipts != 0 {
		t.Error("invalid receipt reached the service")
	}
}

func TestExecuteLabelsFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/labels.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(labelsDoc))
	}))
	defer srv.Close()

	svc := &fakeService{}
	e := NewExecutor(svc, &memPorts{})

	r := e.Execute(context.Background(), "print labels "+srv.URL+"/labels.json")
	if !r.Success {
		t.Fatalf("labels failed: %+v", r)
	}
	if len(svc.labels) != 2 {
		t.Fatalf("labels = %v", svc.labels)
	}
	if !strings.HasPrefix(r.Message, "3 label") {
		t.Errorf("message = %q, want 3 copies", r.Message)
	}

	r = e.Execute(context.Background(), "labels "+srv.URL+"/missing.json")
	if r.Success || !strings.Contains(r.Error, "HTTP 404") {
		t.Errorf("unexpected result: %+v", r)
	}
}

func TestExecutePort(t *testing.T) {
	ports := &memPorts{}
	e := NewExecutor(&fakeService{}, ports)
	ctx := context.Background()

	r := e.Execute(ctx, "port get")
	if r.Success || r.Kind != printer.NotConfigured {
		t.Errorf("get on empty port: %+v", r)
	}

	r = e.Execute(ctx, "port set network:192.168.1.100:9100")
	if !r.Success {
		t.Fatalf("set failed: %+v", r)
	}
	if ports.port != "network:192.168.1.100:9100" {
		t.Errorf("stored port = %q", ports.port)
	}

	r = e.Execute(ctx, "port get")
	if !r.Success || r.Data["transport"] != printer.KindNetwork || r.Data["address"] != "192.168.1.100:9100" {
		t.Errorf("get: %+v", r)
	}
}

func TestExecutePortRejects(t *testing.T) {
	ports := &memPorts{port: "serial:COM3"}
	e := NewExecutor(&fakeService{}, ports)
	ctx := context.Background()

	for _, cmd := range []string{"port set network", "port set manual", "port set network:10.0.0.1", "port set", "port"} {
		if r := e.Execute(ctx, cmd); r.Success {
			t.Errorf("%q succeeded", cmd)
		}
	}
	if ports.port != "serial:COM3" {
		t.Errorf("port changed to %q", ports.port)
	}
}

func TestExecuteJob(t *testing.T) {
	svc := &fakeService{}
	e := NewExecutor(svc, &memPorts{})
	ctx := context.Background()

	e.Execute(ctx, "test")

	r := e.Execute(ctx, "job list")
	if !r.Success || len(r.Data["jobs"].([]map[string]interface{})) != 1 {
		t.Fatalf("list: %+v", r)
	}

	r = e.Execute(ctx, "job status job-1")
	if !r.Success || r.Message != string(job.StatusCompleted) {
		t.Errorf("status: %+v", r)
	}
	if r := e.Execute(ctx, "job status nope"); r.Success {
		t.Error("status of unknown job succeeded")
	}

	r = e.Execute(ctx, "job clear")
	if !r.Success || r.Data["removed"] != 1 {
		t.Errorf("clear: %+v", r)
	}
}

func TestExecuteDetect(t *testing.T) {
	e := NewExecutor(&fakeService{}, &memPorts{})
	r := e.Execute(context.Background(), "detect")
	if !r.Success || r.Data["count"] != 2 {
		t.Fatalf("detect: %+v", r)
	}
	if !strings.Contains(r.Message, "serial:/dev/ttyUSB0") {
		t.Errorf("message = %q", r.Message)
	}
}

func TestExecuteHelp(t *testing.T) {
	e := NewExecutor(&fakeService{}, &memPorts{})
	r := e.Execute(context.Background(), "help")
	if !r.Success || !strings.Contains(r.Message, "port set <path>") {
		t.Errorf("help: %+v", r)
	}
}
