package job

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alpiant/pos-kasir/internal/escpos"
	"github.com/alpiant/pos-kasir/internal/printer"
)

type fakeSettings struct {
	mu    sync.Mutex
	port  string
	store escpos.Store
	err   error
}

func (f *fakeSettings) PrinterPort() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.port, f.err
}

func (f *fakeSettings) ReceiptStore() (escpos.Store, error) {
	return f.store, nil
}

func (f *fakeSettings) setPort(p string) {
	f.mu.Lock()
	f.port = p
	f.mu.Unlock()
}

type sent struct {
	path string
	data []byte
}

type fakeSender struct {
	mu    sync.Mutex
	sends []sent
	err   error
	block chan struct{}
}

func (f *fakeSender) Send(ctx context.Context, path string, data []byte) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, sent{path, data})
	return f.err
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sends)
}

type fakeLister struct{}

func (fakeLister) List(ctx context.Context) []printer.Destination {
	return []printer.Destination{{Path: "network"}, {Path: "manual"}}
}

func newService(t *testing.T, sender *fakeSender, settings *fakeSettings) *Service {
	t.Helper()
	s := New(sender, settings, fakeLister{}, Options{
		Now: func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) },
	})
	t.Cleanup(s.Close)
	return s
}

func TestPrintTest(t *testing.T) {
	sender := &fakeSender{}
	s := newService(t, sender, &fakeSettings{port: "cups:POS58"})

	j, err := s.PrintTest(context.Background())
	if err != nil {
		t.Fatalf("PrintTest: %v", err)
	}
	if j.Status != StatusCompleted || j.Type != TypeTest || j.Destination != "cups:POS58" {
		t.Errorf("unexpected job %+v", j)
	}
	if j.ID == "" {
		t.Error("job has no id")
	}

	want := escpos.BuildTestPage(time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC))
	if sender.count() != 1 || !bytes.Equal(sender.sends[0].data, want) {
		t.Error("sent bytes differ from the test page")
	}
}

func TestNotConfigured(t *testing.T) {
	sender := &fakeSender{}
	s := newService(t, sender, &fakeSettings{})

	_, err := s.PrintTest(context.Background())
	if printer.KindOf(err) != printer.NotConfigured {
		t.Fatalf("kind = %s, want NotConfigured", printer.KindOf(err))
	}
	if sender.count() != 0 {
		t.Error("nothing should be sent")
	}
	if len(s.Jobs()) != 0 {
		t.Error("no job should be recorded")
	}
}

func TestDestinationReadPerCall(t *testing.T) {
	sender := &fakeSender{}
	settings := &fakeSettings{port: "/dev/usb/lp0"}
	s := newService(t, sender, settings)

	s.PrintTest(context.Background())
	settings.setPort("192.168.1.50:9100")
	s.PrintTest(context.Background())

	if sender.sends[0].path != "/dev/usb/lp0" || sender.sends[1].path != "192.168.1.50:9100" {
		t.Errorf("paths = %q, %q", sender.sends[0].path, sender.sends[1].path)
	}
}

func TestPrintReceiptUsesStore(t *testing.T) {
	sender := &fakeSender{}
	store := escpos.Store{Name: "TOKO", Footer: "Terima Kasih!"}
	s := newService(t, sender, &fakeSettings{port: "cups:A", store: store})

	tx := escpos.Transaction{ID: "abcdef1234", Total: 5000, PaymentMethod: "cash", Timestamp: "2024-05-01 09:30"}
	items := []escpos.Item{{Name: "Teh", Qty: 1, Price: 5000, Subtotal: 5000}}
	if _, err := s.PrintReceipt(context.Background(), tx, items); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(sender.sends[0].data, escpos.BuildReceipt(store, tx, items)) {
		t.Error("receipt bytes differ")
	}
}

func TestPrintLabelsEmpty(t *testing.T) {
	s := newService(t, &fakeSender{}, &fakeSettings{port: "cups:A"})
	if _, err := s.PrintLabels(context.Background(), nil); !errors.Is(err, ErrNoLabels) {
		t.Errorf("err = %v, want ErrNoLabels", err)
	}
}

func TestFailedJob(t *testing.T) {
	sendErr := printer.ErrConnection("10.0.0.9:9100", errors.New("refused"))
	s := newService(t, &fakeSender{err: sendErr}, &fakeSettings{port: "10.0.0.9:9100"})

	j, err := s.PrintTest(context.Background())
	if printer.KindOf(err) != printer.ConnectionFailed {
		t.Fatalf("kind = %s", printer.KindOf(err))
	}
	if j.Status != StatusFailed || j.ErrorKind != printer.ConnectionFailed || j.Error == "" {
		t.Errorf("unexpected job %+v", j)
	}

	got, ok := s.Job(j.ID)
	if !ok || got.Status != StatusFailed {
		t.Errorf("Job(%s) = %+v, %v", j.ID, got, ok)
	}
}

func TestContextEndsWaitNotJob(t *testing.T) {
	sender := &fakeSender{block: make(chan struct{})}
	s := newService(t, sender, &fakeSettings{port: "cups:A"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	j, err := s.PrintTest(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline", err)
	}
	if j.Done() {
		t.Errorf("job should still be running, status %s", j.Status)
	}

	close(sender.block)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got, _ := s.Job(j.ID); got.Status == StatusCompleted {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not run to completion after the caller gave up")
}

func TestEvents(t *testing.T) {
	s := newService(t, &fakeSender{}, &fakeSettings{port: "cups:A"})
	events, cancel := s.Subscribe()
	defer cancel()

	if _, err := s.PrintTest(context.Background()); err != nil {
		t.Fatal(err)
	}

	var types []string
	timeout := time.After(time.Second)
	for len(types) < 2 {
		select {
		case ev := <-events:
			types = append(types, ev.Type)
		case <-timeout:
			t.Fatalf("events so far: %v", types)
		}
	}
	if types[0] != EventJobStarted || types[1] != EventJobCompleted {
		t.Errorf("events = %v", types)
	}
}

func TestClearCompleted(t *testing.T) {
	sender := &fakeSender{}
	s := newService(t, sender, &fakeSettings{port: "cups:A"})

	s.PrintTest(context.Background())
	s.PrintTest(context.Background())
	sender.err = errors.New("boom")
	s.PrintTest(context.Background())

	if n := s.ClearCompleted(); n != 2 {
		t.Errorf("removed %d, want 2", n)
	}
	jobs := s.Jobs()
	if len(jobs) != 1 || jobs[0].Status != StatusFailed {
		t.Errorf("jobs = %+v", jobs)
	}
}

func TestHistoryBounded(t *testing.T) {
	s := New(&fakeSender{}, &fakeSettings{port: "cups:A"}, fakeLister{}, Options{HistorySize: 3})
	defer s.Close()

	for i := 0; i < 5; i++ {
		s.PrintTest(context.Background())
	}
	if n := len(s.Jobs()); n != 3 {
		t.Errorf("history = %d, want 3", n)
	}
}

func TestConcurrentJobs(t *testing.T) {
	sender := &fakeSender{}
	s := newService(t, sender, &fakeSettings{port: "cups:A"})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.PrintTest(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if sender.count() != 10 {
		t.Errorf("sent %d, want 10", sender.count())
	}
}

func TestClosed(t *testing.T) {
	s := New(&fakeSender{}, &fakeSettings{port: "cups:A"}, fakeLister{}, Options{})
	s.Close()
	if _, err := s.PrintTest(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}
