// Package job runs print jobs on a worker pool and keeps their history.
package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/alpiant/pos-kasir/internal/escpos"
	"github.com/alpiant/pos-kasir/internal/printer"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusPrinting  Status = "printing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Type of document a job prints.
type Type string

const (
	TypeReceipt Type = "receipt"
	TypeTest    Type = "test"
	TypeLabels  Type = "labels"
)

// ErrNoLabels is returned for a label job with nothing to print.
var ErrNoLabels = errors.New("Tidak ada label untuk dicetak.")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("print service is shut down")

// Job is a snapshot of one print job.
type Job struct {
	ID          string            `json:"id"`
	Type        Type              `json:"type"`
	Destination string            `json:"destination"`
	Status      Status            `json:"status"`
	Bytes       int               `json:"bytes"`
	Error       string            `json:"error,omitempty"`
	ErrorKind   printer.ErrorKind `json:"error_kind,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   time.Time         `json:"started_at,omitempty"`
	FinishedAt  time.Time         `json:"finished_at,omitempty"`

	err error
}

// Err returns the failure cause of a failed job.
func (j Job) Err() error {
	return j.err
}

// Done reports whether the job reached a final status.
func (j Job) Done() bool {
	return j.Status == StatusCompleted || j.Status == StatusFailed
}

// Sender delivers bytes to a destination path.
type Sender interface {
	Send(ctx context.Context, path string, data []byte) error
}

// Settings supplies the destination and receipt header, read on every job.
type Settings interface {
	PrinterPort() (string, error)
	ReceiptStore() (escpos.Store, error)
}

// Lister enumerates destinations.
type Lister interface {
	List(ctx context.Context) []printer.Destination
}

// Options configures a Service.
type Options struct {
	Workers     int
	HistorySize int
	Logger      *zap.Logger
	// Now returns the time printed on test pages.
	Now func() time.Time
}

const (
	defaultWorkers     = 2
	defaultHistorySize = 100
)

type task struct {
	job  *Job
	data []byte
	done chan struct{}
}

// Service resolves the destination, builds the document and dispatches it.
type Service struct {
	sender   Sender
	settings Settings
	lister   Lister
	logger   *zap.Logger
	now      func() time.Time
	history  int

	queue chan *task
	wg    sync.WaitGroup

	mu   sync.Mutex
	jobs []*Job

	// closeMu guards closed and keeps Close from closing queue under a
	// pending send.
	closeMu sync.RWMutex
	closed  bool

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int
}

// New starts a service with opts.Workers workers.
func New(sender Sender, settings Settings, lister Lister, opts Options) *Service {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.HistorySize <= 0 {
		opts.HistorySize = defaultHistorySize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Service{
		sender:   sender,
		settings: settings,
		lister:   lister,
		logger:   opts.Logger,
		now:      opts.Now,
		history:  opts.HistorySize,
		queue:    make(chan *task, opts.Workers*4),
		subs:     make(map[int]chan Event),
	}

	for i := 0; i < opts.Workers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

// PrintReceipt prints a transaction receipt.
func (s *Service) PrintReceipt(ctx context.Context, tx escpos.Transaction, items []escpos.Item) (Job, error) {
	store, err := s.settings.ReceiptStore()
	if err != nil {
		return Job{}, printer.ErrProtocol("settings", err)
	}
	return s.submit(ctx, TypeReceipt, escpos.BuildReceipt(store, tx, items))
}

// PrintTest prints the connection test page.
func (s *Service) PrintTest(ctx context.Context) (Job, error) {
	return s.submit(ctx, TypeTest, escpos.BuildTestPage(s.now()))
}

// PrintLabels prints barcode labels.
func (s *Service) PrintLabels(ctx context.Context, labels []escpos.Label) (Job, error) {
	if len(labels) == 0 {
		return Job{}, ErrNoLabels
	}
	data, err := escpos.BuildLabels(labels)
	if err != nil {
		return Job{}, printer.ErrProtocol("labels", err)
	}
	return s.submit(ctx, TypeLabels, data)
}

// ListDestinations runs discovery.
func (s *Service) ListDestinations(ctx context.Context) []printer.Destination {
	return s.lister.List(ctx)
}

// submit queues data for the configured destination and waits for the
// outcome. When ctx ends first the job keeps running and the snapshot taken
// at that moment is returned with ctx's error.
func (s *Service) submit(ctx context.Context, typ Type, data []byte) (Job, error) {
	port, err := s.settings.PrinterPort()
	if err != nil {
		return Job{}, printer.ErrProtocol("settings", err)
	}
	if port == "" {
		return Job{}, printer.ErrNotConfigured()
	}

	j := &Job{
		ID:          uuid.New().String(),
		Type:        typ,
		Destination: port,
		Status:      StatusQueued,
		Bytes:       len(data),
		CreatedAt:   time.Now(),
	}
	t := &task{job: j, data: data, done: make(chan struct{})}

	s.closeMu.RLock()
	if s.closed {
		s.closeMu.RUnlock()
		return Job{}, ErrClosed
	}

	s.mu.Lock()
	s.jobs = append(s.jobs, j)
	s.trimLocked()
	s.mu.Unlock()

	s.logger.Info("print job queued",
		zap.String("job_id", j.ID), zap.String("type", string(typ)), zap.String("destination", port))

	select {
	case s.queue <- t:
		s.closeMu.RUnlock()
	case <-ctx.Done():
		s.closeMu.RUnlock()
		s.finish(j, ctx.Err())
		return s.snapshot(j), ctx.Err()
	}

	select {
	case <-t.done:
	case <-ctx.Done():
		return s.snapshot(j), ctx.Err()
	}

	snap := s.snapshot(j)
	return snap, snap.err
}

func (s *Service) worker() {
	defer s.wg.Done()
	for t := range s.queue {
		s.run(t)
	}
}

func (s *Service) run(t *task) {
	s.mu.Lock()
	t.job.Status = StatusPrinting
	t.job.StartedAt = time.Now()
	s.mu.Unlock()
	s.publish(EventJobStarted, s.snapshot(t.job))

	// A dispatched job is never cancelled; transports bound their own time.
	err := s.sender.Send(context.Background(), t.job.Destination, t.data)
	s.finish(t.job, err)
	close(t.done)
}

func (s *Service) finish(j *Job, err error) {
	s.mu.Lock()
	j.FinishedAt = time.Now()
	if err != nil {
		j.Status = StatusFailed
		j.Error = err.Error()
		j.ErrorKind = printer.KindOf(err)
		j.err = err
	} else {
		j.Status = StatusCompleted
	}
	snap := *j
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("print job failed",
			zap.String("job_id", snap.ID), zap.String("error_kind", string(snap.ErrorKind)), zap.Error(err))
		s.publish(EventJobFailed, snap)
		return
	}
	s.logger.Info("print job completed",
		zap.String("job_id", snap.ID), zap.Duration("took", snap.FinishedAt.Sub(snap.StartedAt)))
	s.publish(EventJobCompleted, snap)
}

func (s *Service) snapshot(j *Job) Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *j
}

// trimLocked drops the oldest finished jobs beyond the history size.
func (s *Service) trimLocked() {
	excess := len(s.jobs) - s.history
	if excess <= 0 {
		return
	}
	kept := s.jobs[:0]
	for _, j := range s.jobs {
		if excess > 0 && j.Done() {
			excess--
			continue
		}
		kept = append(kept, j)
	}
	for i := len(kept); i < len(s.jobs); i++ {
		s.jobs[i] = nil
	}
	s.jobs = kept
}

// Jobs returns every job in submission order.
func (s *Service) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Job, len(s.jobs))
	for i, j := range s.jobs {
		out[i] = *j
	}
	return out
}

// Job returns the job with id.
func (s *Service) Job(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, j := range s.jobs {
		if j.ID == id {
			return *j, true
		}
	}
	return Job{}, false
}

// ClearCompleted removes completed jobs and returns how many were removed.
func (s *Service) ClearCompleted() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]*Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if j.Status != StatusCompleted {
			kept = append(kept, j)
		}
	}
	removed := len(s.jobs) - len(kept)
	s.jobs = kept
	return removed
}

// Close stops accepting jobs and waits for queued ones to finish.
func (s *Service) Close() {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.closeMu.Unlock()

	s.wg.Wait()

	s.subMu.Lock()
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
	s.subMu.Unlock()
}
