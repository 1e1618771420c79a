package printer

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Transport delivers a byte stream to one kind of destination.
type Transport interface {
	Send(ctx context.Context, address string, data []byte) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, address string, data []byte) error

// Send implements Transport.
func (f TransportFunc) Send(ctx context.Context, address string, data []byte) error {
	return f(ctx, address, data)
}

// Options configures the default transports.
type Options struct {
	Logger *zap.Logger
	Runner Runner

	// GOOS selects platform transports; empty means runtime.GOOS.
	GOOS string

	// TempDir holds spool files for CUPS and the Windows spooler.
	TempDir string

	ConnectTimeout time.Duration
	TotalTimeout   time.Duration

	SerialBaudRates  []int
	SerialChunkSize  int
	SerialChunkDelay time.Duration
}

// Registry maps transport kinds to implementations.
type Registry struct {
	mu         sync.RWMutex
	transports map[Kind]Transport
}

// NewRegistry returns a registry holding the transports available on the
// configured platform. Kinds a platform lacks report UnsupportedPlatform.
func NewRegistry(opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	r := &Registry{transports: make(map[Kind]Transport)}

	r.Register(KindSerial, NewSerialTransport(SerialOptions{
		BaudRates:  opts.SerialBaudRates,
		ChunkSize:  opts.SerialChunkSize,
		ChunkDelay: opts.SerialChunkDelay,
		Logger:     opts.Logger,
	}))
	r.Register(KindNetwork, &NetworkTransport{
		ConnectTimeout: opts.ConnectTimeout,
		TotalTimeout:   opts.TotalTimeout,
		Logger:         opts.Logger,
	})
	r.Register(KindDevice, &DeviceTransport{Logger: opts.Logger})

	if goos == "windows" {
		r.Register(KindCUPS, unsupported(ErrUnsupported("CUPS printing", "Linux/macOS")))
		r.Register(KindSpooler, &SpoolerTransport{Runner: opts.Runner, TempDir: opts.TempDir, Logger: opts.Logger})
	} else {
		r.Register(KindCUPS, &CUPSTransport{Runner: opts.Runner, TempDir: opts.TempDir, Logger: opts.Logger})
		r.Register(KindSpooler, unsupported(ErrUnsupported("Windows printing", "Windows")))
	}

	return r
}

// Register installs t for kind, replacing any previous transport.
func (r *Registry) Register(kind Kind, t Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transports[kind] = t
}

// Lookup returns the transport for kind.
func (r *Registry) Lookup(kind Kind) (Transport, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.transports[kind]
	return t, ok
}

func unsupported(err *PrintError) Transport {
	return TransportFunc(func(ctx context.Context, address string, data []byte) error {
		pe := *err
		pe.Target = address
		return &pe
	})
}

// Sender routes a destination path to its transport.
type Sender struct {
	registry *Registry
	logger   *zap.Logger
}

// NewSender creates a sender over registry.
func NewSender(registry *Registry, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{registry: registry, logger: logger}
}

// Send delivers data to path. Every returned error is a *PrintError.
func (s *Sender) Send(ctx context.Context, path string, data []byte) error {
	if path == "" {
		return ErrNotConfigured()
	}

	target, err := Route(path)
	if err != nil {
		return err
	}

	transport, ok := s.registry.Lookup(target.Kind)
	if !ok {
		return ErrUnsupported(string(target.Kind), "platform lain")
	}

	s.logger.Info("sending to printer",
		zap.String("kind", string(target.Kind)),
		zap.String("address", target.Address),
		zap.Int("bytes", len(data)))

	if err := transport.Send(ctx, target.Address, data); err != nil {
		err = Diagnose(target.Address, err)
		s.logger.Warn("print failed",
			zap.String("kind", string(target.Kind)),
			zap.String("address", target.Address),
			zap.String("error_kind", string(KindOf(err))),
			zap.Error(err))
		return err
	}
	return nil
}
