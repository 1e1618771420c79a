package printer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tarm/serial"
	"go.uber.org/zap"
)

// DefaultBaudRates are tried in order; 9600 is what most thermal printers
// ship with.
var DefaultBaudRates = []int{9600, 19200, 38400, 115200}

const (
	defaultChunkSize  = 1024
	defaultChunkDelay = 10 * time.Millisecond
	serialReadTimeout = 5 * time.Second
)

// serialPort is the part of *serial.Port the transport uses.
type serialPort interface {
	io.WriteCloser
	Flush() error
}

// SerialOptions configures SerialTransport.
type SerialOptions struct {
	BaudRates  []int
	ChunkSize  int
	ChunkDelay time.Duration
	Logger     *zap.Logger
}

// SerialTransport writes to a serial or USB-serial printer.
type SerialTransport struct {
	baudRates  []int
	chunkSize  int
	chunkDelay time.Duration
	logger     *zap.Logger

	open  func(*serial.Config) (serialPort, error)
	sleep func(time.Duration)
}

// NewSerialTransport creates a serial transport with defaults filled in.
func NewSerialTransport(opts SerialOptions) *SerialTransport {
	t := &SerialTransport{
		baudRates:  opts.BaudRates,
		chunkSize:  opts.ChunkSize,
		chunkDelay: opts.ChunkDelay,
		logger:     opts.Logger,
		open:       openTarmPort,
		sleep:      time.Sleep,
	}
	if len(t.baudRates) == 0 {
		t.baudRates = DefaultBaudRates
	}
	if t.chunkSize <= 0 {
		t.chunkSize = defaultChunkSize
	}
	if t.chunkDelay <= 0 {
		t.chunkDelay = defaultChunkDelay
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	return t
}

func openTarmPort(cfg *serial.Config) (serialPort, error) {
	return serial.OpenPort(cfg)
}

// Send opens device at the first baud rate that works and writes data in
// chunks. The serial calls block; callers run this on a worker goroutine.
func (t *SerialTransport) Send(ctx context.Context, device string, data []byte) error {
	port, baud, err := t.openSweep(device)
	if err != nil {
		switch Classify(err) {
		case PermissionDenied:
			return ErrPermission(device, err)
		case NotFound:
			return ErrDeviceNotFound(device, err)
		}
		return &PrintError{
			Kind:    ProtocolError,
			Target:  device,
			Message: fmt.Sprintf("Gagal koneksi serial ke %s", device),
			Err:     err,
		}
	}
	defer port.Close()

	t.logger.Info("serial port opened", zap.String("device", device), zap.Int("baud", baud))

	for offset := 0; offset < len(data); offset += t.chunkSize {
		end := offset + t.chunkSize
		if end > len(data) {
			end = len(data)
		}
		if _, err := port.Write(data[offset:end]); err != nil {
			return Diagnose(device, fmt.Errorf("gagal kirim data serial ke %s: %w", device, err))
		}
		if end < len(data) {
			t.sleep(t.chunkDelay)
		}
	}

	if err := port.Flush(); err != nil {
		return Diagnose(device, fmt.Errorf("gagal flush data serial: %w", err))
	}

	t.logger.Info("serial data sent", zap.String("device", device), zap.Int("bytes", len(data)))
	return nil
}

// openSweep walks the baud list. A permission or missing-device failure on
// the first attempt ends the sweep since no baud rate can fix it.
func (t *SerialTransport) openSweep(device string) (serialPort, int, error) {
	var lastErr error
	for i, baud := range t.baudRates {
		port, err := t.open(&serial.Config{
			Name:        device,
			Baud:        baud,
			ReadTimeout: serialReadTimeout,
		})
		if err == nil {
			return port, baud, nil
		}
		lastErr = err

		if i == 0 {
			if kind := Classify(err); kind == PermissionDenied || kind == NotFound {
				break
			}
		}
		t.logger.Warn("serial open failed, trying next baud rate",
			zap.String("device", device), zap.Int("baud", baud), zap.Error(err))
	}
	return nil, 0, lastErr
}
