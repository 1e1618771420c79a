package printer

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// DeviceTransport writes straight to a character device such as
// /dev/usb/lp0.
type DeviceTransport struct {
	Logger *zap.Logger
}

// Send writes data to path. Permission bits are only inspected to log a
// warning; the write is attempted regardless.
func (t *DeviceTransport) Send(ctx context.Context, path string, data []byte) error {
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	hint, mode, err := ProbeWrite(path)
	switch {
	case err != nil:
		logger.Warn("cannot stat printer device", zap.String("device", path), zap.Error(err))
	case hint == WriteUnlikely:
		logger.Warn("printer device may not be writable",
			zap.String("device", path), zap.String("mode", fmt.Sprintf("%o", mode.Perm())))
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return Diagnose(path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return Diagnose(path, err)
	}
	if err := f.Close(); err != nil {
		return Diagnose(path, err)
	}

	logger.Info("device data sent", zap.String("device", path), zap.Int("bytes", len(data)))
	return nil
}
