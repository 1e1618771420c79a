package printer

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// CUPSTransport submits raw jobs to a CUPS queue with lp.
type CUPSTransport struct {
	Runner  Runner
	TempDir string
	Logger  *zap.Logger
}

// Send spools data to a temp file and runs lp -d <queue> -o raw <file>.
func (t *CUPSTransport) Send(ctx context.Context, queue string, data []byte) error {
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	path, cleanup, err := writeTempFile(t.TempDir, data)
	if err != nil {
		return ErrProtocol(queue, err)
	}
	defer cleanup()

	logger.Info("printing to CUPS queue", zap.String("queue", queue))

	res, err := t.Runner.Run(ctx, "lp", "-d", queue, "-o", "raw", path)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return &PrintError{
				Kind:    NotFound,
				Target:  queue,
				Message: "Gagal jalankan lp command. Pastikan CUPS terinstall.",
				Err:     err,
			}
		}
		return ErrProtocol(queue, fmt.Errorf("gagal jalankan lp command: %w", err))
	}
	if !res.Success() {
		stderr := strings.TrimSpace(string(res.Stderr))
		kind := ProtocolError
		if strings.Contains(strings.ToLower(stderr), "does not exist") {
			kind = NotFound
		}
		return &PrintError{
			Kind:    kind,
			Target:  queue,
			Message: fmt.Sprintf("CUPS error untuk printer %s", queue),
			Err:     fmt.Errorf("lp exit status %d: %s", res.ExitCode, stderr),
		}
	}

	logger.Info("CUPS job sent", zap.String("queue", queue), zap.ByteString("lp", res.Stdout))
	return nil
}
