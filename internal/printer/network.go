package printer

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
)

// Default network timeouts bound a send to an unreachable IP printer.
const (
	DefaultConnectTimeout = 10 * time.Second
	DefaultTotalTimeout   = 15 * time.Second
)

// NetworkTransport sends raw data to a TCP printer, usually port 9100.
type NetworkTransport struct {
	ConnectTimeout time.Duration
	TotalTimeout   time.Duration
	Logger         *zap.Logger
}

// Send dials addr (host:port), writes data and closes the connection.
func (t *NetworkTransport) Send(ctx context.Context, addr string, data []byte) error {
	connectTimeout := t.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}
	totalTimeout := t.TotalTimeout
	if totalTimeout <= 0 {
		totalTimeout = DefaultTotalTimeout
	}
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithTimeout(ctx, totalTimeout)
	defer cancel()

	logger.Info("connecting to network printer", zap.String("addr", addr))

	dialer := net.Dialer{Timeout: connectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return ErrConnection(addr, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}

	if _, err := conn.Write(data); err != nil {
		return ErrConnection(addr, fmt.Errorf("gagal kirim data ke printer: %w", err))
	}

	// Half-close so the printer sees the end of the job before we drop the
	// connection.
	if tcp, ok := conn.(*net.TCPConn); ok {
		if err := tcp.CloseWrite(); err != nil {
			return ErrConnection(addr, fmt.Errorf("gagal flush data: %w", err))
		}
	}

	logger.Info("network data sent", zap.String("addr", addr), zap.Int("bytes", len(data)))
	return nil
}
