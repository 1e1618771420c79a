package printer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrorKind classifies a print failure.
type ErrorKind string

const (
	NotConfigured       ErrorKind = "NotConfigured"
	NotFound            ErrorKind = "NotFound"
	PermissionDenied    ErrorKind = "PermissionDenied"
	ConnectionFailed    ErrorKind = "ConnectionFailed"
	UnsupportedPlatform ErrorKind = "UnsupportedPlatform"
	ProtocolError       ErrorKind = "ProtocolError"
)

// PrintError is returned by every failed print call. Message is the fixed
// operator-facing text for Kind; Err keeps the raw cause for support.
type PrintError struct {
	Kind    ErrorKind
	Target  string
	Message string
	Err     error
}

func (e *PrintError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + "\n\nError: " + e.Err.Error()
}

func (e *PrintError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or "" when err is nil.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var pe *PrintError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return Classify(err)
}

// Classify maps a low-level error to an ErrorKind.
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var pe *PrintError
	if errors.As(err, &pe) {
		return pe.Kind
	}

	switch {
	case errors.Is(err, fs.ErrPermission):
		return PermissionDenied
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, exec.ErrNotFound):
		return NotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		return ConnectionFailed
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ConnectionFailed
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ConnectionFailed
	}

	// Some drivers only report text.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission"), strings.Contains(msg, "access is denied"):
		return PermissionDenied
	case strings.Contains(msg, "not found"), strings.Contains(msg, "no such"), strings.Contains(msg, "cannot find"):
		return NotFound
	}

	return ProtocolError
}

// ErrNotConfigured is returned when no destination is stored in settings.
func ErrNotConfigured() *PrintError {
	return &PrintError{
		Kind:    NotConfigured,
		Message: "Printer belum dikonfigurasi. Silakan atur di Settings → Hardware.",
	}
}

// ErrPermission builds the permission-denied diagnostic with the group fix.
func ErrPermission(target string, err error) *PrintError {
	var msg string
	if runtime.GOOS == "windows" {
		msg = fmt.Sprintf("Permission denied untuk %s! Jalankan aplikasi sebagai Administrator.", target)
	} else {
		msg = fmt.Sprintf("Permission denied untuk %s!\n\n"+
			"Solusi:\n"+
			"1. sudo usermod -aG dialout,lp $USER\n"+
			"2. Logout dan login ulang\n"+
			"3. Atau sementara: sudo chmod 666 %s", target, target)
	}
	return &PrintError{Kind: PermissionDenied, Target: target, Message: msg, Err: err}
}

// ErrDeviceNotFound builds the missing-device diagnostic.
func ErrDeviceNotFound(target string, err error) *PrintError {
	return &PrintError{
		Kind:   NotFound,
		Target: target,
		Message: fmt.Sprintf("Device %s tidak ditemukan.\n\n"+
			"Pastikan:\n"+
			"1. Printer terhubung via USB/Serial\n"+
			"2. Driver printer terinstall\n"+
			"3. Kabel USB tidak longgar\n"+
			"4. Cek port yang benar di Settings → Hardware → Scan Port", target),
		Err: err,
	}
}

// ErrConnection builds the network diagnostic for addr.
func ErrConnection(addr string, err error) *PrintError {
	return &PrintError{
		Kind:   ConnectionFailed,
		Target: addr,
		Message: fmt.Sprintf("Gagal koneksi ke printer network %s!\n\n"+
			"Pastikan:\n"+
			"1. IP dan Port benar\n"+
			"2. Printer menyala dan terhubung ke jaringan\n"+
			"3. Port tidak diblokir firewall", addr),
		Err: err,
	}
}

// ErrUnsupported reports a transport that does not exist on this OS.
func ErrUnsupported(transport, platforms string) *PrintError {
	return &PrintError{
		Kind:    UnsupportedPlatform,
		Message: fmt.Sprintf("%s hanya didukung di %s", transport, platforms),
	}
}

// ErrProtocol is the catch-all diagnostic.
func ErrProtocol(target string, err error) *PrintError {
	return &PrintError{
		Kind:    ProtocolError,
		Target:  target,
		Message: fmt.Sprintf("Gagal kirim ke printer %s.", target),
		Err:     err,
	}
}

// Diagnose wraps err in the PrintError matching its classification. An
// error that already is a PrintError is returned unchanged.
func Diagnose(target string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PrintError
	if errors.As(err, &pe) {
		return err
	}

	switch Classify(err) {
	case PermissionDenied:
		return ErrPermission(target, err)
	case NotFound:
		return ErrDeviceNotFound(target, err)
	case ConnectionFailed:
		return ErrConnection(target, err)
	default:
		return ErrProtocol(target, err)
	}
}
