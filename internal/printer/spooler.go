package printer

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// SpoolerTransport prints through the Windows print spooler.
type SpoolerTransport struct {
	Runner  Runner
	TempDir string
	Logger  *zap.Logger
}

type spoolMethod struct {
	name string
	cmd  string
	args []string
}

func spoolMethods(file, printerName string) []spoolMethod {
	return []spoolMethod{
		{
			name: "copy /b",
			cmd:  "cmd",
			args: []string{"/C", fmt.Sprintf(`copy /b "%s" "%s"`, file, printerName)},
		},
		{
			name: "print",
			cmd:  "cmd",
			args: []string{"/C", fmt.Sprintf(`print /d:"%s" "%s"`, printerName, file)},
		},
		{
			name: "Out-Printer",
			cmd:  "powershell",
			args: []string{"-NoProfile", "-Command",
				fmt.Sprintf("Get-Content -Encoding Byte -Path '%s' | Out-Printer -Name '%s'", file, printerName)},
		},
	}
}

// Send tries a raw byte copy, then the print utility, then PowerShell. The
// first method that exits cleanly wins.
func (t *SpoolerTransport) Send(ctx context.Context, printerName string, data []byte) error {
	logger := t.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	path, cleanup, err := writeTempFile(t.TempDir, data)
	if err != nil {
		return ErrProtocol(printerName, err)
	}
	defer cleanup()

	logger.Info("printing to Windows printer", zap.String("printer", printerName))

	var lastErr error
	for _, m := range spoolMethods(path, printerName) {
		res, err := t.Runner.Run(ctx, m.cmd, m.args...)
		if err == nil && res.Success() {
			logger.Info("print job sent", zap.String("printer", printerName), zap.String("method", m.name))
			return nil
		}
		if err == nil {
			err = fmt.Errorf("%s exit status %d: %s", m.name, res.ExitCode, strings.TrimSpace(string(res.Stderr)))
		}
		lastErr = err
		logger.Warn("spooler method failed", zap.String("method", m.name), zap.Error(err))
	}

	return &PrintError{
		Kind:   NotFound,
		Target: printerName,
		Message: fmt.Sprintf("Gagal cetak ke printer '%s'!\n\n"+
			"Pastikan:\n"+
			"1. Printer '%s' terdaftar di Windows (Settings → Printers & scanners)\n"+
			"2. Nama printer sesuai (case-sensitive)\n"+
			"3. Printer menyala dan terhubung\n"+
			"4. Driver printer terinstall dengan benar", printerName, printerName),
		Err: lastErr,
	}
}
