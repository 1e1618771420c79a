//go:build windows

package printer

import (
	"os/exec"
	"syscall"
)

// createNoWindow keeps cmd.exe and powershell from flashing a console.
const createNoWindow = 0x08000000

func hideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNoWindow}
}
