//go:build !windows

package printer

import "os/exec"

func hideWindow(cmd *exec.Cmd) {}
