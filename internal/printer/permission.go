package printer

import (
	"io/fs"
	"os"
	"runtime"
)

// groupOrOtherWrite is the write bit for group or others.
const groupOrOtherWrite fs.FileMode = 0o020 | 0o002

// WriteHint is an advisory answer to "can this process write to the device".
type WriteHint int

const (
	WriteUnknown WriteHint = iota
	WriteLikely
	WriteUnlikely
)

// ProbeWrite inspects permission bits of path. The device nodes printers
// show up as are root-owned, so a writable group or other bit is what a
// dialout/lp member relies on. The answer is a hint and never gates I/O.
func ProbeWrite(path string) (WriteHint, fs.FileMode, error) {
	if runtime.GOOS == "windows" {
		return WriteUnknown, 0, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return WriteUnknown, 0, err
	}
	mode := info.Mode()
	if mode.Perm()&groupOrOtherWrite != 0 {
		return WriteLikely, mode, nil
	}
	return WriteUnlikely, mode, nil
}
