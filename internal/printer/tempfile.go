package printer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// writeTempFile stores data as pos_print_<pid>_<unixnano>.bin in dir and
// returns its path with a cleanup func that removes it. Concurrent jobs never
// share a file: the name embeds pid and timestamp and is created exclusively.
func writeTempFile(dir string, data []byte) (string, func(), error) {
	if dir == "" {
		dir = os.TempDir()
	}

	base := fmt.Sprintf("pos_print_%d_%d", os.Getpid(), time.Now().UnixNano())

	var (
		f    *os.File
		path string
		err  error
	)
	for attempt := 0; attempt < 100; attempt++ {
		name := base + ".bin"
		if attempt > 0 {
			name = fmt.Sprintf("%s_%d.bin", base, attempt)
		}
		path = filepath.Join(dir, name)
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if !errors.Is(err, fs.ErrExist) {
			break
		}
	}
	if err != nil {
		return "", func() {}, fmt.Errorf("gagal buat file temporary: %w", err)
	}

	cleanup := func() { _ = os.Remove(path) }

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("gagal tulis data: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("gagal tulis data: %w", err)
	}

	return path, cleanup, nil
}
