// Package settings stores application settings as a flat YAML map of dotted
// keys.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/alpiant/pos-kasir/internal/escpos"
	"gopkg.in/yaml.v3"
)

// Known keys.
const (
	KeyPrinterPort  = "app.printer_port"
	KeyStoreName    = "company.store_name"
	KeyStoreAddress = "company.address"
	KeyFooterText   = "receipt.footer_text"
)

// Receipt defaults used when a key is empty.
const (
	DefaultStoreName = "TOKO"
	DefaultFooter    = "Terima Kasih!"
)

// Store persists settings in a YAML file. Reads always go to disk so a value
// written by another process is seen on the next call.
type Store struct {
	filePath string
	// mu serializes writers within this process.
	mu sync.Mutex
}

// New creates a store backed by filePath. The file is created on first Set.
func New(filePath string) (*Store, error) {
	if filePath == "" {
		return nil, errors.New("settings path is empty")
	}
	s := &Store{filePath: filePath}
	if _, err := s.load(); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string {
	return s.filePath
}

// Get returns the value of key, or "" when unset.
func (s *Store) Get(key string) (string, error) {
	data, err := s.load()
	if err != nil {
		return "", err
	}
	return data[key], nil
}

// Set stores value under key. An empty value removes the key.
func (s *Store) Set(key, value string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("settings key is empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.load()
	if err != nil {
		return err
	}
	if value == "" {
		delete(data, key)
	} else {
		data[key] = value
	}
	return s.save(data)
}

// All returns a copy of every setting.
func (s *Store) All() (map[string]string, error) {
	return s.load()
}

// Keys returns the stored keys sorted.
func (s *Store) Keys() ([]string, error) {
	data, err := s.load()
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// PrinterPort returns the configured destination path.
func (s *Store) PrinterPort() (string, error) {
	v, err := s.Get(KeyPrinterPort)
	return strings.TrimSpace(v), err
}

// SetPrinterPort stores the destination path.
func (s *Store) SetPrinterPort(path string) error {
	return s.Set(KeyPrinterPort, strings.TrimSpace(path))
}

// ReceiptStore returns the receipt header and footer with defaults applied.
func (s *Store) ReceiptStore() (escpos.Store, error) {
	data, err := s.load()
	if err != nil {
		return escpos.Store{}, err
	}
	store := escpos.Store{
		Name:    data[KeyStoreName],
		Address: data[KeyStoreAddress],
		Footer:  data[KeyFooterText],
	}
	if store.Name == "" {
		store.Name = DefaultStoreName
	}
	if store.Footer == "" {
		store.Footer = DefaultFooter
	}
	return store, nil
}

func (s *Store) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	data := map[string]string{}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.filePath, err)
	}
	return data, nil
}

// save writes through a temp file and rename so readers never see a
// half-written file.
func (s *Store) save(data map[string]string) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.filePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.filePath)
}
