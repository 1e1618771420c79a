// Package config loads the service configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/alpiant/pos-kasir/internal/printer"
	"gopkg.in/yaml.v3"
)

// Config is the service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Settings SettingsConfig `yaml:"settings"`
	Printing PrintingConfig `yaml:"printing"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	// Host to bind. Default: 127.0.0.1. Binding a LAN address exposes
	// printer settings to every host on the network.
	Host string `yaml:"host"`
	// Port to listen on. Default: 12212
	Port string `yaml:"port"`
	// AllowedOrigins are the browser origins allowed to call the API.
	// Default: the Tauri shell origins.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Addr is host:port.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

type SettingsConfig struct {
	// Path of the YAML settings file holding app.printer_port and the
	// receipt header.
	Path string `yaml:"path"`
}

type PrintingConfig struct {
	// Workers is the number of concurrent print jobs. Default: 2
	Workers int `yaml:"workers"`
	// HistorySize bounds the job list. Default: 100
	HistorySize int `yaml:"history_size"`
	// TempDir holds spool files. Default: the OS temp dir.
	TempDir string `yaml:"temp_dir"`
	// MonitorInterval is how often the server rescans for printers to emit
	// printer_added and printer_removed events. Zero disables it.
	// Default: 10s
	MonitorInterval time.Duration `yaml:"monitor_interval"`

	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	TotalTimeout   time.Duration `yaml:"total_timeout"`

	SerialBaudRates  []int         `yaml:"serial_baud_rates"`
	SerialChunkSize  int           `yaml:"serial_chunk_size"`
	SerialChunkDelay time.Duration `yaml:"serial_chunk_delay"`
}

type LogConfig struct {
	// Level is debug, info, warn or error. Default: info
	Level string `yaml:"level"`
	// Format is console or json. Default: console
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           "12212",
			AllowedOrigins: []string{"tauri://localhost", "http://tauri.localhost"},
		},
		Settings: SettingsConfig{
			Path: filepath.Join(DataDir(), "settings.yaml"),
		},
		Printing: PrintingConfig{
			Workers:          2,
			HistorySize:      100,
			MonitorInterval:  10 * time.Second,
			ConnectTimeout:   printer.DefaultConnectTimeout,
			TotalTimeout:     printer.DefaultTotalTimeout,
			SerialBaudRates:  append([]int(nil), printer.DefaultBaudRates...),
			SerialChunkSize:  1024,
			SerialChunkDelay: 10 * time.Millisecond,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load reads path over the defaults. An empty path uses $POS_CONFIG; when
// that is unset too the defaults are returned. Environment overrides are
// applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("POS_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if path := os.Getenv("POS_SETTINGS"); path != "" {
		c.Settings.Path = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// Validate rejects values the services cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is empty"))
	}
	if c.Settings.Path == "" {
		errs = append(errs, errors.New("settings.path is empty"))
	}
	if c.Printing.Workers < 1 {
		errs = append(errs, fmt.Errorf("printing.workers must be at least 1, got %d", c.Printing.Workers))
	}
	if c.Printing.ConnectTimeout > c.Printing.TotalTimeout {
		errs = append(errs, fmt.Errorf("printing.connect_timeout %v exceeds total_timeout %v",
			c.Printing.ConnectTimeout, c.Printing.TotalTimeout))
	}
	if c.Printing.MonitorInterval < 0 {
		errs = append(errs, fmt.Errorf("printing.monitor_interval must not be negative, got %v", c.Printing.MonitorInterval))
	}
	for _, baud := range c.Printing.SerialBaudRates {
		if baud <= 0 {
			errs = append(errs, fmt.Errorf("printing.serial_baud_rates: invalid rate %d", baud))
		}
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be console or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// TransportOptions maps the printing section onto printer.Options.
func (c *Config) TransportOptions() printer.Options {
	return printer.Options{
		TempDir:          c.Printing.TempDir,
		ConnectTimeout:   c.Printing.ConnectTimeout,
		TotalTimeout:     c.Printing.TotalTimeout,
		SerialBaudRates:  c.Printing.SerialBaudRates,
		SerialChunkSize:  c.Printing.SerialChunkSize,
		SerialChunkDelay: c.Printing.SerialChunkDelay,
	}
}

// DataDir is where settings live by default: next to the executable when
// that directory is writable, else the user config directory.
func DataDir() string {
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		if writable(dir) {
			return dir
		}
	}

	var base string
	if runtime.GOOS == "windows" {
		base = os.Getenv("APPDATA")
	}
	if base == "" {
		if d, err := os.UserConfigDir(); err == nil {
			base = d
		}
	}
	if base == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
		return "."
	}
	return filepath.Join(base, "pos-kasir")
}

func writable(dir string) bool {
	f, err := os.CreateTemp(dir, ".pos-kasir-write-test-*")
	if err != nil {
		return false
	}
	name := f.Name()
	f.Close()
	return os.Remove(name) == nil
}
