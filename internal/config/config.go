// Package config resolves csvtool settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/oleg578/csvfile"
)

// Config holds csvtool settings. Empty dialect fields leave the dialect file or the default
// in place.
type Config struct {
	Delimiter   string
	Enclosure   string
	Escape      string
	Terminator  string
	DialectPath string
	DSN         string
	BatchSize   int
	DBTimeout   time.Duration
}

// Load reads the given .env files (.env when none are named), then the CSVTOOL_* variables.
// A missing .env file is skipped; a malformed one or a non-numeric integer setting is an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, name := range envFiles {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", name, err)
		}
	}

	batch, err := getenvInt("CSVTOOL_BATCH_SIZE", 500)
	if err != nil {
		return nil, err
	}
	timeout, err := getenvInt("CSVTOOL_DB_TIMEOUT", 10)
	if err != nil {
		return nil, err
	}

	return &Config{
		Delimiter:   getenv("CSVTOOL_DELIMITER", ""),
		Enclosure:   getenv("CSVTOOL_ENCLOSURE", ""),
		Escape:      getenv("CSVTOOL_ESCAPE", ""),
		Terminator:  getenv("CSVTOOL_TERMINATOR", ""),
		DialectPath: getenv("CSVTOOL_DIALECT", ""),
		DSN:         getenv("CSVTOOL_DSN", ""),
		BatchSize:   batch,
		DBTimeout:   time.Duration(timeout) * time.Second,
	}, nil
}

// Dialect builds the dialect: the YAML file named by DialectPath first, then the explicit
// single-byte settings on top of it.
func (c *Config) Dialect() (csvfile.Dialect, error) {
	d := csvfile.DefaultDialect()
	if c.DialectPath != "" {
		var err error
		if d, err = csvfile.LoadDialectFile(c.DialectPath); err != nil {
			return csvfile.Dialect{}, err
		}
	}
	if c.Delimiter != "" {
		b, err := oneByte("delimiter", c.Delimiter)
		if err != nil {
			return csvfile.Dialect{}, err
		}
		d.Comma = b
	}
	if c.Enclosure != "" {
		b, err := oneByte("enclosure", c.Enclosure)
		if err != nil {
			return csvfile.Dialect{}, err
		}
		d.Quote = b
	}
	if c.Escape != "" {
		b, err := oneByte("escape", c.Escape)
		if err != nil {
			return csvfile.Dialect{}, err
		}
		d.Escape = b
	}
	if c.Terminator != "" {
		d.Terminator = csvfile.ParseTerminator(c.Terminator)
	}
	return d, nil
}

func oneByte(name, v string) (byte, error) {
	b, err := csvfile.ParseByte(name, v)
	if err != nil {
		return 0, fmt.Errorf("config: %w", err)
	}
	return b, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s must be an integer, got %q", key, v)
	}
	return n, nil
}
