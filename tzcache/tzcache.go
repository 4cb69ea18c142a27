// Package tzcache persists compiled period tables as zstd-compressed JSON,
// so lookups can start without compiling the tz sources.
package tzcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/tidwall/gjson"

	"github.com/ngrash/tzperiod/tzperiod"
)

// Tables are the compiled timelines of a database release.
type Tables struct {
	Version string `json:"version"`
	MinYear int    `json:"min_year"`
	MaxYear int    `json:"max_year"`
	// Zones maps canonical zone names to their timelines.
	Zones map[string][]tzperiod.Period `json:"zones"`
}

// Write encodes t to w.
func Write(w io.Writer, t Tables) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return err
	}
	if err := json.NewEncoder(enc).Encode(t); err != nil {
		enc.Close()
		return fmt.Errorf("encoding tables: %w", err)
	}
	return enc.Close()
}

// Read decodes tables written by Write and validates every timeline.
func Read(r io.Reader) (Tables, error) {
	var t Tables
	buf, err := decompress(r)
	if err != nil {
		return t, err
	}
	if err := json.Unmarshal(buf, &t); err != nil {
		return t, fmt.Errorf("decoding tables: %w", err)
	}
	for name, ps := range t.Zones {
		if err := tzperiod.Validate(ps); err != nil {
			return t, fmt.Errorf("zone %s: %w", name, err)
		}
	}
	return t, nil
}

// ReadVersion returns the release version of the tables in r without
// decoding the timelines.
func ReadVersion(r io.Reader) (string, error) {
	buf, err := decompress(r)
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(buf) {
		return "", errors.New("invalid cache: not JSON")
	}
	v := gjson.GetBytes(buf, "version")
	if v.Type != gjson.String {
		return "", errors.New("invalid cache: no version")
	}
	return v.String(), nil
}

func decompress(r io.Reader) ([]byte, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	buf, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decompressing cache: %w", err)
	}
	return buf, nil
}

// WriteFile writes t to the named file.
func WriteFile(name string, t Tables) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Debug("wrote period cache", slog.String("path", name), slog.String("version", t.Version), slog.Int("zones", len(t.Zones)))
	return nil
}

// ReadFile reads tables from the named file.
func ReadFile(name string) (Tables, error) {
	f, err := os.Open(name)
	if err != nil {
		return Tables{}, err
	}
	defer f.Close()
	t, err := Read(f)
	if err != nil {
		return t, fmt.Errorf("%s: %w", name, err)
	}
	slog.Debug("read period cache", slog.String("path", name), slog.String("version", t.Version), slog.Int("zones", len(t.Zones)))
	return t, nil
}
