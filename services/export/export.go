// Package export implements the maintctl operations: seeding the catalog,
// exporting measurement windows and publishing one-shot readings.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/WKyuki/Challenge-Hermes-Reply/pkg/reading"
	"github.com/WKyuki/Challenge-Hermes-Reply/services/api"
)

// WindowConfig selects which measurements to export. An empty EquipmentID
// exports the whole fleet.
type WindowConfig struct {
	EquipmentID string
	Since       time.Time
	Output      string
	Stdout      io.Writer
}

// Window writes the selected measurement window as zstd-compressed NDJSON,
// one canonical record per line.
func Window(ctx context.Context, store *api.Store, cfg WindowConfig) error {
	var (
		window []reading.Stored
		err    error
	)
	if cfg.EquipmentID != "" {
		window, err = store.QueryWindow(ctx, cfg.EquipmentID, cfg.Since)
	} else {
		window, err = store.RecentWindow(ctx, cfg.Since)
	}
	if err != nil {
		return fmt.Errorf("load window: %w", err)
	}

	file, err := os.Create(cfg.Output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer file.Close()

	if err := WriteNDJSON(file, window); err != nil {
		return err
	}

	if cfg.Stdout != nil {
		fmt.Fprintf(cfg.Stdout, "exported %d measurements to %s\n", len(window), cfg.Output)
	}
	return nil
}

// WriteNDJSON streams records through a zstd encoder as newline-delimited
// JSON.
func WriteNDJSON(w io.Writer, window []reading.Stored) error {
	encoder, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}

	enc := json.NewEncoder(encoder)
	for i := range window {
		if err := enc.Encode(&window[i]); err != nil {
			encoder.Close()
			return fmt.Errorf("encode measurement %d: %w", window[i].ID, err)
		}
	}

	return encoder.Close()
}

// ReadNDJSON decodes a stream produced by WriteNDJSON.
func ReadNDJSON(r io.Reader) ([]reading.Stored, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer decoder.Close()

	var out []reading.Stored
	dec := json.NewDecoder(decoder)
	for {
		var rec reading.Stored
		if err := dec.Decode(&rec); err != nil {
			if err == io.EOF {
				return out, nil
			}
			return nil, err
		}
		out = append(out, rec)
	}
}
