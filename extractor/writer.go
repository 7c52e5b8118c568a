package extractor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"swatch-extractor/internal/types"
)

// ResultWriter persists the result set as a single JSON array. Every write
// replaces the whole file, so a reader never sees a half-written array.
type ResultWriter struct {
	mu   sync.Mutex
	path string
}

// NewResultWriter creates a writer for path.
// Nothing touches the disk until the first Write.
func NewResultWriter(path string) *ResultWriter {
	return &ResultWriter{path: path}
}

// Path returns the output file path.
func (w *ResultWriter) Path() string {
	return w.path
}

// Write serializes records in order and swaps the file into place.
func (w *ResultWriter) Write(records []types.ProductRecord) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if records == nil {
		records = []types.ProductRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results to JSON: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write to temp file first for atomicity
	tmpFile := w.path + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o644); err != nil {
		return fmt.Errorf("failed to write results to file: %w", err)
	}

	if err := os.Rename(tmpFile, w.path); err != nil {
		_ = os.Remove(tmpFile)
		return fmt.Errorf("failed to write results to file: %w", err)
	}
	return nil
}

// Load reads a previously written result set.
func (w *ResultWriter) Load() ([]types.ProductRecord, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, err
	}

	var records []types.ProductRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", w.path, err)
	}
	return records, nil
}
