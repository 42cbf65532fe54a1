// Package render writes report tables to CSV files. File names carry a
// random suffix so concurrent report runs never clobber each other's output.
package render

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Table is one rendered report sheet.
type Table struct {
	Title   string
	Headers []string
	Records [][]string
}

// Writer writes tables into a directory.
type Writer struct {
	dir    string
	logger *zap.Logger
}

func NewWriter(dir string, logger *zap.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// WriteTables writes each table as its own CSV file and returns the paths.
// Any file that was written before a failure is removed again, so callers
// never see partial output.
func (w *Writer) WriteTables(tables []Table) ([]string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	var paths []string
	for _, table := range tables {
		path := filepath.Join(w.dir, fmt.Sprintf("%s-%s.csv", table.Title, uuid.NewString()))
		if err := w.writeTable(path, table); err != nil {
			for _, written := range paths {
				os.Remove(written)
			}
			return nil, err
		}
		w.logger.Info("Report written",
			zap.String("title", table.Title),
			zap.String("path", path),
			zap.Int("rows", len(table.Records)))
		paths = append(paths, path)
	}
	return paths, nil
}

func (w *Writer) writeTable(path string, table Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	if len(table.Headers) > 0 {
		if err := cw.Write(table.Headers); err != nil {
			return fmt.Errorf("failed to write headers to %s: %w", path, err)
		}
	}
	for _, record := range table.Records {
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write record to %s: %w", path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	return nil
}
