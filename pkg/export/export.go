// Package export writes extracted crops to an output directory and, on
// request, a Parquet index describing every written file.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/parquet-go/parquet-go"

	"github.com/menta2k/datacrop/internal/utils"
	"github.com/menta2k/datacrop/pkg/processing"
	"github.com/menta2k/datacrop/pkg/record"
	"github.com/menta2k/datacrop/pkg/types"
)

// Config holds configuration for an Exporter
type Config struct {
	OutputDir string
	// InputRoot is the scanned root; class names are derived relative to it.
	InputRoot string
	// Classified mirrors each image's parent directory below InputRoot
	// into OutputDir, so crops of class folders stay grouped.
	Classified bool
	Options    types.ExportOptions
}

// Written describes one crop file on disk.
type Written struct {
	Source string
	CropID string
	Index  int
	Rect   types.CropRect
	Output string
	// Size is the encoded file size in bytes
	Size int64
}

// IndexRow is one row of the Parquet index.
type IndexRow struct {
	Source string `parquet:"source"`
	CropID string `parquet:"crop_id"`
	Index  int64  `parquet:"index"`
	X      int64  `parquet:"x"`
	Y      int64  `parquet:"y"`
	Width  int64  `parquet:"width"`
	Height int64  `parquet:"height"`
	Output string `parquet:"output"`
}

// Exporter writes crops. It is safe for concurrent use with different
// records.
type Exporter struct {
	config    Config
	ext       string
	processor *processing.Processor

	mu      sync.Mutex
	claimed map[string]struct{}
}

// New creates an Exporter, validating the output format.
func New(config Config) (*Exporter, error) {
	ext, err := processing.FormatExtension(config.Options.Format)
	if err != nil {
		return nil, err
	}
	if config.Options.Quality == 0 {
		config.Options.Quality = 90
	}
	return &Exporter{
		config:    config,
		ext:       ext,
		processor: processing.NewProcessor(),
		claimed:   make(map[string]struct{}),
	}, nil
}

// Export extracts every crop of rec and writes it to disk in crop order.
func (e *Exporter) Export(rec *record.ImageRecord) ([]Written, error) {
	images, err := rec.ExtractCrops()
	if err != nil {
		return nil, err
	}

	dir := e.targetDir(rec.Path())
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	crops := rec.Crops()
	written := make([]Written, 0, len(images))
	for i, img := range images {
		out := e.claim(filepath.Join(dir, utils.CropFilename(rec.Path(), i, e.ext)))
		opts := e.config.Options
		if err := e.processor.SaveImage(img, out, opts.Format, opts.Quality, opts.Lossless); err != nil {
			return written, fmt.Errorf("failed to save crop %d of %s: %w", i, rec.Path(), err)
		}
		info, err := os.Stat(out)
		if err != nil {
			return written, fmt.Errorf("failed to stat crop %d of %s: %w", i, rec.Path(), err)
		}
		slog.Debug("wrote crop", "source", rec.Path(), "index", i, "output", out, "size", utils.FormatFileSize(info.Size()))
		written = append(written, Written{
			Source: rec.Path(),
			CropID: crops[i].ID,
			Index:  i,
			Rect:   crops[i].Rect,
			Output: out,
			Size:   info.Size(),
		})
	}
	return written, nil
}

// targetDir picks the directory for the crops of source
func (e *Exporter) targetDir(source string) string {
	if !e.config.Classified || e.config.InputRoot == "" {
		return e.config.OutputDir
	}
	rel, err := filepath.Rel(e.config.InputRoot, filepath.Dir(source))
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return e.config.OutputDir
	}
	return filepath.Join(e.config.OutputDir, rel)
}

// claim reserves an output path, adding a numeric suffix when two sources
// with the same stem land in one directory.
func (e *Exporter) claim(path string) string {
	e.mu.Lock()
	defer e.mu.Unlock()

	candidate := path
	ext := filepath.Ext(path)
	for n := 1; ; n++ {
		if _, taken := e.claimed[candidate]; !taken {
			e.claimed[candidate] = struct{}{}
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(path, ext), n, ext)
	}
}

// WriteIndex stores written as a Parquet file at path.
func WriteIndex(path string, written []Written) error {
	rows := make([]IndexRow, len(written))
	for i, w := range written {
		rows[i] = IndexRow{
			Source: w.Source,
			CropID: w.CropID,
			Index:  int64(w.Index),
			X:      int64(w.Rect.X),
			Y:      int64(w.Rect.Y),
			Width:  int64(w.Rect.Width),
			Height: int64(w.Rect.Height),
			Output: w.Output,
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("failed to write index: %w", err)
	}
	return nil
}

// ReadIndex loads an index written by WriteIndex.
func ReadIndex(path string) ([]IndexRow, error) {
	rows, err := parquet.ReadFile[IndexRow](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	return rows, nil
}
