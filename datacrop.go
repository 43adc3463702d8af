// Package datacrop prepares image datasets: it finds the images below a
// directory, lets crop rectangles be recorded against each one, and writes
// the cropped regions out as new samples.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		"github.com/menta2k/datacrop"
//		"github.com/menta2k/datacrop/pkg/types"
//	)
//
//	func main() {
//		dc := datacrop.New()
//
//		result, err := dc.Discover(context.Background(), "/data")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		for _, path := range result.Paths {
//			rec := dc.Open(path)
//			rec.AddCrop(types.CropRect{X: 0, Y: 0, Width: 64, Height: 64})
//			if _, err := dc.ExtractAndExport(rec, "/data/crops"); err != nil {
//				log.Fatal(err)
//			}
//		}
//	}
//
// The package is a thin facade over the components:
//
// 1. Discovery (pkg/discovery): recursive, extension-filtered file scans
// 2. Record (pkg/record): one image path with its ordered crop rectangles
// 3. Export (pkg/export): writes extracted crops and an optional index
// 4. Session (pkg/session): navigation state over a scanned dataset
//
// Optional crop suggestions from a vision model live in pkg/suggest.
package datacrop

import (
	"context"
	"fmt"

	"github.com/menta2k/datacrop/pkg/discovery"
	"github.com/menta2k/datacrop/pkg/export"
	"github.com/menta2k/datacrop/pkg/record"
	"github.com/menta2k/datacrop/pkg/session"
	"github.com/menta2k/datacrop/pkg/types"
)

// Version of the datacrop library
const Version = "0.1.0"

// Options configures a Datacrop
type Options struct {
	Discovery discovery.Config
	// Extensions accepted by Discover, without the dot
	Extensions []string
	Export     types.ExportOptions
}

// DefaultOptions returns the options used by New
func DefaultOptions() Options {
	return Options{
		Extensions: discovery.ImageExtensions,
		Export:     types.ExportOptions{Format: "png", Quality: 90},
	}
}

// Datacrop provides a high-level interface for dataset preparation
type Datacrop struct {
	scanner *discovery.Scanner
	options Options
}

// New creates a Datacrop with default configuration
func New() *Datacrop {
	dc, _ := NewWithConfig(DefaultOptions())
	return dc
}

// NewWithConfig creates a Datacrop with custom configuration
func NewWithConfig(options Options) (*Datacrop, error) {
	if len(options.Extensions) == 0 {
		return nil, fmt.Errorf("at least one extension is required")
	}
	if _, err := export.New(export.Config{Options: options.Export}); err != nil {
		return nil, fmt.Errorf("invalid export options: %w", err)
	}
	return &Datacrop{
		scanner: discovery.NewWithConfig(options.Discovery),
		options: options,
	}, nil
}

// Discover recursively finds the images below root
func (dc *Datacrop) Discover(ctx context.Context, root string) (*discovery.Result, error) {
	return dc.scanner.Discover(ctx, root, dc.options.Extensions)
}

// ListSubdirectories returns the direct subdirectories of root
func (dc *Datacrop) ListSubdirectories(root string) ([]string, error) {
	return dc.scanner.ListSubdirectories(root)
}

// Open creates an empty record for the image at path. The file is not read
// until the record is decoded.
func (dc *Datacrop) Open(path string) *record.ImageRecord {
	return record.New(path)
}

// ExtractAndExport extracts every crop of rec and writes them to outputDir
func (dc *Datacrop) ExtractAndExport(rec *record.ImageRecord, outputDir string) ([]export.Written, error) {
	exp, err := export.New(export.Config{
		OutputDir: outputDir,
		Options:   dc.options.Export,
	})
	if err != nil {
		return nil, err
	}
	return exp.Export(rec)
}

// Session scans root and returns a session positioned on its first image
func (dc *Datacrop) Session(ctx context.Context, root string) (*session.Session, error) {
	s := session.New()
	if err := s.Load(ctx, dc.scanner, root, dc.options.Extensions); err != nil {
		return nil, err
	}
	return s, nil
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
