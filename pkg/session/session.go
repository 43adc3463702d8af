// Package session keeps the state an interactive front end needs while an
// operator walks through a dataset: the scanned records and which one is
// selected. It has no event loop; a front end calls these methods in
// response to its own messages.
package session

import (
	"context"
	"fmt"
	"sort"

	"github.com/menta2k/datacrop/pkg/discovery"
	"github.com/menta2k/datacrop/pkg/record"
)

// Session is not safe for concurrent use.
type Session struct {
	InputDir   string
	OutputDir  string
	Classified bool

	records []*record.ImageRecord
	current int
	skipped []*discovery.IOError
}

// New creates an empty session. Classified datasets are the default.
func New() *Session {
	return &Session{Classified: true}
}

// Load scans root with scanner and replaces the session's records. Records
// are sorted by path so navigation is stable between runs.
func (s *Session) Load(ctx context.Context, scanner *discovery.Scanner, root string, extensions []string) error {
	result, err := scanner.Discover(ctx, root, extensions)
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", root, err)
	}

	paths := append([]string(nil), result.Paths...)
	sort.Strings(paths)

	records := make([]*record.ImageRecord, len(paths))
	for i, p := range paths {
		records[i] = record.New(p)
	}

	s.InputDir = root
	s.records = records
	s.current = 0
	s.skipped = result.Skipped
	return nil
}

// Records returns the loaded records in navigation order.
func (s *Session) Records() []*record.ImageRecord {
	return s.records
}

// Skipped lists directories the last Load could not read.
func (s *Session) Skipped() []*discovery.IOError {
	return s.skipped
}

// Current returns the selected record, or nil when nothing is loaded.
func (s *Session) Current() *record.ImageRecord {
	if len(s.records) == 0 {
		return nil
	}
	return s.records[s.current]
}

// Index returns the position of the selected record.
func (s *Session) Index() int {
	return s.current
}

// Select moves the selection to index i.
func (s *Session) Select(i int) error {
	if i < 0 || i >= len(s.records) {
		return fmt.Errorf("image index %d out of range [0, %d)", i, len(s.records))
	}
	s.current = i
	return nil
}

// Next advances the selection, stopping at the last record. It reports
// whether the selection moved.
func (s *Session) Next() bool {
	if s.current+1 >= len(s.records) {
		return false
	}
	s.current++
	return true
}

// Previous moves the selection back, stopping at the first record.
func (s *Session) Previous() bool {
	if s.current == 0 {
		return false
	}
	s.current--
	return true
}
