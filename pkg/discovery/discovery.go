// Package discovery finds media files below a directory tree.
//
// A scan visits every directory reachable from the root without a depth
// limit and keeps the regular files whose extension passes a Filter. How an
// unreadable directory is handled is chosen per Scanner through Policy.
package discovery

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
)

// Policy selects what a scan does when a directory cannot be read.
type Policy int

const (
	// SkipUnreadable records the failure in Result.Skipped and keeps walking.
	SkipUnreadable Policy = iota
	// FailFast stops at the first unreadable directory and returns the
	// paths gathered so far together with the *IOError.
	FailFast
)

// String returns the config spelling of the policy.
func (p Policy) String() string {
	switch p {
	case FailFast:
		return "fail"
	default:
		return "skip"
	}
}

// ParsePolicy maps "skip" and "fail" to a Policy.
func ParsePolicy(s string) (Policy, bool) {
	switch s {
	case "", "skip":
		return SkipUnreadable, true
	case "fail":
		return FailFast, true
	}
	return SkipUnreadable, false
}

// Result is the outcome of a recursive scan. Paths carries no ordering
// guarantee.
type Result struct {
	Paths   []string
	Skipped []*IOError
}

// Err folds every skipped directory into one error, or returns nil.
func (r *Result) Err() error {
	var merr *multierror.Error
	for _, s := range r.Skipped {
		merr = multierror.Append(merr, s)
	}
	return merr.ErrorOrNil()
}

// Config holds configuration for a Scanner
type Config struct {
	CaseInsensitive bool
	Policy          Policy
	Logger          *slog.Logger
}

// Scanner walks directory trees.
type Scanner struct {
	config  Config
	logger  *slog.Logger
	readDir func(string) ([]fs.DirEntry, error)
}

// New creates a Scanner with case-sensitive matching that skips unreadable
// directories.
func New() *Scanner {
	return NewWithConfig(Config{})
}

// NewWithConfig creates a Scanner with custom configuration
func NewWithConfig(config Config) *Scanner {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{config: config, logger: logger, readDir: os.ReadDir}
}

// Discover recursively collects the files below root whose extension is in
// extensions. A root that is missing or not a directory yields an empty
// result and no error.
//
// ctx is checked between directory entries; when it is done the partial
// result is returned with ctx.Err().
func (s *Scanner) Discover(ctx context.Context, root string, extensions []string) (*Result, error) {
	result := &Result{}
	if !isDir(root) {
		return result, nil
	}

	filter := Filter{Extensions: extensions, CaseInsensitive: s.config.CaseInsensitive}
	if err := s.walk(ctx, root, filter, result); err != nil {
		return result, err
	}
	return result, nil
}

// DiscoverImages is Discover with the {jpg, png, jpeg} extension set.
func (s *Scanner) DiscoverImages(ctx context.Context, root string) (*Result, error) {
	return s.Discover(ctx, root, ImageExtensions)
}

func (s *Scanner) walk(ctx context.Context, dir string, filter Filter, result *Result) error {
	entries, err := s.readDir(dir)
	if err != nil {
		ioErr := &IOError{Path: dir, Err: err}
		if s.config.Policy == FailFast {
			return ioErr
		}
		s.logger.Debug("skipping unreadable directory", "path", dir, "error", err)
		result.Skipped = append(result.Skipped, ioErr)
		// ReadDir may still hand back the entries read before the failure
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(dir, entry.Name())
		mode := entry.Type()

		switch {
		case entry.IsDir():
			if err := s.walk(ctx, path, filter, result); err != nil {
				return err
			}
		case mode&fs.ModeSymlink != 0:
			// Linked files are kept, linked directories are not descended.
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				s.logger.Debug("ignoring symlink", "path", path)
				continue
			}
			if filter.Accepts(path) {
				result.Paths = append(result.Paths, path)
			}
		case mode.IsRegular():
			if filter.Accepts(path) {
				result.Paths = append(result.Paths, path)
			}
		}
	}
	return nil
}

// ListSubdirectories returns the immediate child directories of root. It is
// empty when root is not a directory.
func (s *Scanner) ListSubdirectories(root string) ([]string, error) {
	if !isDir(root) {
		return nil, nil
	}
	entries, err := s.readDir(root)
	if err != nil {
		return nil, &IOError{Path: root, Err: err}
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(root, entry.Name()))
		}
	}
	return dirs, nil
}

// Discover runs a default Scanner over root.
func Discover(root string, extensions []string) (*Result, error) {
	return New().Discover(context.Background(), root, extensions)
}

// DiscoverImages runs a default Scanner over root with the image extensions.
func DiscoverImages(root string) (*Result, error) {
	return New().DiscoverImages(context.Background(), root)
}

// ListSubdirectories lists the immediate child directories of root.
func ListSubdirectories(root string) ([]string, error) {
	return New().ListSubdirectories(root)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
