package discovery

import (
	"path/filepath"
	"strings"
)

// ImageExtensions is the accepted set used by DiscoverImages.
var ImageExtensions = []string{"jpg", "png", "jpeg"}

// Extension returns the extension of the final path component without the
// leading dot. Dotfiles such as ".hidden" have no extension.
func Extension(path string) string {
	base := filepath.Base(path)
	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return ""
	}
	return base[i+1:]
}

// MatchExtension reports whether ext is an exact, case-sensitive member of
// accepted. An empty extension never matches.
func MatchExtension(ext string, accepted []string) bool {
	if ext == "" {
		return false
	}
	for _, a := range accepted {
		if a == ext {
			return true
		}
	}
	return false
}

// Filter decides which file names are kept by a scan.
//
// Matching is case-sensitive unless CaseInsensitive is set, so "photo.JPG"
// is rejected by the default {jpg, png, jpeg} set.
type Filter struct {
	Extensions      []string
	CaseInsensitive bool
}

// Accepts reports whether the file at path passes the filter.
func (f Filter) Accepts(path string) bool {
	ext := Extension(path)
	if !f.CaseInsensitive {
		return MatchExtension(ext, f.Extensions)
	}
	if ext == "" {
		return false
	}
	for _, a := range f.Extensions {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}
