package discovery

import "testing"

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"/a/b/photo.jpg": "jpg",
		"archive.tar.gz": "gz",
		"noext":          "",
		".hidden":        "",
		"trailing.":      "",
		"/dir.d/file":    "",
		"UPPER.PNG":      "PNG",
	}
	for in, want := range tests {
		if got := Extension(in); got != want {
			t.Errorf("Extension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMatchExtension(t *testing.T) {
	accepted := []string{"jpg", "png", "jpeg"}

	tests := []struct {
		ext  string
		want bool
	}{
		{"jpg", true},
		{"jpeg", true},
		{"png", true},
		{"JPG", false},
		{"Png", false},
		{"gif", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := MatchExtension(tt.ext, accepted); got != tt.want {
			t.Errorf("MatchExtension(%q) = %v, want %v", tt.ext, got, tt.want)
		}
	}

	// An empty extension never matches, even if the set contains it
	if MatchExtension("", []string{""}) {
		t.Error("empty extension should never match")
	}
}

func TestFilterAccepts(t *testing.T) {
	sensitive := Filter{Extensions: ImageExtensions}
	insensitive := Filter{Extensions: ImageExtensions, CaseInsensitive: true}

	if !sensitive.Accepts("/x/y.jpg") || sensitive.Accepts("/x/y.JPG") {
		t.Error("case-sensitive filter mismatch")
	}
	if !insensitive.Accepts("/x/y.JPG") || !insensitive.Accepts("/x/y.JpEg") {
		t.Error("case-insensitive filter should accept any case")
	}
	if insensitive.Accepts("/x/README") || insensitive.Accepts("/x/y.txt") {
		t.Error("case-insensitive filter accepted a non-image")
	}
}
