package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/menta2k/datacrop/pkg/discovery"
)

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, f)
		os.MkdirAll(filepath.Dir(p), 0o755)
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSessionNavigation(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "b.jpg", "a/z.png", "c.jpeg", "skip.txt")

	s := New()
	if s.Current() != nil {
		t.Error("Expected no current record before Load")
	}
	if s.Next() || s.Previous() {
		t.Error("Navigation on an empty session should not move")
	}

	if err := s.Load(context.Background(), discovery.New(), root, discovery.ImageExtensions); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(s.Records()) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(s.Records()))
	}
	if s.InputDir != root {
		t.Errorf("InputDir = %s, want %s", s.InputDir, root)
	}

	if got := s.Current().Path(); got != filepath.Join(root, "a", "z.png") {
		t.Errorf("first record = %s", got)
	}
	if s.Previous() {
		t.Error("Previous at start should not move")
	}
	if !s.Next() || !s.Next() {
		t.Fatal("Next should advance twice")
	}
	if s.Next() {
		t.Error("Next at the end should not move")
	}
	if s.Current().DisplayName() != "c.jpeg" || s.Index() != 2 {
		t.Errorf("Expected c.jpeg at index 2, got %s at %d", s.Current().DisplayName(), s.Index())
	}
	if !s.Previous() || s.Current().DisplayName() != "b.jpg" {
		t.Error("Previous should move back to b.jpg")
	}
}

func TestSessionSelect(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.jpg", "b.jpg")

	s := New()
	if err := s.Load(context.Background(), discovery.New(), root, discovery.ImageExtensions); err != nil {
		t.Fatal(err)
	}

	if err := s.Select(1); err != nil || s.Current().DisplayName() != "b.jpg" {
		t.Errorf("Select(1) = %v, current %s", err, s.Current().DisplayName())
	}
	for _, bad := range []int{-1, 2} {
		if err := s.Select(bad); err == nil {
			t.Errorf("Select(%d) should fail", bad)
		}
	}
	if s.Index() != 1 {
		t.Error("A failed Select must not move the selection")
	}
}

func TestSessionReloadResetsSelection(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, "a.jpg", "b.jpg")

	s := New()
	ctx := context.Background()
	s.Load(ctx, discovery.New(), root, discovery.ImageExtensions)
	s.Next()

	if err := s.Load(ctx, discovery.New(), t.TempDir(), discovery.ImageExtensions); err != nil {
		t.Fatal(err)
	}
	if s.Index() != 0 || s.Current() != nil {
		t.Error("Loading an empty directory should clear the selection")
	}
}
