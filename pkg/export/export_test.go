package export

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/menta2k/datacrop/internal/utils"
	"github.com/menta2k/datacrop/pkg/record"
	"github.com/menta2k/datacrop/pkg/types"
)

// writeTestImage stores a solid PNG at root/rel
func writeTestImage(t *testing.T, root, rel string, width, height int) string {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Config{Options: types.ExportOptions{Format: "bmp"}}); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestExportFlat(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	src := writeTestImage(t, in, "cats/tom.png", 40, 40)

	rec := record.New(src)
	rec.AddCrop(types.CropRect{X: 0, Y: 0, Width: 10, Height: 10})
	rec.AddCrop(types.CropRect{X: 10, Y: 5, Width: 20, Height: 15})

	exp, err := New(Config{OutputDir: out, Options: types.ExportOptions{Format: "png"}})
	if err != nil {
		t.Fatal(err)
	}
	written, err := exp.Export(rec)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("Expected 2 files, got %d", len(written))
	}

	for i, w := range written {
		want := filepath.Join(out, utils.CropFilename(src, i, "png"))
		if w.Output != want {
			t.Errorf("crop %d written to %s, want %s", i, w.Output, want)
		}
		if w.Index != i || w.CropID != rec.Crops()[i].ID {
			t.Errorf("crop %d metadata mismatch: %+v", i, w)
		}
		if info, err := os.Stat(w.Output); err != nil || info.Size() != w.Size || w.Size == 0 {
			t.Errorf("crop %d size = %d, file %v", i, w.Size, err)
		}
	}

	f, err := os.Open(written[1].Output)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Width != 20 || cfg.Height != 15 {
		t.Errorf("Expected 20x15 crop on disk, got %dx%d", cfg.Width, cfg.Height)
	}
}

func TestExportClassified(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	cat := writeTestImage(t, in, "cat/a.png", 8, 8)
	dog := writeTestImage(t, in, "dog/a.png", 8, 8)
	top := writeTestImage(t, in, "top.png", 8, 8)

	exp, err := New(Config{
		OutputDir:  out,
		InputRoot:  in,
		Classified: true,
		Options:    types.ExportOptions{Format: "jpg", Quality: 80},
	})
	if err != nil {
		t.Fatal(err)
	}

	wantDirs := map[string]string{
		cat: filepath.Join(out, "cat"),
		dog: filepath.Join(out, "dog"),
		top: out,
	}
	for src, wantDir := range wantDirs {
		rec := record.New(src)
		rec.AddCrop(types.CropRect{Width: 4, Height: 4})
		written, err := exp.Export(rec)
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Dir(written[0].Output) != wantDir {
			t.Errorf("%s exported to %s, want dir %s", src, written[0].Output, wantDir)
		}
		if !utils.FileExists(written[0].Output) {
			t.Errorf("missing output %s", written[0].Output)
		}
	}
}

func TestExportNameCollision(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	a := writeTestImage(t, in, "a.png", 8, 8)
	// Same stem, different extension: both map to a_000.png
	b := filepath.Join(in, "a.jpeg")
	if err := os.Rename(writeTestImage(t, in, "b.png", 8, 8), b); err != nil {
		t.Fatal(err)
	}

	exp, _ := New(Config{OutputDir: out, Options: types.ExportOptions{Format: "png"}})
	var outputs []string
	for _, src := range []string{a, b} {
		rec := record.New(src)
		rec.AddCrop(types.CropRect{Width: 2, Height: 2})
		written, err := exp.Export(rec)
		if err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, written[0].Output)
	}
	if outputs[0] == outputs[1] {
		t.Fatalf("Both crops written to %s", outputs[0])
	}
	if outputs[1] != filepath.Join(out, "a_000-1.png") {
		t.Errorf("Unexpected suffixed name %s", outputs[1])
	}
}

func TestExportValidationFailureWritesNothing(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	src := writeTestImage(t, in, "small.png", 10, 10)

	rec := record.New(src)
	rec.AddCrop(types.CropRect{Width: 5, Height: 5})
	rec.AddCrop(types.CropRect{X: 8, Width: 5, Height: 5})

	exp, _ := New(Config{OutputDir: out, Options: types.ExportOptions{Format: "png"}})
	_, err := exp.Export(rec)
	var valErr *record.ValidationError
	if !errors.As(err, &valErr) || valErr.Index != 1 {
		t.Fatalf("Expected ValidationError for crop 1, got %v", err)
	}

	entries, _ := os.ReadDir(out)
	if len(entries) != 0 {
		t.Errorf("Expected no files written, found %d", len(entries))
	}
}

func TestIndexRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta", "index.parquet")
	written := []Written{
		{Source: "/in/a.png", CropID: "id-1", Index: 0, Rect: types.CropRect{X: 1, Y: 2, Width: 3, Height: 4}, Output: "/out/a_000.png"},
		{Source: "/in/a.png", CropID: "id-2", Index: 1, Rect: types.CropRect{X: 5, Y: 6, Width: 7, Height: 8}, Output: "/out/a_001.png"},
	}

	if err := WriteIndex(path, written); err != nil {
		t.Fatalf("WriteIndex failed: %v", err)
	}
	rows, err := ReadIndex(path)
	if err != nil {
		t.Fatalf("ReadIndex failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[1].CropID != "id-2" || rows[1].X != 5 || rows[1].Height != 8 || rows[1].Output != "/out/a_001.png" {
		t.Errorf("Unexpected row %+v", rows[1])
	}
}

func TestIndexKeepsLargeCoordinates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.parquet")
	const big = 1 << 33
	written := []Written{
		{Source: "/in/wide.png", CropID: "id", Rect: types.CropRect{X: big, Y: 1, Width: big + 1, Height: 2}, Output: "/out/wide_000.png"},
	}
	if err := WriteIndex(path, written); err != nil {
		t.Fatal(err)
	}
	rows, err := ReadIndex(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].X != big || rows[0].Width != big+1 {
		t.Errorf("Coordinates truncated: %+v", rows)
	}
}
