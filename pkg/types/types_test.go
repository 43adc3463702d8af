package types

import (
	"image"
	"math"
	"testing"
)

func TestCropRectWithin(t *testing.T) {
	tests := []struct {
		name string
		rect CropRect
		want bool
	}{
		{"full image", CropRect{0, 0, 100, 50}, true},
		{"inner", CropRect{10, 10, 20, 20}, true},
		{"touches right edge", CropRect{90, 0, 10, 50}, true},
		{"past right edge", CropRect{91, 0, 10, 50}, false},
		{"past bottom edge", CropRect{0, 1, 100, 50}, false},
		{"negative origin", CropRect{-1, 0, 10, 10}, false},
		{"negative size", CropRect{0, 0, -5, 10}, false},
		{"zero size", CropRect{5, 5, 0, 0}, true},
		{"huge x", CropRect{math.MaxInt, 0, 1, 10}, false},
		{"huge y", CropRect{0, math.MaxInt, 10, 1}, false},
		{"huge width", CropRect{1, 0, math.MaxInt, 10}, false},
		{"huge height", CropRect{0, 1, 10, math.MaxInt}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rect.Within(100, 50); got != tt.want {
				t.Errorf("Within(100, 50) = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCropRectRectangle(t *testing.T) {
	r := CropRect{X: 3, Y: 4, Width: 10, Height: 20}

	got := r.Rectangle(image.Point{})
	if got != image.Rect(3, 4, 13, 24) {
		t.Errorf("Rectangle() = %v", got)
	}

	shifted := r.Rectangle(image.Pt(100, 200))
	if shifted != image.Rect(103, 204, 113, 224) {
		t.Errorf("Rectangle(offset) = %v", shifted)
	}

	if r.Empty() {
		t.Error("expected non-empty rectangle")
	}
	if !(CropRect{Width: 0, Height: 5}).Empty() {
		t.Error("expected zero-width rectangle to be empty")
	}
}

func TestBoxToCropRect(t *testing.T) {
	b := Box{X: 0.25, Y: 0.5, W: 0.5, H: 0.25}
	got := b.ToCropRect(400, 200)
	want := CropRect{X: 100, Y: 100, Width: 200, Height: 50}
	if got != want {
		t.Errorf("ToCropRect() = %+v, want %+v", got, want)
	}

	// Boxes hanging off the image are clamped
	over := Box{X: 0.9, Y: -0.2, W: 0.5, H: 0.5}.ToCropRect(100, 100)
	if !over.Within(100, 100) {
		t.Errorf("clamped rect %+v should fit 100x100", over)
	}
	if over.X != 90 || over.Y != 0 || over.Width != 10 || over.Height != 30 {
		t.Errorf("unexpected clamped rect %+v", over)
	}
}
