package types

import "image"

// CropRect is an axis-aligned region in source pixel coordinates, origin at
// the top-left corner of the image.
type CropRect struct {
	X      int `json:"x" yaml:"x"`
	Y      int `json:"y" yaml:"y"`
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Rectangle converts the crop to an image.Rectangle relative to origin.
func (r CropRect) Rectangle(origin image.Point) image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height).Add(origin)
}

// Empty reports whether the rectangle covers no pixels.
func (r CropRect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Within reports whether the rectangle fits inside an image of the given
// dimensions: x+width <= w and y+height <= h, with all fields non-negative.
func (r CropRect) Within(w, h int) bool {
	if r.X < 0 || r.Y < 0 || r.Width < 0 || r.Height < 0 {
		return false
	}
	// Subtract instead of add so huge coordinates cannot wrap around
	return r.Width <= w && r.X <= w-r.Width && r.Height <= h && r.Y <= h-r.Height
}

// Box represents a normalized bounding box with coordinates in [0,1] range
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// ToCropRect converts a normalized box to pixel coordinates for an image of
// w x h pixels. The result is clamped to the image.
func (b Box) ToCropRect(w, h int) CropRect {
	x0 := int(clamp(b.X, 0, 1)*float64(w) + 0.5)
	y0 := int(clamp(b.Y, 0, 1)*float64(h) + 0.5)
	x1 := int(clamp(b.X+b.W, 0, 1)*float64(w) + 0.5)
	y1 := int(clamp(b.Y+b.H, 0, 1)*float64(h) + 0.5)
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return CropRect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Region is one crop-worthy area reported by a vision model
type Region struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// AnalysisResult contains the complete analysis result from the vision model
type AnalysisResult struct {
	Regions     []Region `json:"regions"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// ExportOptions controls how cropped buffers are encoded on disk
type ExportOptions struct {
	Format   string
	Quality  int
	Lossless bool
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
