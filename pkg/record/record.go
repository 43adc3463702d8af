// Package record holds the per-image model: a source path plus the ordered
// crop rectangles drawn on it.
//
// An ImageRecord is not safe for concurrent mutation. One writer edits a
// record at a time; callers that share a record between goroutines must
// serialize access themselves.
package record

import (
	"image"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/menta2k/datacrop/pkg/processing"
	"github.com/menta2k/datacrop/pkg/types"
)

// NoName is returned by DisplayName when the path has no file name.
const NoName = "None"

// Crop is a rectangle together with the identifier it was given when added.
// Identifiers survive removal of other crops, positions do not.
type Crop struct {
	ID   string         `json:"id"`
	Rect types.CropRect `json:"rect"`
}

// ImageRecord owns one source image path and its crop rectangles in
// insertion order.
type ImageRecord struct {
	path      string
	crops     []Crop
	processor *processing.Processor
}

// New creates a record for the image at path with no crops.
func New(path string) *ImageRecord {
	return &ImageRecord{
		path:      path,
		processor: processing.NewProcessor(),
	}
}

// Path returns the source image path.
func (r *ImageRecord) Path() string {
	return r.path
}

// Decode reads and decodes the source image. Nothing is cached; every call
// goes back to disk.
func (r *ImageRecord) Decode() (image.Image, error) {
	img, err := r.processor.LoadImage(r.path)
	if err != nil {
		return nil, &DecodeError{Path: r.path, Err: err}
	}
	return img, nil
}

// AddCrop appends rect and returns its identifier. The rectangle is not
// checked against the image; ExtractCrops does that.
func (r *ImageRecord) AddCrop(rect types.CropRect) string {
	return r.addCrop(uuid.NewString(), rect)
}

// RestoreCrop appends rect under an identifier assigned earlier, e.g. when
// loading saved crops.
func (r *ImageRecord) RestoreCrop(id string, rect types.CropRect) {
	r.addCrop(id, rect)
}

func (r *ImageRecord) addCrop(id string, rect types.CropRect) string {
	r.crops = append(r.crops, Crop{ID: id, Rect: rect})
	return id
}

// RemoveCrop deletes the crop with the given identifier, keeping the order
// of the rest. It reports whether the crop existed.
func (r *ImageRecord) RemoveCrop(id string) bool {
	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.crops = append(r.crops[:i], r.crops[i+1:]...)
	return true
}

// UpdateCrop replaces the rectangle of an existing crop in place.
func (r *ImageRecord) UpdateCrop(id string, rect types.CropRect) bool {
	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.crops[i].Rect = rect
	return true
}

func (r *ImageRecord) indexOf(id string) int {
	for i, c := range r.crops {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Crops returns a copy of the crops in insertion order.
func (r *ImageRecord) Crops() []Crop {
	out := make([]Crop, len(r.crops))
	copy(out, r.crops)
	return out
}

// Len returns the number of crops.
func (r *ImageRecord) Len() int {
	return len(r.crops)
}

// ValidateCrops checks every crop against an image of the given size and
// returns a *ValidationError for the first one that does not fit.
func (r *ImageRecord) ValidateCrops(width, height int) error {
	for i, c := range r.crops {
		if !c.Rect.Within(width, height) {
			return &ValidationError{Index: i, Rect: c.Rect, Width: width, Height: height}
		}
	}
	return nil
}

// ExtractCrops decodes the source once and returns one buffer per crop in
// insertion order. If any crop exceeds the image nothing is returned.
func (r *ImageRecord) ExtractCrops() ([]image.Image, error) {
	img, err := r.Decode()
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if err := r.ValidateCrops(bounds.Dx(), bounds.Dy()); err != nil {
		return nil, err
	}

	out := make([]image.Image, 0, len(r.crops))
	for _, c := range r.crops {
		out = append(out, r.processor.Crop(img, c.Rect))
	}
	return out, nil
}

// DisplayName returns the final component of the path, or "None" when the
// path has no file name.
func (r *ImageRecord) DisplayName() string {
	return displayName(r.path)
}

func displayName(path string) string {
	if path == "" {
		return NoName
	}
	base := filepath.Base(filepath.Clean(path))
	switch base {
	case ".", "..", string(filepath.Separator):
		return NoName
	}
	return base
}
