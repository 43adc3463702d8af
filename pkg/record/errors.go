package record

import (
	"fmt"

	"github.com/menta2k/datacrop/pkg/types"
)

// DecodeError reports a source file that could not be read as an image.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ValidationError reports a crop rectangle that does not fit the decoded
// image. Index is the rectangle's position in insertion order.
type ValidationError struct {
	Index  int
	Rect   types.CropRect
	Width  int
	Height int
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("crop %d (x=%d y=%d w=%d h=%d) exceeds image bounds %dx%d",
		e.Index, e.Rect.X, e.Rect.Y, e.Rect.Width, e.Rect.Height, e.Width, e.Height)
}
