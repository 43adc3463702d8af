// Package vision finds visually salient regions without a model server.
// Local implements client.VisionClient, so it can stand in for Ollama when
// proposing crops offline.
package vision

import (
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"sort"

	"github.com/disintegration/imaging"

	"github.com/menta2k/datacrop/pkg/processing"
	"github.com/menta2k/datacrop/pkg/types"
)

// Label is the region label reported by Local
const Label = "salient"

// Config holds configuration for saliency detection
type Config struct {
	// WorkSize is the longest side the image is reduced to before analysis
	WorkSize       int
	EdgeWeight     float64
	ContrastWeight float64
	// Threshold is the minimum mean saliency of a kept window
	Threshold float64
	// MinRegionRatio is the minimum window area relative to the image
	MinRegionRatio float64
	MaxRegions     int
	// Overlap is the IoU above which a weaker window is dropped
	Overlap float64
}

// Local proposes regions from edge strength and contrast
type Local struct {
	config Config
}

// New creates a detector with default configuration
func New() *Local {
	return &Local{
		config: Config{
			WorkSize:       256,
			EdgeWeight:     0.6,
			ContrastWeight: 0.4,
			Threshold:      0.05,
			MinRegionRatio: 0.01,
			MaxRegions:     5,
			Overlap:        0.3,
		},
	}
}

// NewWithConfig creates a detector with custom configuration
func NewWithConfig(config Config) *Local {
	return &Local{config: config}
}

// AnalyzeImage decodes the base64 image and runs Analyze. model and prompt
// are ignored.
func (l *Local) AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.AnalysisResult, error) {
	data, err := base64.StdEncoding.DecodeString(imgB64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	img, err := processing.NewProcessor().DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return l.Analyze(ctx, img)
}

// Analyze returns up to MaxRegions non-overlapping salient regions with
// normalized boxes, strongest first. The strongest has confidence 1.
func (l *Local) Analyze(ctx context.Context, img image.Image) (*types.AnalysisResult, error) {
	work := imaging.Clone(img)
	if ws := l.config.WorkSize; ws > 0 {
		b := work.Bounds()
		if b.Dx() > ws || b.Dy() > ws {
			work = imaging.Fit(work, ws, ws, imaging.Box)
		}
	}
	gray := imaging.Grayscale(work)
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()

	sat, err := l.saliency(ctx, gray)
	if err != nil {
		return nil, err
	}

	windows, err := l.windows(ctx, sat, w, h)
	if err != nil {
		return nil, err
	}
	windows = suppress(windows, l.config.Overlap, l.config.MaxRegions)

	result := &types.AnalysisResult{Regions: make([]types.Region, 0, len(windows))}
	for _, win := range windows {
		r := win.rect
		result.Regions = append(result.Regions, types.Region{
			Label:      Label,
			Confidence: win.score / windows[0].score,
			Box: types.Box{
				X: float64(r.Min.X) / float64(w),
				Y: float64(r.Min.Y) / float64(h),
				W: float64(r.Dx()) / float64(w),
				H: float64(r.Dy()) / float64(h),
			},
		})
	}
	result.Description = fmt.Sprintf("%d salient regions", len(result.Regions))
	if len(result.Regions) > 0 {
		result.Tags = []string{Label}
	}
	return result, nil
}

// saliency builds a summed-area table of per-pixel saliency. sat has
// (w+1)*(h+1) entries; row 0 and column 0 are zero.
func (l *Local) saliency(ctx context.Context, gray *image.NRGBA) ([]float64, error) {
	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	at := func(x, y int) float64 {
		return float64(gray.Pix[y*gray.Stride+x*4])
	}

	var mean float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mean += at(x, y)
		}
	}
	if w > 0 && h > 0 {
		mean /= float64(w * h)
	}

	sat := make([]float64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var row float64
		for x := 0; x < w; x++ {
			v := at(x, y)

			var edge float64
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if (dx == 0 && dy == 0) || nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					edge += abs(v - at(nx, ny))
					n++
				}
			}
			if n > 0 {
				edge /= float64(n) * 255
			}
			contrast := abs(v-mean) / 255

			row += l.config.EdgeWeight*edge + l.config.ContrastWeight*contrast
			sat[(y+1)*(w+1)+x+1] = sat[y*(w+1)+x+1] + row
		}
	}
	return sat, nil
}

type window struct {
	rect  image.Rectangle
	score float64
}

// windows slides square windows of several sizes over the image and keeps
// those whose mean saliency passes the threshold
func (l *Local) windows(ctx context.Context, sat []float64, w, h int) ([]window, error) {
	side := min(w, h)
	minArea := l.config.MinRegionRatio * float64(w*h)

	var out []window
	for _, div := range []int{6, 4, 3, 2} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		size := side / div
		if size < 4 || float64(size*size) < minArea {
			continue
		}
		step := max(size/4, 1)
		for y := 0; y+size <= h; y += step {
			for x := 0; x+size <= w; x += step {
				r := image.Rect(x, y, x+size, y+size)
				score := sum(sat, w, r) / float64(size*size)
				if score > l.config.Threshold {
					out = append(out, window{rect: r, score: score})
				}
			}
		}
	}
	return out, nil
}

// sum reads the total saliency inside r from the summed-area table
func sum(sat []float64, w int, r image.Rectangle) float64 {
	stride := w + 1
	return sat[r.Max.Y*stride+r.Max.X] - sat[r.Min.Y*stride+r.Max.X] -
		sat[r.Max.Y*stride+r.Min.X] + sat[r.Min.Y*stride+r.Min.X]
}

// suppress keeps the strongest windows, dropping any that overlap a kept one
// by more than overlap
func suppress(windows []window, overlap float64, limit int) []window {
	sort.SliceStable(windows, func(i, j int) bool {
		return windows[i].score > windows[j].score
	})

	var kept []window
	for _, c := range windows {
		if limit > 0 && len(kept) == limit {
			break
		}
		keep := true
		for _, k := range kept {
			if iou(c.rect, k.rect) > overlap {
				keep = false
				break
			}
		}
		if keep {
			kept = append(kept, c)
		}
	}
	return kept
}

func iou(a, b image.Rectangle) float64 {
	inter := a.Intersect(b)
	if inter.Empty() {
		return 0
	}
	ia := float64(inter.Dx() * inter.Dy())
	union := float64(a.Dx()*a.Dy()+b.Dx()*b.Dy()) - ia
	return ia / union
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
