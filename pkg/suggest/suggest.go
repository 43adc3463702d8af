package suggest

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/menta2k/datacrop/pkg/client"
	"github.com/menta2k/datacrop/pkg/processing"
	"github.com/menta2k/datacrop/pkg/record"
	"github.com/menta2k/datacrop/pkg/types"
)

// DefaultPrompt asks the model for crop-worthy regions
const DefaultPrompt = `You are preparing an image dataset. Find the regions of this image worth cropping as separate training samples.

Return JSON only:
{
  "regions": [
    {"label": "string", "confidence": 0.0, "box": {"x": 0.0, "y": 0.0, "w": 0.0, "h": 0.0}}
  ],
  "description": "short neutral sentence (<= 20 words)",
  "tags": ["tag1", "tag2", "tag3"]
}

HARD RULES
- All coordinates are normalized to [0,1] (NOT pixels). x,y is the top-left corner.
- Boxes should tightly include one subject each (people, vehicles, animals, salient objects).
- Order regions from most to least confident.
- Description must be brief and factual. Do not guess real identities.
- Tags: lowercase, concise, no punctuation or duplicates.
- If nothing is worth cropping, return "regions": [].
- JSON only. No markdown, no code fences, no comments, no trailing commas.`

// Suggestion is a proposed crop in source pixel coordinates
type Suggestion struct {
	Label      string
	Confidence float64
	Rect       types.CropRect
}

// Config holds suggester settings
type Config struct {
	Model string
	// SendSize caps the longest side of the image sent to the model
	SendSize      int
	MinConfidence float64
	Prompt        string
}

// Suggester proposes crop rectangles using a vision model
type Suggester struct {
	client    client.VisionClient
	processor *processing.Processor
	config    Config
}

// New creates a suggester backed by client
func New(c client.VisionClient, config Config) *Suggester {
	if config.Prompt == "" {
		config.Prompt = DefaultPrompt
	}
	return &Suggester{
		client:    c,
		processor: processing.NewProcessor(),
		config:    config,
	}
}

// Suggest decodes rec and asks the model for regions. Suggestions are not
// added to the record.
func (s *Suggester) Suggest(ctx context.Context, rec *record.ImageRecord) ([]Suggestion, *types.AnalysisResult, error) {
	img, err := rec.Decode()
	if err != nil {
		return nil, nil, err
	}

	imgB64, err := s.processor.PrepareImageForModel(img, "jpg", s.config.SendSize, 85)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to prepare image: %w", err)
	}

	result, err := s.client.AnalyzeImage(ctx, s.config.Model, s.config.Prompt, imgB64)
	if err != nil {
		return nil, nil, fmt.Errorf("vision analysis failed: %w", err)
	}
	result.Tags = normalizeTags(result.Tags)

	b := img.Bounds()
	return s.toSuggestions(result.Regions, b.Dx(), b.Dy()), result, nil
}

// toSuggestions converts normalized regions to pixel rectangles, dropping
// empty boxes and those under the confidence threshold
func (s *Suggester) toSuggestions(regions []types.Region, w, h int) []Suggestion {
	out := make([]Suggestion, 0, len(regions))
	for _, r := range regions {
		if r.Confidence < s.config.MinConfidence {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(r.Label), "none") {
			continue
		}
		rect := normalizeBox(r.Box, w, h).ToCropRect(w, h)
		if rect.Empty() {
			continue
		}
		out = append(out, Suggestion{
			Label:      strings.TrimSpace(r.Label),
			Confidence: r.Confidence,
			Rect:       rect,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// normalizeBox ensures box coordinates are normalized. Models sometimes
// answer in pixels despite the prompt.
func normalizeBox(b types.Box, imgW, imgH int) types.Box {
	if (b.X > 1 || b.Y > 1 || b.W > 1 || b.H > 1) && imgW > 0 && imgH > 0 {
		return types.Box{
			X: b.X / float64(imgW),
			Y: b.Y / float64(imgH),
			W: b.W / float64(imgW),
			H: b.H / float64(imgH),
		}
	}
	return b
}

// normalizeTags lowercases, dedupes and limits tags to 5 entries
func normalizeTags(tags []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, 5)
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
		if len(out) == 5 {
			break
		}
	}
	return out
}
