package client

import (
	"context"

	"github.com/menta2k/datacrop/pkg/types"
)

// VisionClient asks a vision model to locate crop-worthy regions in an image.
type VisionClient interface {
	AnalyzeImage(ctx context.Context, model, prompt, imgB64 string) (*types.AnalysisResult, error)
}
