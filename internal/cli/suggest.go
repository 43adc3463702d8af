package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/menta2k/datacrop/pkg/client"
	"github.com/menta2k/datacrop/pkg/ollama"
	"github.com/menta2k/datacrop/pkg/record"
	"github.com/menta2k/datacrop/pkg/suggest"
	"github.com/menta2k/datacrop/pkg/vision"
)

func newSuggestCmd(a *app) *cobra.Command {
	var backend, model, url string
	var minConfidence float64
	var save bool

	cmd := &cobra.Command{
		Use:   "suggest <image>",
		Short: "Propose crop rectangles for an image",
		Long: `Send the image to an Ollama vision model, or run the offline saliency
detector with --backend local, and print the proposed regions as pixel
rectangles. Suggestions are only added to the crop database with --save.

OLLAMA_URL and OLLAMA_MODEL (also read from .env) override the config.`,
		Example: `  datacrop suggest /data/street.jpg --model openbmb/minicpm-v4.5
  datacrop suggest /data/street.jpg --min-confidence 0.5 --save
  datacrop suggest /data/street.jpg --backend local`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := imagePath(args[0])
			if err != nil {
				return err
			}

			if url == "" {
				url = firstNonEmpty(os.Getenv("OLLAMA_URL"), a.cfg.Vision.URL)
			}
			if model == "" {
				model = firstNonEmpty(os.Getenv("OLLAMA_MODEL"), a.cfg.Vision.Model)
			}

			if backend == "" {
				backend = a.cfg.Vision.Backend
			}
			var vc client.VisionClient
			switch backend {
			case "local":
				vc = vision.New()
			case "ollama":
				oc, err := ollama.NewClient(url)
				if err != nil {
					return fmt.Errorf("failed to create Ollama client: %w", err)
				}
				vc = oc
			default:
				return fmt.Errorf("unknown backend %q (want ollama or local)", backend)
			}

			s := suggest.New(vc, suggest.Config{
				Model:         model,
				SendSize:      a.cfg.Vision.SendSize,
				MinConfidence: minConfidence,
			})

			slog.Info("Requesting suggestions", "image", path, "backend", backend, "model", model)
			suggestions, result, err := s.Suggest(cmd.Context(), record.New(path))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, sg := range suggestions {
				fmt.Fprintf(out, "%s\t%.2f\t%d\t%d\t%d\t%d\n",
					sg.Label, sg.Confidence, sg.Rect.X, sg.Rect.Y, sg.Rect.Width, sg.Rect.Height)
			}
			slog.Info("Suggestions", "count", len(suggestions), "description", result.Description, "tags", strings.Join(result.Tags, ","))

			if !save || len(suggestions) == 0 {
				return nil
			}
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			rec, err := st.Load(cmd.Context(), path)
			if err != nil {
				return err
			}
			for _, sg := range suggestions {
				rec.AddCrop(sg.Rect)
			}
			return st.Save(cmd.Context(), rec)
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "Suggestion backend: ollama|local (default from config)")
	cmd.Flags().StringVar(&model, "model", "", "Vision model (default from config)")
	cmd.Flags().StringVar(&url, "url", "", "Ollama server URL (default from config)")
	cmd.Flags().Float64Var(&minConfidence, "min-confidence", 0, "Drop regions below this confidence")
	cmd.Flags().BoolVar(&save, "save", false, "Append the suggestions to the image's crops")

	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
