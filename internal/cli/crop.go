package cli

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/menta2k/datacrop/pkg/processing"
	"github.com/menta2k/datacrop/pkg/types"
)

func newCropCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crop",
		Short: "Manage the crop rectangles of an image",
		Long: `Add, list, remove and preview crop rectangles.

Rectangles are in source pixel coordinates with the origin at the top-left
corner. They are stored in the crop database and only checked against the
image size when crops are extracted.`,
	}

	cmd.AddCommand(newCropAddCmd(a))
	cmd.AddCommand(newCropListCmd(a))
	cmd.AddCommand(newCropRmCmd(a))
	cmd.AddCommand(newCropPreviewCmd(a))
	return cmd
}

func newCropAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "add <image> <x> <y> <width> <height>",
		Short:   "Append a crop rectangle",
		Example: `  datacrop crop add /data/cats/tabby.jpg 10 20 128 128`,
		Args:    cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			rect, err := parseRect(args[1:])
			if err != nil {
				return err
			}
			path, err := imagePath(args[0])
			if err != nil {
				return err
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
			id := rec.AddCrop(rect)
			if err := st.Save(cmd.Context(), rec); err != nil {
				return err
			}

			slog.Debug("Added crop", "image", path, "id", id, "rect", rect)
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newCropListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list <image>",
		Short: "List the crop rectangles of an image in order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := imagePath(args[0])
			if err != nil {
				return err
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
			for i, c := range rec.Crops() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%d\t%d\t%d\t%d\n",
					i, c.ID, c.Rect.X, c.Rect.Y, c.Rect.Width, c.Rect.Height)
			}
			return nil
		},
	}
}

func newCropRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <image> <id>",
		Short: "Remove a crop rectangle by id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := imagePath(args[0])
			if err != nil {
				return err
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
			if !rec.RemoveCrop(args[1]) {
				return fmt.Errorf("no crop %s on %s", args[1], path)
			}
			return st.Save(cmd.Context(), rec)
		},
	}
}

func newCropPreviewCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "preview <image>",
		Short: "Draw the crop rectangles over the image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := imagePath(args[0])
			if err != nil {
				return err
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
			img, err := rec.Decode()
			if err != nil {
				return err
			}

			crops := rec.Crops()
			rects := make([]types.CropRect, len(crops))
			for i, c := range crops {
				rects[i] = c.Rect
			}

			p := processing.NewProcessor()
			if err := p.SaveImage(p.CreatePreview(img, rects), out, "png", 0, false); err != nil {
				return fmt.Errorf("failed to save preview: %w", err)
			}
			slog.Info("Saved preview", "path", out, "crops", len(rects))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "preview.png", "Preview output path (png)")
	return cmd
}

// parseRect reads x y width height
func parseRect(args []string) (types.CropRect, error) {
	var v [4]int
	names := []string{"x", "y", "width", "height"}
	for i, s := range args {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return types.CropRect{}, fmt.Errorf("invalid %s %q: %w", names[i], s, err)
		}
		v[i] = n
	}
	return types.CropRect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}, nil
}
