package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/datacrop/internal/utils"
	"github.com/menta2k/datacrop/pkg/export"
	"github.com/menta2k/datacrop/pkg/types"
)

func newExtractCmd(a *app) *cobra.Command {
	var outDir, format, index string
	var quality, jobs int
	var lossless, classified bool

	cmd := &cobra.Command{
		Use:   "extract <root>",
		Short: "Write the stored crops of every image below root",
		Long: `Scan root, load the stored crops of every image found and write each
cropped region as a new file named <stem>_<index>.<ext>.

With --classified the directory of each image relative to root is recreated
under the output directory. An image whose crops fall outside its bounds, or
that cannot be decoded, is reported and produces no files.`,
		Example: `  # Extract into class folders with 8 workers
  datacrop extract /data --out /data-crops --classified -j 8

  # Lossless webp plus a Parquet index of every file written
  datacrop extract /data --out crops --format webp --lossless --index crops/index.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			conf := a.cfg.Export
			flags := cmd.Flags()
			if !flags.Changed("out") {
				outDir = conf.OutputDir
			}
			if !flags.Changed("format") {
				format = conf.Format
			}
			if !flags.Changed("quality") {
				quality = conf.Quality
			}
			if !flags.Changed("lossless") {
				lossless = conf.Lossless
			}
			if !flags.Changed("classified") {
				classified = conf.Classified
			}
			if !flags.Changed("jobs") {
				jobs = conf.Jobs
			}
			if index == "" && conf.Index {
				index = filepath.Join(outDir, "index.parquet")
			}

			exp, err := export.New(export.Config{
				OutputDir:  outDir,
				InputRoot:  root,
				Classified: classified,
				Options:    types.ExportOptions{Format: format, Quality: quality, Lossless: lossless},
			})
			if err != nil {
				return err
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			if !utils.DirExists(root) {
				return fmt.Errorf("%s is not a directory", root)
			}
			result, err := a.cfg.DiscoveryScanner().Discover(cmd.Context(), root, a.cfg.Discovery.Extensions)
			if err != nil {
				return err
			}
			for _, s := range result.Skipped {
				slog.Warn("Skipped unreadable directory", "path", s.Path, "error", s.Err)
			}
			slog.Info("Starting extraction", "root", root, "images", len(result.Paths), "jobs", jobs)

			var (
				mu      sync.Mutex
				written []export.Written
				failed  atomic.Int32
			)

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(max(jobs, 1))
			for _, path := range result.Paths {
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					rec, err := st.Load(ctx, path)
					if err != nil {
						return err
					}
					if rec.Len() == 0 {
						return nil
					}

					files, err := exp.Export(rec)
					if err != nil {
						failed.Add(1)
						slog.Error("Failed to extract crops", "image", path, "error", err)
						return nil
					}
					slog.Debug("Extracted crops", "image", path, "files", len(files))

					mu.Lock()
					written = append(written, files...)
					mu.Unlock()
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			sort.Slice(written, func(i, j int) bool {
				if written[i].Source != written[j].Source {
					return written[i].Source < written[j].Source
				}
				return written[i].Index < written[j].Index
			})
			for _, w := range written {
				fmt.Fprintln(cmd.OutOrStdout(), w.Output)
			}

			if index != "" {
				if err := export.WriteIndex(index, written); err != nil {
					return err
				}
				slog.Info("Wrote index", "path", index, "rows", len(written))
			}

			var total int64
			for _, w := range written {
				total += w.Size
			}
			slog.Info("Extraction complete", "files", len(written), "size", utils.FormatFileSize(total), "failed", failed.Load())
			if n := failed.Load(); n > 0 {
				return fmt.Errorf("%d images could not be extracted", n)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "./output", "Output directory")
	cmd.Flags().StringVar(&format, "format", "png", "Output format: png|jpg|webp")
	cmd.Flags().IntVar(&quality, "quality", 90, "JPEG/WebP quality (1-100)")
	cmd.Flags().BoolVar(&lossless, "lossless", false, "WebP lossless mode")
	cmd.Flags().BoolVar(&classified, "classified", true, "Mirror each image's folder below root")
	cmd.Flags().StringVar(&index, "index", "", "Write a Parquet index of the written files")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "Images processed concurrently")

	return cmd
}
