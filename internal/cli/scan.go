package cli

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/menta2k/datacrop/internal/utils"
	"github.com/menta2k/datacrop/pkg/discovery"
)

func newScanCmd(a *app) *cobra.Command {
	var extensions []string
	var dirs, failFast, ignoreCase bool

	cmd := &cobra.Command{
		Use:   "scan <root>",
		Short: "List the images below a directory",
		Long: `Recursively list the files below root whose extension is accepted.

Unreadable directories are reported and skipped unless --fail-fast is set.
With --dirs only the immediate subdirectories (class folders) are listed.`,
		Example: `  # List every jpg, jpeg and png below /data
  datacrop scan /data

  # Only webp files, matching .WEBP too
  datacrop scan /data --ext webp --ignore-case

  # Show class folders
  datacrop scan /data --dirs`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			out := cmd.OutOrStdout()

			conf := a.cfg.Discovery
			policy, _ := discovery.ParsePolicy(conf.OnError)
			if failFast {
				policy = discovery.FailFast
			}
			scanner := discovery.NewWithConfig(discovery.Config{
				CaseInsensitive: conf.IgnoreCase || ignoreCase,
				Policy:          policy,
				Logger:          slog.Default(),
			})

			if !utils.DirExists(root) {
				slog.Warn("Root is not a directory, nothing to scan", "root", root)
			}

			if dirs {
				subdirs, err := scanner.ListSubdirectories(root)
				if err != nil {
					return err
				}
				sort.Strings(subdirs)
				for _, d := range subdirs {
					fmt.Fprintln(out, d)
				}
				return nil
			}

			if len(extensions) == 0 {
				extensions = conf.Extensions
			}
			result, err := scanner.Discover(cmd.Context(), root, extensions)
			paths := append([]string(nil), result.Paths...)
			sort.Strings(paths)
			for _, p := range paths {
				fmt.Fprintln(out, p)
			}
			for _, s := range result.Skipped {
				slog.Warn("Skipped unreadable directory", "path", s.Path, "error", s.Err)
			}
			if err != nil {
				return err
			}
			slog.Info("Scan complete", "root", root, "files", len(paths), "skipped", len(result.Skipped))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&extensions, "ext", nil, "Accepted extensions without the dot (default from config)")
	cmd.Flags().BoolVar(&dirs, "dirs", false, "List immediate subdirectories instead of files")
	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Stop at the first unreadable directory")
	cmd.Flags().BoolVar(&ignoreCase, "ignore-case", false, "Match extensions case-insensitively")

	return cmd
}
