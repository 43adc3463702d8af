// Package cli implements the datacrop command tree.
package cli

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/menta2k/datacrop/internal/config"
	"github.com/menta2k/datacrop/internal/store"
	"github.com/menta2k/datacrop/internal/utils"
)

// app carries the state shared by every subcommand
type app struct {
	configPath string
	dbPath     string
	verbose    bool

	cfg *config.Config
}

func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "datacrop",
		Short: "Image dataset preparation: find images, mark crops, export samples",
		Long: `Datacrop prepares image datasets for training.

It scans a directory tree for images, keeps crop rectangles per image in a
local database, and extracts the cropped regions into an output directory,
optionally mirroring class folders and writing a Parquet index.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default "+config.GetConfigPath()+")")
	cmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "crop database (overrides store.path)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Verbose logging")

	cmd.AddCommand(newScanCmd(a))
	cmd.AddCommand(newCropCmd(a))
	cmd.AddCommand(newSuggestCmd(a))
	cmd.AddCommand(newExtractCmd(a))
	cmd.AddCommand(newConfigCmd(a))

	return cmd
}

// setup installs the logger and loads configuration
func (a *app) setup(cmd *cobra.Command) error {
	level := slog.LevelInfo
	if a.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	path := a.configPath
	if path == "" {
		path = config.GetConfigPath()
		if !utils.FileExists(path) {
			a.cfg = config.Default()
			return nil
		}
	}

	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	slog.Debug("Loaded config", "path", path)
	a.cfg = cfg
	return nil
}

// openStore opens the crop database named by --db or the config
func (a *app) openStore() (*store.Store, error) {
	path := a.dbPath
	if path == "" {
		path = a.cfg.Store.Path
	}
	if path != ":memory:" {
		if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return store.Open(path)
}

// imagePath makes image paths absolute so stored crops match scanned paths
func imagePath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("invalid image path %s: %w", p, err)
	}
	return abs, nil
}
