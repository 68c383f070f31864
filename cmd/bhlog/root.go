package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-bioharness/config"
	"github.com/moffa90/go-bioharness/downloader"
	"github.com/moffa90/go-bioharness/logging"
	"github.com/moffa90/go-bioharness/transport"
)

// app carries the process dependencies the commands share. Tests replace
// the opener and discovery with simulated devices.
type app struct {
	stdout io.Writer
	stderr io.Writer

	// opener is nil for real hardware
	opener   transport.Opener
	discover func(vendorID uint16) ([]transport.Device, error)
}

func newApp() *app {
	return &app{
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		discover: transport.Discover,
	}
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bhlog",
		Short:         "Download session logs from BioHarness devices",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config file")
	rootCmd.PersistentFlags().String("log-level", "", "override the configured log level")

	rootCmd.AddCommand(a.devicesCmd())
	rootCmd.AddCommand(a.dirCmd())
	rootCmd.AddCommand(a.downloadCmd())

	return rootCmd
}

// setup loads the configuration named by the persistent flags and builds
// the logger it describes.
func (a *app) setup(cmd *cobra.Command) (config.Config, *logging.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}

	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}

	log, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: a.stderr,
	})
	if err != nil {
		return cfg, nil, err
	}
	return cfg, log, nil
}

func (a *app) downloader(cfg config.Config, log *logging.Logger, extra ...downloader.Option) *downloader.Downloader {
	opts := append(cfg.DownloaderOptions(), downloader.WithLogger(log))
	if a.opener != nil {
		opts = append(opts, downloader.WithOpener(a.opener))
	}
	return downloader.New(append(opts, extra...)...)
}
