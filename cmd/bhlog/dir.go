package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/moffa90/go-bioharness/config"
	"github.com/moffa90/go-bioharness/decoder"
	"github.com/moffa90/go-bioharness/logging"
	"github.com/moffa90/go-bioharness/riff"
)

// maxParallelDevices bounds how many device links are open at once.
const maxParallelDevices = 4

func (a *app) dirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dir [device...]",
		Short: "List the sessions stored on devices",
		Long: "List the sessions stored on each named device, or on every attached\n" +
			"device when none is named. With --image the sessions of a storage\n" +
			"dump are listed instead.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := a.setup(cmd)
			if err != nil {
				return err
			}

			image, _ := cmd.Flags().GetString("image")
			if image != "" {
				dir, _, err := loadImage(image, cfg, log)
				if err != nil {
					return err
				}
				printDirectory(a.stdout, image, dir)
				return nil
			}

			ids, err := a.deviceIDs(uint16(cfg.USB.VendorID), args)
			if err != nil {
				return err
			}

			d := a.downloader(cfg, log)
			dirs := make([]*riff.Directory, len(ids))

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(maxParallelDevices)
			for i, id := range ids {
				g.Go(func() error {
					dir, diag, err := d.SessionDirectory(ctx, id)
					if err != nil {
						return fmt.Errorf("%s: %w", id, err)
					}
					if diag.BadFrames() > 0 {
						log.Warn("link errors during scan", append([]interface{}{"device", id}, diag.KeysAndValues()...)...)
					}
					dirs[i] = dir
					return nil
				})
			}
			err = g.Wait()

			for i, dir := range dirs {
				if dir != nil {
					printDirectory(a.stdout, ids[i], dir)
				}
			}
			return err
		},
	}

	cmd.Flags().String("image", "", "read sessions from a storage dump instead of a device")
	return cmd
}

// loadImage parses a storage dump file and returns its directory and bytes.
func loadImage(path string, cfg config.Config, log *logging.Logger) (*riff.Directory, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	opts := []riff.Option{riff.WithLogger(log)}
	if loc, err := cfg.Location(); err == nil {
		opts = append(opts, riff.WithLocation(loc))
	}

	dir, err := riff.ParseBytes(data, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return dir, data, nil
}

func printDirectory(w io.Writer, source string, dir *riff.Directory) {
	fmt.Fprintf(w, "%s: %s (%s), %d sessions\n",
		source, decoder.Describe(dir.FormatVersion), dir.FormatVersion, len(dir.Sessions))
	if len(dir.Sessions) == 0 {
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSTART\tDURATION\tPERIOD\tCHANNELS\tBYTES")
	for i, s := range dir.Sessions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%dms\t%d\t%d\n",
			i, s.Timestamp.Format("2006-01-02 15:04:05"), riff.FormatDuration(s.Duration),
			s.Period, s.Channels, s.Length)
	}
	tw.Flush()
}
