package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/moffa90/go-bioharness/decoder"
	"github.com/moffa90/go-bioharness/downloader"
	"github.com/moffa90/go-bioharness/export"
	"github.com/moffa90/go-bioharness/riff"
)

// loadFunc returns the raw sample bytes of one session.
type loadFunc func(ctx context.Context, s riff.Session) ([]byte, error)

func (a *app) downloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download [device]",
		Short: "Download sessions and export them as CSV",
		Long: "Download sessions from a device, decode them by the device's log\n" +
			"format and write one CSV file per data stream. Without --session or\n" +
			"--all only the most recent session is downloaded.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := a.setup(cmd)
			if err != nil {
				return err
			}

			image, _ := cmd.Flags().GetString("image")
			indexes, _ := cmd.Flags().GetIntSlice("session")
			all, _ := cmd.Flags().GetBool("all")
			raw, _ := cmd.Flags().GetBool("raw")
			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				out = cfg.Export.Dir
			}

			var (
				dir  *riff.Directory
				load loadFunc
			)
			switch {
			case image != "":
				var data []byte
				if dir, data, err = loadImage(image, cfg, log); err != nil {
					return err
				}
				load = imageLoader(data)

			case len(args) == 1:
				id := args[0]
				d := a.downloader(cfg, log, downloader.WithProgressCallback(progressPrinter(a.stderr)))
				if dir, _, err = d.SessionDirectory(cmd.Context(), id); err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				load = func(ctx context.Context, s riff.Session) ([]byte, error) {
					data, diag, err := d.LoadSessionData(ctx, id, s)
					if diag.BadFrames() > 0 || diag.ReadRetries > 0 {
						log.Warn("link errors during download", diag.KeysAndValues()...)
					}
					return data, err
				}

			default:
				return errors.New("name a device or pass --image")
			}

			dec, err := decoder.For(dir.FormatVersion)
			if err != nil {
				return err
			}

			sessions, err := selectSessions(dir.Sessions, indexes, all)
			if err != nil {
				return err
			}

			for _, s := range sessions {
				data, err := load(cmd.Context(), s)
				if err != nil {
					return err
				}

				recs := dec.Decode(s, data)
				paths, err := export.WriteCSV(out, s, recs)
				if err != nil {
					return err
				}
				if raw {
					path := filepath.Join(out, export.Prefix(s)+".bin")
					if err := os.WriteFile(path, data, 0o644); err != nil {
						return err
					}
					paths = append(paths, path)
				}

				log.Info("session exported", "session", export.Prefix(s), "records", recs.Len(), "format", dec.Name)
				for _, p := range paths {
					fmt.Fprintln(a.stdout, p)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntSliceP("session", "s", nil, "session numbers to download, as listed by dir")
	cmd.Flags().Bool("all", false, "download every session")
	cmd.Flags().Bool("raw", false, "also write the undecoded session bytes")
	cmd.Flags().StringP("out", "o", "", "output directory (default from config)")
	cmd.Flags().String("image", "", "read sessions from a storage dump instead of a device")
	return cmd
}

// selectSessions picks sessions by index. With no indexes and all unset
// it returns the last session.
func selectSessions(sessions []riff.Session, indexes []int, all bool) ([]riff.Session, error) {
	if len(sessions) == 0 {
		return nil, errors.New("no sessions stored")
	}
	if all {
		return sessions, nil
	}
	if len(indexes) == 0 {
		return sessions[len(sessions)-1:], nil
	}

	picked := make([]riff.Session, 0, len(indexes))
	for _, i := range indexes {
		if i < 0 || i >= len(sessions) {
			return nil, fmt.Errorf("session %d out of range (0-%d)", i, len(sessions)-1)
		}
		picked = append(picked, sessions[i])
	}
	return picked, nil
}

func imageLoader(data []byte) loadFunc {
	return func(_ context.Context, s riff.Session) ([]byte, error) {
		if s.Offset < 0 || s.End() > len(data) {
			return nil, fmt.Errorf("session at 0x%08X runs past the end of the image", s.Offset)
		}
		return data[s.Offset:s.End()], nil
	}
}

// progressPrinter reports session downloads in ten percent steps.
func progressPrinter(w io.Writer) downloader.ProgressCallback {
	last := -1
	return func(p downloader.Progress) {
		switch p.Phase {
		case downloader.PhaseDownloading:
			step := int(p.Percentage) / 10
			if step != last {
				last = step
				fmt.Fprintf(w, "downloading %3.0f%% (%d/%d bytes)\n", p.Percentage, p.BytesRead, p.TotalBytes)
			}
		case downloader.PhaseComplete:
			last = -1
		}
	}
}
