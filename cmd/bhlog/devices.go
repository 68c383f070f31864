package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var errNoDevices = errors.New("no devices found")

func (a *app) devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List attached devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := a.setup(cmd)
			if err != nil {
				return err
			}

			devices, err := a.discover(uint16(cfg.USB.VendorID))
			if err != nil {
				if len(devices) == 0 {
					return err
				}
				log.Warn("discovery incomplete", "error", err.Error())
			}
			if len(devices) == 0 {
				return errNoDevices
			}

			tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tKIND\tSERIAL\tDESCRIPTION")
			for _, d := range devices {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.ID, d.Kind, dash(d.SerialNumber), dash(d.Description))
			}
			return tw.Flush()
		},
	}
}

// deviceIDs returns the ids given on the command line, or every
// discovered device when there are none.
func (a *app) deviceIDs(vendorID uint16, args []string) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	devices, err := a.discover(vendorID)
	if len(devices) == 0 {
		if err != nil {
			return nil, err
		}
		return nil, errNoDevices
	}

	ids := make([]string, len(devices))
	for i, d := range devices {
		ids[i] = d.ID
	}
	return ids, nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
