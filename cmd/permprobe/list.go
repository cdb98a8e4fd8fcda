package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/permprobe/probe"
)

func newListCmd(g *globalFlags, s streams) *cobra.Command {
	var sdk int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the probes applicable to a platform version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("sdk") {
				cfg.SDKVersion = sdk
			}
			logger, err := newLogger(cfg, s.errOut)
			if err != nil {
				return err
			}
			version := cfg.LocalSDKVersion()
			catalog, err := loadCatalog(cfg, version, logger)
			if err != nil {
				return err
			}
			return printCatalog(s.out, catalog.Select(cfg.Selection()).Applicable(version))
		},
	}
	cmd.Flags().IntVar(&sdk, "sdk", 0, "platform version")
	return cmd
}

func printCatalog(w io.Writer, specs []probe.Spec) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CAPABILITY\tLABEL\tVERSIONS\tTIMEOUT\tHAZARD")
	for _, s := range specs {
		timeout := "-"
		if s.Timeout > 0 {
			timeout = s.Timeout.String()
		}
		hazard := "-"
		if s.BypassIfGranted != "" {
			hazard = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", s.Capability, s.Label, s.Range, timeout, hazard)
	}
	return tw.Flush()
}
