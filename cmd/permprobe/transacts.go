package main

import (
	"github.com/spf13/cobra"

	"github.com/reglet-dev/permprobe/infrastructure/transacts"
)

func newTransactsCmd(g *globalFlags, s streams) *cobra.Command {
	var sdk int
	cmd := &cobra.Command{
		Use:   "transacts",
		Short: "Print the transaction table selected for a platform version",
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
			table, err := loadTable(cfg, cfg.LocalSDKVersion(), logger)
			if err != nil {
				return err
			}
			data, err := transacts.Marshal(table)
			if err != nil {
				return err
			}
			_, err = s.out.Write(data)
			return err
		},
	}
	cmd.Flags().IntVar(&sdk, "sdk", 0, "platform version")
	return cmd
}
