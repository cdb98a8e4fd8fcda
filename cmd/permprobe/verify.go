package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/permprobe/report"
)

func newVerifyCmd(s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <report>",
		Short: "Check a report's digest against its entries",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			rep, err := report.Read(f)
			if err != nil {
				return err
			}
			if err := rep.Verify(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(s.out, "%s: digest %s ok (%d entries)\n", args[0], rep.Digest, len(rep.Entries))
			return err
		},
	}
}
