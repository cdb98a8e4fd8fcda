package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reglet-dev/permprobe/application/schema"
)

func newSchemaCmd(s streams) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the probe manifest JSON schema",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			registry, err := schema.NewManifestRegistry()
			if err != nil {
				return err
			}
			doc, ok := registry.GetSchema(schema.KindManifest)
			if !ok {
				return fmt.Errorf("schema %q is not registered", schema.KindManifest)
			}
			_, err = fmt.Fprintln(s.out, doc)
			return err
		},
	}
}
