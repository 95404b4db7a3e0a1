package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pratik-anurag/openport/internal/render"
)

func newCatalogCmd(deps Deps, g *globalFlags) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the effective risk catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			cat, err := cfg.BuildCatalog()
			if err != nil {
				return usageErr(fmt.Errorf("config: %w", err))
			}
			if jsonOut {
				enc := json.NewEncoder(deps.Stdout)
				enc.SetIndent("", "  ")
				if err := enc.Encode(cat.Entries()); err != nil {
					return runtimeErr(err)
				}
				return nil
			}
			fmt.Fprint(deps.Stdout, render.CatalogTable(cat.Entries()))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output JSON")
	return cmd
}
