package cli

import (
	"github.com/spf13/cobra"

	"github.com/evcraddock/bienesraices/internal/catalog"
)

func newCatalogCmd() *cobra.Command {
	var categoria, precio string
	var markers bool

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List published properties",
		Long:  "Fetches the public catalog from the server and applies the same category and price filter as the home page map.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := newAPIClient().Catalog(cmd.Context())
			if err != nil {
				return err
			}

			filtered := catalog.ParseFilter(categoria, precio).Apply(props)
			out := cmd.OutOrStdout()

			if markers {
				pins, err := catalog.Markers(filtered)
				if err != nil {
					return err
				}
				if isJSON() {
					return printJSON(out, pins)
				}
				return printMarkers(out, pins)
			}

			if isJSON() {
				return printJSON(out, filtered)
			}
			return printPropertyTable(out, filtered)
		},
	}

	cmd.Flags().StringVar(&categoria, "categoria", "", "category ID (empty for all)")
	cmd.Flags().StringVar(&precio, "precio", "", "price tier ID (empty for all)")
	cmd.Flags().BoolVar(&markers, "markers", false, "print map markers instead of listings")

	return cmd
}
