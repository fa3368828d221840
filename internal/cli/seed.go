package cli

import (
	"fmt"

	"productapi/internal/seed"
	"productapi/internal/services"

	"github.com/spf13/cobra"
)

func newSeedCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace all products with the fixtures in a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.App.IsProduction() {
				a.log.Error().Msg("seeding attempted in production, aborting")
				return seed.ErrProduction
			}

			inputs, err := seed.LoadFile(file)
			if err != nil {
				return err
			}

			repo, err := a.openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStorage(repo, a.log)

			products := services.NewProductService(repo, a.log.Component("products"),
				services.WithStorageTimeout(a.cfg.Storage.Timeout))
			res, err := seed.Run(cmd.Context(), a.cfg.App.Env, repo, products, inputs, a.log.Component("seed"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d, inserted %d products\n", res.Deleted, res.Inserted)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "data/products.json", "seed data file")
	return cmd
}
