package cli

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/placedex/pkg/model"
	"github.com/urfave/cli/v3"
)

func refreshCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "refresh",
		Usage:     "Refresh the cached record for one place",
		ArgsUsage: "<place-id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.configureLogging()

			id := model.PlaceID(c.Args().First())
			if id == "" {
				return goerr.New("place ID argument is required")
			}

			uc, repo, err := cfg.newSync(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			rec, err := uc.Refresh(ctx, id)
			if err != nil {
				return goerr.Wrap(err, "failed to refresh place")
			}

			enc := json.NewEncoder(c.Root().Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(rec)
		},
	}
}
