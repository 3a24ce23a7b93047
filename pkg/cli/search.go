package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/placedex/pkg/model"
	"github.com/urfave/cli/v3"
)

func searchCommand() *cli.Command {
	var (
		cfg      config
		keyword  string
		location string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "query",
			Aliases:     []string{"q"},
			Usage:       "Business keyword to search for",
			Sources:     cli.EnvVars("PLACEDEX_SEARCH_QUERY"),
			Destination: &keyword,
			Required:    true,
		},
		&cli.StringFlag{
			Name:        "location",
			Aliases:     []string{"l"},
			Usage:       "Location to search in",
			Value:       "Denver, CO",
			Sources:     cli.EnvVars("PLACEDEX_SEARCH_LOCATION"),
			Destination: &location,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "search",
		Usage: "Search businesses and refresh their cached records",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.configureLogging()

			uc, repo, err := cfg.newSearch(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			result, err := uc.Search(ctx, model.SearchQuery{
				Keyword:  keyword,
				Location: location,
			})
			if err != nil {
				return goerr.Wrap(err, "search failed")
			}

			for _, rec := range result.Results {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\t%.1f (%d)\t%s\n",
					rec.ID, rec.Name, rec.Rating, rec.ReviewCount, rec.Address)
			}
			fmt.Fprintf(c.Root().Writer, "%d results\n", result.Count)

			return nil
		},
	}
}
