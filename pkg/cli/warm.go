package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/placedex/pkg/model"
	"github.com/m-mizutani/placedex/pkg/utils/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// warmPlan is the YAML layout of the vertical list consumed by warm.
type warmPlan struct {
	Location  string   `yaml:"location"`
	Verticals []string `yaml:"verticals"`
}

func warmCommand() *cli.Command {
	var (
		cfg      config
		planPath string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "verticals",
			Usage:       "Path to a YAML file listing verticals to warm",
			Sources:     cli.EnvVars("PLACEDEX_WARM_VERTICALS"),
			Destination: &planPath,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "warm",
		Usage: "Pre-populate the cache for a list of business verticals",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.configureLogging()

			raw, err := os.ReadFile(planPath)
			if err != nil {
				return goerr.Wrap(err, "failed to read verticals file", goerr.V("path", planPath))
			}

			var plan warmPlan
			if err := yaml.Unmarshal(raw, &plan); err != nil {
				return goerr.Wrap(err, "failed to parse verticals file", goerr.V("path", planPath))
			}
			if len(plan.Verticals) == 0 {
				return goerr.New("verticals file lists no verticals", goerr.V("path", planPath))
			}
			if plan.Location == "" {
				plan.Location = "Denver, CO"
			}

			uc, repo, err := cfg.newSearch(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
				spinner.WithWriter(c.Root().ErrWriter))
			sp.Start()
			defer sp.Stop()

			var total int
			for _, vertical := range plan.Verticals {
				sp.Suffix = fmt.Sprintf(" warming %q in %s", vertical, plan.Location)

				result, err := uc.Search(ctx, model.SearchQuery{
					Keyword:  vertical,
					Location: plan.Location,
				})
				if err != nil {
					// One bad vertical should not abort the whole warm run.
					logging.From(ctx).Warn("failed to warm vertical",
						"vertical", vertical, "error", err)
					continue
				}
				total += result.Count
			}

			sp.Stop()
			fmt.Fprintf(c.Root().Writer, "warmed %d verticals, %d records\n",
				len(plan.Verticals), total)
			return nil
		},
	}
}
