package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/placedex/pkg/adapter"
	"github.com/m-mizutani/placedex/pkg/usecase/export"
	"github.com/urfave/cli/v3"
)

func exportCommand() *cli.Command {
	var (
		cfg    config
		bucket string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "bucket",
			Aliases:     []string{"b"},
			Usage:       "Cloud Storage bucket for listing snapshots",
			Sources:     cli.EnvVars("PLACEDEX_SNAPSHOT_BUCKET"),
			Destination: &bucket,
			Required:    true,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "export",
		Usage: "Write a JSON snapshot of all cached records to Cloud Storage",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.configureLogging()

			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			archive, err := adapter.NewArchive(ctx, bucket)
			if err != nil {
				return goerr.Wrap(err, "failed to create archive client")
			}

			key, err := export.New(repo, archive).Export(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to export snapshot")
			}

			fmt.Fprintf(c.Root().Writer, "exported gs://%s/%s\n", bucket, key)
			return nil
		},
	}
}
