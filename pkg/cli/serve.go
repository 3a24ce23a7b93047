package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/placedex/pkg/server"
	"github.com/m-mizutani/placedex/pkg/usecase/search"
	syncuc "github.com/m-mizutani/placedex/pkg/usecase/sync"
	"github.com/m-mizutani/placedex/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func serveCommand() *cli.Command {
	var (
		cfg  config
		addr string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Listen address",
			Value:       "127.0.0.1:8080",
			Sources:     cli.EnvVars("PLACEDEX_ADDR"),
			Destination: &addr,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.configureLogging()

			// The searcher and the direct lookup endpoint must share one
			// repository and one throttle, so wire them by hand instead of
			// going through newSearch.
			repo, err := cfg.newRepository(ctx)
			if err != nil {
				return err
			}
			defer repo.Close()

			places, err := cfg.newPlaces()
			if err != nil {
				return err
			}

			syncUC := syncuc.New(repo, places, cfg.newThrottle(),
				syncuc.WithStalenessThreshold(cfg.stalenessThreshold),
				syncuc.WithRetryConfig(cfg.retryConfig()),
			)
			searchUC := search.New(places, syncUC, search.WithRetryConfig(cfg.retryConfig()))

			srv := &http.Server{
				Addr:              addr,
				Handler:           server.New(searchUC, syncUC),
				ReadHeaderTimeout: 10 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			logging.Default().Info("starting HTTP server", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return goerr.Wrap(err, "HTTP server failed")
			}
			return nil
		},
	}
}
