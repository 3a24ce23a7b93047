package cli

import (
	"context"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/placedex/pkg/adapter"
	"github.com/m-mizutani/placedex/pkg/ratelimit"
	"github.com/m-mizutani/placedex/pkg/repository"
	"github.com/m-mizutani/placedex/pkg/retry"
	"github.com/m-mizutani/placedex/pkg/usecase/search"
	syncuc "github.com/m-mizutani/placedex/pkg/usecase/sync"
	"github.com/m-mizutani/placedex/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// config holds configuration values
type config struct {
	// Provider
	placesAPIKey    string
	providerTimeout time.Duration
	biasLat         float64
	biasLng         float64
	biasRadiusM     float64

	// Repository
	backend  string
	project  string
	database string
	dbDSN    string

	// Sync policy
	stalenessThreshold  time.Duration
	throttleConcurrency int64
	throttleInterval    time.Duration
	backoffInitial      time.Duration
	backoffMax          time.Duration
	backoffMaxAttempts  int64

	// Logging
	logLevel  string
	logFormat string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "google-places-api-key",
			Usage:       "API key for the Places API",
			Sources:     cli.EnvVars("GOOGLE_PLACES_API_KEY"),
			Destination: &cfg.placesAPIKey,
		},
		&cli.DurationFlag{
			Name:        "provider-timeout",
			Usage:       "Per-call timeout for provider requests",
			Value:       10 * time.Second,
			Sources:     cli.EnvVars("PLACEDEX_PROVIDER_TIMEOUT"),
			Destination: &cfg.providerTimeout,
		},
		&cli.FloatFlag{
			Name:        "bias-lat",
			Usage:       "Latitude of the search location bias",
			Value:       adapter.DefaultLocationBias.Latitude,
			Sources:     cli.EnvVars("PLACEDEX_BIAS_LAT"),
			Destination: &cfg.biasLat,
		},
		&cli.FloatFlag{
			Name:        "bias-lng",
			Usage:       "Longitude of the search location bias",
			Value:       adapter.DefaultLocationBias.Longitude,
			Sources:     cli.EnvVars("PLACEDEX_BIAS_LNG"),
			Destination: &cfg.biasLng,
		},
		&cli.FloatFlag{
			Name:        "bias-radius",
			Usage:       "Radius of the search location bias in meters",
			Value:       adapter.DefaultLocationBias.RadiusM,
			Sources:     cli.EnvVars("PLACEDEX_BIAS_RADIUS"),
			Destination: &cfg.biasRadiusM,
		},
		&cli.StringFlag{
			Name:        "repository",
			Aliases:     []string{"r"},
			Usage:       "Repository backend: firestore, postgres or memory",
			Value:       "firestore",
			Sources:     cli.EnvVars("PLACEDEX_REPOSITORY"),
			Destination: &cfg.backend,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "db-dsn",
			Usage:       "PostgreSQL connection string",
			Sources:     cli.EnvVars("PLACEDEX_DB_DSN"),
			Destination: &cfg.dbDSN,
		},
		&cli.DurationFlag{
			Name:        "staleness-threshold",
			Usage:       "Cached record age before a refresh is required",
			Value:       syncuc.DefaultStalenessThreshold,
			Sources:     cli.EnvVars("PLACEDEX_STALENESS_THRESHOLD"),
			Destination: &cfg.stalenessThreshold,
		},
		&cli.IntFlag{
			Name:        "throttle-concurrency",
			Usage:       "Maximum concurrent provider calls",
			Value:       ratelimit.DefaultConcurrency,
			Sources:     cli.EnvVars("PLACEDEX_THROTTLE_CONCURRENCY"),
			Destination: &cfg.throttleConcurrency,
		},
		&cli.DurationFlag{
			Name:        "throttle-interval",
			Usage:       "Minimum spacing between provider call starts",
			Value:       ratelimit.DefaultInterval,
			Sources:     cli.EnvVars("PLACEDEX_THROTTLE_INTERVAL"),
			Destination: &cfg.throttleInterval,
		},
		&cli.DurationFlag{
			Name:        "backoff-initial-interval",
			Usage:       "Delay before the first retry of a failed provider call",
			Value:       retry.DefaultInitialInterval,
			Sources:     cli.EnvVars("PLACEDEX_BACKOFF_INITIAL_INTERVAL"),
			Destination: &cfg.backoffInitial,
		},
		&cli.DurationFlag{
			Name:        "backoff-max-interval",
			Usage:       "Upper bound on the retry delay",
			Value:       retry.DefaultMaxInterval,
			Sources:     cli.EnvVars("PLACEDEX_BACKOFF_MAX_INTERVAL"),
			Destination: &cfg.backoffMax,
		},
		&cli.IntFlag{
			Name:        "backoff-max-attempts",
			Usage:       "Total provider call attempts before giving up",
			Value:       retry.DefaultMaxAttempts,
			Sources:     cli.EnvVars("PLACEDEX_BACKOFF_MAX_ATTEMPTS"),
			Destination: &cfg.backoffMaxAttempts,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level: debug, info, warn or error",
			Value:       "info",
			Sources:     cli.EnvVars("PLACEDEX_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "Log format: console or json",
			Value:       "console",
			Sources:     cli.EnvVars("PLACEDEX_LOG_FORMAT"),
			Destination: &cfg.logFormat,
		},
	}
}

// configureLogging builds the process logger from the flags and installs it
// as the default
func (cfg *config) configureLogging() {
	logging.SetDefault(logging.New(cfg.logLevel, cfg.logFormat, os.Stderr))
}

// newRepository creates a new repository instance
func (cfg *config) newRepository(ctx context.Context) (repository.Repository, error) {
	switch cfg.backend {
	case "firestore":
		if cfg.project == "" {
			return nil, goerr.New("project is required for the firestore repository")
		}
		if cfg.database == "" {
			return nil, goerr.New("database is required for the firestore repository")
		}
		repo, err := repository.New(ctx, cfg.project, cfg.database)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create firestore repository")
		}
		return repo, nil

	case "postgres":
		if cfg.dbDSN == "" {
			return nil, goerr.New("db-dsn is required for the postgres repository")
		}
		repo, err := repository.NewPostgres(ctx, cfg.dbDSN)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create postgres repository")
		}
		return repo, nil

	case "memory":
		return repository.NewMemory(), nil

	default:
		return nil, goerr.New("unknown repository backend", goerr.V("backend", cfg.backend))
	}
}

// newPlaces creates a new Places client instance
func (cfg *config) newPlaces() (adapter.Places, error) {
	if cfg.placesAPIKey == "" {
		return nil, goerr.New("google-places-api-key is required")
	}
	return adapter.NewPlaces(cfg.placesAPIKey,
		adapter.WithTimeout(cfg.providerTimeout),
		adapter.WithLocationBias(adapter.LocationBias{
			Latitude:  cfg.biasLat,
			Longitude: cfg.biasLng,
			RadiusM:   cfg.biasRadiusM,
		}),
	), nil
}

// newThrottle creates the shared provider throttle
func (cfg *config) newThrottle() *ratelimit.Throttle {
	return ratelimit.New(cfg.throttleConcurrency, cfg.throttleInterval)
}

// retryConfig builds the backoff policy from the flags
func (cfg *config) retryConfig() retry.Config {
	// A negative flag value must not wrap around into a huge attempt
	// budget; zero falls back to the retry package default.
	attempts := cfg.backoffMaxAttempts
	if attempts < 0 {
		attempts = 0
	}
	return retry.Config{
		InitialInterval: cfg.backoffInitial,
		MaxInterval:     cfg.backoffMax,
		MaxAttempts:     uint(attempts),
	}
}

// newSync wires the record synchronizer from the flags
func (cfg *config) newSync(ctx context.Context) (*syncuc.UseCase, repository.Repository, error) {
	repo, err := cfg.newRepository(ctx)
	if err != nil {
		return nil, nil, err
	}

	places, err := cfg.newPlaces()
	if err != nil {
		return nil, nil, err
	}

	uc := syncuc.New(repo, places, cfg.newThrottle(),
		syncuc.WithStalenessThreshold(cfg.stalenessThreshold),
		syncuc.WithRetryConfig(cfg.retryConfig()),
	)
	return uc, repo, nil
}

// newSearch wires the search orchestrator on top of the synchronizer
func (cfg *config) newSearch(ctx context.Context) (*search.UseCase, repository.Repository, error) {
	syncUC, repo, err := cfg.newSync(ctx)
	if err != nil {
		return nil, nil, err
	}

	places, err := cfg.newPlaces()
	if err != nil {
		return nil, nil, err
	}

	uc := search.New(places, syncUC, search.WithRetryConfig(cfg.retryConfig()))
	return uc, repo, nil
}
