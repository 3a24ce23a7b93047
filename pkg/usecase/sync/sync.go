// Package sync reconciles cached business records with the upstream
// provider: it decides staleness, fetches fresh details through the shared
// throttle and backoff policy, and upserts the result.
package sync

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/placedex/pkg/adapter"
	"github.com/m-mizutani/placedex/pkg/model"
	"github.com/m-mizutani/placedex/pkg/ratelimit"
	"github.com/m-mizutani/placedex/pkg/repository"
	"github.com/m-mizutani/placedex/pkg/retry"
	"github.com/m-mizutani/placedex/pkg/utils/logging"
)

// DefaultStalenessThreshold is how old a record may be before a refresh is
// required.
const DefaultStalenessThreshold = 24 * time.Hour

// UseCase is the record synchronizer.
type UseCase struct {
	repo     repository.Repository
	places   adapter.Places
	throttle *ratelimit.Throttle

	threshold time.Duration
	retryCfg  retry.Config
	now       func() time.Time
}

// Option is a functional option for UseCase.
type Option func(*UseCase)

// WithStalenessThreshold overrides the refresh threshold.
func WithStalenessThreshold(d time.Duration) Option {
	return func(uc *UseCase) {
		uc.threshold = d
	}
}

// WithRetryConfig overrides the backoff policy for detail fetches.
func WithRetryConfig(cfg retry.Config) Option {
	return func(uc *UseCase) {
		uc.retryCfg = cfg
	}
}

// WithClock injects the time source, for deterministic staleness tests.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates a record synchronizer UseCase.
func New(
	repo repository.Repository,
	places adapter.Places,
	throttle *ratelimit.Throttle,
	opts ...Option,
) *UseCase {
	uc := &UseCase{
		repo:      repo,
		places:    places,
		throttle:  throttle,
		threshold: DefaultStalenessThreshold,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Refresh returns the canonical record for the place, fetching and
// persisting fresh data only when the cached copy is missing or stale.
// When the provider is unreachable a stale cached record is returned as a
// degraded result; with no cached record the error carries
// ErrTagUnavailable and nothing is written.
func (u *UseCase) Refresh(ctx context.Context, id model.PlaceID) (*model.BusinessRecord, error) {
	if id == "" {
		return nil, goerr.New("place ID is required", goerr.T(model.ErrTagBadRequest))
	}

	existing, err := u.repo.GetBusiness(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to look up cached business", goerr.V("place_id", id))
	}

	if existing != nil && !existing.NeedsRefresh(u.now(), u.threshold) {
		return existing, nil
	}

	place, err := u.fetchDetails(ctx, id)
	if err != nil {
		if existing != nil {
			logging.From(ctx).Warn("serving stale record, provider fetch failed",
				"place_id", id, "error", err)
			return existing, nil
		}
		return nil, goerr.Wrap(err, "place is unavailable",
			goerr.T(model.ErrTagUnavailable), goerr.V("place_id", id))
	}

	rec := place.Record()
	rec.ID = id
	rec.UpdatedAt = u.now()

	saved, err := u.repo.PutBusiness(ctx, rec)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to upsert business",
			goerr.T(model.ErrTagInternal), goerr.V("place_id", id))
	}

	logging.From(ctx).Debug("refreshed business record", "place_id", id, "name", saved.Name)
	return saved, nil
}

// fetchDetails runs the detail call through the shared throttle, wrapped in
// the backoff executor.
func (u *UseCase) fetchDetails(ctx context.Context, id model.PlaceID) (*adapter.Place, error) {
	return retry.Do(ctx, u.retryCfg, func(ctx context.Context) (*adapter.Place, error) {
		var place *adapter.Place
		err := u.throttle.Schedule(ctx, func(ctx context.Context) error {
			var err error
			place, err = u.places.PlaceDetails(ctx, id)
			return err
		})
		return place, err
	})
}
