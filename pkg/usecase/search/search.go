// Package search orchestrates a provider text search and the per-result
// enrichment fan-out. Individual detail failures degrade single items and
// never abort the whole search.
package search

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/placedex/pkg/adapter"
	"github.com/m-mizutani/placedex/pkg/model"
	"github.com/m-mizutani/placedex/pkg/retry"
	"github.com/m-mizutani/placedex/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// Refresher is the record synchronizer dependency. Enrichment goes through
// it so search results share the cache, throttle and backoff policy with
// direct lookups.
type Refresher interface {
	Refresh(ctx context.Context, id model.PlaceID) (*model.BusinessRecord, error)
}

// UseCase is the search orchestrator.
type UseCase struct {
	places    adapter.Places
	refresher Refresher
	retryCfg  retry.Config
}

// Option is a functional option for UseCase.
type Option func(*UseCase)

// WithRetryConfig overrides the backoff policy for the search call.
func WithRetryConfig(cfg retry.Config) Option {
	return func(uc *UseCase) {
		uc.retryCfg = cfg
	}
}

// New creates a search orchestrator UseCase.
func New(places adapter.Places, refresher Refresher, opts ...Option) *UseCase {
	uc := &UseCase{
		places:    places,
		refresher: refresher,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Search runs the provider text search and enriches every result through
// the synchronizer. The output preserves the provider's ranking order and
// always has the same length as the provider's result set: an item whose
// detail lookup fails keeps its provisional shell.
func (u *UseCase) Search(ctx context.Context, query model.SearchQuery) (*model.SearchResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	places, err := retry.Do(ctx, u.retryCfg, func(ctx context.Context) ([]*adapter.Place, error) {
		return u.places.TextSearch(ctx, query.TextQuery())
	})
	if err != nil {
		return nil, goerr.Wrap(err, "text search failed",
			goerr.V("keyword", query.Keyword), goerr.V("location", query.Location))
	}

	records := make([]*model.BusinessRecord, len(places))

	// Each item is tracked by its original index; completion order is
	// irrelevant. Tasks never return errors: a failed enrichment keeps
	// the provisional shell. Provider-side concurrency is bounded by the
	// synchronizer's shared throttle.
	var eg errgroup.Group
	for i, place := range places {
		shell := place.Record()
		records[i] = shell

		if shell.ID == "" {
			logging.From(ctx).Warn("search result has no place ID, skipping enrichment",
				"name", shell.Name, "index", i)
			continue
		}

		eg.Go(func() error {
			rec, err := u.refresher.Refresh(ctx, shell.ID)
			if err != nil {
				logging.From(ctx).Warn("detail enrichment failed, keeping provisional result",
					"place_id", shell.ID, "error", err)
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	_ = eg.Wait()

	return &model.SearchResult{
		Results: records,
		Count:   len(records),
	}, nil
}
