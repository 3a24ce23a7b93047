package sync_test

import (
	"context"
	stdsync "sync"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/placedex/pkg/adapter"
	"github.com/m-mizutani/placedex/pkg/model"
	"github.com/m-mizutani/placedex/pkg/ratelimit"
	"github.com/m-mizutani/placedex/pkg/repository"
	"github.com/m-mizutani/placedex/pkg/retry"
	"github.com/m-mizutani/placedex/pkg/usecase/sync"
)

type stubPlaces struct {
	mu          stdsync.Mutex
	searchCalls int
	detailCalls int

	searchFn func(query string) ([]*adapter.Place, error)
	detailFn func(id model.PlaceID) (*adapter.Place, error)
}

func (s *stubPlaces) TextSearch(_ context.Context, query string) ([]*adapter.Place, error) {
	s.mu.Lock()
	s.searchCalls++
	s.mu.Unlock()
	if s.searchFn == nil {
		return nil, goerr.New("no search stub")
	}
	return s.searchFn(query)
}

func (s *stubPlaces) PlaceDetails(_ context.Context, id model.PlaceID) (*adapter.Place, error) {
	s.mu.Lock()
	s.detailCalls++
	s.mu.Unlock()
	if s.detailFn == nil {
		return nil, goerr.New("no detail stub")
	}
	return s.detailFn(id)
}

func (s *stubPlaces) calls() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchCalls, s.detailCalls
}

var (
	fastRetry    = retry.Config{InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, MaxAttempts: 2}
	fastThrottle = func() *ratelimit.Throttle { return ratelimit.New(1, time.Millisecond) }
)

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestRefreshFreshCacheSkipsProvider(t *testing.T) {
	repo := repository.NewMemory()
	places := &stubPlaces{}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cached := &model.BusinessRecord{
		ID:        "place-1",
		Name:      "Cached Business",
		UpdatedAt: now.Add(-time.Hour),
	}
	_, err := repo.PutBusiness(context.Background(), cached)
	gt.NoError(t, err)

	uc := sync.New(repo, places, fastThrottle(),
		sync.WithRetryConfig(fastRetry), sync.WithClock(fixedClock(now)))

	got, err := uc.Refresh(context.Background(), "place-1")
	gt.NoError(t, err)
	gt.Equal(t, got.Name, "Cached Business")
	gt.True(t, got.UpdatedAt.Equal(cached.UpdatedAt))

	_, details := places.calls()
	gt.Equal(t, details, 0)
}

func TestRefreshStaleCacheFetchesAndUpserts(t *testing.T) {
	repo := repository.NewMemory()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cached := &model.BusinessRecord{
		ID:        "place-1",
		Name:      "Old Name",
		Phone:     "(303) 555-0000",
		UpdatedAt: now.Add(-25 * time.Hour),
	}
	_, err := repo.PutBusiness(context.Background(), cached)
	gt.NoError(t, err)

	places := &stubPlaces{
		detailFn: func(id model.PlaceID) (*adapter.Place, error) {
			return &adapter.Place{
				ID:     string(id),
				Name:   "New Name",
				Rating: 4.1,
			}, nil
		},
	}

	uc := sync.New(repo, places, fastThrottle(),
		sync.WithRetryConfig(fastRetry), sync.WithClock(fixedClock(now)))

	got, err := uc.Refresh(context.Background(), "place-1")
	gt.NoError(t, err)
	gt.Equal(t, got.Name, "New Name")
	gt.True(t, got.UpdatedAt.Equal(now))

	// Full replace: the stale phone must be gone from the store.
	stored, err := repo.GetBusiness(context.Background(), "place-1")
	gt.NoError(t, err)
	gt.Equal(t, stored.Phone, "")
	gt.True(t, stored.UpdatedAt.Equal(now))
}

func TestRefreshStaleCacheServedWhenProviderDown(t *testing.T) {
	repo := repository.NewMemory()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cached := &model.BusinessRecord{
		ID:        "place-1",
		Name:      "Stale But Available",
		UpdatedAt: now.Add(-25 * time.Hour),
	}
	_, err := repo.PutBusiness(context.Background(), cached)
	gt.NoError(t, err)

	places := &stubPlaces{
		detailFn: func(id model.PlaceID) (*adapter.Place, error) {
			return nil, goerr.New("connection refused")
		},
	}

	uc := sync.New(repo, places, fastThrottle(),
		sync.WithRetryConfig(fastRetry), sync.WithClock(fixedClock(now)))

	got, err := uc.Refresh(context.Background(), "place-1")
	gt.NoError(t, err)
	gt.Equal(t, got.Name, "Stale But Available")

	// Retried up to the attempt budget before degrading.
	_, details := places.calls()
	gt.Equal(t, details, 2)

	// The stale timestamp is untouched: nothing was written.
	stored, err := repo.GetBusiness(context.Background(), "place-1")
	gt.NoError(t, err)
	gt.True(t, stored.UpdatedAt.Equal(cached.UpdatedAt))
}

func TestRefreshUnknownPlaceUnavailableWhenProviderDown(t *testing.T) {
	repo := repository.NewMemory()
	places := &stubPlaces{
		detailFn: func(id model.PlaceID) (*adapter.Place, error) {
			return nil, goerr.New("connection refused")
		},
	}

	uc := sync.New(repo, places, fastThrottle(), sync.WithRetryConfig(fastRetry))

	_, err := uc.Refresh(context.Background(), "never-seen")
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagUnavailable))
	gt.True(t, goerr.HasTag(err, model.ErrTagUpstreamExhausted))

	// No partial record may be written.
	stored, err := repo.GetBusiness(context.Background(), "never-seen")
	gt.NoError(t, err)
	gt.Nil(t, stored)
}

func TestRefreshCreatesRecordOnFirstFetch(t *testing.T) {
	repo := repository.NewMemory()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	places := &stubPlaces{
		detailFn: func(id model.PlaceID) (*adapter.Place, error) {
			return &adapter.Place{
				ID:          string(id),
				Name:        "Fresh Business",
				Rating:      4.7,
				ReviewCount: 12,
				Phone:       "(303) 555-0101",
				Types:       []string{"plumber"},
			}, nil
		},
	}

	uc := sync.New(repo, places, fastThrottle(),
		sync.WithRetryConfig(fastRetry), sync.WithClock(fixedClock(now)))

	got, err := uc.Refresh(context.Background(), "place-new")
	gt.NoError(t, err)
	gt.Equal(t, got.ID, model.PlaceID("place-new"))
	gt.Equal(t, got.Name, "Fresh Business")
	gt.Equal(t, got.Phone, "(303) 555-0101")
	gt.True(t, got.UpdatedAt.Equal(now))

	stored, err := repo.GetBusiness(context.Background(), "place-new")
	gt.NoError(t, err)
	gt.V(t, stored).NotNil()
	gt.Equal(t, stored.Categories, []string{"plumber"})
}

func TestRefreshEmptyID(t *testing.T) {
	uc := sync.New(repository.NewMemory(), &stubPlaces{}, fastThrottle())

	_, err := uc.Refresh(context.Background(), "")
	gt.Error(t, err)
	gt.True(t, goerr.HasTag(err, model.ErrTagBadRequest))
}
