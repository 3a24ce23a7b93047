// Package export writes a snapshot of all cached business records to the
// archive for downstream consumers (static page builds, audits).
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/placedex/pkg/adapter"
	"github.com/m-mizutani/placedex/pkg/model"
	"github.com/m-mizutani/placedex/pkg/repository"
	"github.com/m-mizutani/placedex/pkg/utils/logging"
)

const pageSize = 500

// UseCase exports listing snapshots.
type UseCase struct {
	repo    repository.Repository
	archive adapter.Archive
	now     func() time.Time
}

// Option is a functional option for UseCase.
type Option func(*UseCase)

// WithClock injects the time source used for snapshot keys.
func WithClock(now func() time.Time) Option {
	return func(uc *UseCase) {
		uc.now = now
	}
}

// New creates an export UseCase.
func New(repo repository.Repository, archive adapter.Archive, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:    repo,
		archive: archive,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Snapshot is the exported document layout.
type Snapshot struct {
	ExportedAt time.Time               `json:"exported_at"`
	Count      int                     `json:"count"`
	Records    []*model.BusinessRecord `json:"records"`
}

// Export pages through the whole store and writes one JSON snapshot
// object. Returns the object key.
func (u *UseCase) Export(ctx context.Context) (string, error) {
	var records []*model.BusinessRecord
	for offset := 0; ; offset += pageSize {
		page, err := u.repo.ListBusinesses(ctx, offset, pageSize)
		if err != nil {
			return "", goerr.Wrap(err, "failed to list businesses for export",
				goerr.T(model.ErrTagInternal))
		}
		records = append(records, page...)
		if len(page) < pageSize {
			break
		}
	}

	now := u.now().UTC()
	key := fmt.Sprintf("snapshots/%s/%s.json", now.Format("2006-01-02"), uuid.New().String())

	w, err := u.archive.Put(ctx, key)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open snapshot writer",
			goerr.T(model.ErrTagInternal), goerr.V("key", key))
	}

	snapshot := Snapshot{
		ExportedAt: now,
		Count:      len(records),
		Records:    records,
	}
	if err := json.NewEncoder(w).Encode(snapshot); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to encode snapshot",
			goerr.T(model.ErrTagInternal), goerr.V("key", key))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to finalize snapshot",
			goerr.T(model.ErrTagInternal), goerr.V("key", key))
	}

	logging.From(ctx).Info("exported listing snapshot", "key", key, "count", len(records))
	return key, nil
}
