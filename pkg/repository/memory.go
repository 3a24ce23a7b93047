package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/placedex/pkg/model"
)

// Memory is an in-process Repository for tests and local development.
type Memory struct {
	mu      sync.RWMutex
	records map[model.PlaceID]*model.BusinessRecord
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		records: map[model.PlaceID]*model.BusinessRecord{},
	}
}

func (r *Memory) GetBusiness(_ context.Context, id model.PlaceID) (*model.BusinessRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

func (r *Memory) PutBusiness(_ context.Context, rec *model.BusinessRecord) (*model.BusinessRecord, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[rec.ID] = rec.Clone()
	return rec, nil
}

func (r *Memory) ListBusinesses(_ context.Context, offset, limit int) ([]*model.BusinessRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*model.BusinessRecord, 0, len(r.records))
	for _, rec := range r.records {
		all = append(all, rec.Clone())
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})

	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (r *Memory) Close() error {
	return nil
}
