package repository

import (
	"context"

	"github.com/m-mizutani/placedex/pkg/model"
)

// Repository defines persistence for cached business records. The store
// holds at most one record per place ID.
type Repository interface {
	// GetBusiness retrieves a record by place ID. A cache miss returns
	// (nil, nil); errors are reserved for store failures.
	GetBusiness(ctx context.Context, id model.PlaceID) (*model.BusinessRecord, error)

	// PutBusiness upserts the record keyed by its ID: a full replace of
	// all mapped fields, atomic per record. Returns the stored record.
	PutBusiness(ctx context.Context, rec *model.BusinessRecord) (*model.BusinessRecord, error)

	// ListBusinesses retrieves records ordered by most recent update.
	ListBusinesses(ctx context.Context, offset, limit int) ([]*model.BusinessRecord, error)

	// Close releases the underlying store connection.
	Close() error
}
