package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/placedex/pkg/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const collectionBusinesses = "businesses"

// Firestore implements Repository using Firestore. Document writes are
// atomic per document, which gives the per-record upsert guarantee.
type Firestore struct {
	client *firestore.Client
}

// New creates a Firestore repository.
func New(ctx context.Context, projectID, databaseID string) (*Firestore, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}

	return &Firestore{client: client}, nil
}

func (r *Firestore) GetBusiness(ctx context.Context, id model.PlaceID) (*model.BusinessRecord, error) {
	doc, err := r.client.Collection(collectionBusinesses).Doc(string(id)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get business",
			goerr.T(model.ErrTagInternal), goerr.V("place_id", id))
	}

	var rec model.BusinessRecord
	if err := doc.DataTo(&rec); err != nil {
		return nil, goerr.Wrap(err, "failed to decode business document",
			goerr.T(model.ErrTagInternal), goerr.V("place_id", id))
	}

	return &rec, nil
}

func (r *Firestore) PutBusiness(ctx context.Context, rec *model.BusinessRecord) (*model.BusinessRecord, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	// Set without merge options replaces the whole document.
	if _, err := r.client.Collection(collectionBusinesses).Doc(string(rec.ID)).Set(ctx, rec); err != nil {
		return nil, goerr.Wrap(err, "failed to upsert business",
			goerr.T(model.ErrTagInternal), goerr.V("place_id", rec.ID))
	}

	return rec, nil
}

func (r *Firestore) ListBusinesses(ctx context.Context, offset, limit int) ([]*model.BusinessRecord, error) {
	query := r.client.Collection(collectionBusinesses).
		OrderBy("updated_at", firestore.Desc).
		Offset(offset).
		Limit(limit)

	iter := query.Documents(ctx)
	defer iter.Stop()

	var records []*model.BusinessRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate businesses",
				goerr.T(model.ErrTagInternal))
		}

		var rec model.BusinessRecord
		if err := doc.DataTo(&rec); err != nil {
			return nil, goerr.Wrap(err, "failed to decode business document",
				goerr.T(model.ErrTagInternal), goerr.V("doc", doc.Ref.ID))
		}
		records = append(records, &rec)
	}

	return records, nil
}

func (r *Firestore) Close() error {
	return r.client.Close()
}
