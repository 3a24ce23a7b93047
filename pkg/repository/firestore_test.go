package repository_test

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/placedex/pkg/model"
	"github.com/m-mizutani/placedex/pkg/repository"
)

func setupFirestore(t *testing.T) *repository.Firestore {
	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")

	if projectID == "" || databaseID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID and TEST_FIRESTORE_DATABASE_ID must be set to run Firestore tests")
	}

	repo, err := repository.New(context.Background(), projectID, databaseID)
	gt.NoError(t, err)
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})

	return repo
}

func testPlaceID() model.PlaceID {
	return model.PlaceID(fmt.Sprintf("test-place-%d-%d", time.Now().UnixNano(), rand.Int31()))
}

func TestFirestorePutAndGet(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	rec := &model.BusinessRecord{
		ID:          testPlaceID(),
		Name:        "Firestore Test Business",
		Rating:      4.8,
		ReviewCount: 321,
		Address:     "789 Broadway, Denver, CO",
		Location:    model.GeoPoint{Latitude: 39.71, Longitude: -104.98},
		Categories:  []string{"electrician"},
		Phone:       "(303) 555-0142",
		UpdatedAt:   time.Now().UTC().Truncate(time.Millisecond),
	}

	_, err := repo.PutBusiness(ctx, rec)
	gt.NoError(t, err)

	got, err := repo.GetBusiness(ctx, rec.ID)
	gt.NoError(t, err)
	gt.V(t, got).NotNil()
	gt.Equal(t, got.ID, rec.ID)
	gt.Equal(t, got.Name, rec.Name)
	gt.Equal(t, got.ReviewCount, rec.ReviewCount)
	gt.Equal(t, got.Location, rec.Location)
	gt.Equal(t, got.Phone, rec.Phone)
}

func TestFirestoreGetMiss(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	got, err := repo.GetBusiness(ctx, testPlaceID())
	gt.NoError(t, err)
	gt.Nil(t, got)
}

func TestFirestoreUpsertReplaces(t *testing.T) {
	repo := setupFirestore(t)
	ctx := context.Background()

	id := testPlaceID()
	first := &model.BusinessRecord{
		ID:        id,
		Name:      "Before",
		Website:   "https://before.example.com",
		UpdatedAt: time.Now().UTC(),
	}
	_, err := repo.PutBusiness(ctx, first)
	gt.NoError(t, err)

	second := &model.BusinessRecord{
		ID:        id,
		Name:      "After",
		UpdatedAt: time.Now().UTC(),
	}
	_, err = repo.PutBusiness(ctx, second)
	gt.NoError(t, err)

	got, err := repo.GetBusiness(ctx, id)
	gt.NoError(t, err)
	gt.Equal(t, got.Name, "After")
	gt.Equal(t, got.Website, "")
}
