package model_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/placedex/pkg/model"
)

func TestNeedsRefresh(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	threshold := 24 * time.Hour

	testCases := []struct {
		name      string
		updatedAt time.Time
		expect    bool
	}{
		{"never persisted", time.Time{}, true},
		{"just written", now, false},
		{"one hour old", now.Add(-time.Hour), false},
		{"just under threshold", now.Add(-threshold + time.Second), false},
		{"exactly at threshold", now.Add(-threshold), true},
		{"25 hours old", now.Add(-25 * time.Hour), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := &model.BusinessRecord{
				ID:        "place-1",
				Name:      "Test Business",
				UpdatedAt: tc.updatedAt,
			}
			gt.Equal(t, rec.NeedsRefresh(now, threshold), tc.expect)
		})
	}
}

func TestNeedsRefreshNilRecord(t *testing.T) {
	var rec *model.BusinessRecord
	gt.True(t, rec.NeedsRefresh(time.Now(), 24*time.Hour))
}

func TestSearchQueryValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		q := model.SearchQuery{Keyword: "plumbers", Location: "Denver, CO"}
		gt.NoError(t, q.Validate())
	})

	t.Run("missing keyword", func(t *testing.T) {
		q := model.SearchQuery{Location: "Denver, CO"}
		err := q.Validate()
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, model.ErrTagBadRequest))
	})

	t.Run("missing location", func(t *testing.T) {
		q := model.SearchQuery{Keyword: "plumbers"}
		err := q.Validate()
		gt.Error(t, err)
		gt.True(t, goerr.HasTag(err, model.ErrTagBadRequest))
	})
}

func TestTextQuery(t *testing.T) {
	q := model.SearchQuery{Keyword: "deck builders", Location: "Denver, CO"}
	gt.Equal(t, q.TextQuery(), "deck builders in Denver, CO")
}

func TestRecordValidate(t *testing.T) {
	rec := &model.BusinessRecord{ID: "place-1", Name: "Test"}
	gt.NoError(t, rec.Validate())

	gt.Error(t, (&model.BusinessRecord{Name: "no id"}).Validate())
	gt.Error(t, (&model.BusinessRecord{ID: "no-name"}).Validate())
}

func TestClone(t *testing.T) {
	rec := &model.BusinessRecord{
		ID:         "place-1",
		Name:       "Test",
		Categories: []string{"plumber", "contractor"},
	}

	copied := rec.Clone()
	copied.Name = "Changed"
	copied.Categories[0] = "changed"

	gt.Equal(t, rec.Name, "Test")
	gt.Equal(t, rec.Categories[0], "plumber")
}
