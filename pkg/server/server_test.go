package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/placedex/pkg/model"
	"github.com/m-mizutani/placedex/pkg/server"
)

type stubSearcher struct {
	lastQuery model.SearchQuery
	result    *model.SearchResult
	err       error
}

func (s *stubSearcher) Search(_ context.Context, query model.SearchQuery) (*model.SearchResult, error) {
	s.lastQuery = query
	return s.result, s.err
}

type stubRefresher struct {
	rec *model.BusinessRecord
	err error
}

func (s *stubRefresher) Refresh(_ context.Context, _ model.PlaceID) (*model.BusinessRecord, error) {
	return s.rec, s.err
}

func TestSearchEndpoint(t *testing.T) {
	searcher := &stubSearcher{
		result: &model.SearchResult{
			Results: []*model.BusinessRecord{
				{ID: "p1", Name: "Mile High Plumbing"},
			},
			Count: 1,
		},
	}
	router := server.New(searcher, &stubRefresher{})

	req := httptest.NewRequest(http.MethodGet, "/api/places/search?query=plumbers&location=Boulder,+CO", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	gt.Equal(t, rec.Code, http.StatusOK)
	gt.Equal(t, searcher.lastQuery.Keyword, "plumbers")
	gt.Equal(t, searcher.lastQuery.Location, "Boulder, CO")

	var result model.SearchResult
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	gt.Equal(t, result.Count, 1)
	gt.Equal(t, result.Results[0].Name, "Mile High Plumbing")
}

func TestSearchDefaultLocation(t *testing.T) {
	searcher := &stubSearcher{result: &model.SearchResult{}}
	router := server.New(searcher, &stubRefresher{})

	req := httptest.NewRequest(http.MethodGet, "/api/places/search?query=plumbers", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)

	gt.Equal(t, searcher.lastQuery.Location, server.DefaultLocation)
}

func TestErrorStatusMapping(t *testing.T) {
	testCases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			"bad request",
			goerr.New("keyword is required", goerr.T(model.ErrTagBadRequest)),
			http.StatusBadRequest, "bad_request",
		},
		{
			"unavailable",
			goerr.New("place is unavailable", goerr.T(model.ErrTagUnavailable)),
			http.StatusNotFound, "unavailable",
		},
		{
			"upstream response",
			goerr.New("malformed payload", goerr.T(model.ErrTagUpstreamResponse)),
			http.StatusBadGateway, "upstream_response",
		},
		{
			"upstream exhausted",
			goerr.New("all attempts failed", goerr.T(model.ErrTagUpstreamExhausted)),
			http.StatusBadGateway, "upstream_exhausted",
		},
		{
			"internal",
			goerr.New("boom"),
			http.StatusInternalServerError, "internal",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			router := server.New(&stubSearcher{err: tc.err}, &stubRefresher{})

			req := httptest.NewRequest(http.MethodGet, "/api/places/search?query=x", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			gt.Equal(t, rec.Code, tc.status)

			var body map[string]string
			gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			gt.Equal(t, body["code"], tc.code)
		})
	}
}

func TestPlaceEndpoint(t *testing.T) {
	refresher := &stubRefresher{
		rec: &model.BusinessRecord{ID: "p1", Name: "Mile High Plumbing", Phone: "(303) 555-0100"},
	}
	router := server.New(&stubSearcher{}, refresher)

	req := httptest.NewRequest(http.MethodGet, "/api/places/p1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	gt.Equal(t, rec.Code, http.StatusOK)

	var body model.BusinessRecord
	gt.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	gt.Equal(t, body.Phone, "(303) 555-0100")
}

func TestPlaceEndpointUnavailable(t *testing.T) {
	refresher := &stubRefresher{
		err: goerr.New("place is unavailable", goerr.T(model.ErrTagUnavailable)),
	}
	router := server.New(&stubSearcher{}, refresher)

	req := httptest.NewRequest(http.MethodGet, "/api/places/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	gt.Equal(t, rec.Code, http.StatusNotFound)
}

func TestHealth(t *testing.T) {
	router := server.New(&stubSearcher{}, &stubRefresher{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	gt.Equal(t, rec.Code, http.StatusOK)
}
