// Package server exposes the sync layer over HTTP. It is thin glue: query
// parsing, error-tag to status mapping, and JSON envelopes.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/placedex/pkg/model"
	"github.com/m-mizutani/placedex/pkg/utils/logging"
)

// DefaultLocation is used when the caller omits the location parameter.
const DefaultLocation = "Denver, CO"

// Searcher is the search orchestrator dependency.
type Searcher interface {
	Search(ctx context.Context, query model.SearchQuery) (*model.SearchResult, error)
}

// Refresher is the record synchronizer dependency.
type Refresher interface {
	Refresh(ctx context.Context, id model.PlaceID) (*model.BusinessRecord, error)
}

// New creates the HTTP router.
func New(searcher Searcher, refresher Refresher) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(loggingMiddleware)

	r.Get("/health", handleHealth)
	r.Route("/api/places", func(r chi.Router) {
		r.Get("/search", handleSearch(searcher))
		r.Get("/{placeID}", handlePlace(refresher))
	})

	return r
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		logger := logging.From(r.Context()).With(
			"request_id", middleware.GetReqID(r.Context()),
		)
		r = r.WithContext(logging.With(r.Context(), logger))

		next.ServeHTTP(ww, r)

		logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleSearch(searcher Searcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := model.SearchQuery{
			Keyword:  r.URL.Query().Get("query"),
			Location: r.URL.Query().Get("location"),
		}
		if query.Location == "" {
			query.Location = DefaultLocation
		}

		result, err := searcher.Search(r.Context(), query)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, result)
	}
}

func handlePlace(refresher Refresher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := model.PlaceID(chi.URLParam(r, "placeID"))

		rec, err := refresher.Refresh(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, rec)
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// writeError maps the error taxonomy onto HTTP statuses. Anything untagged
// is an internal failure and gets logged with its full context.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var code string

	switch {
	case goerr.HasTag(err, model.ErrTagBadRequest):
		status, code = http.StatusBadRequest, "bad_request"
	case goerr.HasTag(err, model.ErrTagUnavailable):
		status, code = http.StatusNotFound, "unavailable"
	case goerr.HasTag(err, model.ErrTagUpstreamResponse):
		status, code = http.StatusBadGateway, "upstream_response"
	case goerr.HasTag(err, model.ErrTagUpstreamExhausted):
		status, code = http.StatusBadGateway, "upstream_exhausted"
	default:
		status, code = http.StatusInternalServerError, "internal"
	}

	if status >= http.StatusInternalServerError {
		logging.From(r.Context()).Error("request failed",
			"path", r.URL.Path, "error", err)
	}

	writeJSON(w, status, errorResponse{
		Error: err.Error(),
		Code:  code,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
