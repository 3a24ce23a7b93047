package model

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// PlaceID is the upstream provider's identifier for a business. It is the
// primary key of the local store and never changes once a record is created.
type PlaceID string

// GeoPoint is a latitude/longitude pair. Zero values mean the provider did
// not report a location.
type GeoPoint struct {
	Latitude  float64 `json:"lat" firestore:"lat"`
	Longitude float64 `json:"lng" firestore:"lng"`
}

// BusinessRecord is the canonical cached entity reconciled from upstream
// search and detail responses. Optional provider fields default to their
// zero values.
type BusinessRecord struct {
	ID             PlaceID  `json:"id" firestore:"id"`
	Name           string   `json:"name" firestore:"name"`
	Rating         float64  `json:"rating" firestore:"rating"`
	ReviewCount    int      `json:"review_count" firestore:"review_count"`
	Address        string   `json:"address" firestore:"address"`
	Location       GeoPoint `json:"location" firestore:"location"`
	Categories     []string `json:"categories" firestore:"categories"`
	Phone          string   `json:"phone,omitempty" firestore:"phone"`
	Website        string   `json:"website,omitempty" firestore:"website"`
	BusinessStatus string   `json:"business_status,omitempty" firestore:"business_status"`

	// UpdatedAt is stamped on every upsert. A zero UpdatedAt means the
	// record has never been persisted and is always considered stale.
	UpdatedAt time.Time `json:"updated_at" firestore:"updated_at"`
}

// NeedsRefresh reports whether the record is stale at the given time. The
// threshold boundary is inclusive: a record exactly threshold old must be
// refreshed.
func (b *BusinessRecord) NeedsRefresh(now time.Time, threshold time.Duration) bool {
	if b == nil || b.UpdatedAt.IsZero() {
		return true
	}
	return now.Sub(b.UpdatedAt) >= threshold
}

// Validate checks the fields required before a record may be persisted.
func (b *BusinessRecord) Validate() error {
	if b.ID == "" {
		return goerr.New("business record has no place ID", goerr.T(ErrTagInternal))
	}
	if b.Name == "" {
		return goerr.New("business record has no name",
			goerr.T(ErrTagInternal), goerr.V("place_id", b.ID))
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate stored records.
func (b *BusinessRecord) Clone() *BusinessRecord {
	if b == nil {
		return nil
	}
	copied := *b
	copied.Categories = append([]string(nil), b.Categories...)
	return &copied
}

// SearchQuery is the caller-supplied query for a business search. It is
// never persisted; caching keys on PlaceID, not on the query.
type SearchQuery struct {
	Keyword  string `json:"keyword"`
	Location string `json:"location"`
}

// Validate rejects queries with missing required fields before any external
// call is made.
func (q SearchQuery) Validate() error {
	if q.Keyword == "" {
		return goerr.New("keyword is required", goerr.T(ErrTagBadRequest))
	}
	if q.Location == "" {
		return goerr.New("location is required", goerr.T(ErrTagBadRequest))
	}
	return nil
}

// TextQuery builds the upstream text search phrase, e.g. "plumbers in
// Denver, CO".
func (q SearchQuery) TextQuery() string {
	return q.Keyword + " in " + q.Location
}

// SearchResult is the aggregated response of a search: enriched records in
// the provider's ranking order.
type SearchResult struct {
	Results []*BusinessRecord `json:"results"`
	Count   int               `json:"count"`
}
