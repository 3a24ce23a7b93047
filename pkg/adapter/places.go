package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/placedex/pkg/model"
)

const (
	placesBaseURL = "https://places.googleapis.com/v1"

	searchFieldMask = "places.id,places.displayName,places.formattedAddress," +
		"places.location,places.rating,places.userRatingCount,places.types," +
		"places.businessStatus"
	detailFieldMask = "id,displayName,formattedAddress,location,rating," +
		"userRatingCount,types,businessStatus,nationalPhoneNumber,websiteUri"
)

// LocationBias is a circular search bias sent with every text search.
type LocationBias struct {
	Latitude  float64
	Longitude float64
	RadiusM   float64
}

// DefaultLocationBias centers searches on Denver with a 50km radius.
var DefaultLocationBias = LocationBias{
	Latitude:  39.7392,
	Longitude: -104.9903,
	RadiusM:   50000.0,
}

// Places is the upstream provider client. Both calls are read-only and
// safe to retry.
type Places interface {
	// TextSearch runs a free-text search and returns raw places in the
	// provider's ranking order.
	TextSearch(ctx context.Context, query string) ([]*Place, error)

	// PlaceDetails fetches the full detail object for one place.
	PlaceDetails(ctx context.Context, id model.PlaceID) (*Place, error)
}

// Place is the normalized raw result from either provider payload shape.
// Mapping into model.BusinessRecord happens in Record so a provider format
// change stays inside this package.
type Place struct {
	ID             string
	Name           string
	Address        string
	Latitude       float64
	Longitude      float64
	Rating         float64
	ReviewCount    int
	Types          []string
	Phone          string
	Website        string
	BusinessStatus string
}

// Record maps the raw place into the canonical record shape, applying the
// zero-value defaults for absent optional fields. UpdatedAt is left for the
// persistence layer to stamp.
func (p *Place) Record() *model.BusinessRecord {
	return &model.BusinessRecord{
		ID:          model.PlaceID(p.ID),
		Name:        p.Name,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		Address:     p.Address,
		Location: model.GeoPoint{
			Latitude:  p.Latitude,
			Longitude: p.Longitude,
		},
		Categories:     append([]string(nil), p.Types...),
		Phone:          p.Phone,
		Website:        p.Website,
		BusinessStatus: p.BusinessStatus,
	}
}

type placesClient struct {
	apiKey     string
	baseURL    string
	bias       LocationBias
	httpClient *http.Client
}

// PlacesOption configures the HTTP places client.
type PlacesOption func(*placesClient)

// WithBaseURL overrides the provider endpoint, mainly for tests.
func WithBaseURL(url string) PlacesOption {
	return func(c *placesClient) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithLocationBias overrides the default circular search bias.
func WithLocationBias(bias LocationBias) PlacesOption {
	return func(c *placesClient) {
		c.bias = bias
	}
}

// WithTimeout sets the per-call HTTP timeout. A timeout is reported as an
// ordinary transport failure, subject to the caller's retry policy.
func WithTimeout(d time.Duration) PlacesOption {
	return func(c *placesClient) {
		c.httpClient.Timeout = d
	}
}

// NewPlaces creates a Places client for the Google Places API.
func NewPlaces(apiKey string, opts ...PlacesOption) Places {
	c := &placesClient{
		apiKey:  apiKey,
		baseURL: placesBaseURL,
		bias:    DefaultLocationBias,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchRequest struct {
	TextQuery      string        `json:"textQuery"`
	LanguageCode   string        `json:"languageCode"`
	MaxResultCount int           `json:"maxResultCount"`
	LocationBias   *locationBias `json:"locationBias,omitempty"`
}

type locationBias struct {
	Circle struct {
		Center struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"center"`
		Radius float64 `json:"radius"`
	} `json:"circle"`
}

func (x *placesClient) TextSearch(ctx context.Context, query string) ([]*Place, error) {
	reqBody := searchRequest{
		TextQuery:      query,
		LanguageCode:   "en",
		MaxResultCount: 20,
	}
	if x.bias.RadiusM > 0 {
		bias := &locationBias{}
		bias.Circle.Center.Latitude = x.bias.Latitude
		bias.Circle.Center.Longitude = x.bias.Longitude
		bias.Circle.Radius = x.bias.RadiusM
		reqBody.LocationBias = bias
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal search request")
	}

	url := fmt.Sprintf("%s/places:searchText", x.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create search request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", x.apiKey)
	req.Header.Set("X-Goog-FieldMask", searchFieldMask)

	var payload searchPayload
	if err := x.do(req, &payload); err != nil {
		return nil, err
	}

	places, err := payload.places()
	if err != nil {
		return nil, goerr.Wrap(err, "unexpected search payload",
			goerr.T(model.ErrTagUpstreamResponse), goerr.V("query", query))
	}

	return places, nil
}

func (x *placesClient) PlaceDetails(ctx context.Context, id model.PlaceID) (*Place, error) {
	url := fmt.Sprintf("%s/places/%s", x.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create detail request")
	}
	req.Header.Set("X-Goog-Api-Key", x.apiKey)
	req.Header.Set("X-Goog-FieldMask", detailFieldMask)

	var payload detailPayload
	if err := x.do(req, &payload); err != nil {
		return nil, err
	}

	place, err := payload.place(string(id))
	if err != nil {
		return nil, goerr.Wrap(err, "unexpected detail payload",
			goerr.T(model.ErrTagUpstreamResponse), goerr.V("place_id", id))
	}

	return place, nil
}

// do sends the request and decodes the body. Transport failures and 5xx/429
// responses are retryable; any other non-200 status is a provider contract
// violation and must not be retried.
func (x *placesClient) do(req *http.Request, out any) error {
	resp, err := x.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "failed to send request to provider")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		wrapped := goerr.New("provider returned error status",
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(body)))
		if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
			return wrapped
		}
		return goerr.Wrap(wrapped, "provider rejected request",
			goerr.T(model.ErrTagUpstreamResponse))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode provider response",
			goerr.T(model.ErrTagUpstreamResponse))
	}

	return nil
}
