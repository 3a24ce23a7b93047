package adapter

import (
	"github.com/m-mizutani/goerr/v2"
)

// The provider has shipped two response generations: the v1 API returns a
// "places" array with nested display names, the legacy API a "results"
// array with snake_case fields plus a "status" string. Both are decoded
// here so a format change never leaks into the orchestrator.

type rawPlace struct {
	// v1 shape
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string `json:"formattedAddress"`
	Location         struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	UserRatingCount     int    `json:"userRatingCount"`
	NationalPhoneNumber string `json:"nationalPhoneNumber"`
	WebsiteURI          string `json:"websiteUri"`

	// legacy shape
	PlaceID       string `json:"place_id"`
	Name          string `json:"name"`
	LegacyAddress string `json:"formatted_address"`
	Geometry      struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
	UserRatingsTotal float64 `json:"user_ratings_total"`
	LegacyPhone      string  `json:"formatted_phone_number"`
	LegacyWebsite    string  `json:"website"`

	// shared
	Rating         float64  `json:"rating"`
	Types          []string `json:"types"`
	BusinessStatus string   `json:"business_status"`
	V1Status       string   `json:"businessStatus"`
}

func (r *rawPlace) normalize() *Place {
	p := &Place{
		Rating: r.Rating,
		Types:  r.Types,
	}

	if r.PlaceID != "" || r.Name != "" {
		// legacy fields
		p.ID = r.PlaceID
		p.Name = r.Name
		p.Address = r.LegacyAddress
		p.Latitude = r.Geometry.Location.Lat
		p.Longitude = r.Geometry.Location.Lng
		p.ReviewCount = int(r.UserRatingsTotal)
		p.Phone = r.LegacyPhone
		p.Website = r.LegacyWebsite
		p.BusinessStatus = r.BusinessStatus
	}

	if r.ID != "" {
		p.ID = r.ID
	}
	if r.DisplayName.Text != "" {
		p.Name = r.DisplayName.Text
	}
	if r.FormattedAddress != "" {
		p.Address = r.FormattedAddress
	}
	if r.Location.Latitude != 0 || r.Location.Longitude != 0 {
		p.Latitude = r.Location.Latitude
		p.Longitude = r.Location.Longitude
	}
	if r.UserRatingCount != 0 {
		p.ReviewCount = r.UserRatingCount
	}
	if r.NationalPhoneNumber != "" {
		p.Phone = r.NationalPhoneNumber
	}
	if r.WebsiteURI != "" {
		p.Website = r.WebsiteURI
	}
	if r.V1Status != "" {
		p.BusinessStatus = r.V1Status
	}

	return p
}

type searchPayload struct {
	Places []*rawPlace `json:"places"`

	Results      []*rawPlace `json:"results"`
	Status       string      `json:"status"`
	ErrorMessage string      `json:"error_message"`
}

func (s *searchPayload) places() ([]*Place, error) {
	switch {
	case s.Places != nil:
		return normalizeAll(s.Places), nil

	case s.Status != "":
		if s.Status != "OK" && s.Status != "ZERO_RESULTS" {
			return nil, goerr.New("provider reported non-success status",
				goerr.V("status", s.Status),
				goerr.V("error_message", s.ErrorMessage))
		}
		return normalizeAll(s.Results), nil

	case s.Results != nil:
		// Some legacy responses carry results without a status field.
		return normalizeAll(s.Results), nil

	default:
		return nil, goerr.New("response is missing the results collection")
	}
}

type detailPayload struct {
	rawPlace

	Result *rawPlace `json:"result"`
	Status string    `json:"status"`
}

func (d *detailPayload) place(id string) (*Place, error) {
	if d.Status != "" {
		if d.Status != "OK" || d.Result == nil {
			return nil, goerr.New("provider reported non-success detail status",
				goerr.V("status", d.Status))
		}
		p := d.Result.normalize()
		if p.ID == "" {
			p.ID = id
		}
		return p, nil
	}

	p := d.rawPlace.normalize()
	if p.ID == "" {
		p.ID = id
	}
	if p.Name == "" {
		return nil, goerr.New("detail response has no recognizable place fields")
	}
	return p, nil
}

func normalizeAll(raw []*rawPlace) []*Place {
	places := make([]*Place, 0, len(raw))
	for _, r := range raw {
		places = append(places, r.normalize())
	}
	return places
}
