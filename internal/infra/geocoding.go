package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"
	geocodeCacheTTL  = 24 * time.Hour
)

// Direccion is the reverse-geocoded address of a point. The zero value means
// "nothing found" and callers keep showing raw coordinates.
type Direccion struct {
	FormattedAddress string `json:"formatted_address"`
	Street           string `json:"street,omitempty"`
	StreetNumber     string `json:"street_number,omitempty"`
	Neighborhood     string `json:"neighborhood,omitempty"`
	Locality         string `json:"locality,omitempty"`
	Province         string `json:"province,omitempty"`
	PostalCode       string `json:"postal_code,omitempty"`
	PlusCode         string `json:"plus_code,omitempty"`
	MapURL           string `json:"map_url,omitempty"`
}

func (d Direccion) Vacia() bool { return d.FormattedAddress == "" }

type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
	PlusCode struct {
		GlobalCode string `json:"global_code"`
	} `json:"plus_code"`
}

// GeocodingClient resolves coordinates to an address through the Google
// Geocoding API. Results are cached in Redis and calls go through a circuit
// breaker so an outage fails fast.
type GeocodingClient struct {
	apiKey     string
	language   string
	baseURL    string
	httpClient *http.Client
	cb         *Breaker
	rdb        *redis.Client // optional
}

func NewGeocodingClient(apiKey, language string, rdb *redis.Client) *GeocodingClient {
	return &GeocodingClient{
		apiKey:     apiKey,
		language:   language,
		baseURL:    googleGeocodeURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		cb:         newGeocodingBreaker(),
		rdb:        rdb,
	}
}

func newGeocodingBreaker() *Breaker {
	b := NewBreaker(5, 30*time.Second)
	b.onChange = func(from, to BreakerState) {
		geocodingBreakerState.Set(float64(to))
		log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("geocoding: circuit breaker")
	}
	return b
}

// WithBaseURL points the client at another endpoint (tests).
func (c *GeocodingClient) WithBaseURL(u string) *GeocodingClient {
	c.baseURL = u
	return c
}

// Reverse resolves lat/lng to an address. Without an API key, or when Google
// answers ZERO_RESULTS, it returns an empty Direccion and a nil error. Transport
// errors, non-OK statuses and an open breaker are returned as errors so the
// caller can retry later.
func (c *GeocodingClient) Reverse(ctx context.Context, lat, lng float64) (Direccion, error) {
	if c.apiKey == "" {
		return Direccion{}, nil
	}

	cacheKey := fmt.Sprintf("geocode:%.5f,%.5f", lat, lng)
	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, cacheKey).Bytes(); err == nil {
			var d Direccion
			if json.Unmarshal(raw, &d) == nil {
				geocodingLookups.WithLabelValues("cache").Inc()
				return d, nil
			}
		}
	}

	var d Direccion
	err := c.cb.Do(func() error {
		var err error
		d, err = c.fetch(ctx, lat, lng)
		return err
	})
	switch {
	case errors.Is(err, ErrCircuitOpen):
		geocodingLookups.WithLabelValues("rejected").Inc()
		return Direccion{}, err
	case err != nil:
		geocodingLookups.WithLabelValues("error").Inc()
		log.Warn().Err(err).Float64("lat", lat).Float64("lng", lng).Msg("geocoding: lookup failed")
		return Direccion{}, err
	case d.Vacia():
		geocodingLookups.WithLabelValues("empty").Inc()
	default:
		geocodingLookups.WithLabelValues("ok").Inc()
	}

	if c.rdb != nil && !d.Vacia() {
		if raw, err := json.Marshal(d); err == nil {
			_ = c.rdb.Set(ctx, cacheKey, raw, geocodeCacheTTL).Err()
		}
	}
	return d, nil
}

func (c *GeocodingClient) fetch(ctx context.Context, lat, lng float64) (Direccion, error) {
	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("key", c.apiKey)
	q.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Direccion{}, fmt.Errorf("geocoding: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Direccion{}, fmt.Errorf("geocoding: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Direccion{}, fmt.Errorf("geocoding: returned %d", resp.StatusCode)
	}

	var body googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Direccion{}, fmt.Errorf("geocoding: decode response: %w", err)
	}
	switch body.Status {
	case "OK":
	case "ZERO_RESULTS":
		// A valid answer; does not count against the breaker
		return Direccion{}, nil
	default:
		return Direccion{}, fmt.Errorf("geocoding: status %s", body.Status)
	}
	if len(body.Results) == 0 {
		return Direccion{}, nil
	}

	res := body.Results[0]
	comps := map[string]string{}
	for _, comp := range res.AddressComponents {
		for _, t := range comp.Types {
			comps[t] = comp.LongName
		}
	}
	barrio := comps["neighborhood"]
	if barrio == "" {
		barrio = comps["sublocality"]
	}

	return Direccion{
		FormattedAddress: res.FormattedAddress,
		Street:           comps["route"],
		StreetNumber:     comps["street_number"],
		Neighborhood:     barrio,
		Locality:         comps["locality"],
		Province:         comps["administrative_area_level_1"],
		PostalCode:       comps["postal_code"],
		PlusCode:         body.PlusCode.GlobalCode,
		MapURL:           fmt.Sprintf("https://maps.google.com/?q=%f,%f", lat, lng),
	}, nil
}
