package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultLookupURL = "http://ip-api.com/json/?fields=status,message,lat,lon,city,country,timezone"

// Location holds coordinates detected for the running host.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Timezone  string  `json:"timezone"`
}

type lookupResponse struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	City     string  `json:"city"`
	Country  string  `json:"country"`
	Timezone string  `json:"timezone"`
}

// Locator resolves the host's coordinates.
type Locator interface {
	Locate(ctx context.Context) (Location, error)
}

// Fixed returns the same location on every call, for configured
// coordinates.
type Fixed struct {
	Location Location
}

// Locate implements Locator.
func (f Fixed) Locate(_ context.Context) (Location, error) {
	return f.Location, nil
}

// IPLocator detects coordinates from the host's public IP via a free
// lookup service that requires no API key.
type IPLocator struct {
	url    string
	client *http.Client
}

// NewIPLocator constructs an IPLocator. An empty url selects the default
// service; the timeout bounds the whole lookup.
func NewIPLocator(url string, timeout time.Duration) *IPLocator {
	if url == "" {
		url = defaultLookupURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &IPLocator{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

// Locate implements Locator.
func (l *IPLocator) Locate(ctx context.Context) (Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, http.NoBody)
	if err != nil {
		return Location{}, fmt.Errorf("build lookup request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("geolocation service returned status %d", resp.StatusCode)
	}

	var result lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return Location{}, fmt.Errorf("decode geolocation response: %w", err)
	}
	if result.Status != "success" {
		return Location{}, fmt.Errorf("geolocation failed: %s", result.Message)
	}

	return Location{
		Latitude:  result.Lat,
		Longitude: result.Lon,
		City:      result.City,
		Country:   result.Country,
		Timezone:  result.Timezone,
	}, nil
}
