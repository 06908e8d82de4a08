//go:build integration

package integration

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/mihrab-app/mihrab/internal/geo"
	"github.com/mihrab-app/mihrab/internal/provider"
)

// TestIntegrationLiveEndpoints exercises the timings client and the IP
// locator against their real upstream services.
//
// Prerequisites:
//   - outbound internet access
//
// Run with: go test -tags=integration -v ./test/integration/...
func TestIntegrationLiveEndpoints(t *testing.T) {
	timingsBaseURL := getEnv("TEST_TIMINGS_BASE_URL", "https://api.aladhan.com/v1")
	geoURL := getEnv("TEST_GEO_URL", "http://ip-api.com/json/")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := checkEndpoint(ctx, geoURL); err != nil {
		t.Skipf("geolocation endpoint not reachable: %v", err)
	}

	var located geo.Location
	t.Run("Geolocate", func(t *testing.T) {
		locator := geo.NewIPLocator(geoURL, 10*time.Second)
		loc, err := locator.Locate(context.Background())
		if err != nil {
			t.Fatalf("locate: %v", err)
		}
		if loc.Latitude == 0 && loc.Longitude == 0 {
			t.Fatal("expected non-zero coordinates")
		}
		t.Logf("Located %s, %s (%.4f, %.4f)", loc.City, loc.Country, loc.Latitude, loc.Longitude)
		located = loc
	})

	t.Run("FetchTimings", func(t *testing.T) {
		if located.Latitude == 0 && located.Longitude == 0 {
			t.Skip("no location from previous subtest")
		}
		client := provider.NewClient(10*time.Second, provider.WithBaseURL(timingsBaseURL))
		set, err := client.FetchTimings(context.Background(), located.Latitude, located.Longitude)
		if err != nil {
			t.Fatalf("fetch timings: %v", err)
		}
		if err := set.Validate(); err != nil {
			t.Fatalf("returned set invalid: %v", err)
		}
		t.Logf("Fetched timings: Fajr %s, Isha %s", set["Fajr"], set["Isha"])
	})
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func checkEndpoint(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return nil
}
