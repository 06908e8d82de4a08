package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFixed(t *testing.T) {
	want := Location{Latitude: 51.5, Longitude: -0.12, City: "London"}
	got, err := Fixed{Location: want}.Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if got != want {
		t.Fatalf("Locate = %+v, want %+v", got, want)
	}
}

func TestIPLocator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"status": "success",
			"lat": 51.5074,
			"lon": -0.1278,
			"city": "London",
			"country": "United Kingdom",
			"timezone": "Europe/London"
		}`))
	}))
	defer srv.Close()

	loc, err := NewIPLocator(srv.URL, time.Second).Locate(context.Background())
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if loc.Latitude != 51.5074 || loc.Longitude != -0.1278 {
		t.Fatalf("coordinates = %v, %v", loc.Latitude, loc.Longitude)
	}
	if loc.City != "London" || loc.Timezone != "Europe/London" {
		t.Fatalf("metadata mismatch: %+v", loc)
	}
}

func TestIPLocator_ServiceFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "fail", "message": "private range"}`))
	}))
	defer srv.Close()

	if _, err := NewIPLocator(srv.URL, time.Second).Locate(context.Background()); err == nil {
		t.Fatalf("expected error for lookup failure status")
	}
}

func TestIPLocator_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	if _, err := NewIPLocator(srv.URL, time.Second).Locate(context.Background()); err == nil {
		t.Fatalf("expected error for HTTP 500")
	}
}

func TestIPLocator_RespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := NewIPLocator(srv.URL, time.Second).Locate(ctx); err == nil {
		t.Fatalf("expected error for cancelled context")
	}
}
