package newsapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/lysyi3m/anp-comb/app/cfg"
	"github.com/lysyi3m/anp-comb/app/ingest"
)

func setupTestConfig() {
	// Clear os.Args to prevent config parsing from failing
	oldArgs := os.Args
	os.Args = []string{"test"}
	defer func() { os.Args = oldArgs }()

	cfg.Load()
}

func testProvider(url string) *ingest.Config {
	return &ingest.Config{
		Name:           "anp",
		FeedingService: Name,
		URL:            url,
		Username:       "fake@anp.nl",
		Password:       "fakepswd",
		SourceTitles:   "ANP 101, AFN, AFP EN (Editorial)",
		AllowedKinds:   []string{"TEXTARTICLE"},
		Settings:       ingest.ConfigSettings{Enabled: true, Timeout: 5},
	}
}

func TestClientSources(t *testing.T) {
	setupTestConfig()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/services/sources" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		username, password, ok := r.BasicAuth()
		if !ok || username != "fake@anp.nl" || password != "fakepswd" {
			t.Errorf("Expected basic auth credentials, got: %s/%s", username, password)
		}
		w.Write([]byte(`{"hasError": false, "data": [{"id": "s1", "title": "AFN"}, {"id": "s2", "title": "Other"}]}`))
	}))
	defer server.Close()

	client := NewClient(testProvider(server.URL))
	sources, err := client.Sources(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(sources) != 2 {
		t.Fatalf("Expected 2 sources, got: %d", len(sources))
	}
	if sources[0].ID != "s1" || sources[0].Title != "AFN" {
		t.Errorf("Unexpected first source: %+v", sources[0])
	}
}

func TestClientVendorError(t *testing.T) {
	setupTestConfig()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"hasError": true, "data": {"errorCode": "401.2", "description": "Invalid api key"}}`))
	}))
	defer server.Close()

	client := NewClient(testProvider(server.URL))
	_, err := client.Sources(context.Background())
	if err == nil {
		t.Fatal("Expected vendor error, got nil")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected *APIError, got: %T (%v)", err, err)
	}
	if apiErr.Code != "401.2" {
		t.Errorf("Expected error code '401.2', got: %s", apiErr.Code)
	}
	if apiErr.Description != "Invalid api key" {
		t.Errorf("Expected description 'Invalid api key', got: %s", apiErr.Description)
	}
}

func TestClientHTTPError(t *testing.T) {
	setupTestConfig()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testProvider(server.URL))
	if _, err := client.Sources(context.Background()); err == nil {
		t.Fatal("Expected error for HTTP 502, got nil")
	}
}

func TestClientItemsReversesVendorOrder(t *testing.T) {
	setupTestConfig()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("toItem"); got != "i1" {
			t.Errorf("Expected toItem 'i1', got: %s", got)
		}
		// vendor lists newest first
		w.Write([]byte(`{"hasError": false, "data": {"items": [
			{"id": "i4", "kind": "TEXTARTICLE"},
			{"id": "i3", "kind": "PICTURE"},
			{"id": "i2", "kind": "TEXTARTICLE"}
		]}}`))
	}))
	defer server.Close()

	client := NewClient(testProvider(server.URL))
	refs, err := client.Items(context.Background(), "s1", "i1")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if len(refs) != 3 {
		t.Fatalf("Expected 3 refs, got: %d", len(refs))
	}
	if refs[0].ID != "i2" || refs[1].ID != "i3" || refs[2].ID != "i4" {
		t.Errorf("Expected oldest-to-newest order i2,i3,i4, got: %s,%s,%s", refs[0].ID, refs[1].ID, refs[2].ID)
	}
}

func TestClientItemsOmitsBoundOnFirstRun(t *testing.T) {
	setupTestConfig()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("toItem") {
			t.Error("Expected no toItem parameter on first run")
		}
		w.Write([]byte(`{"hasError": false, "data": {"items": []}}`))
	}))
	defer server.Close()

	client := NewClient(testProvider(server.URL))
	refs, err := client.Items(context.Background(), "s1", "")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("Expected empty listing, got: %d refs", len(refs))
	}
}
