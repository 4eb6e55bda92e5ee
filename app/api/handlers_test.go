package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/lysyi3m/anp-comb/app/formatter"
	"github.com/lysyi3m/anp-comb/app/ingest"
	"github.com/lysyi3m/anp-comb/app/search"
	"github.com/lysyi3m/anp-comb/app/validate"
)

type passingRule struct{}

func (passingRule) Validate(item *ingest.Item) ([]string, error) {
	return nil, nil
}

type blockingRule struct{}

func (blockingRule) Validate(item *ingest.Item) ([]string, error) {
	return []string{"The card cannot be published."}, nil
}

var registerTestFormatter sync.Once

func testServer(t *testing.T, bus *validate.Bus) http.Handler {
	t.Helper()

	registerTestFormatter.Do(func() {
		formatter.RegisterFormatter(formatter.NewNINJSFormatter())
	})

	handler := NewHandler(ingest.NewConfigCache(t.TempDir()), nil, nil, nil, bus, nil)
	return NewServer(handler, "test-key")
}

func TestAPIRequiresKey(t *testing.T) {
	server := testServer(t, validate.NewBus())

	req := httptest.NewRequest("POST", "/api/validate", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without API key, got: %d", w.Code)
	}
}

func TestAPIAcceptsBearerToken(t *testing.T) {
	server := testServer(t, validate.NewBus())

	req := httptest.NewRequest("POST", "/api/validate", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer test-key")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 with bearer token, got: %d", w.Code)
	}
}

func TestAPIValidatePublishable(t *testing.T) {
	bus := validate.NewBus()
	bus.Connect(passingRule{})
	server := testServer(t, bus)

	req := httptest.NewRequest("POST", "/api/validate", strings.NewReader(`{"GUID": "item-1"}`))
	req.Header.Set("X-API-Key", "test-key")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	var response struct {
		Publishable bool     `json:"publishable"`
		Errors      []string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Expected valid JSON, got: %v", err)
	}
	if !response.Publishable {
		t.Error("Expected item to be publishable")
	}
}

func TestAPIValidateBlocked(t *testing.T) {
	bus := validate.NewBus()
	bus.Connect(blockingRule{})
	server := testServer(t, bus)

	req := httptest.NewRequest("POST", "/api/validate", strings.NewReader(`{"GUID": "item-1"}`))
	req.Header.Set("X-API-Key", "test-key")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	var response struct {
		Publishable bool     `json:"publishable"`
		Errors      []string `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Expected valid JSON, got: %v", err)
	}
	if response.Publishable {
		t.Error("Expected item to be blocked")
	}
	if len(response.Errors) != 1 {
		t.Errorf("Expected 1 blocking message, got: %d", len(response.Errors))
	}
}

type fakeSearchProvider struct {
	item *ingest.Item
	file []byte
}

func (p *fakeSearchProvider) Find(ctx context.Context, query search.Query, params map[string]string) (*search.Cursor, error) {
	return &search.Cursor{Items: []ingest.Item{*p.item}, Total: 1}, nil
}

func (p *fakeSearchProvider) Fetch(ctx context.Context, guid string) (*ingest.Item, error) {
	return p.item, nil
}

func (p *fakeSearchProvider) FetchFile(ctx context.Context, href string, rendition ingest.Rendition, item *ingest.Item) ([]byte, error) {
	return p.file, nil
}

var registerFakeSearchProvider sync.Once

func setupFakeSearchProvider() *fakeSearchProvider {
	provider := &fakeSearchProvider{
		item: &ingest.Item{
			GUID: "urn:test:1",
			Type: ingest.ItemTypePicture,
			Renditions: map[string]ingest.Rendition{
				"original": {Href: "https://example.com/1.jpg", Mimetype: "image/jpeg"},
			},
		},
		file: []byte("jpeg-bytes"),
	}
	registerFakeSearchProvider.Do(func() {
		search.RegisterProvider("test_search", provider)
	})
	return provider
}

func TestAPISearchFetchFile(t *testing.T) {
	setupFakeSearchProvider()
	server := testServer(t, validate.NewBus())

	req := httptest.NewRequest("GET", "/api/search/test_search/items/urn:test:1/file", nil)
	req.Header.Set("X-API-Key", "test-key")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}
	if got := w.Header().Get("Content-Type"); got != "image/jpeg" {
		t.Errorf("Expected image/jpeg content type, got: %s", got)
	}
	if !bytes.Equal(w.Body.Bytes(), []byte("jpeg-bytes")) {
		t.Errorf("Expected rendition bytes, got: %q", w.Body.String())
	}
}

func TestAPISearchFetchFileUnknownRendition(t *testing.T) {
	setupFakeSearchProvider()
	server := testServer(t, validate.NewBus())

	req := httptest.NewRequest("GET", "/api/search/test_search/items/urn:test:1/file?rendition=poster", nil)
	req.Header.Set("X-API-Key", "test-key")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown rendition, got: %d", w.Code)
	}
}

func TestUnknownSearchProvider(t *testing.T) {
	server := testServer(t, validate.NewBus())

	req := httptest.NewRequest("GET", "/api/search/nope", nil)
	req.Header.Set("X-API-Key", "test-key")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown search provider, got: %d", w.Code)
	}
}

func TestAPISearchUnknownFormat(t *testing.T) {
	setupFakeSearchProvider()
	server := testServer(t, validate.NewBus())

	req := httptest.NewRequest("GET", "/api/search/test_search?format=nitf", nil)
	req.Header.Set("X-API-Key", "test-key")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an unknown format type, got: %d", w.Code)
	}
}

func TestAPISearchDefaultFormat(t *testing.T) {
	provider := setupFakeSearchProvider()
	server := testServer(t, validate.NewBus())

	req := httptest.NewRequest("GET", "/api/search/test_search", nil)
	req.Header.Set("X-API-Key", "test-key")
	w := httptest.NewRecorder()
	server.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got: %d", w.Code)
	}

	var response struct {
		Items []map[string]interface{} `json:"_items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Expected valid JSON, got: %v", err)
	}
	if len(response.Items) != 1 {
		t.Fatalf("Expected 1 item, got: %d", len(response.Items))
	}
	if response.Items[0]["guid"] != provider.item.GUID {
		t.Errorf("Expected guid %s, got: %v", provider.item.GUID, response.Items[0]["guid"])
	}
}
