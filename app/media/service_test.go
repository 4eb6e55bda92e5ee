package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lysyi3m/anp-comb/app/ingest"
)

// minimal valid PNG header
var pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestUpdateRenditions(t *testing.T) {
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		w.Write(pngData)
	}))
	defer server.Close()

	service := NewService(t.TempDir(), "http://localhost:8080/")

	item := &ingest.Item{GUID: "pic-1", Type: ingest.ItemTypePicture}
	err := service.UpdateRenditions(context.Background(), item, server.URL+"/asset.png", "user", "secret")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if authHeader == "" {
		t.Error("Expected basic auth to be sent")
	}

	original := item.Renditions["original"]
	if original.Media == "" {
		t.Fatal("Expected a media id on the original rendition")
	}
	if original.Mimetype != "image/png" {
		t.Errorf("Expected mimetype 'image/png', got: %s", original.Mimetype)
	}
	if !strings.HasPrefix(original.Href, "http://localhost:8080/media/") {
		t.Errorf("Expected a local media href, got: %s", original.Href)
	}
	if !strings.HasSuffix(original.Media, ".png") {
		t.Errorf("Expected a .png extension on the media id, got: %s", original.Media)
	}

	for _, name := range []string{"baseImage", "viewImage", "thumbnail"} {
		if item.Renditions[name] != original {
			t.Errorf("Expected %s to match the original rendition", name)
		}
	}

	stored, err := service.Get(original.Media)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(stored) != string(pngData) {
		t.Error("Expected stored file to match downloaded data")
	}
}

func TestUpdateRenditionsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	service := NewService(t.TempDir(), "http://localhost:8080")

	item := &ingest.Item{}
	err := service.UpdateRenditions(context.Background(), item, server.URL+"/missing", "", "")
	if err == nil {
		t.Fatal("Expected an error for a missing asset")
	}
	if len(item.Renditions) != 0 {
		t.Error("Expected no renditions on failure")
	}
}

func TestGetRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	service := NewService(dir, "http://localhost:8080")

	_, err := service.Get("../../etc/passwd")
	if err == nil {
		t.Error("Expected an error for a traversal path")
	}
}
