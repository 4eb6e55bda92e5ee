package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/lysyi3m/anp-comb/app/ingest"
)

// Service downloads media assets and stores them on disk, addressing them by
// a generated media id.
type Service struct {
	dir        string
	baseURL    string
	httpClient *http.Client
}

func NewService(dir, baseURL string) *Service {
	return &Service{
		dir:        dir,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// UpdateRenditions downloads the asset at href and rewires the item's
// renditions to the stored copy.
func (s *Service) UpdateRenditions(ctx context.Context, item *ingest.Item, href, username, password string) error {
	data, err := s.download(ctx, href, username, password)
	if err != nil {
		return err
	}

	mime := mimetype.Detect(data)
	mediaID := uuid.NewString() + mime.Extension()

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, mediaID), data, 0o644); err != nil {
		return fmt.Errorf("failed to store media file: %w", err)
	}

	rendition := ingest.Rendition{
		Href:     fmt.Sprintf("%s/media/%s", s.baseURL, mediaID),
		Media:    mediaID,
		Mimetype: mime.String(),
	}

	if item.Renditions == nil {
		item.Renditions = map[string]ingest.Rendition{}
	}
	for _, name := range []string{"original", "baseImage", "viewImage", "thumbnail"} {
		item.Renditions[name] = rendition
	}

	return nil
}

func (s *Service) download(ctx context.Context, href, username, password string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", href, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if username != "" {
		req.SetBasicAuth(username, password)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// Get returns a previously stored media binary.
func (s *Service) Get(mediaID string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, filepath.Base(mediaID)))
	if err != nil {
		return nil, fmt.Errorf("failed to read media file: %w", err)
	}
	return data, nil
}
