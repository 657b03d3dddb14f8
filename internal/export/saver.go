package export

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sableworks/calgrab/internal/model"
)

// Saver is the narrow file-save boundary: a destination path plus either
// literal bytes or a source URL to pull. Everything else about the download
// mechanism is someone else's problem.
type Saver interface {
	SaveBytes(ctx context.Context, dest string, data []byte) error
	SaveURL(ctx context.Context, dest, srcURL string) error
}

// DiskSaver writes export files under a root directory, fetching URL sources
// over HTTP.
type DiskSaver struct {
	root   string
	client *http.Client
}

func NewDiskSaver(root string) *DiskSaver {
	return &DiskSaver{
		root:   root,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

func (d *DiskSaver) SaveBytes(ctx context.Context, dest string, data []byte) error {
	full := filepath.Join(d.root, filepath.FromSlash(dest))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}

func (d *DiskSaver) SaveURL(ctx context.Context, dest, srcURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srcURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", srcURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch %s: unexpected status %d", srcURL, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", srcURL, err)
	}
	return d.SaveBytes(ctx, dest, data)
}

var unsafeFilename = regexp.MustCompile(`[^a-z0-9]+`)

// AssetFilename derives a deterministic filename from a record's label, a
// zero-padded sequence number and the source URL's extension. Unknown
// extensions default to jpg for images and mp4 for videos.
func AssetFilename(label string, seq int, srcURL, defaultExt string) string {
	name := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(label), "_"), "_")
	if name == "" {
		name = "item"
	}

	ext := defaultExt
	if u, err := url.Parse(srcURL); err == nil {
		if e := strings.TrimPrefix(path.Ext(u.Path), "."); e != "" && len(e) <= 4 {
			ext = strings.ToLower(e)
		}
	}
	return fmt.Sprintf("%s_%03d.%s", name, seq, ext)
}

// ImageFilename names an image asset for a record.
func ImageFilename(r model.EventRecord, seq int) string {
	return AssetFilename(r.Label, seq, r.ImageRef, "jpg")
}

// VideoFilename names a video asset for a record.
func VideoFilename(r model.EventRecord, seq int) string {
	return AssetFilename(r.Label, seq, r.VideoRef, "mp4")
}
