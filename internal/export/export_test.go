package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/sableworks/calgrab/internal/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBuildCSV_QuoteRoundTrip(t *testing.T) {
	records := []model.EventRecord{{
		CardIndex:   1,
		Label:       `Acme "Spring" Sale`,
		Platforms:   []string{"Facebook", "Instagram"},
		Timestamp:   "9:00am",
		Description: "line one\nline two",
		HasVideo:    false,
	}}

	data, err := BuildCSV(records)
	if err != nil {
		t.Fatalf("BuildCSV: %v", err)
	}
	if !bytes.Contains(data, []byte(`"Acme ""Spring"" Sale"`)) {
		t.Errorf("quotes not doubled in output:\n%s", data)
	}

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("re-parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}
	if rows[1][1] != `Acme "Spring" Sale` {
		t.Errorf("label round-trip = %q", rows[1][1])
	}
	if rows[1][4] != "line one line two" {
		t.Errorf("description = %q, want newlines collapsed", rows[1][4])
	}
	if rows[1][2] != "Facebook, Instagram" {
		t.Errorf("platforms = %q", rows[1][2])
	}
}

func TestBuildCSV_ColumnOrder(t *testing.T) {
	data, err := BuildCSV(nil)
	if err != nil {
		t.Fatalf("BuildCSV: %v", err)
	}
	header := strings.TrimSpace(string(data))
	want := "Index,Label,Platforms,Timestamp,Description,Image URL,Video URL,Event URL,Has Video"
	if header != want {
		t.Errorf("header = %q, want %q", header, want)
	}
}

func TestAssetFilename(t *testing.T) {
	tests := []struct {
		name       string
		label      string
		seq        int
		url        string
		defaultExt string
		want       string
	}{
		{"extension from url", "Acme Fitness", 3, "https://cdn.example.com/a/b/clip.webm", "mp4", "acme_fitness_003.webm"},
		{"default extension", "Acme Fitness", 12, "https://cdn.example.com/stream?id=9", "mp4", "acme_fitness_012.mp4"},
		{"image default", "Glow & Co.", 1, "", "jpg", "glow_co_001.jpg"},
		{"empty label", "", 7, "", "jpg", "item_007.jpg"},
		{"query string ignored", "X", 1, "https://cdn.example.com/p.png?w=200", "jpg", "x_001.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssetFilename(tt.label, tt.seq, tt.url, tt.defaultExt)
			if got != tt.want {
				t.Errorf("AssetFilename = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildGallery(t *testing.T) {
	records := []model.EventRecord{
		{
			CardIndex: 1,
			Label:     "Acme Fitness",
			Platforms: []string{"Facebook"},
			ImageRef:  "https://cdn.example.com/a.png",
		},
		{
			CardIndex: 2,
			Label:     "Clips",
			HasVideo:  true,
			VideoRef:  model.VideoUnresolved,
		},
	}

	out, err := BuildGallery(records)
	if err != nil {
		t.Fatalf("BuildGallery: %v", err)
	}
	html := string(out)

	if !strings.Contains(html, "images/acme_fitness_001.png") {
		t.Errorf("gallery missing image reference:\n%s", html)
	}
	if strings.Contains(html, "videos/") {
		t.Error("gallery must not reference unresolved video assets")
	}
	if !strings.Contains(html, "Acme Fitness") {
		t.Error("gallery missing label")
	}
}

// memSaver collects saves in memory and fails on demand.
type memSaver struct {
	files   map[string][]byte
	failOn  string
	fetched []string
}

func newMemSaver() *memSaver { return &memSaver{files: make(map[string][]byte)} }

func (m *memSaver) SaveBytes(_ context.Context, dest string, data []byte) error {
	if dest == m.failOn {
		return errors.New("disk full")
	}
	m.files[dest] = data
	return nil
}

func (m *memSaver) SaveURL(_ context.Context, dest, srcURL string) error {
	if dest == m.failOn {
		return errors.New("fetch refused")
	}
	m.fetched = append(m.fetched, srcURL)
	m.files[dest] = []byte(srcURL)
	return nil
}

func TestExport_SavesAssetsIndexAndCSV(t *testing.T) {
	saver := newMemSaver()
	records := []model.EventRecord{
		{CardIndex: 1, Label: "Acme", ImageRef: "https://cdn.example.com/a.jpg"},
		{CardIndex: 2, Label: "Clips", HasVideo: true, VideoRef: "https://cdn.example.com/v.mp4"},
	}

	res := New(saver, testLogger()).Export(context.Background(), records)

	if len(res.Failures) != 0 {
		t.Fatalf("failures = %v", res.Failures)
	}
	if res.Saved != 4 {
		t.Errorf("saved = %d, want 4 (image, video, index, csv)", res.Saved)
	}
	for _, dest := range []string{"images/acme_001.jpg", "videos/clips_002.mp4", "index.html", "events.csv"} {
		if _, ok := saver.files[dest]; !ok {
			t.Errorf("missing export file %q (have %v)", dest, keys(saver.files))
		}
	}
}

func TestExport_ItemFailureDoesNotAbortBatch(t *testing.T) {
	saver := newMemSaver()
	saver.failOn = "images/acme_001.jpg"
	records := []model.EventRecord{
		{CardIndex: 1, Label: "Acme", ImageRef: "https://cdn.example.com/a.jpg"},
		{CardIndex: 2, Label: "Beta", ImageRef: "https://cdn.example.com/b.jpg"},
	}

	res := New(saver, testLogger()).Export(context.Background(), records)

	if len(res.Failures) != 1 || res.Failures[0].Dest != "images/acme_001.jpg" {
		t.Fatalf("failures = %v, want single image failure", res.Failures)
	}
	if _, ok := saver.files["images/beta_002.jpg"]; !ok {
		t.Error("second image should still be saved after first failed")
	}
	if _, ok := saver.files["events.csv"]; !ok {
		t.Error("csv should still be saved after item failure")
	}
}

func TestExport_SkipsUnresolvedVideos(t *testing.T) {
	saver := newMemSaver()
	records := []model.EventRecord{
		{CardIndex: 1, Label: "Clips", HasVideo: true, VideoRef: model.VideoUnresolved},
	}

	New(saver, testLogger()).Export(context.Background(), records)

	for dest := range saver.files {
		if strings.HasPrefix(dest, "videos/") {
			t.Errorf("unresolved video was exported as %q", dest)
		}
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
