package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/sableworks/calgrab/internal/model"
)

var galleryTmpl = template.Must(template.New("gallery").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>Captured events</title>
<style>
body { font-family: sans-serif; margin: 2rem; background: #fafafa; }
.card { background: #fff; border: 1px solid #ddd; border-radius: 6px; padding: 1rem; margin-bottom: 1rem; max-width: 640px; }
.card img, .card video { max-width: 100%; border-radius: 4px; }
.meta { color: #666; font-size: 0.85rem; }
.platforms { font-weight: 600; }
</style>
</head>
<body>
<h1>Captured events ({{len .}})</h1>
{{range .}}
<div class="card">
  <div class="platforms">{{.Label}}{{if .Platforms}} &mdash; {{.Platforms}}{{end}}</div>
  <div class="meta">#{{.Index}} &middot; {{.Date}} {{.Timestamp}}{{if .IsNew}} &middot; new{{end}}</div>
  {{if .ImageFile}}<img src="{{.ImageFile}}" alt="{{.Label}}">{{end}}
  {{if .VideoFile}}<video src="{{.VideoFile}}" controls></video>{{end}}
  {{if .Description}}<p>{{.Description}}</p>{{end}}
  {{if .EventURL}}<div class="meta"><a href="{{.EventURL}}">open event</a></div>{{end}}
</div>
{{end}}
</body>
</html>
`))

type galleryItem struct {
	Index       int
	Label       string
	Platforms   string
	Date        string
	Timestamp   string
	Description string
	ImageFile   string
	VideoFile   string
	EventURL    string
	IsNew       bool
}

// BuildGallery renders the HTML index referencing the exported asset files
// by their relative paths.
func BuildGallery(records []model.EventRecord) ([]byte, error) {
	items := make([]galleryItem, 0, len(records))
	for i, r := range records {
		item := galleryItem{
			Index:       r.CardIndex,
			Label:       r.Label,
			Platforms:   strings.Join(r.Platforms, ", "),
			Date:        r.Date,
			Timestamp:   r.Timestamp,
			Description: r.Description,
			EventURL:    r.EventURL,
			IsNew:       r.IsNew,
		}
		if r.ImageRef != "" {
			item.ImageFile = "images/" + ImageFilename(r, i+1)
		}
		if r.VideoRef != "" && r.VideoRef != model.VideoUnresolved {
			item.VideoFile = "videos/" + VideoFilename(r, i+1)
		}
		items = append(items, item)
	}

	var buf bytes.Buffer
	if err := galleryTmpl.Execute(&buf, items); err != nil {
		return nil, fmt.Errorf("render gallery: %w", err)
	}
	return buf.Bytes(), nil
}
