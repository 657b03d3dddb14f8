// Package export turns a scan's records into downloadable files: one asset
// per media reference, an HTML gallery index, and a CSV. Individual save
// failures are reported per item and never abort the remaining exports.
package export

import (
	"context"
	"log/slog"

	"github.com/sableworks/calgrab/internal/metrics"
	"github.com/sableworks/calgrab/internal/model"
)

// ItemFailure records one failed save.
type ItemFailure struct {
	Dest  string `json:"dest"`
	Error string `json:"error"`
}

// Result summarizes an export batch.
type Result struct {
	Saved    int           `json:"saved"`
	Failures []ItemFailure `json:"failures,omitempty"`
}

type Exporter struct {
	saver  Saver
	logger *slog.Logger
}

func New(saver Saver, logger *slog.Logger) *Exporter {
	return &Exporter{saver: saver, logger: logger}
}

// Export saves every record's assets plus the gallery index and the CSV.
func (e *Exporter) Export(ctx context.Context, records []model.EventRecord) Result {
	var res Result

	for i, r := range records {
		if r.ImageRef != "" {
			dest := "images/" + ImageFilename(r, i+1)
			e.save(ctx, &res, dest, r.ImageRef)
		}
		if r.VideoRef != "" && r.VideoRef != model.VideoUnresolved {
			dest := "videos/" + VideoFilename(r, i+1)
			e.save(ctx, &res, dest, r.VideoRef)
		}
	}

	if gallery, err := BuildGallery(records); err != nil {
		e.fail(&res, "index.html", err)
	} else if err := e.saver.SaveBytes(ctx, "index.html", gallery); err != nil {
		e.fail(&res, "index.html", err)
	} else {
		res.Saved++
	}

	if csvData, err := BuildCSV(records); err != nil {
		e.fail(&res, "events.csv", err)
	} else if err := e.saver.SaveBytes(ctx, "events.csv", csvData); err != nil {
		e.fail(&res, "events.csv", err)
	} else {
		res.Saved++
	}

	e.logger.Info("export finished", "saved", res.Saved, "failures", len(res.Failures))
	return res
}

func (e *Exporter) save(ctx context.Context, res *Result, dest, srcURL string) {
	if err := e.saver.SaveURL(ctx, dest, srcURL); err != nil {
		e.fail(res, dest, err)
		return
	}
	res.Saved++
}

func (e *Exporter) fail(res *Result, dest string, err error) {
	e.logger.Warn("export item failed", "dest", dest, "error", err)
	metrics.ExportFailures.Inc()
	res.Failures = append(res.Failures, ItemFailure{Dest: dest, Error: err.Error()})
}
