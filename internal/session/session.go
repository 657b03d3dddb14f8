// Package session owns the mutable state of one capture session: the records
// from the latest scan pass and the accumulated video resource pool. The
// pipeline components stay stateless; everything they share lives here and is
// passed by handle, never as ambient globals.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sableworks/calgrab/internal/correlate"
	"github.com/sableworks/calgrab/internal/extract"
	"github.com/sableworks/calgrab/internal/metrics"
	"github.com/sableworks/calgrab/internal/model"
	"github.com/sableworks/calgrab/internal/page"
)

// Announcer publishes session lifecycle events. Optional: a nil announcer
// disables publishing.
type Announcer interface {
	Publish(subject string, data any) error
}

// SubjectScanCompleted is the announcement subject for finished scan passes.
const SubjectScanCompleted = "calgrab.scan.completed"

// Session holds one popup session's worth of state. Scan passes are strictly
// serialized: the session mutex is held for a whole pass, so no concurrent
// extraction runs against the same page and the correlator's assignments are
// never partially visible.
type Session struct {
	targetHost string
	extractor  *extract.Extractor
	correlator *correlate.Correlator
	announcer  Announcer
	logger     *slog.Logger

	mu         sync.Mutex
	records    []model.EventRecord
	pool       []*model.VideoResource
	poolByURL  map[string]*model.VideoResource
	lastScanID uuid.UUID
	lastScanAt time.Time
	scanCount  int
}

// ScanResult summarizes one completed pass.
type ScanResult struct {
	ScanID         uuid.UUID `json:"scan_id"`
	Records        int       `json:"records"`
	VideosResolved int       `json:"videos_resolved"`
}

func New(targetHost string, ext *extract.Extractor, announcer Announcer, logger *slog.Logger) *Session {
	return &Session{
		targetHost: targetHost,
		extractor:  ext,
		correlator: correlate.New(logger),
		announcer:  announcer,
		logger:     logger,
		poolByURL:  make(map[string]*model.VideoResource),
	}
}

// Scan runs one full extraction pass against p and replaces the session's
// record list with the result. Aborts only on a wrong-site precondition or a
// page-access failure; partial or empty extraction data is a success.
func (s *Session) Scan(ctx context.Context, p page.Page) (ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := page.CheckHost(p.URL(), s.targetHost); err != nil {
		metrics.ScansTotal.WithLabelValues("wrong_site").Inc()
		return ScanResult{}, err
	}

	records, err := s.extractor.Scan(ctx, p)
	if err != nil {
		metrics.ScansTotal.WithLabelValues("page_error").Inc()
		return ScanResult{}, fmt.Errorf("scan: %w", err)
	}

	resolved := s.correlator.Assign(records, s.pool)

	s.records = records
	s.lastScanID = uuid.New()
	s.lastScanAt = time.Now().UTC()
	s.scanCount++

	metrics.ScansTotal.WithLabelValues("ok").Inc()
	metrics.RecordsExtracted.Add(float64(len(records)))
	metrics.VideosCorrelated.Add(float64(resolved))

	result := ScanResult{
		ScanID:         s.lastScanID,
		Records:        len(records),
		VideosResolved: resolved,
	}

	s.logger.Info("scan completed",
		"scan_id", result.ScanID,
		"records", result.Records,
		"videos_resolved", result.VideosResolved,
	)

	if s.announcer != nil {
		if err := s.announcer.Publish(SubjectScanCompleted, result); err != nil {
			s.logger.Warn("failed to announce scan", "error", err)
		}
	}

	return result, nil
}

// AddVideo registers a discovered video resource into the session pool.
// The pool is append-only and deduplicated by URL; a later sighting of a
// known URL may only fill in a missing duration. Returns true when the URL
// was new.
func (s *Session) AddVideo(url string, durationSeconds float64) bool {
	if url == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.poolByURL[url]; ok {
		if !existing.HasDuration() && durationSeconds > 0 {
			existing.DurationSeconds = durationSeconds
		}
		return false
	}

	res := &model.VideoResource{
		URL:             url,
		CaptureOrder:    len(s.pool),
		DurationSeconds: durationSeconds,
	}
	s.pool = append(s.pool, res)
	s.poolByURL[url] = res
	metrics.VideoPoolSize.Set(float64(len(s.pool)))
	return true
}

// Records returns a copy of the latest scan's records.
func (s *Session) Records() []model.EventRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.EventRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Status describes the session for the status endpoint.
type Status struct {
	Scans      int       `json:"scans"`
	Records    int       `json:"records"`
	PoolSize   int       `json:"pool_size"`
	LastScanID string    `json:"last_scan_id,omitempty"`
	LastScanAt time.Time `json:"last_scan_at,omitzero"`
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		Scans:      s.scanCount,
		Records:    len(s.records),
		PoolSize:   len(s.pool),
		LastScanAt: s.lastScanAt,
	}
	if s.lastScanID != uuid.Nil {
		st.LastScanID = s.lastScanID.String()
	}
	return st
}
