package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sableworks/calgrab/internal/export"
	"github.com/sableworks/calgrab/internal/page"
	"github.com/sableworks/calgrab/internal/session"
)

type Server struct {
	router   *chi.Mux
	port     int
	sess     *session.Session
	exporter *export.Exporter
	settle   time.Duration
}

func NewServer(port int, sess *session.Session, exporter *export.Exporter, settle time.Duration) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		sess:     sess,
		exporter: exporter,
		settle:   settle,
	}

	router.Get("/health", s.health)
	router.Get("/metrics", promhttp.Handler().ServeHTTP)
	router.Get("/api/v1/status", s.status)
	router.Get("/api/v1/records", s.records)
	router.Post("/api/v1/scan", s.scan)
	router.Post("/api/v1/videos", s.videos)
	router.Post("/api/v1/export", s.runExport)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Status())
}

func (s *Server) records(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sess.Records())
}

type scanRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html,omitempty"` // captured markup; skips the fetch when present
}

func (s *Server) scan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse request: %w", err))
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, errors.New("url is required"))
		return
	}

	var p page.Page
	if req.HTML != "" {
		p = page.NewStatic(req.URL, req.HTML)
	} else {
		p = page.NewHTTP(req.URL, nil, s.settle)
	}

	result, err := s.sess.Scan(r.Context(), p)
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, page.ErrWrongSite) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type videosRequest struct {
	Videos []struct {
		URL             string  `json:"url"`
		DurationSeconds float64 `json:"duration_seconds,omitempty"`
	} `json:"videos"`
}

func (s *Server) videos(w http.ResponseWriter, r *http.Request) {
	var req videosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse request: %w", err))
		return
	}

	added := 0
	for _, v := range req.Videos {
		if s.sess.AddVideo(v.URL, v.DurationSeconds) {
			added++
		}
	}
	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

func (s *Server) runExport(w http.ResponseWriter, r *http.Request) {
	records := s.sess.Records()
	if len(records) == 0 {
		writeError(w, http.StatusConflict, errors.New("nothing to export: run a scan first"))
		return
	}
	writeJSON(w, http.StatusOK, s.exporter.Export(r.Context(), records))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
