// Package web serves generated review reports over HTTP.
package web

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/prlens/prlens/internal/logger"
)

// Server exposes the reports directory: a listing API and static report
// files.
type Server struct {
	Router     *chi.Mux
	reportsDir string
	log        *logger.Logger
}

// NewServer creates a server for reportsDir.
func NewServer(reportsDir string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{reportsDir: reportsDir, log: log}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.healthCheck)
	r.Get("/api/reports", s.listReports)
	r.Handle("/reports/*", http.StripPrefix("/reports/", http.FileServer(http.Dir(s.reportsDir))))
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/api/reports", http.StatusFound)
	})

	s.Router = r
}

// ListenAndServe starts the server on addr.
func (s *Server) ListenAndServe(addr string) error {
	s.log.Infof("serving reports from %s on %s", s.reportsDir, addr)
	return http.ListenAndServe(addr, s.Router)
}

func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": "prlens-report-server",
	})
}

// reportEntry describes one generated report file.
type reportEntry struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	URL  string `json:"url"`
}

func (s *Server) listReports(w http.ResponseWriter, _ *http.Request) {
	entries, err := os.ReadDir(s.reportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			writeJSON(w, http.StatusOK, []reportEntry{})
			return
		}
		s.log.Error("reading reports directory", err)
		http.Error(w, "cannot read reports directory", http.StatusInternalServerError)
		return
	}

	reports := make([]reportEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".html" && ext != ".json" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		reports = append(reports, reportEntry{
			Name: e.Name(),
			Size: info.Size(),
			URL:  "/reports/" + e.Name(),
		})
	}
	sort.Slice(reports, func(i, j int) bool {
		return strings.Compare(reports[i].Name, reports[j].Name) < 0
	})

	writeJSON(w, http.StatusOK, reports)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
