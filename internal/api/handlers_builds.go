package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dgallion1/docbind/internal/export"
	"github.com/dgallion1/docbind/internal/pipeline"
	"github.com/go-chi/chi/v5"
)

type buildRequest struct {
	Format string `json:"format"`
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, 64*1024)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	if v := r.URL.Query().Get("format"); v != "" {
		req.Format = v
	}
	if req.Format == "" {
		req.Format = s.cfg.Format
	}
	if _, err := export.ForFormat(req.Format); err != nil {
		jsonError(w, fmt.Sprintf("%v (supported: %s)", err, strings.Join(export.Formats, ", ")), http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(req.Format)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"build_id": job.ID,
		"format":   job.Format,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/builds/%s/status", job.ID),
	})
}

func (s *Server) handleBuildStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "buildID"))
	if job == nil {
		jsonError(w, "build not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

func (s *Server) handleBuildDocument(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "buildID"))
	if job == nil {
		jsonError(w, "build not found", http.StatusNotFound)
		return
	}
	data, contentType, ok := job.Result()
	if !ok {
		snap := job.Snapshot()
		jsonError(w, fmt.Sprintf("build is %s", snap.Status), http.StatusConflict)
		return
	}

	ext := ""
	if exp, err := export.ForFormat(job.Format); err == nil {
		ext = exp.Extension()
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "docbind-"+job.ID+ext))
	w.Write(data)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
