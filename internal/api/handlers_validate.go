package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/docbind/internal/chapter"
	"github.com/dgallion1/docbind/internal/toc"
	"github.com/dgallion1/docbind/internal/validate"
)

// handleValidate runs the structural validator over the configured book.
// Violations are reported with 422 so scripted callers can branch on status.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	res, err := s.orchestrator.Check()
	if err != nil {
		s.writeBuildError(w, err)
		return
	}

	status := http.StatusOK
	if !res.OK() {
		status = http.StatusUnprocessableEntity
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"valid":      res.OK(),
		"title":      res.Title,
		"chapters":   res.Chapters,
		"violations": res.Violations,
	})
}

// handleTOC builds the book synchronously and returns only its contents.
// ?format=text renders the plain-text form at ?width columns.
func (s *Server) handleTOC(w http.ResponseWriter, r *http.Request) {
	doc, err := s.orchestrator.BuildNow()
	if err != nil {
		s.writeBuildError(w, err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		width := 72
		if v, err := strconv.Atoi(r.URL.Query().Get("width")); err == nil && v > 0 {
			width = v
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(toc.FormatText(doc.TOC, width)))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"title":    doc.Title,
		"digest":   doc.Digest,
		"headings": doc.Headings,
		"toc":      doc.TOC,
	})
}

func (s *Server) writeBuildError(w http.ResponseWriter, err error) {
	var verr *validate.Error
	var perr *chapter.PanicError
	switch {
	case errors.As(err, &verr):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"error":      "build aborted",
			"violations": verr.Violations,
		})
	case errors.As(err, &perr):
		s.log.Error("chapter panicked", "chapter_id", perr.ChapterID, "error", err)
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		s.log.Error("build failed", "error", err)
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}
