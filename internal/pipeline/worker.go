package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dgallion1/docbind/internal/export"
	"github.com/dgallion1/docbind/internal/validate"
)

// Worker processes a single build job.
type Worker struct {
	load      Loader
	builder   *Builder
	stats     *BuildStats
	log       *slog.Logger
	outputDir string
}

func NewWorker(load Loader, builder *Builder, stats *BuildStats, log *slog.Logger, outputDir string) *Worker {
	return &Worker{
		load:      load,
		builder:   builder,
		stats:     stats,
		log:       log,
		outputDir: outputDir,
	}
}

// Process loads, builds and exports the book for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("build_id", job.ID, "format", job.Format)
	start := time.Now()

	exp, err := export.ForFormat(job.Format)
	if err != nil {
		w.fail(job, "exporting", err, log)
		return
	}

	// Phase 1: load the manifest and import chapter sources.
	job.SetStatus(StatusBuilding, "loading")
	book, err := w.load()
	if err != nil {
		w.fail(job, "loading", fmt.Errorf("load book: %w", err), log)
		return
	}

	// Phase 2: validate and assemble.
	job.SetStatus(StatusBuilding, "building")
	doc, err := w.builder.Build(*book)
	if err != nil {
		var verr *validate.Error
		if errors.As(err, &verr) {
			job.SetViolations(verr.Violations)
		}
		w.stats.Record(time.Since(start), true)
		w.fail(job, "building", err, log)
		return
	}

	if err := ctx.Err(); err != nil {
		w.fail(job, "building", err, log)
		return
	}

	// Phase 3: export.
	job.SetStatus(StatusExporting, "exporting")
	var buf bytes.Buffer
	if err := exp.Export(&buf, doc.Title, doc.Nodes); err != nil {
		w.stats.Record(time.Since(start), true)
		w.fail(job, "exporting", fmt.Errorf("export %s: %w", job.Format, err), log)
		return
	}

	if w.outputDir != "" {
		path := filepath.Join(w.outputDir, job.ID+exp.Extension())
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			log.Warn("write output copy failed", "path", path, "error", err)
			job.AddError(fmt.Sprintf("write %s: %s", path, err))
		} else {
			log.Info("wrote output", "path", path)
		}
	}

	job.SetResult(buf.Bytes(), exp.ContentType(), doc.Digest, len(doc.Headings))
	w.stats.Record(time.Since(start), false)
	job.SetStatus(StatusCompleted, "done")
	log.Info("build job complete",
		"bytes", buf.Len(),
		"headings", len(doc.Headings),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (w *Worker) fail(job *Job, phase string, err error, log *slog.Logger) {
	log.Error("build job failed", "phase", phase, "error", err)
	job.AddError(err.Error())
	job.SetStatus(StatusFailed, phase)
}
