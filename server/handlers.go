package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/spektr-org/clinicdash/engine"
	"github.com/spektr-org/clinicdash/observability"
	"github.com/spektr-org/clinicdash/store"
	"github.com/spektr-org/clinicdash/telemetry"
)

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "rows": s.store.Len()})
}

func (s *Server) schema(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Schema())
}

func (s *Server) options(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Options())
}

func (s *Server) dashboard(c *gin.Context) {
	spec, err := bindFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, s.run(c.Request.Context(), spec))
}

func (s *Server) export(c *gin.Context) {
	spec, err := bindFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filtered := s.filter(c.Request.Context(), spec)

	_, span := telemetry.Tracer().Start(c.Request.Context(), "store.export")
	defer span.End()
	started := time.Now()

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", s.cfg.Dashboard.ExportFilename))
	c.Status(http.StatusOK)
	if err := store.WriteCSV(c.Writer, filtered); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("export failed", "error", err, "request_id", c.GetString(requestIDKey))
		return
	}
	s.metrics.ObserveStage(observability.StageExport, started)
	s.metrics.IncExports()
}

// =============================================================================
// Pipeline
// =============================================================================

func (s *Server) filter(ctx context.Context, spec engine.FilterSpec) *engine.Dataset {
	_, span := telemetry.Tracer().Start(ctx, "engine.filter")
	defer span.End()

	started := time.Now()
	filtered := engine.Filter(s.store.Dataset(), spec)
	s.metrics.ObserveStage(observability.StageFilter, started)
	s.metrics.ObserveFiltered(filtered.Len())

	span.SetAttributes(
		attribute.Int("rows.in", s.store.Len()),
		attribute.Int("rows.out", filtered.Len()),
		attribute.Bool("filtered", !spec.IsEmpty()),
	)
	return filtered
}

func (s *Server) run(ctx context.Context, spec engine.FilterSpec) *engine.Result {
	filtered := s.filter(ctx, spec)

	_, span := telemetry.Tracer().Start(ctx, "engine.summarize")
	started := time.Now()
	bundle := engine.Summarize(filtered, s.opts...)
	s.metrics.ObserveStage(observability.StageSummarize, started)
	span.SetAttributes(attribute.Int("rows", bundle.RowCount))
	span.End()

	_, span = telemetry.Tracer().Start(ctx, "engine.render")
	defer span.End()
	started = time.Now()
	result := engine.Assemble(s.store.Schema(), spec, bundle, s.opts...)
	s.metrics.ObserveStage(observability.StageRender, started)
	return result
}

// =============================================================================
// Request binding
// =============================================================================

// bindFilter reads a FilterRequest from the JSON body of a POST or from the
// query string of a GET (start, end, repeated select=Column:Value).
// An empty POST body means no filter.
func bindFilter(c *gin.Context) (engine.FilterSpec, error) {
	var req FilterRequest

	if c.Request.Method == http.MethodPost {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			return engine.FilterSpec{}, fmt.Errorf("invalid request body: %w", err)
		}
		return req.ToSpec()
	}

	if err := c.ShouldBindQuery(&req); err != nil {
		return engine.FilterSpec{}, fmt.Errorf("invalid query: %w", err)
	}
	cats, err := ParseSelections(c.QueryArray("select"))
	if err != nil {
		return engine.FilterSpec{}, err
	}
	req.Categories = cats
	return req.ToSpec()
}
