// Package http exposes the operational surface of the pipeline: batch
// statistics, active jobs, force flush, and a manual submit endpoint.
package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harborline/eventflow/internal/dispatch"
	"github.com/harborline/eventflow/internal/domain"
	apperrors "github.com/harborline/eventflow/pkg/errors"
)

// PipelineHandler encapsulates the HTTP endpoints over the dispatch pipeline.
type PipelineHandler struct {
	dispatcher *dispatch.Dispatcher
	batcher    *dispatch.Batcher
	executor   *dispatch.Executor
	logger     *zap.Logger
}

// NewPipelineHandler creates the HTTP handler set.
func NewPipelineHandler(dispatcher *dispatch.Dispatcher, batcher *dispatch.Batcher, executor *dispatch.Executor, logger *zap.Logger) *PipelineHandler {
	return &PipelineHandler{
		dispatcher: dispatcher,
		batcher:    batcher,
		executor:   executor,
		logger:     logger.Named("http"),
	}
}

// Healthz endpoint GET /healthz
func (h *PipelineHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GetStats endpoint GET /v1/batches/stats
func (h *PipelineHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.batcher.Stats())
}

// ListJobs endpoint GET /v1/batches/jobs
func (h *PipelineHandler) ListJobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.executor.Jobs()})
}

// Flush endpoint POST /v1/batches/flush. An optional "type" query parameter
// restricts the flush to one event type; without it every pending type is
// flushed. Flushing nothing is a successful no-op.
func (h *PipelineHandler) Flush(c *gin.Context) {
	var types []domain.EventType
	if raw := c.Query("type"); raw != "" {
		eventType := domain.EventType(raw)
		if !eventType.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event type"})
			return
		}
		types = append(types, eventType)
	}

	jobs := h.batcher.ForceFlush(c.Request.Context(), types...)
	if jobs == nil {
		jobs = []dispatch.BatchJob{}
	}
	c.JSON(http.StatusAccepted, gin.H{"flushed": len(jobs), "jobs": jobs})
}

// SubmitEvent endpoint POST /v1/events. Meant for operators and backfills;
// the steady-state ingress is the Kafka consumer.
func (h *PipelineHandler) SubmitEvent(c *gin.Context) {
	var req struct {
		Type    domain.EventType `json:"type" binding:"required"`
		Payload json.RawMessage  `json:"payload" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Type.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event type"})
		return
	}

	event, err := domain.NewDomainEvent(req.Type, req.Payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.dispatcher.Submit(c.Request.Context(), event); err != nil {
		switch {
		case apperrors.IsNoHandler(err):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"id": event.ID, "type": event.Type})
}
