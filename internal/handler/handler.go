package handler

import (
	"context"

	"signal-desk/internal/analytics"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// ClickStore is the store surface the tracker needs: count a click, resolve
// the destination.
type ClickStore interface {
	RecordClick(ctx context.Context, sequence string) error
	ResolveTradeURL(ctx context.Context, sequence string) (string, error)
}

// StatsReader serves the aggregate endpoints.
type StatsReader interface {
	Aggregate(ctx context.Context, years []int, sender string) (analytics.Report, error)
	Views(ctx context.Context, years []int) (analytics.ViewsReport, error)
}

type Handler struct {
	tracer trace.Tracer
	clicks ClickStore
	stats  StatsReader
}

func New(tracer trace.Tracer, clicks ClickStore, stats StatsReader) *Handler {
	return &Handler{tracer: tracer, clicks: clicks, stats: stats}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/track/:id", h.Track)
	r.GET("/api/stats", h.GetStats)
	r.GET("/api/views", h.GetViews)
}

// Health godoc
// @Summary      Liveness probe
// @Tags         ops
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
