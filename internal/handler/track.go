package handler

import (
	"fmt"
	"html"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

const redirectPage = `<!DOCTYPE html>
<html>
<head>
<meta http-equiv="refresh" content="0;url=%s">
<title>Redirecting…</title>
</head>
<body>
<p>Taking you to the trade page. <a href="%s">Tap here</a> if nothing happens.</p>
</body>
</html>`

// Track godoc
// @Summary      Record a click and redirect to the trade URL
// @Description  Increments the click counter for a signal id, then serves a redirect page
// @Tags         tracker
// @Produce      html
// @Param        id  path  string  true  "Signal sequence id, e.g. 000017"
// @Success      200  {string}  string  "redirect page"
// @Failure      404  {object}  map[string]string
// @Router       /track/{id} [get]
func (h *Handler) Track(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.track")
	defer span.End()

	id := strings.TrimSpace(c.Param("id"))
	span.SetAttributes(attribute.String("signal.id", id))

	url, err := h.clicks.ResolveTradeURL(ctx, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown signal id"})
		return
	}

	// The click is best-effort; a failed write must not lose the redirect.
	if err := h.clicks.RecordClick(ctx, id); err != nil {
		log.Printf("record click for %s: %v", id, err)
	}

	safe := html.EscapeString(url)
	c.Data(http.StatusOK, "text/html; charset=utf-8", fmt.Appendf(nil, redirectPage, safe, safe))
}

// GetStats godoc
// @Summary      Aggregate signal statistics
// @Description  Totals by month, ticker, member and direction for the requested years
// @Tags         stats
// @Produce      json
// @Param        years   query  string  false  "Comma-separated years, e.g. 2024,2025"
// @Param        sender  query  string  false  "Restrict to one member attribution"
// @Success      200  {object}  analytics.Report
// @Failure      400  {object}  map[string]string
// @Router       /api/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-stats")
	defer span.End()

	years, err := parseYearsParam(c.Query("years"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.stats.Aggregate(ctx, years, strings.TrimSpace(c.Query("sender")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetViews godoc
// @Summary      Click-through totals
// @Tags         stats
// @Produce      json
// @Param        years  query  string  false  "Comma-separated years, e.g. 2024,2025"
// @Success      200  {object}  analytics.ViewsReport
// @Failure      400  {object}  map[string]string
// @Router       /api/views [get]
func (h *Handler) GetViews(c *gin.Context) {
	ctx, span := h.tracer.Start(c.Request.Context(), "handler.get-views")
	defer span.End()

	years, err := parseYearsParam(c.Query("years"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.stats.Views(ctx, years)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

func parseYearsParam(raw string) ([]int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var years []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		y, err := strconv.Atoi(part)
		if err != nil || y < 1970 || y > 9999 {
			return nil, fmt.Errorf("%q is not a year", part)
		}
		years = append(years, y)
	}
	return years, nil
}
