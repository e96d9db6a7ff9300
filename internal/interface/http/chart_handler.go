package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yanqian/astrochart/internal/domain/chart"
	"github.com/yanqian/astrochart/pkg/metrics"
)

// ProviderStatus reports the ephemeris client's auth state and usage counters.
type ProviderStatus interface {
	AuthState() string
	Usage() metrics.UsageSnapshot
}

// ChartHandler exposes the chart pipeline over HTTP.
type ChartHandler struct {
	svc      chart.Service
	provider ProviderStatus
	logger   *slog.Logger
}

// NewChartHandler constructs the chart HTTP handler. provider may be nil.
func NewChartHandler(svc chart.Service, provider ProviderStatus, logger *slog.Logger) *ChartHandler {
	return &ChartHandler{
		svc:      svc,
		provider: provider,
		logger:   logger.With("component", "http.chart_handler"),
	}
}

type generateChartRequest struct {
	Birth       chart.BirthDetails `json:"birth"`
	SubjectName string             `json:"subjectName"`
	ChartType   chart.Kind         `json:"chartType"`
	Title       string             `json:"title"`
}

type snapshotRequest struct {
	Birth chart.BirthDetails `json:"birth"`
}

// Generate fetches, renders and publishes a new chart.
func (h *ChartHandler) Generate(c *gin.Context) {
	var req generateChartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	meta, err := h.svc.Generate(c.Request.Context(), chart.GenerateRequest{
		Birth:       req.Birth,
		SubjectName: req.SubjectName,
		Kind:        req.ChartType,
		Title:       req.Title,
	})
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}

	c.Header("Location", fmt.Sprintf("/api/v1/charts/%s", meta.ChartID))
	c.JSON(http.StatusCreated, meta)
}

// Snapshot returns the normalized chart without rendering it.
func (h *ChartHandler) Snapshot(c *gin.Context) {
	var req snapshotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	snapshot, err := h.svc.Snapshot(c.Request.Context(), req.Birth)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// List returns recently published charts.
func (h *ChartHandler) List(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer", err))
			return
		}
		limit = parsed
	}

	items, err := h.svc.List(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"charts": items})
}

// Get returns the metadata of one chart.
func (h *ChartHandler) Get(c *gin.Context) {
	id, ok := chartID(c)
	if !ok {
		return
	}
	meta, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	c.JSON(http.StatusOK, meta)
}

// Image streams the stored chart image.
func (h *ChartHandler) Image(c *gin.Context) {
	id, ok := chartID(c)
	if !ok {
		return
	}
	body, meta, err := h.svc.Image(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, fromAppError(err))
		return
	}
	defer body.Close()

	c.DataFromReader(http.StatusOK, -1, "image/png", body, map[string]string{
		"Content-Disposition": fmt.Sprintf(`inline; filename="%s"`, meta.FileName),
		"Cache-Control":       "public, max-age=86400, immutable",
	})
}

// Health reports liveness plus the provider auth state.
func (h *ChartHandler) Health(c *gin.Context) {
	resp := gin.H{"status": "ok"}
	if h.provider != nil {
		resp["ephemeris"] = gin.H{
			"auth":  h.provider.AuthState(),
			"usage": h.provider.Usage(),
		}
	}
	c.JSON(http.StatusOK, resp)
}

func chartID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "chart id must be a UUID", err))
		return uuid.Nil, false
	}
	return id, true
}
