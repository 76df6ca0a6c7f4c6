// Package serve exposes the extraction pipeline over HTTP.
package serve

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/BAODAU/whop-wss-streaming/scrape"
	"github.com/BAODAU/whop-wss-streaming/target"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	base scrape.Options
	log  *slog.Logger
}

// NewHandler creates a new HTTP handler. base provides the pipeline defaults
// each request starts from.
func NewHandler(base scrape.Options, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{base: base, log: log}
}

// Health returns service status and a usage hint.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "whopscrape",
		"hint":    "GET /snapshot?target=<url-or-slug>&timeout=<seconds>",
	})
}

// Snapshot runs the pipeline for the target query parameter and returns the
// snapshot as JSON.
func (h *Handler) Snapshot(c *gin.Context) {
	rawTarget := c.Query("target")
	if rawTarget == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target query parameter is required"})
		return
	}

	opts := h.base
	opts.Logger = h.log
	if rawTimeout := c.Query("timeout"); rawTimeout != "" {
		seconds, err := strconv.ParseFloat(rawTimeout, 64)
		if err != nil || seconds <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "timeout must be a positive number of seconds"})
			return
		}
		opts.Timeout = time.Duration(seconds * float64(time.Second))
	}

	result, err := scrape.FetchListingSnapshot(c.Request.Context(), rawTarget, opts)
	if err != nil {
		var schemeErr *target.UnsupportedSchemeError
		if errors.Is(err, target.ErrEmptyTarget) || errors.As(err, &schemeErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("snapshot failed", "target", rawTarget, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RequestIDMiddleware tags each request with an id for log correlation.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Request.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// LoggerMiddleware logs each request with its id, status, and latency.
func LoggerMiddleware(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// SetupRouter creates and configures the Gin router.
func SetupRouter(handler *Handler, log *slog.Logger) *gin.Engine {
	if log == nil {
		log = slog.Default()
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(log))

	router.GET("/", handler.Health)
	router.GET("/snapshot", handler.Snapshot)

	return router
}
