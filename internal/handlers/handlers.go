package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cristianadrielbraun/qrblock/internal/courses"
	"github.com/cristianadrielbraun/qrblock/internal/logging"
	"github.com/cristianadrielbraun/qrblock/internal/qr"
)

// Renderer produces cache files for render requests.
type Renderer interface {
	EnsureRendered(ctx context.Context, req qr.RenderRequest) (qr.CacheEntry, error)
}

// Handler holds the dependencies of the HTTP handlers.
type Handler struct {
	renderer  Renderer
	courses   courses.Directory
	wwwroot   string
	contextID string
}

// New returns a Handler. wwwroot must already be normalized.
func New(renderer Renderer, dir courses.Directory, wwwroot, systemContextID string) *Handler {
	return &Handler{
		renderer:  renderer,
		courses:   dir,
		wwwroot:   wwwroot,
		contextID: systemContextID,
	}
}

// Register mounts the routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/course/:id/qrcode", h.QRCodeHandler)
	r.GET("/healthz", h.Healthz)
}

// Healthz reports liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// RequestLogger logs one line per request through the structured logger.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		kv := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"elapsed_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			kv = append(kv, "errors", c.Errors.String())
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logging.Error("request", kv...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logging.Warn("request", kv...)
		default:
			logging.Info("request", kv...)
		}
	}
}
