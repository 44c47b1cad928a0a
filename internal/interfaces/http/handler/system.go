package handler

import (
	"context"
	"io/fs"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/EthanMadison/hack-yourself.shop/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Pinger checks a backing service
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthResponse is the body of the health check
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// SystemHandler serves health checks and static files
type SystemHandler struct {
	db        Pinger
	assets    http.FileSystem
	uploads   http.FileSystem
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. uploads may be nil when
// images are stored outside the server.
func NewSystemHandler(db Pinger, assets fs.FS, uploadDir string) *SystemHandler {
	h := &SystemHandler{
		db:        db,
		assets:    http.FS(assets),
		startTime: time.Now(),
	}
	if uploadDir != "" {
		h.uploads = gin.Dir(uploadDir, false)
	}
	return h
}

// Health reports whether the database answers
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Database:  "ok",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	status := http.StatusOK

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
		resp.Status = "degraded"
		resp.Database = "unavailable"
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// Static serves /static/*filepath. Paths under uploads/ come from the
// upload directory, everything else from the bundled assets.
func (h *SystemHandler) Static(c *gin.Context) {
	name := c.Param("filepath")
	if rest, ok := strings.CutPrefix(name, "/uploads/"); ok {
		if h.uploads == nil {
			c.Status(http.StatusNotFound)
			return
		}
		c.FileFromFS(rest, h.uploads)
		return
	}
	c.FileFromFS(strings.TrimPrefix(name, "/"), h.assets)
}
