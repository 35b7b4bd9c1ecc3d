package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/ecommerce/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler serves health and build information
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	db        Pinger
	startTime time.Time
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(name, version string, db Pinger) *SystemHandler {
	return &SystemHandler{name: name, version: version, db: db, startTime: time.Now()}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status    string `json:"status" example:"ok"`
	Database  string `json:"database" example:"ok"`
	Name      string `json:"name" example:"shop-api"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// Health godoc
// @Summary      Liveness and database reachability
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[HealthResponse]
// @Failure      503 {object} APIResponse[HealthResponse]
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Database:  "ok",
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}
	status := http.StatusOK
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			resp.Status, resp.Database = "degraded", "unreachable"
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}
