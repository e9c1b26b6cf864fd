package handlers

import (
	"context"
	"net/http"
	"time"

	"campusride/internal/utils"

	"github.com/gin-gonic/gin"
)

// HealthCheck is a named dependency probe.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type HealthHandler struct {
	version string
	checks  []HealthCheck
}

func NewHealthHandler(version string, checks ...HealthCheck) *HealthHandler {
	return &HealthHandler{version: version, checks: checks}
}

// Live only reports that the process is serving.
func (h *HealthHandler) Live(c *gin.Context) {
	utils.SuccessResponse(c, "ok", gin.H{"version": h.version})
}

// Ready runs every dependency probe and returns 503 if any fails.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.checks))
	healthy := true
	for _, check := range h.checks {
		if err := check.Check(ctx); err != nil {
			results[check.Name] = err.Error()
			healthy = false
			continue
		}
		results[check.Name] = "ok"
	}

	if !healthy {
		utils.ErrorResponseWithDetails(c, http.StatusServiceUnavailable, utils.CodeUnavailable, "dependency check failed", results)
		return
	}
	utils.SuccessResponse(c, "ready", results)
}
