package handlers

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/your-org/vigil/internal/detect"
	"github.com/your-org/vigil/internal/store"
)

type SystemHandler struct {
	footage    *store.FootageStore
	supervisor *detect.Supervisor
	uploadsDir string
}

func NewSystemHandler(footage *store.FootageStore, supervisor *detect.Supervisor, uploadsDir string) *SystemHandler {
	return &SystemHandler{footage: footage, supervisor: supervisor, uploadsDir: uploadsDir}
}

// Health is the liveness probe: 200 whenever the process is up.
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *SystemHandler) Ready(c *gin.Context) {
	checks := map[string]string{}
	healthy := true

	if _, err := h.footage.List(); err != nil {
		checks["store"] = err.Error()
		healthy = false
	} else {
		checks["store"] = "ok"
	}

	// An existing but read-only uploads dir is just as dead as a missing one,
	// so probe with a real write.
	if f, err := os.CreateTemp(h.uploadsDir, ".readycheck-*"); err != nil {
		checks["uploads_dir"] = "not writable"
		healthy = false
	} else {
		name := f.Name()
		f.Close()
		if err := os.Remove(name); err != nil {
			checks["uploads_dir"] = "not writable"
			healthy = false
		} else {
			checks["uploads_dir"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":            map[bool]string{true: "ready", false: "not ready"}[healthy],
		"checks":            checks,
		"active_detections": h.supervisor.ActiveCount(),
	})
}
