// README: Admin handlers; manual sweep and index rebuild triggers.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"foodbridge/internal/modules/search"
	"foodbridge/internal/modules/sweeper"
)

type AdminHandler struct {
	sweeps   *sweeper.Service
	searches *search.Service
}

func NewAdminHandler(sweeps *sweeper.Service, searches *search.Service) *AdminHandler {
	return &AdminHandler{sweeps: sweeps, searches: searches}
}

// RemoveExpired runs one sweep pass immediately instead of waiting for the
// scheduled one.
func (h *AdminHandler) RemoveExpired(c *gin.Context) {
	removed, err := h.sweeps.Sweep(c.Request.Context(), time.Now())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "sweep failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// Reindex rebuilds the search index from the authoritative store.
func (h *AdminHandler) Reindex(c *gin.Context) {
	indexed, err := h.searches.SyncAll(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "reindex failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"indexed": indexed})
}
