// README: Shared handler helpers (JSON errors, id parsing, error mapping).
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"foodbridge/internal/modules/delivery"
	"foodbridge/internal/modules/inventory"
	"foodbridge/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

func writeInventoryError(c *gin.Context, err error) {
	switch err {
	case inventory.ErrBadRequest:
		writeError(c, http.StatusBadRequest, err.Error())
	case inventory.ErrNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeDeliveryError(c *gin.Context, err error) {
	switch err {
	case delivery.ErrBadRequest:
		writeError(c, http.StatusBadRequest, err.Error())
	case delivery.ErrDeliveryNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	case delivery.ErrDeliveryNumberExhausted:
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func parseID(c *gin.Context, param string) (types.ID, bool) {
	raw := c.Param(param)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return types.ID(id), true
}
