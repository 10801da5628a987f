// README: Search handlers; read-only views over the eventually consistent index.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"foodbridge/internal/modules/search"
	"foodbridge/internal/types"
)

type SearchHandler struct {
	searches *search.Service
}

func NewSearchHandler(searches *search.Service) *SearchHandler {
	return &SearchHandler{searches: searches}
}

func (h *SearchHandler) Suggestions(c *gin.Context) {
	names := h.searches.PrefixSuggest(c.Request.Context(), c.Query("prefix"))
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, names)
}

func (h *SearchHandler) Fuzzy(c *gin.Context) {
	listings := h.searches.FuzzySearch(c.Request.Context(), c.Query("term"))
	c.JSON(http.StatusOK, toListingResponses(listings))
}

func (h *SearchHandler) Combined(c *gin.Context) {
	var donorID *types.ID
	if raw := c.Query("donor_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeError(c, http.StatusBadRequest, "invalid donor_id")
			return
		}
		v := types.ID(id)
		donorID = &v
	}
	expiringSoon := c.Query("expiring_soon") == "true"

	listings := h.searches.CombinedSearch(c.Request.Context(), c.Query("term"), expiringSoon, donorID)
	c.JSON(http.StatusOK, toListingResponses(listings))
}
