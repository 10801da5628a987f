// README: HTTP router assembly; wires handlers and middleware onto gin.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foodbridge/internal/http/handlers"
	"foodbridge/internal/http/middleware"
)

type Handlers struct {
	Listings *handlers.ListingHandler
	Pickups  *handlers.PickupHandler
	Searches *handlers.SearchHandler
	Admin    *handlers.AdminHandler
}

func NewRouter(h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging())
	r.Use(middleware.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/add-items", h.Listings.Create)
		api.GET("/items", h.Listings.List)
		api.GET("/items/nearby", h.Listings.Nearby)
		api.GET("/items/donor/:id", h.Listings.ByDonor)

		api.POST("/pickup-requests", h.Pickups.Create)
		api.GET("/pickup-requests/donor/:id", h.Pickups.ByDonor)
		api.GET("/pickup-requests/receiver/:id", h.Pickups.ByReceiver)
		api.GET("/pickup-requests/delivery-number/:deliveryNumber", h.Pickups.ByDeliveryNumber)
		api.PATCH("/pickup-requests/delivery-number/:deliveryNumber/status", h.Pickups.Resolve)

		api.GET("/search", h.Searches.Combined)
		api.GET("/search/fuzzy", h.Searches.Fuzzy)
		api.GET("/search/suggestions", h.Searches.Suggestions)

		admin := api.Group("/admin")
		{
			admin.POST("/remove-expired", h.Admin.RemoveExpired)
			admin.POST("/reindex", h.Admin.Reindex)
		}
	}

	return r
}
