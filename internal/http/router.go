// README: HTTP router registration.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"travellite/internal/http/handlers"
	"travellite/internal/http/middleware"
)

func NewRouter(deps ServerDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Recovery(), middleware.Logging(), middleware.Metrics())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	stationHandler := handlers.NewStationHandler(deps.Stations)
	api.GET("/stations", stationHandler.Search)
	api.GET("/stations/popular", stationHandler.Popular)
	api.GET("/stations/nearby", stationHandler.Nearby)
	api.GET("/stations/:id", stationHandler.Get)

	quoteHandler := handlers.NewQuoteHandler(deps.Pricing, deps.Bookings)
	api.POST("/quotes", middleware.OptionalAuth(deps.Verifier), quoteHandler.Create)

	bookingHandler := handlers.NewBookingHandler(deps.Bookings, deps.Pricing)
	customer := api.Group("/bookings", middleware.Auth(deps.Verifier))
	customer.POST("", bookingHandler.Create)
	customer.GET("", bookingHandler.List)
	customer.GET("/:id", bookingHandler.Get)
	customer.POST("/:id/payment", bookingHandler.ConfirmPayment)
	customer.POST("/:id/cancel", bookingHandler.Cancel)

	staffHandler := handlers.NewStaffHandler(deps.Bookings)
	staff := api.Group("/staff/bookings", middleware.Auth(deps.Verifier), middleware.RequireRole(middleware.RoleStaff))
	staff.GET("/:id", staffHandler.Lookup)
	staff.POST("/:id/accept", staffHandler.Accept)
	staff.POST("/:id/dispatch", staffHandler.Dispatch)
	staff.POST("/:id/deliver", staffHandler.Deliver)

	return r
}
