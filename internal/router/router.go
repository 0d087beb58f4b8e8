package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/stock-reservation/internal/handler" // import the handlers that implement the API surface
)

// RegisterRoutes wires the full API surface onto the provided Echo
// instance.  The product listing sits behind the response cache; the
// reservation creation endpoint sits behind the rate limiter because it
// is the only write path clients can hammer during a sale.  Both
// middlewares are pass-throughs when Redis is unavailable.
func RegisterRoutes(e *echo.Echo, products *handler.ProductHandler, reservations *handler.ReservationHandler, cache, limiter echo.MiddlewareFunc) {
	// Health check for load balancers and monitoring.
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")

	// Product catalogue with live stock counts.
	v1.GET("/products", products.List, cache)

	// Reservation lifecycle: take a lease, complete it, read it back.
	r := v1.Group("/reservations")
	r.POST("", reservations.Create, limiter)
	r.POST("/:id/complete", reservations.Complete)
	r.GET("", reservations.List)
	r.GET("/:id", reservations.Get)
}
