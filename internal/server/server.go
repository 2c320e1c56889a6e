package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sudo-init-do/offerhub/internal/accounts"
	appmw "github.com/sudo-init-do/offerhub/internal/middleware"
	"github.com/sudo-init-do/offerhub/internal/offers"
	"github.com/sudo-init-do/offerhub/internal/orders"
	"github.com/sudo-init-do/offerhub/internal/profiles"
	"github.com/sudo-init-do/offerhub/internal/reviews"
	"github.com/sudo-init-do/offerhub/internal/stats"
)

// New builds the echo instance with all routes mounted.
func New() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Health
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// Public routes
	e.POST("/registration", accounts.Register)
	e.POST("/login", accounts.Login)
	e.GET("/profiles/business", profiles.ListBusinessProfiles)
	e.GET("/profiles/customer", profiles.ListCustomerProfiles)
	e.GET("/base-info", stats.BaseInfo)

	// Authenticated group
	g := e.Group("")
	g.Use(appmw.JWTMiddleware)

	g.GET("/me", accounts.Me)

	// Profiles
	g.GET("/profile/:user_id", profiles.GetProfile)
	g.PATCH("/profile/:user_id", profiles.UpdateProfile)

	// Offers
	g.GET("/offers", offers.ListOffers)
	g.POST("/offers", offers.CreateOffer)
	g.GET("/offers/:id", offers.GetOffer)
	g.PATCH("/offers/:id", offers.UpdateOffer)
	g.DELETE("/offers/:id", offers.DeleteOffer)
	g.GET("/offer-details", offers.ListDetails)
	g.POST("/offer-details", offers.CreateDetail)
	g.GET("/offer-details/:id", offers.GetDetail)
	g.PATCH("/offer-details/:id", offers.UpdateDetail)
	g.DELETE("/offer-details/:id", offers.DeleteDetail)

	// Orders
	g.POST("/orders", orders.CreateOrder)
	g.GET("/orders", orders.ListOrders)
	g.GET("/orders/:id", orders.GetOrder)
	g.PATCH("/orders/:id", orders.UpdateOrderStatus)
	g.DELETE("/orders/:id", orders.DeleteOrder)
	g.GET("/order-count/:business_id", orders.OrderCount)
	g.GET("/completed-order-count/:business_id", orders.CompletedOrderCount)

	// Reviews
	g.GET("/reviews", reviews.ListReviews)
	g.POST("/reviews", reviews.CreateReview)
	g.GET("/reviews/:id", reviews.GetReview)
	g.PATCH("/reviews/:id", reviews.UpdateReview)
	g.DELETE("/reviews/:id", reviews.DeleteReview)

	return e
}
