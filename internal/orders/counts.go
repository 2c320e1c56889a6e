package orders

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/offerhub/internal/db"
)

// GET /order-count/:business_id — count of the business user's in_progress orders.
func OrderCount(c echo.Context) error {
	return countByStatus(c, StatusInProgress, "order_count")
}

// GET /completed-order-count/:business_id — count of the business user's completed orders.
func CompletedOrderCount(c echo.Context) error {
	return countByStatus(c, StatusCompleted, "completed_order_count")
}

func countByStatus(c echo.Context, status, key string) error {
	businessID := c.Param("business_id")
	if !validID(businessID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "business user not found"})
	}
	ctx := context.Background()

	var exists bool
	if err := db.Conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, businessID).Scan(&exists); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch business user"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "business user not found"})
	}

	var count int
	if err := db.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE business_user = $1 AND status = $2`,
		businessID, status).Scan(&count); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count orders"})
	}

	return c.JSON(http.StatusOK, echo.Map{key: count})
}
