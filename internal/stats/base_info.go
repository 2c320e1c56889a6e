package stats

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/offerhub/internal/db"
)

// GET /base-info — public platform-wide figures for the landing page.
func BaseInfo(c echo.Context) error {
	ctx := context.Background()

	var (
		reviewCount          int
		averageRating        float64
		businessProfileCount int
		offerCount           int
	)
	err := db.Conn.QueryRow(ctx, `
        SELECT
            (SELECT COUNT(*) FROM reviews),
            (SELECT COALESCE(ROUND(AVG(rating)::numeric, 2), 0) FROM reviews),
            (SELECT COUNT(*) FROM profiles WHERE type = 'business'),
            (SELECT COUNT(*) FROM offers)
    `).Scan(&reviewCount, &averageRating, &businessProfileCount, &offerCount)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch base info"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"review_count":           reviewCount,
		"average_rating":         averageRating,
		"business_profile_count": businessProfileCount,
		"offer_count":            offerCount,
	})
}
