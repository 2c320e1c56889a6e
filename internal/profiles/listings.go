package profiles

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/offerhub/internal/db"
	"github.com/sudo-init-do/offerhub/internal/permissions"
)

// GET /profiles/business — public
func ListBusinessProfiles(c echo.Context) error {
	return listByType(c, permissions.ProfileBusiness)
}

// GET /profiles/customer — public
func ListCustomerProfiles(c echo.Context) error {
	return listByType(c, permissions.ProfileCustomer)
}

func listByType(c echo.Context, profileType string) error {
	rows, err := db.Conn.Query(context.Background(),
		selectProfile+` WHERE p.type = $1 ORDER BY p.created_at DESC`, profileType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch profiles"})
	}
	defer rows.Close()

	profiles := []Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse profile record"})
		}
		profiles = append(profiles, p)
	}

	return c.JSON(http.StatusOK, profiles)
}
