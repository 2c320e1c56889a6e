package accounts

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/offerhub/internal/db"
)

// Me returns the currently authenticated user's account summary
func Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var username, email, profileType string
	var staff bool
	err := db.Conn.QueryRow(context.Background(), `
        SELECT u.username, u.email, u.is_staff, p.type
        FROM users u
        JOIN profiles p ON p.user_id = u.id
        WHERE u.id = $1
    `, userID).Scan(&username, &email, &staff, &profileType)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user_id":  userID,
		"username": username,
		"email":    email,
		"is_staff": staff,
		"type":     profileType,
	})
}
