package accounts

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/sudo-init-do/offerhub/internal/db"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Login authenticates by username and password and returns a token.
// Credential mismatch is a 400, same as any other bad input on this route.
func Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	var (
		userID   string
		email    string
		password string
		staff    bool
	)
	err := db.Conn.QueryRow(context.Background(), `
        SELECT id, email, password, is_staff FROM users WHERE username = $1
    `, req.Username).Scan(&userID, &email, &password, &staff)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid username or password"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(password), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid username or password"})
	}

	signed, err := signToken(userID, staff)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	return c.JSON(http.StatusOK, LoginResponse{
		Token:    signed,
		UserID:   userID,
		Username: req.Username,
		Email:    email,
	})
}
