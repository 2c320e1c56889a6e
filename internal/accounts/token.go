package accounts

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// signToken issues the bearer credential returned by registration and login.
func signToken(userID string, staff bool) (string, error) {
	claims := jwt.MapClaims{
		"user_id":  userID,
		"is_staff": staff,
		"exp":      time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
