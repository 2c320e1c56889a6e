package accounts

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/sudo-init-do/offerhub/internal/db"
	"github.com/sudo-init-do/offerhub/internal/permissions"
)

type RegistrationRequest struct {
	Username         string `json:"username"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	RepeatedPassword string `json:"repeated_password"`
	Type             string `json:"type"`
}

type RegistrationResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Type     string `json:"type"`
}

// validateRegistration returns a field-keyed map of problems, nil when clean.
func validateRegistration(req RegistrationRequest) map[string]string {
	problems := map[string]string{}
	if strings.TrimSpace(req.Username) == "" {
		problems["username"] = "username is required"
	}
	if req.Email == "" {
		problems["email"] = "email is required"
	} else if _, err := mail.ParseAddress(req.Email); err != nil {
		problems["email"] = "invalid email address"
	}
	if req.Password == "" {
		problems["password"] = "password is required"
	} else if len(req.Password) < 6 {
		problems["password"] = "password must be at least 6 characters"
	} else if req.Password != req.RepeatedPassword {
		problems["repeated_password"] = "passwords do not match"
	}
	switch req.Type {
	case "":
		problems["type"] = "type is required"
	case permissions.ProfileCustomer, permissions.ProfileBusiness:
	default:
		problems["type"] = "type must be customer or business"
	}
	if len(problems) == 0 {
		return nil
	}
	return problems
}

// Register creates a user and its profile in one transaction and returns a token.
func Register(c echo.Context) error {
	var req RegistrationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if problems := validateRegistration(req); problems != nil {
		return c.JSON(http.StatusBadRequest, problems)
	}

	ctx := context.Background()

	// Early uniqueness check for a field-keyed reply; the unique
	// constraints below remain the actual guard.
	var usernameTaken, emailTaken bool
	err := db.Conn.QueryRow(ctx, `
        SELECT
            EXISTS (SELECT 1 FROM users WHERE username = $1),
            EXISTS (SELECT 1 FROM users WHERE email = $2)
    `, req.Username, req.Email).Scan(&usernameTaken, &emailTaken)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check existing users"})
	}
	if usernameTaken || emailTaken {
		problems := echo.Map{}
		if usernameTaken {
			problems["username"] = "this username is already taken"
		}
		if emailTaken {
			problems["email"] = "this email address is already in use"
		}
		return c.JSON(http.StatusBadRequest, problems)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db transaction error"})
	}
	defer tx.Rollback(ctx)

	userID := uuid.New().String()
	_, err = tx.Exec(ctx, `
        INSERT INTO users (id, username, email, password)
        VALUES ($1, $2, $3, $4)
    `, userID, req.Username, req.Email, string(hashed))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "username or email already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create user"})
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO profiles (user_id, type)
        VALUES ($1, $2)
    `, userID, req.Type)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create profile"})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction failed"})
	}

	signed, err := signToken(userID, false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	return c.JSON(http.StatusCreated, RegistrationResponse{
		Token:    signed,
		UserID:   userID,
		Username: req.Username,
		Email:    req.Email,
		Type:     req.Type,
	})
}
