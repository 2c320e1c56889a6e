package profiles

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/offerhub/internal/db"
	"github.com/sudo-init-do/offerhub/internal/permissions"
)

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

const selectProfile = `
    SELECT p.user_id, u.username, u.first_name, u.last_name, u.email,
           p.type, p.location, p.tel, p.description, p.working_hours, p.file, p.created_at
    FROM profiles p
    JOIN users u ON u.id = p.user_id
`

func scanProfile(row pgx.Row) (Profile, error) {
	var p Profile
	err := row.Scan(&p.UserID, &p.Username, &p.FirstName, &p.LastName, &p.Email,
		&p.Type, &p.Location, &p.Tel, &p.Description, &p.WorkingHours, &p.File, &p.CreatedAt)
	return p, err
}

// GET /profile/:user_id
func GetProfile(c echo.Context) error {
	targetID := c.Param("user_id")
	if !validID(targetID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
	}

	p, err := scanProfile(db.Conn.QueryRow(context.Background(),
		selectProfile+` WHERE p.user_id = $1`, targetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch profile"})
	}

	return c.JSON(http.StatusOK, p)
}

// Account fields live on users, the rest on profiles. The profile type is
// deliberately absent: flipping customer/business after registration would
// invert every permission gate.
var userFields = map[string]bool{"first_name": true, "last_name": true, "email": true}
var profileFields = map[string]bool{"location": true, "tel": true, "description": true, "working_hours": true, "file": true}

// disallowedProfileFields returns the payload keys that may not be patched, sorted.
func disallowedProfileFields(payload map[string]any) []string {
	var bad []string
	for key := range payload {
		if !userFields[key] && !profileFields[key] {
			bad = append(bad, key)
		}
	}
	sort.Strings(bad)
	return bad
}

func stringField(payload map[string]any, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}

// PATCH /profile/:user_id — owner only, no staff override.
func UpdateProfile(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	targetID := c.Param("user_id")
	if !validID(targetID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
	}

	ctx := context.Background()
	var exists bool
	if err := db.Conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE user_id = $1)`, targetID,
	).Scan(&exists); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch profile"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
	}

	staff, _ := c.Get("is_staff").(bool)
	requester := permissions.Requester{UserID: userID, Staff: staff}
	if !permissions.CanUpdateProfile(requester, targetID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you may only edit your own profile"})
	}

	payload := map[string]any{}
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if bad := disallowedProfileFields(payload); len(bad) > 0 {
		problems := echo.Map{}
		for _, field := range bad {
			problems[field] = "this field cannot be updated"
		}
		return c.JSON(http.StatusBadRequest, problems)
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        UPDATE users
        SET first_name = COALESCE(NULLIF($1, ''), first_name),
            last_name = COALESCE(NULLIF($2, ''), last_name),
            email = COALESCE(NULLIF($3, ''), email)
        WHERE id = $4
    `, stringField(payload, "first_name"), stringField(payload, "last_name"),
		stringField(payload, "email"), targetID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.JSON(http.StatusBadRequest, echo.Map{"email": "this email address is already in use"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update account"})
	}

	_, err = tx.Exec(ctx, `
        UPDATE profiles
        SET location = COALESCE(NULLIF($1, ''), location),
            tel = COALESCE(NULLIF($2, ''), tel),
            description = COALESCE(NULLIF($3, ''), description),
            working_hours = COALESCE(NULLIF($4, ''), working_hours),
            file = COALESCE(NULLIF($5, ''), file),
            updated_at = NOW()
        WHERE user_id = $6
    `, stringField(payload, "location"), stringField(payload, "tel"),
		stringField(payload, "description"), stringField(payload, "working_hours"),
		stringField(payload, "file"), targetID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update profile"})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	p, err := scanProfile(db.Conn.QueryRow(ctx, selectProfile+` WHERE p.user_id = $1`, targetID))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch profile"})
	}
	return c.JSON(http.StatusOK, p)
}
