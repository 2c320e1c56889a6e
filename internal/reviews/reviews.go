package reviews

import (
	"context"
	"errors"
	"net/http"

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

const selectReview = `
    SELECT id, business_user, reviewer, rating, description, created_at, updated_at
    FROM reviews
`

func scanReview(row pgx.Row) (Review, error) {
	var r Review
	err := row.Scan(&r.ID, &r.BusinessUser, &r.Reviewer, &r.Rating, &r.Description,
		&r.CreatedAt, &r.UpdatedAt)
	return r, err
}

var orderings = map[string]string{
	"rating":      "rating ASC",
	"-rating":     "rating DESC",
	"updated_at":  "updated_at ASC",
	"-updated_at": "updated_at DESC",
}

// GET /reviews — filterable by business_user_id and reviewer_id, orderable
// by rating or updated_at.
func ListReviews(c echo.Context) error {
	ctx := context.Background()

	query := selectReview
	where := ""
	args := []any{}
	if businessID := c.QueryParam("business_user_id"); businessID != "" {
		if !validID(businessID) {
			return c.JSON(http.StatusBadRequest, echo.Map{"business_user_id": "must be a valid id"})
		}
		args = append(args, businessID)
		where = ` WHERE business_user = $1`
	}
	if reviewerID := c.QueryParam("reviewer_id"); reviewerID != "" {
		if !validID(reviewerID) {
			return c.JSON(http.StatusBadRequest, echo.Map{"reviewer_id": "must be a valid id"})
		}
		args = append(args, reviewerID)
		if where == "" {
			where = ` WHERE reviewer = $1`
		} else {
			where += ` AND reviewer = $2`
		}
	}

	orderBy := "updated_at DESC"
	if param := c.QueryParam("ordering"); param != "" {
		clause, ok := orderings[param]
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"ordering": "invalid ordering field"})
		}
		orderBy = clause
	}

	rows, err := db.Conn.Query(ctx, query+where+` ORDER BY `+orderBy, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reviews"})
	}
	defer rows.Close()

	reviews := []Review{}
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse review record"})
		}
		reviews = append(reviews, r)
	}
	return c.JSON(http.StatusOK, reviews)
}

// GET /reviews/:id
func GetReview(c echo.Context) error {
	if !validID(c.Param("id")) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
	}
	r, err := scanReview(db.Conn.QueryRow(context.Background(),
		selectReview+` WHERE id = $1`, c.Param("id")))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch review"})
	}
	return c.JSON(http.StatusOK, r)
}

// POST /reviews — customer users only, at most one review per business.
func CreateReview(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	staff, _ := c.Get("is_staff").(bool)
	ctx := context.Background()

	var profileType string
	if err := db.Conn.QueryRow(ctx, `SELECT type FROM profiles WHERE user_id = $1`, uid).Scan(&profileType); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch profile"})
	}
	if !permissions.CanCreateReview(permissions.Requester{UserID: uid, Staff: staff}, profileType) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only customers may write reviews"})
	}

	var req struct {
		BusinessUser string `json:"business_user"`
		Rating       int    `json:"rating"`
		Description  string `json:"description"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if problems := validateReview(req.BusinessUser, req.Rating, req.Description); problems != nil {
		return c.JSON(http.StatusBadRequest, problems)
	}
	if !validID(req.BusinessUser) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "business user not found"})
	}

	var businessType string
	err := db.Conn.QueryRow(ctx, `SELECT type FROM profiles WHERE user_id = $1`, req.BusinessUser).Scan(&businessType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "business user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch business user"})
	}
	if businessType != permissions.ProfileBusiness {
		return c.JSON(http.StatusBadRequest, echo.Map{"business_user": "reviews can only target business users"})
	}

	// Early reject; the unique constraint below is the real guard under race.
	var already bool
	if err := db.Conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reviews WHERE business_user = $1 AND reviewer = $2)`,
		req.BusinessUser, uid).Scan(&already); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check existing reviews"})
	}
	if already {
		return c.JSON(http.StatusBadRequest, echo.Map{"business_user": "you have already reviewed this business"})
	}

	reviewID := uuid.New().String()
	_, err = db.Conn.Exec(ctx, `
        INSERT INTO reviews (id, business_user, reviewer, rating, description)
        VALUES ($1, $2, $3, $4, $5)
    `, reviewID, req.BusinessUser, uid, req.Rating, req.Description)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.JSON(http.StatusBadRequest, echo.Map{"business_user": "you have already reviewed this business"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create review"})
	}

	r, err := scanReview(db.Conn.QueryRow(ctx, selectReview+` WHERE id = $1`, reviewID))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch review"})
	}
	return c.JSON(http.StatusCreated, r)
}

// PATCH /reviews/:id — the reviewer or staff; only rating and description
// may change.
func UpdateReview(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	staff, _ := c.Get("is_staff").(bool)
	reviewID := c.Param("id")
	if !validID(reviewID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
	}
	ctx := context.Background()

	current, err := scanReview(db.Conn.QueryRow(ctx, selectReview+` WHERE id = $1`, reviewID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch review"})
	}

	if !permissions.CanMutateReview(permissions.Requester{UserID: uid, Staff: staff}, current.Reviewer) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you may only edit your own reviews"})
	}

	payload := map[string]any{}
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	problems := echo.Map{}
	for key := range payload {
		if key != "rating" && key != "description" {
			problems[key] = "this field cannot be updated"
		}
	}
	if len(problems) > 0 {
		return c.JSON(http.StatusBadRequest, problems)
	}

	rating := current.Rating
	if raw, ok := payload["rating"]; ok {
		val, ok := raw.(float64)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"rating": "rating must be a number"})
		}
		rating = int(val)
	}
	description := current.Description
	if raw, ok := payload["description"]; ok {
		val, ok := raw.(string)
		if !ok {
			return c.JSON(http.StatusBadRequest, echo.Map{"description": "description must be a string"})
		}
		description = val
	}
	if problems := validateReview(current.BusinessUser, rating, description); problems != nil {
		return c.JSON(http.StatusBadRequest, problems)
	}

	if _, err := db.Conn.Exec(ctx, `
        UPDATE reviews SET rating = $1, description = $2, updated_at = NOW() WHERE id = $3
    `, rating, description, reviewID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update review"})
	}

	r, err := scanReview(db.Conn.QueryRow(ctx, selectReview+` WHERE id = $1`, reviewID))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch review"})
	}
	return c.JSON(http.StatusOK, r)
}

// DELETE /reviews/:id — the reviewer or staff.
func DeleteReview(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	staff, _ := c.Get("is_staff").(bool)
	reviewID := c.Param("id")
	if !validID(reviewID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
	}
	ctx := context.Background()

	var reviewer string
	err := db.Conn.QueryRow(ctx, `SELECT reviewer FROM reviews WHERE id = $1`, reviewID).Scan(&reviewer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch review"})
	}
	if !permissions.CanMutateReview(permissions.Requester{UserID: uid, Staff: staff}, reviewer) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you may only delete your own reviews"})
	}

	if _, err := db.Conn.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, reviewID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete review"})
	}
	return c.NoContent(http.StatusNoContent)
}
