package offers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/offerhub/internal/db"
	"github.com/sudo-init-do/offerhub/internal/permissions"
)

const selectDetail = `
    SELECT id, offer_id, title, revisions, price, delivery_time_in_days, features, offer_type, created_at, updated_at
    FROM offer_details
`

func scanDetail(row pgx.Row) (OfferDetail, error) {
	var d OfferDetail
	var featuresRaw []byte
	err := row.Scan(&d.ID, &d.OfferID, &d.Title, &d.Revisions, &d.Price,
		&d.DeliveryTimeInDays, &featuresRaw, &d.OfferType, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return OfferDetail{}, err
	}
	d.Features = []string{}
	if len(featuresRaw) > 0 {
		if err := json.Unmarshal(featuresRaw, &d.Features); err != nil {
			return OfferDetail{}, err
		}
	}
	return d, nil
}

// detailOwner resolves a detail's id to its parent offer's owner.
func detailOwner(ctx context.Context, detailID string) (offerID, ownerID string, err error) {
	err = db.Conn.QueryRow(ctx, `
        SELECT d.offer_id, o.user_id
        FROM offer_details d
        JOIN offers o ON o.id = d.offer_id
        WHERE d.id = $1
    `, detailID).Scan(&offerID, &ownerID)
	return offerID, ownerID, err
}

// GET /offer-details — optionally filtered by offer_id
func ListDetails(c echo.Context) error {
	ctx := context.Background()

	var rows pgx.Rows
	var err error
	if offerID := c.QueryParam("offer_id"); offerID != "" {
		if !validID(offerID) {
			return c.JSON(http.StatusBadRequest, echo.Map{"offer_id": "must be a valid id"})
		}
		rows, err = db.Conn.Query(ctx, selectDetail+` WHERE offer_id = $1 ORDER BY price ASC`, offerID)
	} else {
		rows, err = db.Conn.Query(ctx, selectDetail+` ORDER BY created_at DESC`)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch offer details"})
	}
	defer rows.Close()

	details := []OfferDetail{}
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse detail record"})
		}
		details = append(details, d)
	}
	return c.JSON(http.StatusOK, details)
}

// GET /offer-details/:id
func GetDetail(c echo.Context) error {
	if !validID(c.Param("id")) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offer detail not found"})
	}
	d, err := scanDetail(db.Conn.QueryRow(context.Background(),
		selectDetail+` WHERE id = $1`, c.Param("id")))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer detail not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offer detail"})
	}
	return c.JSON(http.StatusOK, d)
}

// POST /offer-details — owner of the parent offer or staff. The tier must
// not collide with an existing detail of that offer.
func CreateDetail(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	staff, _ := c.Get("is_staff").(bool)
	ctx := context.Background()

	var req struct {
		OfferID string `json:"offer"`
		DetailInput
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.OfferID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"offer": "offer is required"})
	}
	if !validID(req.OfferID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
	}

	var ownerID string
	err := db.Conn.QueryRow(ctx, `SELECT user_id FROM offers WHERE id = $1`, req.OfferID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offer"})
	}
	if !permissions.CanMutateOffer(permissions.Requester{UserID: uid, Staff: staff}, ownerID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you may only edit your own offers"})
	}

	if problems := validateDetails([]DetailInput{req.DetailInput}, false); problems != nil {
		return c.JSON(http.StatusBadRequest, problems)
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	detailID := uuid.New().String()
	_, err = tx.Exec(ctx, `
        INSERT INTO offer_details (id, offer_id, title, revisions, price, delivery_time_in_days, features, offer_type)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, detailID, req.OfferID, req.Title, req.Revisions, req.Price, req.DeliveryTimeInDays,
		encodeFeatures(req.Features), req.OfferType)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.JSON(http.StatusBadRequest, echo.Map{"offer_type": "this offer already has a " + req.OfferType + " detail"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create offer detail"})
	}
	if err := recomputeAggregates(ctx, tx, req.OfferID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update offer aggregates"})
	}
	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	d, err := scanDetail(db.Conn.QueryRow(ctx, selectDetail+` WHERE id = $1`, detailID))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offer detail"})
	}
	return c.JSON(http.StatusCreated, d)
}

// PATCH /offer-details/:id — owner of the parent offer or staff.
func UpdateDetail(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	staff, _ := c.Get("is_staff").(bool)
	detailID := c.Param("id")
	if !validID(detailID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offer detail not found"})
	}
	ctx := context.Background()

	current, err := scanDetail(db.Conn.QueryRow(ctx, selectDetail+` WHERE id = $1`, detailID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer detail not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offer detail"})
	}

	var ownerID string
	if err := db.Conn.QueryRow(ctx, `SELECT user_id FROM offers WHERE id = $1`, current.OfferID).Scan(&ownerID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offer"})
	}
	if !permissions.CanMutateOffer(permissions.Requester{UserID: uid, Staff: staff}, ownerID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you may only edit your own offers"})
	}

	var req struct {
		Title              *string   `json:"title"`
		Revisions          *int      `json:"revisions"`
		Price              *float64  `json:"price"`
		DeliveryTimeInDays *int      `json:"delivery_time_in_days"`
		Features           *[]string `json:"features"`
		OfferType          *string   `json:"offer_type"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Title != nil {
		current.Title = *req.Title
	}
	if req.Revisions != nil {
		current.Revisions = *req.Revisions
	}
	if req.Price != nil {
		current.Price = *req.Price
	}
	if req.DeliveryTimeInDays != nil {
		current.DeliveryTimeInDays = *req.DeliveryTimeInDays
	}
	if req.Features != nil {
		current.Features = *req.Features
	}
	if req.OfferType != nil {
		current.OfferType = *req.OfferType
	}

	merged := DetailInput{
		Title:              current.Title,
		Revisions:          current.Revisions,
		Price:              current.Price,
		DeliveryTimeInDays: current.DeliveryTimeInDays,
		Features:           current.Features,
		OfferType:          current.OfferType,
	}
	if problems := validateDetails([]DetailInput{merged}, false); problems != nil {
		return c.JSON(http.StatusBadRequest, problems)
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        UPDATE offer_details
        SET title = $1, revisions = $2, price = $3, delivery_time_in_days = $4,
            features = $5, offer_type = $6, updated_at = NOW()
        WHERE id = $7
    `, merged.Title, merged.Revisions, merged.Price, merged.DeliveryTimeInDays,
		encodeFeatures(merged.Features), merged.OfferType, detailID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return c.JSON(http.StatusBadRequest, echo.Map{"offer_type": "this offer already has a " + merged.OfferType + " detail"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update offer detail"})
	}
	if err := recomputeAggregates(ctx, tx, current.OfferID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update offer aggregates"})
	}
	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	d, err := scanDetail(db.Conn.QueryRow(ctx, selectDetail+` WHERE id = $1`, detailID))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offer detail"})
	}
	return c.JSON(http.StatusOK, d)
}

// DELETE /offer-details/:id — owner of the parent offer or staff.
func DeleteDetail(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	staff, _ := c.Get("is_staff").(bool)
	detailID := c.Param("id")
	if !validID(detailID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offer detail not found"})
	}
	ctx := context.Background()

	offerID, ownerID, err := detailOwner(ctx, detailID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer detail not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offer detail"})
	}
	if !permissions.CanMutateOffer(permissions.Requester{UserID: uid, Staff: staff}, ownerID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you may only edit your own offers"})
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM offer_details WHERE id = $1`, detailID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete offer detail"})
	}
	if err := recomputeAggregates(ctx, tx, offerID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update offer aggregates"})
	}
	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	return c.NoContent(http.StatusNoContent)
}
