package offers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/offerhub/internal/db"
	"github.com/sudo-init-do/offerhub/internal/permissions"
)

// validID guards queries against malformed UUID path or query values, which
// would otherwise error at the uuid cast instead of reading as absent.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

const selectOffer = `
    SELECT id, user_id, title, image, description, min_price, min_delivery_time, created_at, updated_at
    FROM offers
`

var orderings = map[string]string{
	"created_at":  "created_at ASC",
	"-created_at": "created_at DESC",
	"updated_at":  "updated_at ASC",
	"-updated_at": "updated_at DESC",
}

func encodeFeatures(features []string) []byte {
	if features == nil {
		features = []string{}
	}
	raw, _ := json.Marshal(features)
	return raw
}

func scanOffer(row pgx.Row) (Offer, error) {
	var o Offer
	err := row.Scan(&o.ID, &o.UserID, &o.Title, &o.Image, &o.Description,
		&o.MinPrice, &o.MinDeliveryTime, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// loadDetails attaches the detail tiers to each offer in a single query.
func loadDetails(ctx context.Context, offers []Offer) error {
	if len(offers) == 0 {
		return nil
	}
	ids := make([]string, len(offers))
	byID := make(map[string]*Offer, len(offers))
	for i := range offers {
		ids[i] = offers[i].ID
		byID[offers[i].ID] = &offers[i]
		offers[i].Details = []OfferDetail{}
	}

	rows, err := db.Conn.Query(ctx, selectDetail+` WHERE offer_id = ANY($1) ORDER BY price ASC`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return err
		}
		if o, ok := byID[d.OfferID]; ok {
			o.Details = append(o.Details, d)
		}
	}
	return rows.Err()
}

func fetchOffer(ctx context.Context, id string) (Offer, error) {
	o, err := scanOffer(db.Conn.QueryRow(ctx, selectOffer+` WHERE id = $1`, id))
	if err != nil {
		return Offer{}, err
	}
	list := []Offer{o}
	if err := loadDetails(ctx, list); err != nil {
		return Offer{}, err
	}
	return list[0], nil
}

// recomputeAggregates rewrites min_price and min_delivery_time from the
// current detail rows. Must run inside the same transaction as the detail
// mutation so readers never see stale aggregates.
func recomputeAggregates(ctx context.Context, tx pgx.Tx, offerID string) error {
	_, err := tx.Exec(ctx, `
        UPDATE offers
        SET min_price = COALESCE((SELECT MIN(price) FROM offer_details WHERE offer_id = $1), 0),
            min_delivery_time = COALESCE((SELECT MIN(delivery_time_in_days) FROM offer_details WHERE offer_id = $1), 0),
            updated_at = NOW()
        WHERE id = $1
    `, offerID)
	return err
}

func insertDetails(ctx context.Context, tx pgx.Tx, offerID string, details []DetailInput) error {
	for _, d := range details {
		_, err := tx.Exec(ctx, `
            INSERT INTO offer_details (id, offer_id, title, revisions, price, delivery_time_in_days, features, offer_type)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        `, uuid.New().String(), offerID, d.Title, d.Revisions, d.Price, d.DeliveryTimeInDays,
			encodeFeatures(d.Features), d.OfferType)
		if err != nil {
			return err
		}
	}
	return nil
}

// GET /offers
func ListOffers(c echo.Context) error {
	ctx := context.Background()

	where := []string{}
	args := []any{}

	if creatorID := c.QueryParam("creator_id"); creatorID != "" {
		if !validID(creatorID) {
			return c.JSON(http.StatusBadRequest, echo.Map{"creator_id": "must be a valid id"})
		}
		args = append(args, creatorID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if minPrice := c.QueryParam("min_price"); minPrice != "" {
		v, err := strconv.ParseFloat(minPrice, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"min_price": "must be a number"})
		}
		args = append(args, v)
		where = append(where, fmt.Sprintf("min_price >= $%d", len(args)))
	}
	if maxDelivery := c.QueryParam("max_delivery_time"); maxDelivery != "" {
		v, err := strconv.Atoi(maxDelivery)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"max_delivery_time": "must be a number"})
		}
		args = append(args, v)
		where = append(where, fmt.Sprintf("min_delivery_time <= $%d", len(args)))
	}
	if search := c.QueryParam("search"); search != "" {
		args = append(args, "%"+search+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	orderBy, ok := orderings[c.QueryParam("ordering")]
	if !ok {
		orderBy = orderings["created_at"]
	}

	var total int
	if err := db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM offers`+cond, args...).Scan(&total); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch offers"})
	}

	page, pageSize := parsePaging(c.QueryParam("page"), c.QueryParam("page_size"))
	args = append(args, pageSize, (page-1)*pageSize)
	query := fmt.Sprintf("%s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		selectOffer, cond, orderBy, len(args)-1, len(args))

	rows, err := db.Conn.Query(ctx, query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch offers"})
	}
	defer rows.Close()

	offers := []Offer{}
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse offer record"})
		}
		offers = append(offers, o)
	}
	rows.Close()

	if err := loadDetails(ctx, offers); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offer details"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"count":     total,
		"page":      page,
		"page_size": pageSize,
		"results":   offers,
	})
}

// GET /offers/:id
func GetOffer(c echo.Context) error {
	if !validID(c.Param("id")) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
	}
	o, err := fetchOffer(context.Background(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offer"})
	}
	return c.JSON(http.StatusOK, o)
}

// POST /offers — business users only; offer, details and aggregates are
// written in one transaction.
func CreateOffer(c echo.Context) error {
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
	if !permissions.CanCreateOffer(permissions.Requester{UserID: uid, Staff: staff}, profileType) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only business users may create offers"})
	}

	var req struct {
		Title       string        `json:"title"`
		Image       string        `json:"image"`
		Description string        `json:"description"`
		Details     []DetailInput `json:"details"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"title": "title is required"})
	}
	if problems := validateDetails(req.Details, true); problems != nil {
		return c.JSON(http.StatusBadRequest, problems)
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	offerID := uuid.New().String()
	_, err = tx.Exec(ctx, `
        INSERT INTO offers (id, user_id, title, image, description)
        VALUES ($1, $2, $3, $4, $5)
    `, offerID, uid, req.Title, req.Image, req.Description)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create offer"})
	}

	if err := insertDetails(ctx, tx, offerID, req.Details); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create offer details"})
	}
	if err := recomputeAggregates(ctx, tx, offerID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update offer aggregates"})
	}
	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	o, err := fetchOffer(ctx, offerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offer"})
	}
	return c.JSON(http.StatusCreated, o)
}

// PATCH /offers/:id — owner or staff. A details payload replaces the whole
// detail set; aggregates are recomputed in the same transaction.
func UpdateOffer(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	staff, _ := c.Get("is_staff").(bool)
	offerID := c.Param("id")
	if !validID(offerID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
	}
	ctx := context.Background()

	var ownerID string
	err := db.Conn.QueryRow(ctx, `SELECT user_id FROM offers WHERE id = $1`, offerID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offer"})
	}
	if !permissions.CanMutateOffer(permissions.Requester{UserID: uid, Staff: staff}, ownerID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you may only edit your own offers"})
	}

	var req struct {
		Title       string        `json:"title"`
		Image       string        `json:"image"`
		Description string        `json:"description"`
		Details     []DetailInput `json:"details"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	// A details payload replaces the whole set, so it must be a complete
	// tri-tier set just like on create.
	if req.Details != nil {
		if problems := validateDetails(req.Details, true); problems != nil {
			return c.JSON(http.StatusBadRequest, problems)
		}
	}

	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction start failed"})
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
        UPDATE offers
        SET title = COALESCE(NULLIF($1, ''), title),
            image = COALESCE(NULLIF($2, ''), image),
            description = COALESCE(NULLIF($3, ''), description),
            updated_at = NOW()
        WHERE id = $4
    `, req.Title, req.Image, req.Description, offerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update offer"})
	}

	if req.Details != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM offer_details WHERE offer_id = $1`, offerID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to replace offer details"})
		}
		if err := insertDetails(ctx, tx, offerID, req.Details); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to replace offer details"})
		}
		if err := recomputeAggregates(ctx, tx, offerID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update offer aggregates"})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}

	o, err := fetchOffer(ctx, offerID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offer"})
	}
	return c.JSON(http.StatusOK, o)
}

// DELETE /offers/:id — owner or staff; details are cascade-deleted.
func DeleteOffer(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	staff, _ := c.Get("is_staff").(bool)
	offerID := c.Param("id")
	if !validID(offerID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
	}
	ctx := context.Background()

	var ownerID string
	err := db.Conn.QueryRow(ctx, `SELECT user_id FROM offers WHERE id = $1`, offerID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offer"})
	}
	if !permissions.CanMutateOffer(permissions.Requester{UserID: uid, Staff: staff}, ownerID) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you may only delete your own offers"})
	}

	if _, err := db.Conn.Exec(ctx, `DELETE FROM offers WHERE id = $1`, offerID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete offer"})
	}
	return c.NoContent(http.StatusNoContent)
}
