package orders

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/sudo-init-do/offerhub/internal/db"
	"github.com/sudo-init-do/offerhub/internal/permissions"
)

// validID guards queries against malformed UUID path or body values, which
// would otherwise error at the uuid cast instead of reading as absent.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

const selectOrder = `
    SELECT id, customer_user, business_user, title, revisions, delivery_time_in_days,
           price, features, offer_type, status, created_at, updated_at
    FROM orders
`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var featuresRaw []byte
	err := row.Scan(&o.ID, &o.CustomerUser, &o.BusinessUser, &o.Title, &o.Revisions,
		&o.DeliveryTimeInDays, &o.Price, &featuresRaw, &o.OfferType, &o.Status,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, err
	}
	o.Features = []string{}
	if len(featuresRaw) > 0 {
		if err := json.Unmarshal(featuresRaw, &o.Features); err != nil {
			return Order{}, err
		}
	}
	return o, nil
}

// POST /orders — customer users only. Copies the chosen offer detail's
// fields into the order row; the snapshot never changes afterwards.
func CreateOrder(c echo.Context) error {
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
	if !permissions.CanCreateOrder(permissions.Requester{UserID: uid, Staff: staff}, profileType) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only customers may place orders"})
	}

	var req struct {
		OfferDetailID string `json:"offer_detail_id"`
	}
	if err := c.Bind(&req); err != nil || req.OfferDetailID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"offer_detail_id": "offer_detail_id is required"})
	}
	if !validID(req.OfferDetailID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offer detail not found"})
	}

	var (
		title        string
		revisions    int
		deliveryTime int
		price        float64
		featuresRaw  []byte
		offerType    string
		businessUser string
	)
	err := db.Conn.QueryRow(ctx, `
        SELECT d.title, d.revisions, d.delivery_time_in_days, d.price, d.features, d.offer_type, o.user_id
        FROM offer_details d
        JOIN offers o ON o.id = d.offer_id
        WHERE d.id = $1
    `, req.OfferDetailID).Scan(&title, &revisions, &deliveryTime, &price, &featuresRaw, &offerType, &businessUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "offer detail not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch offer detail"})
	}

	orderID := uuid.New().String()
	_, err = db.Conn.Exec(ctx, `
        INSERT INTO orders (id, customer_user, business_user, title, revisions,
            delivery_time_in_days, price, features, offer_type, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `, orderID, uid, businessUser, title, revisions, deliveryTime, price, featuresRaw, offerType, StatusInProgress)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create order"})
	}

	o, err := scanOrder(db.Conn.QueryRow(ctx, selectOrder+` WHERE id = $1`, orderID))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
	}
	return c.JSON(http.StatusCreated, o)
}

// GET /orders — participants see their own orders, staff see all.
func ListOrders(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	staff, _ := c.Get("is_staff").(bool)
	ctx := context.Background()

	var rows pgx.Rows
	var err error
	if staff {
		rows, err = db.Conn.Query(ctx, selectOrder+` ORDER BY created_at DESC`)
	} else {
		rows, err = db.Conn.Query(ctx,
			selectOrder+` WHERE customer_user = $1 OR business_user = $1 ORDER BY created_at DESC`, uid)
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch orders"})
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse order record"})
		}
		orders = append(orders, o)
	}
	return c.JSON(http.StatusOK, orders)
}

// GET /orders/:id — participants or staff.
func GetOrder(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	staff, _ := c.Get("is_staff").(bool)
	if !validID(c.Param("id")) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}

	o, err := scanOrder(db.Conn.QueryRow(context.Background(),
		selectOrder+` WHERE id = $1`, c.Param("id")))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
	}

	if !permissions.CanViewOrder(permissions.Requester{UserID: uid, Staff: staff}, o.CustomerUser, o.BusinessUser) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "you are not a party to this order"})
	}
	return c.JSON(http.StatusOK, o)
}

// PATCH /orders/:id — business party or staff; only status may change.
func UpdateOrderStatus(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	staff, _ := c.Get("is_staff").(bool)
	orderID := c.Param("id")
	if !validID(orderID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	ctx := context.Background()

	o, err := scanOrder(db.Conn.QueryRow(ctx, selectOrder+` WHERE id = $1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
	}

	if !permissions.CanUpdateOrderStatus(permissions.Requester{UserID: uid, Staff: staff}, o.BusinessUser) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the business user may update the order status"})
	}

	payload := map[string]any{}
	if err := c.Bind(&payload); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	problems := echo.Map{}
	for key := range payload {
		if key != "status" {
			problems[key] = "this field cannot be updated"
		}
	}
	if len(problems) > 0 {
		return c.JSON(http.StatusBadRequest, problems)
	}

	newStatus, _ := payload["status"].(string)
	if !ValidStatus(newStatus) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"status": "invalid status, allowed: " + AllowedStatusList(),
		})
	}
	if reason := CheckTransition(o.Status, newStatus); reason != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"status": reason})
	}

	if o.Status != newStatus {
		if _, err := db.Conn.Exec(ctx,
			`UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, newStatus, orderID); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update order status"})
		}
		o.Status = newStatus
	}

	o, err = scanOrder(db.Conn.QueryRow(ctx, selectOrder+` WHERE id = $1`, orderID))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
	}
	return c.JSON(http.StatusOK, o)
}

// DELETE /orders/:id — staff only, regardless of involvement.
func DeleteOrder(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	staff, _ := c.Get("is_staff").(bool)
	orderID := c.Param("id")
	if !validID(orderID) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}
	ctx := context.Background()

	var exists bool
	if err := db.Conn.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, orderID).Scan(&exists); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch order"})
	}
	if !exists {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	}

	if !permissions.CanDeleteOrder(permissions.Requester{UserID: uid, Staff: staff}) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only admins may delete orders"})
	}

	if _, err := db.Conn.Exec(ctx, `DELETE FROM orders WHERE id = $1`, orderID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to delete order"})
	}
	return c.NoContent(http.StatusNoContent)
}
