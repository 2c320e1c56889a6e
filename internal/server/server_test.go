package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/sudo-init-do/offerhub/internal/db"
)

// startTestDB boots a throwaway Postgres container and points the global
// pool at it. Skips the test when no container runtime is available.
func startTestDB(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	pgC, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("offerhub_test"),
		postgres.WithUsername("offerhub"),
		postgres.WithPassword("offerhub"),
	)
	if err != nil {
		t.Skipf("could not start postgres container: %v", err)
	}
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	dsn, err := pgC.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("resolve connection string: %v", err)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	db.Conn = pool
}

func doJSON(t *testing.T, e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func registerUser(t *testing.T, e *echo.Echo, username, profileType string) (token, userID string) {
	t.Helper()
	rec := doJSON(t, e, http.MethodPost, "/registration", "", map[string]any{
		"username":          username,
		"email":             username + "@example.com",
		"password":          "secret123",
		"repeated_password": "secret123",
		"type":              profileType,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("registration of %s failed: %d %s", username, rec.Code, rec.Body.String())
	}
	body := decode(t, rec)
	token, _ = body["token"].(string)
	userID, _ = body["user_id"].(string)
	if token == "" || userID == "" {
		t.Fatalf("registration response missing token or user_id: %v", body)
	}
	return token, userID
}

func createOffer(t *testing.T, e *echo.Echo, token string, prices [3]float64) map[string]any {
	t.Helper()
	details := []map[string]any{}
	for i, tier := range []string{"basic", "standard", "premium"} {
		details = append(details, map[string]any{
			"title":                 tier + " package",
			"revisions":             i + 1,
			"price":                 prices[i],
			"delivery_time_in_days": (i + 1) * 3,
			"features":              []string{"feature one"},
			"offer_type":            tier,
		})
	}
	rec := doJSON(t, e, http.MethodPost, "/offers", token, map[string]any{
		"title":       "Logo design",
		"description": "Clean vector logos",
		"details":     details,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("offer creation failed: %d %s", rec.Code, rec.Body.String())
	}
	return decode(t, rec)
}

func TestAPIEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	t.Setenv("JWT_SECRET", "integration-secret")
	startTestDB(t)

	e := New()

	businessToken, businessID := registerUser(t, e, "studio", "business")
	customerToken, customerID := registerUser(t, e, "client", "customer")
	_ = customerID

	// Duplicate username is a field-keyed 400.
	rec := doJSON(t, e, http.MethodPost, "/registration", "", map[string]any{
		"username":          "studio",
		"email":             "other@example.com",
		"password":          "secret123",
		"repeated_password": "secret123",
		"type":              "customer",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate username: expected 400, got %d", rec.Code)
	}

	// Public profile listings need no token.
	rec = doJSON(t, e, http.MethodGet, "/profiles/business", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("business profile listing: expected 200, got %d", rec.Code)
	}
	// The single profile endpoint does.
	rec = doJSON(t, e, http.MethodGet, "/profile/"+businessID, "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("profile without token: expected 401, got %d", rec.Code)
	}

	// Customers cannot publish offers.
	rec = doJSON(t, e, http.MethodPost, "/offers", customerToken, map[string]any{"title": "nope"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("customer offer creation: expected 403, got %d", rec.Code)
	}

	offer := createOffer(t, e, businessToken, [3]float64{10, 20, 30})
	offerID, _ := offer["id"].(string)
	_ = offerID
	if got, _ := offer["min_price"].(float64); got != 10 {
		t.Errorf("expected min_price 10, got %v", offer["min_price"])
	}

	details, _ := offer["details"].([]any)
	if len(details) != 3 {
		t.Fatalf("expected 3 details, got %d", len(details))
	}
	var basicDetailID string
	for _, raw := range details {
		d := raw.(map[string]any)
		if d["offer_type"] == "basic" {
			basicDetailID, _ = d["id"].(string)
		}
	}
	if basicDetailID == "" {
		t.Fatal("no basic detail in offer response")
	}

	// Order snapshots the detail at purchase time.
	rec = doJSON(t, e, http.MethodPost, "/orders", customerToken, map[string]any{
		"offer_detail_id": basicDetailID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("order creation failed: %d %s", rec.Code, rec.Body.String())
	}
	order := decode(t, rec)
	orderID, _ := order["id"].(string)
	if got, _ := order["price"].(float64); got != 10 {
		t.Errorf("expected order price 10, got %v", order["price"])
	}
	if got, _ := order["status"].(string); got != "in_progress" {
		t.Errorf("expected status in_progress, got %v", order["status"])
	}

	// Raising the detail price later must not touch the order snapshot.
	rec = doJSON(t, e, http.MethodPatch, "/offer-details/"+basicDetailID, businessToken, map[string]any{
		"price": 99.0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("detail price update failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, e, http.MethodGet, "/orders/"+orderID, customerToken, nil)
	if got, _ := decode(t, rec)["price"].(float64); got != 10 {
		t.Errorf("order price changed after detail edit: got %v", got)
	}

	// Business users cannot place orders.
	rec = doJSON(t, e, http.MethodPost, "/orders", businessToken, map[string]any{
		"offer_detail_id": basicDetailID,
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("business order creation: expected 403, got %d", rec.Code)
	}

	// Status counts move with the order lifecycle.
	assertCount := func(path, key string, want float64) {
		t.Helper()
		rec := doJSON(t, e, http.MethodGet, path, customerToken, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("count %s failed: %d %s", path, rec.Code, rec.Body.String())
		}
		if got, _ := decode(t, rec)[key].(float64); got != want {
			t.Errorf("%s: expected %v, got %v", path, want, got)
		}
	}
	assertCount("/order-count/"+businessID, "order_count", 1)
	assertCount("/completed-order-count/"+businessID, "completed_order_count", 0)

	// Only the business side may complete the order.
	rec = doJSON(t, e, http.MethodPatch, "/orders/"+orderID, customerToken, map[string]any{"status": "completed"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("customer status update: expected 403, got %d", rec.Code)
	}
	rec = doJSON(t, e, http.MethodPatch, "/orders/"+orderID, businessToken, map[string]any{"status": "completed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status update failed: %d %s", rec.Code, rec.Body.String())
	}
	assertCount("/order-count/"+businessID, "order_count", 0)
	assertCount("/completed-order-count/"+businessID, "completed_order_count", 1)

	// Repeating the same status is a no-op, switching away is rejected.
	rec = doJSON(t, e, http.MethodPatch, "/orders/"+orderID, businessToken, map[string]any{"status": "completed"})
	if rec.Code != http.StatusOK {
		t.Errorf("idempotent status repeat: expected 200, got %d", rec.Code)
	}
	rec = doJSON(t, e, http.MethodPatch, "/orders/"+orderID, businessToken, map[string]any{"status": "cancelled"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("completed -> cancelled: expected 400, got %d", rec.Code)
	}

	// Reviews: one per (reviewer, business).
	rec = doJSON(t, e, http.MethodPost, "/reviews", customerToken, map[string]any{
		"business_user": businessID,
		"rating":        5,
		"description":   "great work",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("review creation failed: %d %s", rec.Code, rec.Body.String())
	}
	reviewID, _ := decode(t, rec)["id"].(string)

	rec = doJSON(t, e, http.MethodPost, "/reviews", customerToken, map[string]any{
		"business_user": businessID,
		"rating":        4,
		"description":   "again",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate review: expected 400, got %d", rec.Code)
	}

	// Base info reflects the live data.
	rec = doJSON(t, e, http.MethodGet, "/base-info", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("base-info failed: %d", rec.Code)
	}
	info := decode(t, rec)
	if got, _ := info["review_count"].(float64); got != 1 {
		t.Errorf("expected review_count 1, got %v", got)
	}
	if got, _ := info["average_rating"].(float64); got != 5 {
		t.Errorf("expected average_rating 5, got %v", got)
	}
	if got, _ := info["business_profile_count"].(float64); got != 1 {
		t.Errorf("expected business_profile_count 1, got %v", got)
	}

	// Staff can remove someone else's review, after which the customer may
	// review the business again.
	staffToken, _ := registerUser(t, e, "moderator", "customer")
	if _, err := db.Conn.Exec(context.Background(),
		`UPDATE users SET is_staff = TRUE WHERE username = 'moderator'`); err != nil {
		t.Fatalf("promote staff: %v", err)
	}
	// New token so the staff claim is present.
	rec = doJSON(t, e, http.MethodPost, "/login", "", map[string]any{
		"username": "moderator",
		"password": "secret123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("staff login failed: %d %s", rec.Code, rec.Body.String())
	}
	staffToken, _ = decode(t, rec)["token"].(string)

	rec = doJSON(t, e, http.MethodDelete, "/reviews/"+reviewID, staffToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("staff review delete: expected 204, got %d", rec.Code)
	}
	rec = doJSON(t, e, http.MethodPost, "/reviews", customerToken, map[string]any{
		"business_user": businessID,
		"rating":        3,
		"description":   "revised opinion",
	})
	if rec.Code != http.StatusCreated {
		t.Errorf("re-review after delete: expected 201, got %d %s", rec.Code, rec.Body.String())
	}

	// Only staff may delete orders.
	rec = doJSON(t, e, http.MethodDelete, "/orders/"+orderID, customerToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("customer order delete: expected 403, got %d", rec.Code)
	}
	rec = doJSON(t, e, http.MethodDelete, "/orders/"+orderID, staffToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("staff order delete: expected 204, got %d", rec.Code)
	}

	// Offer list pagination and filters.
	for i := 0; i < 7; i++ {
		createOffer(t, e, businessToken, [3]float64{float64(50 + i), 100, 150})
	}
	rec = doJSON(t, e, http.MethodGet, "/offers", customerToken, nil)
	page := decode(t, rec)
	if got, _ := page["count"].(float64); got != 8 {
		t.Errorf("expected 8 offers total, got %v", got)
	}
	results, _ := page["results"].([]any)
	if len(results) != 6 {
		t.Errorf("expected default page size 6, got %d", len(results))
	}
	rec = doJSON(t, e, http.MethodGet, fmt.Sprintf("/offers?min_price=%d", 40), customerToken, nil)
	page = decode(t, rec)
	if got, _ := page["count"].(float64); got != 7 {
		t.Errorf("expected 7 offers with min_price>=40, got %v", got)
	}

	// Malformed ids read as absent, not as server errors.
	rec = doJSON(t, e, http.MethodGet, "/offers/not-a-uuid", customerToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("malformed offer id: expected 404, got %d", rec.Code)
	}
	rec = doJSON(t, e, http.MethodGet, "/orders/not-a-uuid", customerToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("malformed order id: expected 404, got %d", rec.Code)
	}

	// Owner-only profile updates, even for staff.
	rec = doJSON(t, e, http.MethodPatch, "/profile/"+businessID, customerToken, map[string]any{"location": "Berlin"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("foreign profile patch: expected 403, got %d", rec.Code)
	}
	rec = doJSON(t, e, http.MethodPatch, "/profile/"+businessID, staffToken, map[string]any{"location": "Berlin"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("staff profile patch: expected 403, got %d", rec.Code)
	}
	rec = doJSON(t, e, http.MethodPatch, "/profile/"+businessID, businessToken, map[string]any{"location": "Berlin"})
	if rec.Code != http.StatusOK {
		t.Fatalf("own profile patch failed: %d %s", rec.Code, rec.Body.String())
	}
	if got, _ := decode(t, rec)["location"].(string); got != "Berlin" {
		t.Errorf("expected location Berlin, got %q", got)
	}
}
