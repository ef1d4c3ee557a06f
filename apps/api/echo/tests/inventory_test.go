package tests

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ebdapp/ebd/core/inventory"
	"github.com/ebdapp/ebd/core/user"
	"github.com/ebdapp/ebd/tests"
)

func decodeInventory(t *testing.T, rec *httptest.ResponseRecorder) inventory.Inventory {
	t.Helper()
	var inv inventory.Inventory
	if err := json.Unmarshal(rec.Body.Bytes(), &inv); err != nil {
		t.Fatalf("unmarshaling Inventory: %v; body = %s", err, rec.Body.String())
	}
	return inv
}

func Test_inventoryApi_counters(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Maria Silva", "mariasilva", "maria@test.test", "",
		[]string{user.RoleTeacher}, true)
	token := getToken(t, teacher)

	intPtr := func(n int) *int { return &n }

	// auth required
	req, rec := newRequest(http.MethodGet, "/v1/inventory")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated code = %d", rec.Code)
	}

	// first read stamps the reset date on a zero-valued inventory
	req, rec = newAuthRequest(http.MethodGet, "/v1/inventory", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("retrieve code = %d; body = %s", rec.Code, rec.Body.String())
	}
	inv := decodeInventory(t, rec)
	if inv.Bibles != 0 || inv.Magazines != 0 || inv.Offerings != 0 {
		t.Errorf("inventory = %+v", inv)
	}
	if inv.LastResetDate == nil {
		t.Error("first read did not stamp LastResetDate")
	}

	// absolute set
	req, rec = newAuthRequest(http.MethodPut, "/v1/inventory", token,
		marchallObj(t, inventory.CounterUpdate{Field: inventory.Bibles, Value: intPtr(12)}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("set code = %d; body = %s", rec.Code, rec.Body.String())
	}
	if inv = decodeInventory(t, rec); inv.Bibles != 12 {
		t.Errorf("bibles = %d, want 12", inv.Bibles)
	}

	// a negative absolute value clamps to zero
	req, rec = newAuthRequest(http.MethodPut, "/v1/inventory", token,
		marchallObj(t, inventory.CounterUpdate{Field: inventory.Magazines, Value: intPtr(-4)}))
	app.ServeHTTP(rec, req)
	if inv = decodeInventory(t, rec); inv.Magazines != 0 {
		t.Errorf("magazines = %d, want 0", inv.Magazines)
	}

	// step up and down
	req, rec = newAuthRequest(http.MethodPost, "/v1/inventory/increment", token,
		marchallObj(t, inventory.CounterStep{Field: inventory.Offerings}))
	app.ServeHTTP(rec, req)
	if inv = decodeInventory(t, rec); inv.Offerings != 1 {
		t.Errorf("offerings = %d, want 1", inv.Offerings)
	}
	req, rec = newAuthRequest(http.MethodPost, "/v1/inventory/decrement", token,
		marchallObj(t, inventory.CounterStep{Field: inventory.Offerings}))
	app.ServeHTTP(rec, req)
	if inv = decodeInventory(t, rec); inv.Offerings != 0 {
		t.Errorf("offerings = %d, want 0", inv.Offerings)
	}

	// decrement never goes below zero
	req, rec = newAuthRequest(http.MethodPost, "/v1/inventory/decrement", token,
		marchallObj(t, inventory.CounterStep{Field: inventory.Offerings}))
	app.ServeHTTP(rec, req)
	if inv = decodeInventory(t, rec); inv.Offerings != 0 {
		t.Errorf("offerings = %d, want 0", inv.Offerings)
	}

	// unknown field is rejected
	req, rec = newAuthRequest(http.MethodPut, "/v1/inventory", token,
		marchallObj(t, inventory.CounterUpdate{Field: "candles", Value: intPtr(3)}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown field code = %d", rec.Code)
	}
}

func Test_inventoryApi_sundayReset(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Maria Silva", "mariasilva", "maria@test.test", "",
		[]string{user.RoleTeacher}, true)
	token := getToken(t, teacher)

	defer func() { inventory.NowFunc = time.Now }()

	// Saturday: counters accumulate
	saturday := time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)
	inventory.NowFunc = func() time.Time { return saturday }

	value := 7
	req, rec := newAuthRequest(http.MethodPut, "/v1/inventory", token,
		marchallObj(t, inventory.CounterUpdate{Field: inventory.Bibles, Value: &value}))
	app.ServeHTTP(rec, req)
	if inv := decodeInventory(t, rec); inv.Bibles != 7 {
		t.Fatalf("bibles = %d, want 7", inv.Bibles)
	}

	// Sunday morning: the first read zeroes everything and restamps
	sunday := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	inventory.NowFunc = func() time.Time { return sunday }

	req, rec = newAuthRequest(http.MethodGet, "/v1/inventory", token)
	app.ServeHTTP(rec, req)
	inv := decodeInventory(t, rec)
	if inv.Bibles != 0 {
		t.Errorf("bibles = %d, want 0 after Sunday reset", inv.Bibles)
	}
	if inv.LastResetDate == nil || !inv.LastResetDate.Equal(time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("LastResetDate = %v", inv.LastResetDate)
	}

	// later the same Sunday the reset must not fire again
	value = 3
	req, rec = newAuthRequest(http.MethodPut, "/v1/inventory", token,
		marchallObj(t, inventory.CounterUpdate{Field: inventory.Bibles, Value: &value}))
	app.ServeHTTP(rec, req)

	sundayEvening := time.Date(2024, 3, 10, 19, 30, 0, 0, time.UTC)
	inventory.NowFunc = func() time.Time { return sundayEvening }

	req, rec = newAuthRequest(http.MethodGet, "/v1/inventory", token)
	app.ServeHTTP(rec, req)
	if inv = decodeInventory(t, rec); inv.Bibles != 3 {
		t.Errorf("bibles = %d, want 3 on the same Sunday", inv.Bibles)
	}
}
