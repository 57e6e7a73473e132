package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/pocketbook/pocketbook/internal/config"
	"github.com/pocketbook/pocketbook/internal/identity"
	"github.com/pocketbook/pocketbook/internal/logging"
)

const testSecret = "routes-test-secret"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	app := fiber.New()
	err := Setup(app, Deps{
		Cfg: config.Config{
			AppEnv:    "test",
			JWTSecret: testSecret,
		},
		Logger: logging.Discard(),
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	return app
}

func authedRequest(t *testing.T, method, path, owner string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	token, err := identity.SignHS256(map[string]any{"sub": owner}, []byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func doJSON(t *testing.T, app *fiber.App, req *http.Request, wantStatus int, out any) {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("%s %s: status %d, want %d", req.Method, req.URL.Path, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
}

type walletBody struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Balance       int64  `json:"balance"`
	TotalIncome   int64  `json:"total_income"`
	TotalExpenses int64  `json:"total_expenses"`
}

type transactionBody struct {
	ID       string `json:"id"`
	WalletID string `json:"wallet_id"`
	Type     string `json:"type"`
	Amount   int64  `json:"amount"`
}

func TestPingIsPublic(t *testing.T) {
	app := newTestApp(t)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil), -1)
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ping status %d", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/wallets", nil), -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}
}

func TestWalletTransactionLifecycle(t *testing.T) {
	app := newTestApp(t)
	owner := "owner-1"

	var w walletBody
	doJSON(t, app, authedRequest(t, http.MethodPost, "/api/v1/wallets", owner,
		map[string]string{"name": "main"}), http.StatusCreated, &w)
	if w.ID == "" || w.Balance != 0 {
		t.Fatalf("unexpected wallet: %+v", w)
	}

	var tx transactionBody
	doJSON(t, app, authedRequest(t, http.MethodPost, "/api/v1/transactions", owner, map[string]any{
		"wallet_id": w.ID,
		"type":      "income",
		"amount":    50,
	}), http.StatusCreated, &tx)

	doJSON(t, app, authedRequest(t, http.MethodGet, "/api/v1/wallets/"+w.ID, owner, nil), http.StatusOK, &w)
	if w.Balance != 50 || w.TotalIncome != 50 {
		t.Fatalf("income not applied: %+v", w)
	}

	// An expense exceeding the balance is rejected without side effects.
	resp, err := app.Test(authedRequest(t, http.MethodPost, "/api/v1/transactions", owner, map[string]any{
		"wallet_id": w.ID,
		"type":      "expense",
		"amount":    51,
		"category":  "misc",
	}), -1)
	if err != nil {
		t.Fatalf("overdraw request: %v", err)
	}
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for overdraw, got %d", resp.StatusCode)
	}
	doJSON(t, app, authedRequest(t, http.MethodGet, "/api/v1/wallets/"+w.ID, owner, nil), http.StatusOK, &w)
	if w.Balance != 50 {
		t.Fatalf("rejected expense mutated balance: %+v", w)
	}

	// Deleting the transaction reverts the wallet.
	path := fmt.Sprintf("/api/v1/transactions/%s?wallet_id=%s", tx.ID, w.ID)
	doJSON(t, app, authedRequest(t, http.MethodDelete, path, owner, nil), http.StatusNoContent, nil)
	doJSON(t, app, authedRequest(t, http.MethodGet, "/api/v1/wallets/"+w.ID, owner, nil), http.StatusOK, &w)
	if w.Balance != 0 || w.TotalIncome != 0 {
		t.Fatalf("delete did not revert wallet: %+v", w)
	}
}

func TestWalletDeleteCascades(t *testing.T) {
	app := newTestApp(t)
	owner := "owner-2"

	var w walletBody
	doJSON(t, app, authedRequest(t, http.MethodPost, "/api/v1/wallets", owner,
		map[string]string{"name": "doomed"}), http.StatusCreated, &w)
	for i := 0; i < 3; i++ {
		doJSON(t, app, authedRequest(t, http.MethodPost, "/api/v1/transactions", owner, map[string]any{
			"wallet_id": w.ID,
			"type":      "income",
			"amount":    10,
		}), http.StatusCreated, nil)
	}

	doJSON(t, app, authedRequest(t, http.MethodDelete, "/api/v1/wallets/"+w.ID, owner, nil), http.StatusNoContent, nil)

	var txs []transactionBody
	doJSON(t, app, authedRequest(t, http.MethodGet, "/api/v1/transactions", owner, nil), http.StatusOK, &txs)
	if len(txs) != 0 {
		t.Fatalf("cascade left %d transactions", len(txs))
	}

	resp, err := app.Test(authedRequest(t, http.MethodGet, "/api/v1/wallets/"+w.ID, owner, nil), -1)
	if err != nil {
		t.Fatalf("get deleted wallet: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestStatsEndpoints(t *testing.T) {
	app := newTestApp(t)
	owner := "owner-3"

	var w walletBody
	doJSON(t, app, authedRequest(t, http.MethodPost, "/api/v1/wallets", owner,
		map[string]string{"name": "main"}), http.StatusCreated, &w)
	doJSON(t, app, authedRequest(t, http.MethodPost, "/api/v1/transactions", owner, map[string]any{
		"wallet_id": w.ID,
		"type":      "income",
		"amount":    100,
	}), http.StatusCreated, nil)

	var weekly struct {
		Buckets []struct {
			Label   string `json:"label"`
			Income  int64  `json:"income"`
			Expense int64  `json:"expense"`
		} `json:"buckets"`
	}
	doJSON(t, app, authedRequest(t, http.MethodGet, "/api/v1/stats/weekly", owner, nil), http.StatusOK, &weekly)
	if len(weekly.Buckets) != 7 {
		t.Fatalf("expected 7 weekly buckets, got %d", len(weekly.Buckets))
	}
	// The transaction was created just now, so today's bucket carries it.
	if got := weekly.Buckets[6].Income; got != 100 {
		t.Fatalf("today's income bucket: %d", got)
	}

	for _, path := range []string{"/api/v1/stats/monthly", "/api/v1/stats/yearly"} {
		doJSON(t, app, authedRequest(t, http.MethodGet, path, owner, nil), http.StatusOK, nil)
	}
}

func TestProfileRoutes(t *testing.T) {
	app := newTestApp(t)
	owner := "owner-4"

	var profile struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	doJSON(t, app, authedRequest(t, http.MethodPatch, "/api/v1/me", owner,
		map[string]string{"name": "Ada"}), http.StatusOK, &profile)
	if profile.Name != "Ada" {
		t.Fatalf("profile not updated: %+v", profile)
	}

	doJSON(t, app, authedRequest(t, http.MethodGet, "/api/v1/me", owner, nil), http.StatusOK, &profile)
	if profile.ID != owner || profile.Name != "Ada" {
		t.Fatalf("unexpected profile: %+v", profile)
	}
}
