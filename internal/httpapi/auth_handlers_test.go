package httpapi

import (
	"net/http"
	"testing"
)

func TestRegisterLoginRefreshLogout(t *testing.T) {
	env := newTestEnv(t)

	_, refresh, _, _ := env.register("cafe-aurora", "owner@aurora.test")

	// Refresh rotates: new pair comes back, old token dies.
	resp := env.post("/auth/refresh", "", map[string]any{"refresh_token": refresh})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh: expected 200, got %d", resp.StatusCode)
	}
	data := dataField(t, decodeBody(t, resp))
	next := data["refresh_token"].(string)
	if next == refresh {
		t.Fatal("refresh must rotate the token")
	}

	reuse := env.post("/auth/refresh", "", map[string]any{"refresh_token": refresh})
	if reuse.StatusCode != http.StatusUnauthorized {
		t.Fatalf("reused refresh token: expected 401, got %d", reuse.StatusCode)
	}
	reuse.Body.Close()

	// Logout revokes the current token; it can no longer refresh.
	logout := env.post("/auth/logout", "", map[string]any{"refresh_token": next})
	if logout.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", logout.StatusCode)
	}
	logout.Body.Close()

	after := env.post("/auth/refresh", "", map[string]any{"refresh_token": next})
	if after.StatusCode != http.StatusUnauthorized {
		t.Fatalf("refresh after logout: expected 401, got %d", after.StatusCode)
	}
	after.Body.Close()
}

func TestRegisterDuplicateSlug(t *testing.T) {
	env := newTestEnv(t)
	env.register("cafe-aurora", "owner@aurora.test")

	resp := env.post("/auth/register", "", map[string]any{
		"tenant_name": "Another",
		"slug":        "cafe-aurora",
		"owner_name":  "Other",
		"email":       "other@example.test",
		"password":    "longenough",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "Slug already exists" {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register("cafe-aurora", "owner@aurora.test")

	resp := env.post("/auth/register", "", map[string]any{
		"tenant_name": "Another",
		"slug":        "cafe-luna",
		"owner_name":  "Other",
		"email":       "owner@aurora.test",
		"password":    "longenough",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "Email already registered" {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register("cafe-aurora", "owner@aurora.test")

	resp := env.post("/auth/login", "", map[string]any{
		"email":    "owner@aurora.test",
		"password": "not the password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "Unauthorized" {
		t.Fatalf("unexpected error message: %v", body["error"])
	}
}

func TestLogoutWithBearerEndsAllSessions(t *testing.T) {
	env := newTestEnv(t)
	access, refresh1, _, _ := env.register("cafe-aurora", "owner@aurora.test")

	// Open a second session.
	login := env.post("/auth/login", "", map[string]any{
		"email":    "owner@aurora.test",
		"password": "longenough",
	})
	refresh2 := dataField(t, decodeBody(t, login))["refresh_token"].(string)

	logout := env.post("/auth/logout", access, map[string]any{"refresh_token": refresh1})
	if logout.StatusCode != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", logout.StatusCode)
	}
	logout.Body.Close()

	// Both sessions are gone.
	for _, token := range []string{refresh1, refresh2} {
		resp := env.post("/auth/refresh", "", map[string]any{"refresh_token": token})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401 after full logout, got %d", resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestMyClaimsReflectsRole(t *testing.T) {
	env := newTestEnv(t)
	adminToken, _, _, _ := env.register("cafe-aurora", "owner@aurora.test")
	staffToken, _ := env.addStaff(adminToken, "staff@aurora.test")

	resp := env.get("/auth/me/claims", staffToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	data := dataField(t, decodeBody(t, resp))
	claims := data["claims"].([]any)

	has := make(map[string]bool)
	for _, c := range claims {
		has[c.(string)] = true
	}
	if !has["products.view"] || !has["orders.create"] {
		t.Fatalf("staff defaults missing: %v", claims)
	}
	if has["users.manage_permissions"] {
		t.Fatal("staff must not hold admin claims")
	}
}
