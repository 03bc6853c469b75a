package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"menuqr.org/internal/auth"
	"menuqr.org/internal/menu"
)

type testEnv struct {
	t      *testing.T
	server *httptest.Server
	store  *memStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMemStore()
	tokens, err := auth.NewTokenService("test-secret", auth.WithIssuer("menuqr-test"))
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	claims := auth.NewClaimService(store)
	sessions := auth.NewService(store, tokens, claims)
	roles := auth.NewRoleService(store)
	directory := auth.NewDirectoryService(store)
	menuSvc := menu.NewService(store)

	api := New(sessions, tokens, claims, roles, directory, menuSvc, WithVersion("test"))
	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)
	return &testEnv{t: t, server: server, store: store}
}

func (e *testEnv) do(method, path, token string, body any) *http.Response {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	if err != nil {
		e.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.server.Client().Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (e *testEnv) post(path, token string, body any) *http.Response {
	return e.do(http.MethodPost, path, token, body)
}

func (e *testEnv) put(path, token string, body any) *http.Response {
	return e.do(http.MethodPut, path, token, body)
}

func (e *testEnv) get(path, token string) *http.Response {
	return e.do(http.MethodGet, path, token, nil)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return body
}

func dataField(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("response has no data object: %v", body)
	}
	return data
}

// register creates a tenant with an admin owner and returns the session.
func (e *testEnv) register(slug, email string) (accessToken, refreshToken, userID, tenantID string) {
	e.t.Helper()
	resp := e.post("/auth/register", "", map[string]any{
		"tenant_name": "Cafe " + slug,
		"slug":        slug,
		"owner_name":  "Owner",
		"email":       email,
		"password":    "longenough",
	})
	if resp.StatusCode != http.StatusCreated {
		e.t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}
	data := dataField(e.t, decodeBody(e.t, resp))
	user := data["user"].(map[string]any)
	tenant, ok := data["tenant"].(map[string]any)
	if !ok || tenant["slug"] != slug {
		e.t.Fatalf("session payload should carry the tenant: %v", data["tenant"])
	}
	return data["access_token"].(string), data["refresh_token"].(string),
		user["id"].(string), user["tenant_id"].(string)
}

// addStaff provisions a staff user in the admin's tenant and logs them in.
func (e *testEnv) addStaff(adminToken, email string) (accessToken, userID string) {
	e.t.Helper()
	resp := e.post("/admin/users", adminToken, map[string]any{
		"name":     "Staff",
		"email":    email,
		"password": "longenough",
		"role":     "staff",
	})
	if resp.StatusCode != http.StatusCreated {
		e.t.Fatalf("create staff: expected 201, got %d", resp.StatusCode)
	}
	created := dataField(e.t, decodeBody(e.t, resp))
	userID = created["id"].(string)

	login := e.post("/auth/login", "", map[string]any{
		"email":    email,
		"password": "longenough",
	})
	if login.StatusCode != http.StatusOK {
		e.t.Fatalf("staff login: expected 200, got %d", login.StatusCode)
	}
	data := dataField(e.t, decodeBody(e.t, login))
	return data["access_token"].(string), userID
}
