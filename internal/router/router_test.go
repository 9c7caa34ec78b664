package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iftf/duoverkoop/internal/config"
	"github.com/iftf/duoverkoop/internal/metrics"
	"github.com/iftf/duoverkoop/internal/model"
	"github.com/iftf/duoverkoop/internal/service"
	"github.com/iftf/duoverkoop/internal/store/memory"
)

const password = "correct horse"

func newServer(t *testing.T) (*echo.Echo, *memory.Memory) {
	t.Helper()
	ctx := context.Background()
	st := memory.New()
	catalog := service.NewCatalogService(st)
	require.NoError(t, catalog.SeedDev(ctx))

	staff := service.NewStaffService(st, bcrypt.MinCost)
	_, err := staff.CreateUser(ctx, "pos", "", password, model.GroupPOSStaff)
	require.NoError(t, err)
	_, err = staff.CreateUser(ctx, "support", "", password, model.GroupSupportStaff)
	require.NoError(t, err)

	audit := service.NewAuditLog(st)
	e := New(Deps{
		Cfg:       config.Config{JWTSecret: "router-test", AccessTTLMin: 5, RefreshTTLDays: 1},
		Store:     st,
		Metrics:   metrics.New(),
		Purchases: service.NewPurchaseService(st, audit),
		Audit:     audit,
		Catalog:   catalog,
		Verify:    service.NewVerifyService(st, nil),
		Exporter:  service.NewExporter(st),
	})
	return e, st
}

func do(e *echo.Echo, method, path, token string, body any) *httptest.ResponseRecorder {
	var rd *bytes.Reader
	if body != nil {
		bs, _ := json.Marshal(body)
		rd = bytes.NewReader(bs)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

type tokens struct{ access, refresh string }

func login(t *testing.T, e *echo.Echo, username string) tokens {
	t.Helper()
	rec := do(e, http.MethodPost, "/v1/auth/login", "", echo.Map{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	return tokens{
		access:  body["access"].(map[string]any)["token"].(string),
		refresh: body["refresh"].(map[string]any)["token"].(string),
	}
}

func order(p1, p2 string) echo.Map {
	return echo.Map{
		"first_name":   "ada",
		"last_name":    "lovelace",
		"email":        "ada@example.com",
		"performance1": p1,
		"performance2": p2,
	}
}

func TestProbes(t *testing.T) {
	e, _ := newServer(t)

	rec := do(e, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = do(e, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "duoverkoop_http_request_duration_seconds")
}

func TestPublicCatalog(t *testing.T) {
	e, st := newServer(t)

	rec := do(e, http.MethodGet, "/v1/catalog", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	groups := decode(t, rec)["associations"].([]any)
	require.Len(t, groups, 2)
	assert.Equal(t, "Politika", groups[0].(map[string]any)["name"])
	assert.Equal(t, []any{"Working title"}, groups[0].(map[string]any)["shows"])

	rec = do(e, http.MethodGet, "/v1/performances/selectable", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["performances"], 4)

	_, err := st.CreateAssociation(context.Background(), model.Association{Name: "Nieuw"})
	require.NoError(t, err)
	rec = do(e, http.MethodGet, "/v1/catalog", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestLogin(t *testing.T) {
	e, _ := newServer(t)

	rec := do(e, http.MethodPost, "/v1/auth/login", "", echo.Map{"username": "pos", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(e, http.MethodPost, "/v1/auth/login", "", echo.Map{"username": "ghost", "password": password})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(e, http.MethodPost, "/v1/auth/login", "", echo.Map{"username": "pos"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	tok := login(t, e, "pos")
	rec = do(e, http.MethodGet, "/v1/me", tok.access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)
	assert.Equal(t, "pos", me["username"])
	assert.Equal(t, model.GroupPOSStaff, me["group"])
	assert.Equal(t, false, me["capabilities"].(map[string]any)["can_export"])
}

func TestRefreshAndLogout(t *testing.T) {
	e, _ := newServer(t)
	tok := login(t, e, "support")

	rec := do(e, http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": tok.refresh})
	require.Equal(t, http.StatusOK, rec.Code)
	next := decode(t, rec)["refresh"].(map[string]any)["token"].(string)

	rec = do(e, http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": tok.refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "rotated token is revoked")

	rec = do(e, http.MethodPost, "/v1/auth/logout", tok.access, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(e, http.MethodPost, "/v1/auth/refresh", "", echo.Map{"refresh_token": next})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPurchaseLifecycle(t *testing.T) {
	e, _ := newServer(t)
	tok := login(t, e, "support").access

	rec := do(e, http.MethodPost, "/v1/purchases", tok, order("Wina1104", "Politika0104"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.Equal(t, "Ada Lovelace", created["name"])
	code := created["verification_code"].(string)
	id := "/v1/purchases/" + jsonID(created)

	rec = do(e, http.MethodGet, "/v1/verify?code="+strings.ToUpper(code), tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1000, decode(t, rec)["total_cents"])

	rec = do(e, http.MethodPut, id, tok, order("Wina1104", "Politika0304"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode(t, rec)
	assert.Equal(t, true, updated["changed"])
	assert.EqualValues(t, 0, updated["price_difference_cents"])

	rec = do(e, http.MethodGet, id+"/audit", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode(t, rec)["entries"].([]any)
	require.Len(t, entries, 2)
	assert.Equal(t, "CREATE", entries[0].(map[string]any)["action"])
	assert.Equal(t, "UPDATE", entries[1].(map[string]any)["action"])

	rec = do(e, http.MethodGet, "/v1/export", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/csv")
	assert.Contains(t, rec.Body.String(), code)

	rec = do(e, http.MethodDelete, id, tok, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(e, http.MethodGet, id, tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(e, http.MethodGet, "/v1/verify?code="+code, tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodGet, id+"/audit", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	entries = decode(t, rec)["entries"].([]any)
	require.Len(t, entries, 3)
	last := entries[2].(map[string]any)
	assert.Equal(t, "DELETE", last["action"])
	assert.Equal(t, code, last["changes"].(map[string]any)["verification_code"])
}

func jsonID(m map[string]any) string {
	bs, _ := json.Marshal(m["id"])
	return string(bs)
}

func TestVerifyOutcomes(t *testing.T) {
	e, _ := newServer(t)
	tok := login(t, e, "pos").access

	rec := do(e, http.MethodGet, "/v1/verify?code=", tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	empty := decode(t, rec)["error"]

	rec = do(e, http.MethodGet, "/v1/verify?code=two-words", tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEqual(t, empty, decode(t, rec)["error"])

	rec = do(e, http.MethodGet, "/v1/verify?code=happy-tree-button", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodGet, "/v1/codes/stats", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["used_codes"])
}

func TestValidationErrors(t *testing.T) {
	e, _ := newServer(t)
	tok := login(t, e, "pos").access

	rec := do(e, http.MethodPost, "/v1/purchases", tok, order("Wina1104", "Wina1104"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode(t, rec)["fields"].([]any)
	require.NotEmpty(t, fields)
	assert.Equal(t, "duplicate_performance", fields[0].(map[string]any)["code"])

	rec = do(e, http.MethodPost, "/v1/purchases", tok, order("Wina1104", "Nope"))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "not_found", decode(t, rec)["fields"].([]any)[0].(map[string]any)["code"])

	rec = do(e, http.MethodPost, "/v1/purchases", tok, echo.Map{"email": "ada@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCapabilityGates(t *testing.T) {
	e, _ := newServer(t)
	pos := login(t, e, "pos").access

	rec := do(e, http.MethodGet, "/v1/purchases", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodPost, "/v1/purchases", pos, order("Wina1104", "Politika0504"))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := "/v1/purchases/" + jsonID(decode(t, rec))

	rec = do(e, http.MethodGet, "/v1/purchases", pos, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["purchases"], 1)

	for _, r := range []struct{ method, path string }{
		{http.MethodPut, id},
		{http.MethodDelete, id},
		{http.MethodGet, "/v1/export"},
		{http.MethodPost, "/v1/associations"},
		{http.MethodDelete, "/v1/performances/Wina1104"},
	} {
		rec = do(e, r.method, r.path, pos, order("Wina1104", "Politika0104"))
		assert.Equal(t, http.StatusForbidden, rec.Code, r.method+" "+r.path)
	}
}

func TestCatalogManagement(t *testing.T) {
	e, _ := newServer(t)
	tok := login(t, e, "support").access

	rec := do(e, http.MethodPost, "/v1/associations", tok, echo.Map{"name": "Wina"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["created"])

	rec = do(e, http.MethodPost, "/v1/performances", tok, echo.Map{
		"key": "Wina1204", "date": "2022-04-12T20:00:00Z", "association": "Wina",
		"name": "Encore", "price_cents": 600, "max_tickets": 20,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(e, http.MethodPost, "/v1/performances", tok, echo.Map{
		"key": "Ghost0101", "date": "2022-01-01T20:00:00Z", "association": "Ghost", "name": "Boo",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(e, http.MethodPost, "/v1/purchases", tok, order("Wina1204", "Politika0104"))
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(e, http.MethodDelete, "/v1/performances/Wina1204", tok, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = do(e, http.MethodDelete, "/v1/performances/Politika0504", tok, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(e, http.MethodDelete, "/v1/performances/Politika0504", tok, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
