package api

import (
	"bytes"
	"context"
	"encoding/json"
	"guestlist/entity"
	"guestlist/impl/auth"
	"guestlist/impl/core"
	"guestlist/internal/database"
	"guestlist/internal/http-server/middleware/authenticate"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "door-secret"

type envelope struct {
	Data          json.RawMessage `json:"data"`
	Success       bool            `json:"success"`
	StatusMessage string          `json:"status_message"`
}

type sentMail struct {
	to []string
}

func (s *sentMail) SendAdmission(_ context.Context, guest *entity.Guest) error {
	s.to = append(s.to, guest.Email)
	return nil
}

func setupRouter(t *testing.T) (http.Handler, *database.Memory, *sentMail) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := database.NewMemory()
	mail := &sentMail{}
	c := core.New(store, log)
	c.SetAuthService(auth.New(secret))
	c.SetNotifier(mail)
	return NewRouter(log, c, Options{}), store, mail
}

func call(t *testing.T, h http.Handler, method, path string, body any, withSecret bool) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if withSecret {
		req.Header.Set(authenticate.HeaderAdminPassword, secret)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Header().Get("Content-Type") != "" && rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func registerGuest(t *testing.T, h http.Handler, first string) string {
	t.Helper()
	rec, env := call(t, h, http.MethodPost, "/api/register", map[string]string{
		"firstName": first,
		"lastName":  "Guest",
		"email":     first + "@example.com",
		"instagram": "@" + first,
	}, false)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var reg struct {
		Id string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &reg))
	require.NotEmpty(t, reg.Id)
	return reg.Id
}

func scanCode(t *testing.T, h http.Handler, code string) entity.ScanResult {
	t.Helper()
	rec, env := call(t, h, http.MethodPost, "/api/scan", map[string]string{"code": code}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res entity.ScanResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	return res
}

func TestAPI_FullFlow(t *testing.T) {
	h, store, mail := setupRouter(t)
	id := registerGuest(t, h, "ada")

	rec, env := call(t, h, http.MethodPost, "/api/approve", map[string]string{"id": id}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var approved struct {
		Guest    entity.Guest `json:"guest"`
		Notified bool         `json:"notified"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &approved))
	assert.Equal(t, entity.StatusApproved, approved.Guest.Status)
	assert.True(t, approved.Notified)
	assert.Equal(t, []string{"ada@example.com"}, mail.to)

	first := scanCode(t, h, id)
	assert.True(t, first.Admit)
	assert.Equal(t, entity.ReasonAdmitted, first.Reason)

	second := scanCode(t, h, id)
	assert.False(t, second.Admit)
	assert.Equal(t, entity.ReasonAlreadyUsed, second.Reason)
	require.NotNil(t, second.UsedAt)

	stored, _ := store.GetGuest(context.Background(), id)
	assert.True(t, stored.IsUsed)
}

func TestAPI_ScanLegacyField(t *testing.T) {
	h, _, _ := setupRouter(t)

	rec, env := call(t, h, http.MethodPost, "/api/scan", map[string]string{"qrContent": "unknown"}, true)

	require.Equal(t, http.StatusOK, rec.Code)
	var res entity.ScanResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, entity.ReasonNotFound, res.Reason)
}

func TestAPI_ScanLongCodeNotFound(t *testing.T) {
	h, _, _ := setupRouter(t)

	res := scanCode(t, h, strings.Repeat("x", 200))

	assert.False(t, res.Admit)
	assert.Equal(t, entity.ReasonNotFound, res.Reason)
	assert.Nil(t, res.Guest)
}

func TestAPI_RejectedGuestNotAdmitted(t *testing.T) {
	h, _, _ := setupRouter(t)
	id := registerGuest(t, h, "bob")

	rec, _ := call(t, h, http.MethodPost, "/api/reject", map[string]string{"id": id}, true)
	require.Equal(t, http.StatusOK, rec.Code)

	res := scanCode(t, h, id)
	assert.False(t, res.Admit)
	assert.Equal(t, entity.ReasonNotApproved, res.Reason)

	rec, env := call(t, h, http.MethodPost, "/api/approve", map[string]string{"id": id}, true)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
}

func TestAPI_ModerationUnknownGuest(t *testing.T) {
	h, _, _ := setupRouter(t)

	rec, _ := call(t, h, http.MethodPost, "/api/approve", map[string]string{"id": "missing"}, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = call(t, h, http.MethodPost, "/api/reject", map[string]string{"id": "missing"}, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_UnauthorizedLeavesStoreUnchanged(t *testing.T) {
	h, store, mail := setupRouter(t)
	id := registerGuest(t, h, "eve")

	requests := []struct {
		method string
		path   string
		body   any
	}{
		{http.MethodGet, "/api/guests", nil},
		{http.MethodPost, "/api/approve", map[string]string{"id": id}},
		{http.MethodPost, "/api/reject", map[string]string{"id": id}},
		{http.MethodPost, "/api/scan", map[string]string{"code": id}},
		{http.MethodPost, "/api/reset", nil},
	}
	for _, r := range requests {
		rec, env := call(t, h, r.method, r.path, r.body, false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, r.path)
		assert.False(t, env.Success, r.path)
	}

	guest, err := store.GetGuest(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, guest)
	assert.Equal(t, entity.StatusPending, guest.Status)
	assert.False(t, guest.IsUsed)
	assert.Empty(t, mail.to)
}

func TestAPI_RegisterValidation(t *testing.T) {
	h, store, _ := setupRouter(t)

	rec, env := call(t, h, http.MethodPost, "/api/register", map[string]string{
		"firstName": "Ada",
		"email":     "not-an-email",
	}, false)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.StatusMessage, "lastName required")
	guests, _ := store.ListGuests(context.Background())
	assert.Empty(t, guests)
}

func TestAPI_ListAndReset(t *testing.T) {
	h, _, _ := setupRouter(t)
	registerGuest(t, h, "a")
	registerGuest(t, h, "b")

	rec, env := call(t, h, http.MethodGet, "/api/guests", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var guests []entity.Guest
	require.NoError(t, json.Unmarshal(env.Data, &guests))
	assert.Len(t, guests, 2)

	rec, env = call(t, h, http.MethodPost, "/api/reset", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	var done struct {
		Success bool  `json:"success"`
		Deleted int64 `json:"deleted"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &done))
	assert.True(t, done.Success)
	assert.Equal(t, int64(2), done.Deleted)

	_, env = call(t, h, http.MethodGet, "/api/guests", nil, true)
	require.NoError(t, json.Unmarshal(env.Data, &guests))
	assert.Empty(t, guests)
}

func TestAPI_HealthAndNotFound(t *testing.T) {
	h, _, _ := setupRouter(t)

	rec, env := call(t, h, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	rec, _ = call(t, h, http.MethodGet, "/api/unknown", nil, false)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = call(t, h, http.MethodGet, "/api/register", nil, false)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAPI_RegisterLimit(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := core.New(database.NewMemory(), log)
	blocked := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	h := NewRouter(log, c, Options{RegisterLimit: blocked})

	rec, _ := call(t, h, http.MethodPost, "/api/register", map[string]string{"firstName": "a"}, false)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestAPI_CorsPreflight(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := core.New(database.NewMemory(), log)
	h := NewRouter(log, c, Options{CorsOrigins: []string{"http://localhost:5173"}})

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/scan", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", authenticate.HeaderAdminPassword)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight("http://localhost:5173")
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = preflight("http://evil.example")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAPI_ClientAddressFromProxy(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := core.New(database.NewMemory(), log)
	var seen string
	capture := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = authenticate.RemoteAddr(r)
			w.WriteHeader(http.StatusNoContent)
		})
	}
	send := func(trustProxy bool) {
		h := NewRouter(log, c, Options{RegisterLimit: capture, TrustProxy: trustProxy})
		req := httptest.NewRequest(http.MethodPost, "/api/register", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	send(false)
	assert.Equal(t, "10.0.0.1", seen)

	send(true)
	assert.Equal(t, "203.0.113.7", seen)
}
