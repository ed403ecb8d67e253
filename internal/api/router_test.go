package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agendavendas/scheduling-api/internal/api/handler"
	"github.com/agendavendas/scheduling-api/internal/api/middleware"
	"github.com/agendavendas/scheduling-api/internal/core/service"
	"github.com/agendavendas/scheduling-api/internal/infrastructure/db/sqlite"
	"github.com/agendavendas/scheduling-api/internal/infrastructure/notify"
)

const masterEmail = "boss@agenda.test"

type testServer struct {
	srv *httptest.Server
	hub *notify.Hub
}

func newTestServer(t *testing.T, policyMode string) *testServer {
	t.Helper()
	ctx := context.Background()
	log := zerolog.Nop()

	db, err := sqlite.Open(ctx, sqlite.Config{Path: uuid.NewString(), InMemory: true}, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	loc := time.FixedZone("BRT", -3*3600)
	hub := notify.NewHub(log)
	t.Cleanup(hub.Shutdown)

	users := service.NewUserService(sqlite.NewUserRepository(db), hub, []string{masterEmail}, log)
	require.NoError(t, users.Bootstrap(ctx))
	clients := service.NewClientService(sqlite.NewClientRepository(db, loc), hub, service.NewContactLinker("55", "", loc), loc, log)
	policy, err := service.NewAccessPolicy(policyMode, log)
	require.NoError(t, err)

	e := NewRouter(Deps{
		Users:     users,
		Clients:   clients,
		Policy:    policy,
		Hub:       hub,
		Session:   notify.SessionOptions{SendBuffer: 8, WriteTimeout: time.Second},
		Health:    map[string]handler.PingFunc{"store": db.PingContext},
		Location:  loc,
		APIPrefix: "/api",
		WSPath:    "/ws",
		Registry:  prometheus.NewRegistry(),
		Log:       log,
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, hub: hub}
}

type actor struct {
	id   int64
	role string
}

func (ts *testServer) do(t *testing.T, method, path, body string, as *actor) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set(middleware.HeaderUserID, strconv.FormatInt(as.id, 10))
		req.Header.Set(middleware.HeaderUserRole, as.role)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func errorOf(t *testing.T, body []byte) string {
	t.Helper()
	var e errorResponse
	require.NoError(t, json.Unmarshal(body, &e))
	return e.Error
}

// dialOpen connects a websocket viewer and waits until the hub delivers to it.
func (ts *testServer) dialOpen(t *testing.T) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ping := []byte(`{"type":"USER_UPDATED"}`)
	require.Eventually(t, func() bool { return ts.hub.Broadcast(ping) == 1 }, 2*time.Second, 5*time.Millisecond)
	_, frame := readFrame(t, conn)
	require.JSONEq(t, string(ping), string(frame))
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) (int, []byte) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	mt, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	return mt, frame
}

func TestRouter_LoginFlow(t *testing.T) {
	ts := newTestServer(t, service.AccessAdvisory)

	code, body := ts.do(t, http.MethodPost, "/api/login", `{"email":"BOSS@agenda.test"}`, nil)
	require.Equal(t, http.StatusOK, code, string(body))
	var admin map[string]any
	require.NoError(t, json.Unmarshal(body, &admin))
	assert.Equal(t, "admin", admin["role"])
	assert.Equal(t, masterEmail, admin["email"])

	code, body = ts.do(t, http.MethodPost, "/api/login", `{"email":"ghost@agenda.test"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "user not found", errorOf(t, body))

	code, body = ts.do(t, http.MethodPost, "/api/login", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, errorOf(t, body), "email is required")

	adm := &actor{id: int64(admin["id"].(float64)), role: "admin"}
	code, body = ts.do(t, http.MethodPost, "/api/users", `{"name":"Bia","email":"bia@agenda.test"}`, adm)
	require.Equal(t, http.StatusCreated, code, string(body))
	var seller map[string]any
	require.NoError(t, json.Unmarshal(body, &seller))
	sellerID := int64(seller["id"].(float64))

	code, body = ts.do(t, http.MethodPost, "/api/users", `{"name":"Dup","email":"BIA@agenda.test"}`, adm)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "email already registered", errorOf(t, body))

	code, _ = ts.do(t, http.MethodPatch, "/api/users/"+strconv.FormatInt(sellerID, 10), `{"active":false}`, adm)
	require.Equal(t, http.StatusOK, code)

	code, body = ts.do(t, http.MethodPost, "/api/login", `{"email":"bia@agenda.test"}`, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "account disabled", errorOf(t, body))

	code, _ = ts.do(t, http.MethodPatch, "/api/users/9999", `{"active":true}`, adm)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRouter_ClientLifecycleNotifiesViewers(t *testing.T) {
	ts := newTestServer(t, service.AccessAdvisory)

	code, body := ts.do(t, http.MethodPost, "/api/login", `{"email":"`+masterEmail+`"}`, nil)
	require.Equal(t, http.StatusOK, code)
	var admin map[string]any
	require.NoError(t, json.Unmarshal(body, &admin))
	adm := &actor{id: int64(admin["id"].(float64)), role: "admin"}

	code, body = ts.do(t, http.MethodPost, "/api/users", `{"name":"Bia","email":"bia@agenda.test"}`, adm)
	require.Equal(t, http.StatusCreated, code)
	var seller map[string]any
	require.NoError(t, json.Unmarshal(body, &seller))
	sellerID := int64(seller["id"].(float64))
	as := &actor{id: sellerID, role: "seller"}

	conn := ts.dialOpen(t)

	payload := `{"seller_id":` + strconv.FormatInt(sellerID, 10) + `,"name":"Maria","phone":"(11) 99999-0000","scheduled_at":"2999-01-02T14:30"}`
	code, body = ts.do(t, http.MethodPost, "/api/clients", payload, as)
	require.Equal(t, http.StatusOK, code, string(body))
	var created map[string]any
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "ontime", created["classification"])
	assert.Equal(t, "2999-01-02T14:30:00-03:00", created["scheduled_at"])
	assert.True(t, strings.HasPrefix(created["whatsapp_url"].(string), "https://wa.me/5511999990000?text="))
	clientID := strconv.FormatInt(int64(created["id"].(float64)), 10)

	mt, frame := readFrame(t, conn)
	assert.Equal(t, websocket.TextMessage, mt)
	assert.JSONEq(t, `{"type":"CLIENT_UPDATED","seller_id":`+strconv.FormatInt(sellerID, 10)+`}`, string(frame))

	code, body = ts.do(t, http.MethodGet, "/api/clients", "", as)
	require.Equal(t, http.StatusOK, code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	_, hasSeller := list[0]["seller_name"]
	assert.False(t, hasSeller, "sellers do not get the join")

	code, body = ts.do(t, http.MethodGet, "/api/clients", "", adm)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "Bia", list[0]["seller_name"])

	code, body = ts.do(t, http.MethodPut, "/api/clients/"+clientID, `{"name":"Maria","phone":"11999990000","status":"completed"}`, as)
	require.Equal(t, http.StatusOK, code, string(body))
	var done map[string]any
	require.NoError(t, json.Unmarshal(body, &done))
	assert.Equal(t, "completed", done["classification"])
	assert.NotNil(t, done["concluded_at"])
	assert.Nil(t, done["scheduled_at"], "omitted schedule clears it")
	_, frame = readFrame(t, conn)
	assert.Contains(t, string(frame), `"CLIENT_UPDATED"`)

	code, body = ts.do(t, http.MethodGet, "/api/clients?view=history", "", as)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &list))
	assert.Len(t, list, 1)

	code, body = ts.do(t, http.MethodGet, "/api/clients?view=later", "", as)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, errorOf(t, body), "view")

	code, _ = ts.do(t, http.MethodDelete, "/api/users/"+strconv.FormatInt(sellerID, 10), "", adm)
	assert.Equal(t, http.StatusConflict, code)

	code, _ = ts.do(t, http.MethodDelete, "/api/clients/"+clientID, "", adm)
	require.Equal(t, http.StatusOK, code)
	_, frame = readFrame(t, conn)
	assert.JSONEq(t, `{"type":"CLIENT_UPDATED","seller_id":`+strconv.FormatInt(sellerID, 10)+`}`, string(frame))

	code, _ = ts.do(t, http.MethodDelete, "/api/clients/"+clientID, "", adm)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = ts.do(t, http.MethodDelete, "/api/users/"+strconv.FormatInt(sellerID, 10), "", adm)
	assert.Equal(t, http.StatusOK, code)
	_, frame = readFrame(t, conn)
	assert.JSONEq(t, `{"type":"USER_UPDATED"}`, string(frame))
}

func TestRouter_ClientCreateErrors(t *testing.T) {
	ts := newTestServer(t, service.AccessAdvisory)

	code, body := ts.do(t, http.MethodPost, "/api/clients", `{"seller_id":4242,"name":"X","phone":"1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "seller not found", errorOf(t, body))

	code, _ = ts.do(t, http.MethodPost, "/api/clients", `{"name":"X"}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = ts.do(t, http.MethodPost, "/api/clients", `{"seller_id":1`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "invalid payload", errorOf(t, body))

	code, body = ts.do(t, http.MethodPost, "/api/clients", `{"seller_id":1,"name":"X","phone":"1","scheduled_at":"amanha"}`, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, errorOf(t, body), "scheduled_at")
}

func TestRouter_AccessPolicies(t *testing.T) {
	seller := &actor{id: 2, role: "seller"}

	advisory := newTestServer(t, service.AccessAdvisory)
	code, _ := advisory.do(t, http.MethodGet, "/api/users", "", seller)
	assert.Equal(t, http.StatusOK, code, "advisory policy only logs")

	enforced := newTestServer(t, service.AccessEnforce)
	code, body := enforced.do(t, http.MethodGet, "/api/users", "", seller)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "access forbidden", errorOf(t, body))

	code, _ = enforced.do(t, http.MethodGet, "/api/users", "", &actor{id: 1, role: "admin"})
	assert.Equal(t, http.StatusOK, code)
}

func TestRouter_Operations(t *testing.T) {
	ts := newTestServer(t, service.AccessAdvisory)

	code, body := ts.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))

	code, body = ts.do(t, http.MethodGet, "/api/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"store":{"status":"ok"}`)

	code, _ = ts.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, body = ts.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "requests_total")

	code, body = ts.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "/clients")
}
