package devserver

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/medigate/medigate-cli/internal/api"
	"github.com/medigate/medigate-cli/internal/config"
	"github.com/medigate/medigate-cli/internal/metrics"
	"github.com/medigate/medigate-cli/internal/models"
	"github.com/medigate/medigate-cli/internal/securestore"
	"github.com/medigate/medigate-cli/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupServer(t *testing.T) *Server {
	cfg := &config.Config{
		API:       config.APIConfig{Version: "v1"},
		DevServer: config.DevServerConfig{Address: "127.0.0.1", Port: 0},
	}
	backend := api.NewFixtureBackend(nil, api.FixtureOptions{Secret: []byte("test-secret")}, nil)
	return New(cfg, backend, metrics.New(), nil)
}

func doRequest(t *testing.T, s *Server, method, path, token, body string) (*http.Response, string) {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(raw)
}

func login(t *testing.T, s *Server) string {
	resp, body := doRequest(t, s, http.MethodPost, "/api/auth/login", "",
		`{"email":"demo@example.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var out models.LoginResponse
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestHealth(t *testing.T) {
	s := setupServer(t)
	resp, body := doRequest(t, s, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"status":"healthy"`)
	assert.Contains(t, body, `"mode":"local"`)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := setupServer(t)

	resp, body := doRequest(t, s, http.MethodGet, "/api/doctors", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "missing authorization header")

	resp, _ = doRequest(t, s, http.MethodGet, "/api/doctors", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginThenList(t *testing.T) {
	s := setupServer(t)
	token := login(t, s)

	resp, body := doRequest(t, s, http.MethodGet, "/api/doctors", token, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doctors []models.Doctor
	require.NoError(t, json.Unmarshal([]byte(body), &doctors))
	assert.Len(t, doctors, 3)
}

func TestErrorStatuses(t *testing.T) {
	s := setupServer(t)
	token := login(t, s)

	tests := []struct {
		name    string
		method  string
		path    string
		token   string
		body    string
		status  int
		message string
	}{
		{"unknown doctor", http.MethodGet, "/api/doctors/99", token, "", http.StatusNotFound, "Doctor not found"},
		{"bad credentials", http.MethodPost, "/api/auth/login", "", `{"email":"demo@example.com","password":""}`, http.StatusUnauthorized, "Invalid credentials"},
		{"malformed body", http.MethodPost, "/api/appointments/create", token, `{not json`, http.StatusBadRequest, "invalid request"},
		{"no route", http.MethodGet, "/api/nowhere", token, "", http.StatusNotFound, "Not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := doRequest(t, s, tt.method, tt.path, tt.token, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)

			var payload struct {
				Message string `json:"message"`
			}
			require.NoError(t, json.Unmarshal([]byte(body), &payload))
			assert.Equal(t, tt.message, payload.Message)
		})
	}
}

func TestMetricsEndpoints(t *testing.T) {
	s := setupServer(t)
	login(t, s)

	resp, body := doRequest(t, s, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "medigate_")
	assert.Contains(t, body, `mode="devserver"`)

	resp, body = doRequest(t, s, http.MethodGet, "/api/metrics", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"requests_total":1`)
}

func TestRemoteClientAgainstServer(t *testing.T) {
	s := setupServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = s.Serve(ln) }()
	t.Cleanup(func() { _ = s.Shutdown() })

	db, err := gorm.Open(sqlite.New(sqlite.Config{DriverName: "sqlite", DSN: filepath.Join(t.TempDir(), "client.db")}), &gorm.Config{})
	require.NoError(t, err)
	st, err := store.NewWithDB(db, nil, nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	client := api.NewWithBackend("http://"+ln.Addr().String(), api.NewRemoteBackend(api.RemoteOptions{}, nil, nil),
		securestore.New(st, nil), nil, nil)
	ctx := context.Background()

	denied := api.Get[[]models.Doctor](ctx, client, api.Doctors, nil)
	assert.False(t, denied.OK())
	assert.Equal(t, "missing authorization header", denied.Error)

	res := api.Post[models.LoginResponse](ctx, client, api.UserLogin,
		models.LoginRequest{Email: "demo@example.com", Password: "secret"}, nil)
	require.True(t, res.OK(), res.Error)
	require.NoError(t, client.SetAuthToken(ctx, res.Data.Token))

	doc := api.Get[models.Doctor](ctx, client, api.DoctorByID, api.ID(1))
	require.True(t, doc.OK(), doc.Error)
	assert.Equal(t, 1, doc.Data.ID)

	missing := api.Get[models.Doctor](ctx, client, api.DoctorByID, api.ID(42))
	assert.False(t, missing.OK())
	assert.Equal(t, "Doctor not found", missing.Error)

	taken := api.Post[models.Medication](ctx, client, api.MedicationMarkTaken,
		map[string]string{"date": "2025-06-01", "time": "08:00"}, api.ID(1))
	assert.True(t, taken.OK(), taken.Error)
}
