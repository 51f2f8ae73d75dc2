package server_test

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"qbay/internal/config"
	"qbay/internal/server"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func testConfig() config.Config {
	return config.Config{
		AppPort:      ":0",
		DBDriver:     "sqlite",
		DatabaseDSN:  "file:" + uuid.New().String() + "?mode=memory&cache=shared",
		JWTSecret:    "test_jwt_secret",
		TokenTTL:     time.Hour,
		TxMaxRetries: 1,
		EventSink:    config.EventSinkNone,
	}
}

func TestNew_HealthAndRoutes(t *testing.T) {
	srv, err := server.New(testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Shutdown() })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	resp, err := srv.App.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "sqlite", body["db"])

	register := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		strings.NewReader(`{"username":"user","email":"wired@test.com","password":"@Password"}`))
	register.Header.Set("Content-Type", "application/json")
	resp, err = srv.App.Test(register, -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = srv.App.Test(httptest.NewRequest(http.MethodGet, "/api/v1/listings", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestNew_RejectsUnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.DBDriver = "mysql"
	_, err := server.New(cfg)
	assert.Error(t, err)
}
