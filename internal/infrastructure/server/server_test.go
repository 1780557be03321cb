package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyharbor-io/opsdeck/internal/domain/state"
	"github.com/skyharbor-io/opsdeck/internal/infrastructure/config"
	"github.com/skyharbor-io/opsdeck/internal/shared/types"
	"github.com/skyharbor-io/opsdeck/internal/storage"
)

func testConfig(t *testing.T, cacheDir string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Cache.Dir = cacheDir
	cfg.Remote.FeedEnabled = false
	cfg.Remote.PollEnabled = false
	cfg.Auth.Agents = map[string]string{"desk1": "2481"}
	return cfg
}

func do(t *testing.T, srv *Server, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	return w
}

func TestConfiguredAgentCanUseSecuredRoutes(t *testing.T) {
	srv, err := New(testConfig(t, t.TempDir()))
	require.NoError(t, err)
	defer srv.Close()

	// No token: rejected.
	w := do(t, srv, http.MethodPost, "/sessions/save", "", `{"name":"shift"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Seeded agent logs in and the token unlocks the secured group.
	w = do(t, srv, http.MethodPost, "/auth/login", "", `{"agent":"desk1","pin":"2481"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Token)

	w = do(t, srv, http.MethodPost, "/sessions/save", login.Token, `{"name":"shift"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	// Wrong PIN still bounces.
	w = do(t, srv, http.MethodPost, "/auth/login", "", `{"agent":"desk1","pin":"0000"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDomainStateSurvivesRestart(t *testing.T) {
	cacheDir := t.TempDir()

	first, err := New(testConfig(t, cacheDir))
	require.NoError(t, err)

	body := `{"id":"500","number":"SH500","airline":"SkyHarbor","origin":"AMS",` +
		`"destination":"LIS","gate":"B4","scheduled_dep":"2026-09-01T14:30:00Z"}`
	w := do(t, first, http.MethodPost, "/ops/flight", "", body)
	require.Equal(t, http.StatusOK, w.Code)

	// The mirror writes in the background; wait for the snapshot to land.
	kv, err := storage.NewKV(cacheDir)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		var snap types.Snapshot
		ok, err := kv.Get(state.SnapshotKey, &snap)
		return err == nil && ok && len(snap.Flights) == 1
	}, 2*time.Second, 10*time.Millisecond)
	first.Close()

	second, err := New(testConfig(t, cacheDir))
	require.NoError(t, err)
	defer second.Close()

	w = do(t, second, http.MethodGet, "/flights", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Flights []types.Flight `json:"flights"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Flights, 1)
	assert.Equal(t, "SH500", resp.Flights[0].Number)
	assert.Equal(t, "B4", resp.Flights[0].Gate)
}
