// internal/server/server_test.go
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/roastcraft/roastcraft-daq/internal/config"
	"github.com/roastcraft/roastcraft-daq/internal/device"
	"github.com/roastcraft/roastcraft-daq/internal/status"
)

// ---- fake controller ----

type fakeController struct {
	StartFunc func() error
	cfg       *config.Config
	state     status.State
	starts    int
	stops     int
}

func (f *fakeController) Start() error {
	f.starts++
	if f.StartFunc != nil {
		return f.StartFunc()
	}
	f.state = status.StateRunning
	return nil
}

func (f *fakeController) Stop() {
	f.stops++
	f.state = status.StateIdle
}

func (f *fakeController) Status() status.Snapshot {
	return status.Snapshot{State: f.state}
}

func (f *fakeController) Config() *config.Config { return f.cfg }

func do(t *testing.T, h http.Handler, method, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))

	var body map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

// ---- tests ----

func TestServer(t *testing.T) {
	tests := map[string]struct {
		ctl        *fakeController
		method     string
		path       string
		wantCode   int
		wantStarts int
		wantStops  int
		check      func(t *testing.T, body map[string]any)
	}{
		"start": {
			ctl:        &fakeController{state: status.StateIdle},
			method:     http.MethodPost,
			path:       "/api/start",
			wantCode:   http.StatusOK,
			wantStarts: 1,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "running", body["state"])
			},
		},
		"start construction failure": {
			ctl: &fakeController{StartFunc: func() error {
				return fmt.Errorf("%w: open COM3", device.ErrConstruction)
			}},
			method:     http.MethodPost,
			path:       "/api/start",
			wantCode:   http.StatusUnprocessableEntity,
			wantStarts: 1,
			check: func(t *testing.T, body map[string]any) {
				assert.Contains(t, body["error"], "COM3")
				assert.NotNil(t, body["status"])
			},
		},
		"stop": {
			ctl:       &fakeController{state: status.StateRunning},
			method:    http.MethodPost,
			path:      "/api/stop",
			wantCode:  http.StatusOK,
			wantStops: 1,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "idle", body["state"])
			},
		},
		"status": {
			ctl:      &fakeController{state: status.StateRunning},
			method:   http.MethodGet,
			path:     "/api/status",
			wantCode: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "running", body["state"])
			},
		},
		"config": {
			ctl:      &fakeController{cfg: &config.Config{Brand: "Kapok", Model: "R1"}},
			method:   http.MethodGet,
			path:     "/api/config",
			wantCode: http.StatusOK,
			check: func(t *testing.T, body map[string]any) {
				assert.Equal(t, "Kapok", body["brand"])
				assert.Equal(t, "R1", body["model"])
			},
		},
		"config missing": {
			ctl:      &fakeController{},
			method:   http.MethodGet,
			path:     "/api/config",
			wantCode: http.StatusNotFound,
		},
		"start via get": {
			ctl:      &fakeController{},
			method:   http.MethodGet,
			path:     "/api/start",
			wantCode: http.StatusMethodNotAllowed,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			h := New(tc.ctl, nil, zap.NewNop())

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantStarts, tc.ctl.starts)
			assert.Equal(t, tc.wantStops, tc.ctl.stops)

			if tc.check != nil {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				tc.check(t, body)
			}
		})
	}
}

func TestServer_EventsRoute(t *testing.T) {
	hit := false
	events := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		w.WriteHeader(http.StatusSwitchingProtocols)
	})

	h := New(&fakeController{}, events, zap.NewNop())
	rec, _ := do(t, h, http.MethodGet, "/ws")

	assert.True(t, hit)
	assert.Equal(t, http.StatusSwitchingProtocols, rec.Code)
}

func TestLoggingMiddleware_EchoesOrigin(t *testing.T) {
	h := New(&fakeController{}, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Origin", "http://localhost:1420")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:1420", rec.Header().Get("Access-Control-Allow-Origin"))
}
