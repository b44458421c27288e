// internal/poller/httpdev/httpdev_test.go
package httpdev

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roastcraft/roastcraft-daq/internal/config"
	"github.com/roastcraft/roastcraft-daq/internal/device"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(m string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, m)
}

func tcpFor(t *testing.T, srv *httptest.Server) *config.Tcp {
	t.Helper()
	host, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)
	return &config.Tcp{IP: host, Port: uint16(p)}
}

func TestRead_ForwardsBodyUnmodified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/", r.URL.Path)
		_, _ = w.Write([]byte(`{"BT": 180.5, "ET": 210, "note": "x"}`))
	}))
	defer srv.Close()

	d, err := New(tcpFor(t, srv), srv.Client(), nil, zaptest.NewLogger(t))
	require.NoError(t, err)

	snap, err := d.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"BT": 180.5, "ET": 210.0, "note": "x"}, snap)
}

func TestRead_AnyJSONValueIsForwarded(t *testing.T) {
	tests := map[string]struct {
		body string
		want any
	}{
		"array":  {`[1,2,3]`, []any{1.0, 2.0, 3.0}},
		"number": {`42`, 42.0},
		"string": {`"idle"`, "idle"},
		"null":   {`null`, nil},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			d, err := New(tcpFor(t, srv), srv.Client(), nil, zaptest.NewLogger(t))
			require.NoError(t, err)

			snap, err := d.Read(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, snap)
		})
	}
}

func TestRead_InvalidJSONIsProtocolError(t *testing.T) {
	tests := map[string]string{
		"not json":  `hello`,
		"empty":     ``,
		"truncated": `{"BT": 1`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()

			d, err := New(tcpFor(t, srv), srv.Client(), nil, zaptest.NewLogger(t))
			require.NoError(t, err)

			snap, err := d.Read(context.Background())
			assert.ErrorIs(t, err, device.ErrProtocol)
			assert.Nil(t, snap)
		})
	}
}

func TestRead_TransportFailureYieldsNilSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	cfg := tcpFor(t, srv)
	srv.Close()

	core, logs := observer.New(zap.ErrorLevel)
	n := &recordingNotifier{}
	d, err := New(cfg, nil, n, zap.New(core))
	require.NoError(t, err)

	snap, err := d.Read(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
	assert.Equal(t, 1, logs.FilterMessage("http poll failed").Len())
	require.Len(t, n.messages, 1)
	assert.Contains(t, n.messages[0], d.URL())
}

func TestRead_CancelledContextIsNotSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	n := &recordingNotifier{}
	d, err := New(tcpFor(t, srv), srv.Client(), n, zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = d.Read(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, n.messages)
}

func TestNew(t *testing.T) {
	_, err := New(nil, nil, nil, zap.NewNop())
	assert.ErrorIs(t, err, device.ErrConfiguration)

	d, err := New(&config.Tcp{IP: "192.168.1.20", Port: 8080}, nil, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.1.20:8080", d.URL())
	assert.NoError(t, d.Close())
}
