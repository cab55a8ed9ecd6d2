package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/loykin/varstore/internal/config"
	"github.com/loykin/varstore/internal/filestore"
	"github.com/loykin/varstore/internal/metrics"
	"github.com/loykin/varstore/internal/variables"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type fixture struct {
	srv      *Server
	cfg      *config.Config
	vars     *variables.Manager
	dir      string
	varsPath string
	cfgPath  string
}

func newFixture(t *testing.T, cfgJSON string, opts Options) *fixture {
	t.Helper()
	dir := t.TempDir()
	disk := filestore.NewDisk()
	f := &fixture{
		dir:      dir,
		varsPath: filepath.Join(dir, "variables.json"),
		cfgPath:  filepath.Join(dir, "config.json"),
	}
	if cfgJSON != "" {
		require.True(t, disk.Write(f.cfgPath, cfgJSON))
	}
	f.cfg = config.New(disk, f.cfgPath)
	f.cfg.Load()
	f.vars = variables.NewManager(disk, f.varsPath)
	f.vars.Load()
	f.srv = New(f.cfg, f.vars, opts)
	return f
}

func (f *fixture) get(t *testing.T, path string, query url.Values) string {
	t.Helper()
	target := path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rec.Code, "every route answers 200")
	return rec.Body.String()
}

func q(kv ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	return v
}

func TestRoutes_AnonymousFlow(t *testing.T) {
	f := newFixture(t, "", Options{})

	assert.Equal(t, BodyEmpty, f.get(t, "/list", nil))
	assert.Equal(t, BodyFalse, f.get(t, "/exists", q("name", "x")))
	assert.Equal(t, BodyFailed, f.get(t, "/get", q("name", "x")))
	assert.Equal(t, BodyFailed, f.get(t, "/get_type", q("name", "x")))
	assert.Equal(t, BodyFailed, f.get(t, "/get_object", q("name", "x")))

	assert.Equal(t, BodySuccess, f.get(t, "/set", q("name", "x", "type", "t1", "data", "d1")))
	assert.Equal(t, BodyTrue, f.get(t, "/exists", q("name", "x")))
	assert.Equal(t, "d1", f.get(t, "/get", q("name", "x")))
	assert.Equal(t, "t1", f.get(t, "/get_type", q("name", "x")))
	assert.Equal(t, `{"data":"d1","name":"x","type":"t1"}`, f.get(t, "/get_object", q("name", "x")))
	assert.Equal(t, "x\n", f.get(t, "/list", nil))

	assert.Equal(t, BodySuccess, f.get(t, "/remove", q("name", "x")))
	assert.Equal(t, BodyFailed, f.get(t, "/remove", q("name", "x")))
	assert.Equal(t, BodyEmpty, f.get(t, "/list", nil))
}

// The same-type rejection is intentional and visible to clients.
func TestRoutes_SetTypePolarity(t *testing.T) {
	f := newFixture(t, "", Options{})

	require.Equal(t, BodySuccess, f.get(t, "/set", q("name", "x", "type", "t1", "data", "d1")))
	assert.Equal(t, BodyFailed, f.get(t, "/set", q("name", "x", "type", "t1", "data", "d2")))
	assert.Equal(t, "d1", f.get(t, "/get", q("name", "x")))

	assert.Equal(t, BodySuccess, f.get(t, "/set", q("name", "x", "type", "t2", "data", "d3")))
	assert.Equal(t, "d3", f.get(t, "/get", q("name", "x")))
	assert.Equal(t, "t1", f.get(t, "/get_type", q("name", "x")))
}

func TestRoutes_SetRejectsInvalidUTF8(t *testing.T) {
	f := newFixture(t, "", Options{})

	assert.Equal(t, BodyFailed, f.get(t, "/set?name=x&type=t&data=%FF", nil))
	assert.Equal(t, BodyFailed, f.get(t, "/set?name=%FE&type=t&data=d", nil))
	assert.Equal(t, BodyFalse, f.get(t, "/exists?name=x", nil))
	assert.Equal(t, BodyEmpty, f.get(t, "/list", nil))

	require.Equal(t, BodySuccess, f.get(t, "/set", q("name", "é", "type", "t", "data", "ü")))
	f.vars.Save()
	f.vars.Load()
	assert.Equal(t, "ü", f.get(t, "/get", q("name", "é")))
	assert.Equal(t, BodyTrue, f.get(t, "/exists", q("name", "é")))
}

func TestRoutes_MissingParameters(t *testing.T) {
	f := newFixture(t, "", Options{})

	for _, path := range []string{"/get_object", "/get", "/get_type", "/exists", "/remove", "/set"} {
		assert.Equal(t, BodyMissingParameters, f.get(t, path, nil), path)
	}
	assert.Equal(t, BodyMissingParameters, f.get(t, "/set", q("name", "x", "type", "t")))
	assert.Equal(t, BodyMissingParameters, f.get(t, "/set", q("name", "x", "data", "d")))
	assert.Equal(t, BodyMissingParameters, f.get(t, "/set", q("type", "t", "data", "d")))
}

func TestRoutes_EmptyParameterIsPresent(t *testing.T) {
	f := newFixture(t, "", Options{})
	assert.Equal(t, BodyFalse, f.get(t, "/exists?name=", nil))
}

func TestRoutes_ListMultiple(t *testing.T) {
	f := newFixture(t, "", Options{})
	for _, n := range []string{"b", "a", "c"} {
		require.Equal(t, BodySuccess, f.get(t, "/set", q("name", n, "type", "t", "data", "d")))
	}
	body := f.get(t, "/list", nil)
	lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
	assert.ElementsMatch(t, []string{"a", "b", "c"}, lines)
	assert.True(t, strings.HasSuffix(body, "\n"))
}

func TestRoutes_TokenRequired(t *testing.T) {
	f := newFixture(t, `{"auth_token": "secret"}`, Options{})

	routes := []struct {
		path  string
		query url.Values
	}{
		{"/get_object", q("name", "x")},
		{"/get", q("name", "x")},
		{"/get_type", q("name", "x")},
		{"/exists", q("name", "x")},
		{"/set", q("name", "x", "type", "t", "data", "d")},
		{"/remove", q("name", "x")},
		{"/list", nil},
	}
	for _, r := range routes {
		t.Run(r.path, func(t *testing.T) {
			assert.Equal(t, BodyNoAccess, f.get(t, r.path, r.query), "no token")

			wrong := url.Values{}
			for k, v := range r.query {
				wrong[k] = v
			}
			wrong.Set("auth_token", "nope")
			assert.Equal(t, BodyNoAccess, f.get(t, r.path, wrong), "wrong token")

			empty := url.Values{}
			empty.Set("auth_token", "")
			assert.Equal(t, BodyNoAccess, f.get(t, r.path, empty), "empty token")
		})
	}
	assert.False(t, f.vars.Exists("x"), "rejected set must not mutate the store")
}

func TestRoutes_TokenAccepted(t *testing.T) {
	f := newFixture(t, `{"auth_token": "secret"}`, Options{})

	assert.Equal(t, BodySuccess, f.get(t, "/set", q("auth_token", "secret", "name", "x", "type", "t", "data", "d")))
	assert.Equal(t, "d", f.get(t, "/get", q("auth_token", "secret", "name", "x")))
	assert.Equal(t, "x\n", f.get(t, "/list", q("auth_token", "secret")))
}

func TestRoutes_AuthCheckedBeforeParameters(t *testing.T) {
	f := newFixture(t, `{"auth_token": "secret"}`, Options{})
	assert.Equal(t, BodyNoAccess, f.get(t, "/get", nil))
	assert.Equal(t, BodyMissingParameters, f.get(t, "/get", q("auth_token", "secret")))
}

func TestRoutes_PlainTextBody(t *testing.T) {
	f := newFixture(t, "", Options{})
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/list", nil))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestID_Propagated(t *testing.T) {
	f := newFixture(t, "", Options{})
	req := httptest.NewRequest(http.MethodGet, "/list", nil)
	req.Header.Set(requestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(requestIDHeader))
}

func TestMetrics(t *testing.T) {
	m := metrics.New()
	f := newFixture(t, `{"auth_token": "secret"}`, Options{Metrics: m})

	f.get(t, "/set", q("auth_token", "secret", "name", "x", "type", "t", "data", "d"))
	f.get(t, "/get", q("name", "x"))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.VariablesTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/set", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/get", BodyNoAccess)))

	// /metrics is reachable without the token
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), "varstore_variables_total 1")
}

func TestMetrics_DisabledByDefault(t *testing.T) {
	f := newFixture(t, "", Options{})
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServe_FlushesOnShutdown(t *testing.T) {
	f := newFixture(t, `{"port": 9999}`, Options{ShutdownTimeout: time.Second})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.srv.Serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	resp, err := http.Get(base + "/set?name=x&type=t&data=persisted")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.Equal(t, BodySuccess, string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	saved, ok := filestore.NewDisk().Read(f.varsPath)
	require.True(t, ok, "variables must be flushed on shutdown")
	assert.Equal(t, "persisted", gjson.Get(saved, `#(name=="x").data`).String())

	cfg, ok := filestore.NewDisk().Read(f.cfgPath)
	require.True(t, ok, "config must be flushed on shutdown")
	assert.Equal(t, int64(9999), gjson.Get(cfg, "port").Int())
}

func TestRun_ListenErrorStillFlushes(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()
	port := ln.Addr().(*net.TCPAddr).Port

	f := newFixture(t, `{"port": `+strconv.Itoa(port)+`}`, Options{})
	err = f.srv.Run(context.Background())
	require.Error(t, err)

	_, ok := filestore.NewDisk().Read(f.varsPath)
	assert.True(t, ok)
}
