package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/phrazzld/taskmaster-api/internal/config"
	"github.com/phrazzld/taskmaster-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:                   5000,
			LogLevel:               "debug",
			ShutdownTimeoutSeconds: 2,
			WriteTimeoutSeconds:    5,
		},
		Database: config.DatabaseConfig{
			URL:          "memory://",
			Name:         "TaskMaster",
			MaxOpenConns: 1,
		},
		Notifier: config.NotifierConfig{
			QueueSize:    16,
			RedisChannel: "taskmaster:changes",
		},
	}
}

func newTestApp(t *testing.T) (*application, *logger.TestLogBuffer) {
	t.Helper()
	log, buf := logger.NewTestLogger()
	app, err := newApplication(context.Background(), testConfig(), log)
	require.NoError(t, err)
	return app, buf
}

func get(t *testing.T, url string, header http.Header) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestNewApplication_Memory(t *testing.T) {
	app, buf := newTestApp(t)
	t.Cleanup(func() { app.cleanup(context.Background()) })

	assert.Equal(t, config.DriverMemory, app.storage.driver)
	assert.NotNil(t, app.taskService)
	assert.NotNil(t, app.userService)
	assert.Nil(t, app.bridge, "bridge must stay off without a redis address")
	assert.Contains(t, buf.String(), "in-memory storage")
}

func TestRouter_StaticRoutes(t *testing.T) {
	app, _ := newTestApp(t)
	server := httptest.NewServer(app.setupRouter())
	t.Cleanup(func() {
		server.Close()
		app.cleanup(context.Background())
	})

	resp, body := get(t, server.URL+"/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "TaskMaster Backend Running...", body)

	resp, body = get(t, server.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", body)

	resp, _ = get(t, server.URL+"/health", http.Header{"Origin": {"https://app.example.com"}})
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRouter_TaskRoundTrip(t *testing.T) {
	app, _ := newTestApp(t)
	server := httptest.NewServer(app.setupRouter())
	t.Cleanup(func() {
		server.Close()
		app.cleanup(context.Background())
	})

	resp, err := http.Post(server.URL+"/tasks", "application/json",
		strings.NewReader(`{"userEmail":"a@x.com","task":{"id":"1","title":"Ship it"}}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := get(t, server.URL+"/tasks/a@x.com", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[{"id":"1","title":"Ship it"}]`, body)

	resp, err = http.Post(server.URL+"/tasks", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(raw), `"trace_id"`)
}

func TestApplication_ServeStopsOnCancel(t *testing.T) {
	app, buf := newTestApp(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.serve(ctx, listener, app.setupRouter()) }()

	url := "http://" + listener.Addr().String() + "/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}

	_, open := <-app.hub.Subscribe().Events()
	assert.False(t, open, "hub must be closed after shutdown")
	assert.Contains(t, buf.String(), "application shutdown completed")
}

func TestOpenStorage_UnsupportedScheme(t *testing.T) {
	log, _ := logger.NewTestLogger()
	_, err := openStorage(context.Background(), config.DatabaseConfig{URL: "mysql://db/x"}, log)
	assert.Error(t, err)
}

func TestRunMigrate_MemoryHasNoSchema(t *testing.T) {
	log, _ := logger.NewTestLogger()
	err := runMigrate(context.Background(), config.DatabaseConfig{URL: "memory://"}, log, "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema")
}

func TestRootCmd(t *testing.T) {
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "serve")
	assert.Contains(t, names, "migrate")
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))

	root.SetArgs([]string{"migrate"})
	assert.Error(t, root.Execute(), "migrate requires a command")

	t.Setenv("TASKMASTER_DATABASE_URL", "memory://")
	root = newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"migrate", "up"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no schema")
}
