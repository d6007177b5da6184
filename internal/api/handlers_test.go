package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskmaster-api/internal/events"
	"github.com/phrazzld/taskmaster-api/internal/platform/memory"
	"github.com/phrazzld/taskmaster-api/internal/service"
	"github.com/stretchr/testify/require"
)

// testEnv wires real services over the memory backend behind a router that
// mirrors the production routes.
type testEnv struct {
	server  *httptest.Server
	hub     *events.Hub
	tasks   service.TaskService
	users   service.UserService
	emitter *events.InMemoryEventEmitter
}

func newTestRouter(users service.UserService, tasks service.TaskService, hub Subscriber) http.Handler {
	userHandler := NewUserHandler(users)
	taskHandler := NewTaskHandler(tasks)

	r := chi.NewRouter()
	r.Route("/users", func(r chi.Router) {
		r.Post("/", userHandler.UpsertUser)
		r.Get("/{email}", userHandler.GetUser)
		r.Patch("/{email}", userHandler.RecordLogin)
	})
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", taskHandler.AddTask)
		r.Get("/{email}", taskHandler.ListTasks)
		r.Put("/{email}", taskHandler.ReplaceTasks)
		r.Patch("/{email}/{taskId}", taskHandler.UpdateTask)
		r.Delete("/{email}/{taskId}", taskHandler.DeleteTask)
	})
	if hub != nil {
		r.Get("/live", NewLiveHandler(hub).ServeHTTP)
	}
	return r
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	hub := events.NewHub(16, nil)
	emitter := events.NewInMemoryEventEmitter(nil)
	emitter.RegisterHandler(hub)

	tasks, err := service.NewTaskService(memory.NewTaskListStore(), emitter, nil)
	require.NoError(t, err)
	users := service.NewUserService(memory.NewUserStore(), nil)

	server := httptest.NewServer(newTestRouter(users, tasks, hub))
	t.Cleanup(func() {
		hub.Close()
		server.Close()
	})

	return &testEnv{server: server, hub: hub, tasks: tasks, users: users, emitter: emitter}
}

// do sends a request with an optional JSON body and returns status and body.
func (e *testEnv) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}
