package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/actiond/actiond/internal/auth"
	"github.com/actiond/actiond/internal/dispatch"
	"github.com/actiond/actiond/internal/executions"
	"github.com/actiond/actiond/internal/registry"
	"github.com/actiond/actiond/internal/schema"
	"github.com/actiond/actiond/internal/store"
	"github.com/actiond/actiond/internal/store/memory"
)

// stubGateway completes every issue synchronously with 200 unless
// deferred is set.
type stubGateway struct {
	deferred  bool
	issued    int
	cancelled []string
}

func (g *stubGateway) Issue(ctx context.Context, action *registry.Action, params map[string]any) (dispatch.Outcome, error) {
	g.issued++
	if g.deferred {
		return dispatch.Deferred{Ref: fmt.Sprintf("live-%d", g.issued)}, nil
	}
	return dispatch.Completed{StatusCode: http.StatusOK}, nil
}

func (g *stubGateway) Cancel(ctx context.Context, ref string) (dispatch.Outcome, error) {
	g.cancelled = append(g.cancelled, ref)
	return dispatch.Completed{StatusCode: http.StatusOK}, nil
}

func newTestServer(t *testing.T, gw dispatch.Gateway) (*httptest.Server, registry.ActionStore) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	actions := registry.NewMemoryActions()
	runnerTypes := registry.NewMemoryRunnerTypes(testRunnerTypes()...)
	controller := executions.New(actions, runnerTypes, memory.New(), gw, logger)

	handler := NewRouter(RouterConfig{
		Controller:  controller,
		Actions:     actions,
		RunnerTypes: runnerTypes,
		Logger:      logger,
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv, actions
}

// testRunnerTypes mirrors the shape of the seeded runner types
// with a deterministic run-local schema.
func testRunnerTypes() []*registry.RunnerType {
	return []*registry.RunnerType{
		{
			Name:    "run-local",
			Enabled: true,
			Parameters: schema.Schema{
				"cmd":     {Type: schema.TypeString, Required: true},
				"sudo":    {Type: schema.TypeBoolean, Default: false},
				"timeout": {Type: schema.TypeNumber, Default: float64(60)},
			},
		},
	}
}

func registerDummyAction(t *testing.T, srv *httptest.Server) registry.Action {
	t.Helper()

	action := registry.Action{
		Name:       "local.dummy",
		Enabled:    true,
		EntryPoint: "/bin/true",
		RunnerType: "run-local",
		Parameters: schema.Schema{
			"a": {Type: schema.TypeString, Default: "abc"},
			"b": {Type: schema.TypeNumber, Default: float64(123)},
		},
	}
	var created registry.Action
	doJSON(t, srv, http.MethodPost, "/v1/actions", action, http.StatusCreated, &created)
	return created
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body any, wantStatus int, out any) {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &payload)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, wantStatus, resp.StatusCode, "%s %s", method, path)
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
}

func TestExecutionLifecycle(t *testing.T) {
	gw := &stubGateway{}
	srv, _ := newTestServer(t, gw)
	action := registerDummyAction(t, srv)

	// Create an execution referencing the action by name.
	var created store.Execution
	doJSON(t, srv, http.MethodPost, "/v1/executions", CreateExecutionRequest{
		Action:     executions.ActionRef{Name: "local.dummy"},
		Parameters: map[string]any{"cmd": "uname -a"},
	}, http.StatusCreated, &created)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, action.ID, created.ActionID)
	assert.Equal(t, store.StatusSucceeded, created.Status)
	// Defaults from runner type and action both merged in.
	assert.Equal(t, "uname -a", created.Parameters["cmd"])
	assert.Equal(t, "abc", created.Parameters["a"])
	assert.Equal(t, float64(60), created.Parameters["timeout"])

	// Fetch it back.
	var got store.Execution
	doJSON(t, srv, http.MethodGet, "/v1/executions/"+created.ID, nil, http.StatusOK, &got)
	assert.Equal(t, created.ID, got.ID)

	// Delete, then the record is gone.
	doJSON(t, srv, http.MethodDelete, "/v1/executions/"+created.ID, nil, http.StatusNoContent, nil)
	doJSON(t, srv, http.MethodGet, "/v1/executions/"+created.ID, nil, http.StatusNotFound, nil)
}

func TestCreateExecution_ValidationFailureLeavesNoRecord(t *testing.T) {
	gw := &stubGateway{}
	srv, _ := newTestServer(t, gw)
	registerDummyAction(t, srv)

	doJSON(t, srv, http.MethodPost, "/v1/executions", CreateExecutionRequest{
		Action:     executions.ActionRef{Name: "local.dummy"},
		Parameters: map[string]any{"cmd": "uname -a", "foo": "bar"},
	}, http.StatusBadRequest, nil)

	assert.Zero(t, gw.issued, "nothing should be dispatched")

	var records []*store.Execution
	doJSON(t, srv, http.MethodGet, "/v1/executions", nil, http.StatusOK, &records)
	assert.Empty(t, records)
}

func TestCreateExecution_UnknownAction(t *testing.T) {
	srv, _ := newTestServer(t, &stubGateway{})

	doJSON(t, srv, http.MethodPost, "/v1/executions", CreateExecutionRequest{
		Action: executions.ActionRef{ID: "100"},
	}, http.StatusNotFound, nil)
}

func TestListExecutions_FilterAndLimit(t *testing.T) {
	gw := &stubGateway{}
	srv, _ := newTestServer(t, gw)
	registerDummyAction(t, srv)

	for i := 0; i < 5; i++ {
		doJSON(t, srv, http.MethodPost, "/v1/executions", CreateExecutionRequest{
			Action:     executions.ActionRef{Name: "local.dummy"},
			Parameters: map[string]any{"cmd": fmt.Sprintf("echo %d", i)},
		}, http.StatusCreated, nil)
	}

	var records []*store.Execution
	doJSON(t, srv, http.MethodGet, "/v1/executions?action_name=local.dummy&limit=2", nil, http.StatusOK, &records)
	require.Len(t, records, 2)
	assert.Equal(t, "echo 0", records[0].Parameters["cmd"])
	assert.Equal(t, "echo 1", records[1].Parameters["cmd"])

	// limit=0 is unbounded.
	doJSON(t, srv, http.MethodGet, "/v1/executions?limit=0", nil, http.StatusOK, &records)
	assert.Len(t, records, 5)

	// Non-matching filter yields an empty list, not null.
	doJSON(t, srv, http.MethodGet, "/v1/executions?action_name=nope", nil, http.StatusOK, &records)
	assert.NotNil(t, records)
	assert.Empty(t, records)

	doJSON(t, srv, http.MethodGet, "/v1/executions?limit=banana", nil, http.StatusBadRequest, nil)
}

func TestDeleteExecution_CancelsRunning(t *testing.T) {
	gw := &stubGateway{deferred: true}
	srv, _ := newTestServer(t, gw)
	registerDummyAction(t, srv)

	var created store.Execution
	doJSON(t, srv, http.MethodPost, "/v1/executions", CreateExecutionRequest{
		Action:     executions.ActionRef{Name: "local.dummy"},
		Parameters: map[string]any{"cmd": "sleep 600"},
	}, http.StatusCreated, &created)
	require.Equal(t, store.StatusRunning, created.Status)

	doJSON(t, srv, http.MethodDelete, "/v1/executions/"+created.ID, nil, http.StatusNoContent, nil)
	assert.Equal(t, []string{created.DispatchRef}, gw.cancelled)
}

func TestRunnerTypes_ReadOnly(t *testing.T) {
	srv, _ := newTestServer(t, &stubGateway{})

	var types []*registry.RunnerType
	doJSON(t, srv, http.MethodGet, "/v1/runnertypes", nil, http.StatusOK, &types)
	require.Len(t, types, 1)
	rt := types[0]

	// Name filter: exact match only.
	doJSON(t, srv, http.MethodGet, "/v1/runnertypes?name=run-local", nil, http.StatusOK, &types)
	assert.Len(t, types, 1)
	doJSON(t, srv, http.MethodGet, "/v1/runnertypes?name=run", nil, http.StatusOK, &types)
	assert.Empty(t, types)

	var got registry.RunnerType
	doJSON(t, srv, http.MethodGet, "/v1/runnertypes/"+rt.ID, nil, http.StatusOK, &got)
	assert.Equal(t, rt.Name, got.Name)

	// Writes are rejected without touching state.
	doJSON(t, srv, http.MethodPost, "/v1/runnertypes", rt, http.StatusNotImplemented, nil)
	doJSON(t, srv, http.MethodPut, "/v1/runnertypes/"+rt.ID, rt, http.StatusMethodNotAllowed, nil)
	doJSON(t, srv, http.MethodDelete, "/v1/runnertypes/"+rt.ID, nil, http.StatusNotImplemented, nil)

	doJSON(t, srv, http.MethodGet, "/v1/runnertypes", nil, http.StatusOK, &types)
	assert.Len(t, types, 1, "rejected writes must not mutate the catalog")
}

func TestActions_CRUD(t *testing.T) {
	srv, _ := newTestServer(t, &stubGateway{})
	created := registerDummyAction(t, srv)

	var actions []*registry.Action
	doJSON(t, srv, http.MethodGet, "/v1/actions?name=local.dummy", nil, http.StatusOK, &actions)
	require.Len(t, actions, 1)

	var got registry.Action
	doJSON(t, srv, http.MethodGet, "/v1/actions/"+created.ID, nil, http.StatusOK, &got)
	assert.Equal(t, "local.dummy", got.Name)

	// Duplicate names are rejected.
	doJSON(t, srv, http.MethodPost, "/v1/actions", registry.Action{
		Name: "local.dummy", Enabled: true, RunnerType: "run-local",
	}, http.StatusBadRequest, nil)

	doJSON(t, srv, http.MethodDelete, "/v1/actions/"+created.ID, nil, http.StatusNoContent, nil)
	doJSON(t, srv, http.MethodGet, "/v1/actions/"+created.ID, nil, http.StatusNotFound, nil)
}

func TestRouter_AuthAndHealth(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	actions := registry.NewMemoryActions()
	runnerTypes := registry.NewMemoryRunnerTypes(testRunnerTypes()...)
	controller := executions.New(actions, runnerTypes, memory.New(), &stubGateway{}, logger)

	handler := NewRouter(RouterConfig{
		Controller:  controller,
		Actions:     actions,
		RunnerTypes: runnerTypes,
		Logger:      logger,
		AuthToken:   "s3cret",
		RateLimit:   auth.RateLimitConfig{Enabled: false},
	})
	srv := httptest.NewServer(handler)
	defer srv.Close()

	// API routes require the token.
	resp, err := http.Get(srv.URL + "/v1/actions")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/actions", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer s3cret")
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Health and metrics stay open.
	for _, path := range []string{"/healthz", "/metrics"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
