package adminapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/trackflag/pkg/adminapi"
	"github.com/dmitrymomot/trackflag/pkg/audit"
	"github.com/dmitrymomot/trackflag/pkg/httpserver"
	"github.com/dmitrymomot/trackflag/pkg/redis"
	"github.com/dmitrymomot/trackflag/pkg/rollout"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newRouter(t *testing.T, pct int, overrides map[string]string, opts ...adminapi.Option) (http.Handler, *rollout.Controller) {
	t.Helper()
	ctrl := rollout.New(context.Background(), rollout.Config{Percentage: pct},
		rollout.NewMemoryOverrideStore(overrides), rollout.ContextSessionStore{}, audit.NewMemorySink())
	return adminapi.Router(ctrl, opts...), ctrl
}

func do(t *testing.T, h http.Handler, method, path, body string, header map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func TestStatus(t *testing.T) {
	t.Parallel()
	h, _ := newRouter(t, 0, map[string]string{
		"override_gtmEnabled":       "true",
		"override_parallelTracking": "true",
	})

	rec, env := do(t, h, http.MethodGet, "/status", "", map[string]string{adminapi.SessionHeader: "session-123"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "session-123", rec.Header().Get(adminapi.SessionHeader))

	var st rollout.Status
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, rollout.PhaseParallel, st.Phase)
	assert.Equal(t, "session-123", st.SessionID)
	assert.False(t, st.ShouldUseNewPath)
	assert.True(t, st.Flags[rollout.FlagParallelTracking])
}

func TestSessionHeader(t *testing.T) {
	t.Parallel()
	h, _ := newRouter(t, 0, nil)

	for _, id := range []string{"", "has space", strings.Repeat("a", 200)} {
		rec, env := do(t, h, http.MethodGet, "/status", "", map[string]string{adminapi.SessionHeader: id})
		require.Equal(t, http.StatusOK, rec.Code)

		echoed := rec.Header().Get(adminapi.SessionHeader)
		assert.NotEmpty(t, echoed)
		assert.NotEqual(t, id, echoed)

		var st rollout.Status
		require.NoError(t, json.Unmarshal(env.Data, &st))
		assert.Equal(t, echoed, st.SessionID)
	}
}

func TestSessionHeader_ScopedStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	srv := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	sessions := redis.NewSessionStore(client, "p:", "shared", 0)
	ctrl := rollout.New(ctx, rollout.Config{Percentage: 50}, nil, sessions, audit.NewMemorySink())
	h := adminapi.Router(ctrl, adminapi.WithSessionStore(sessions))

	var ids []string
	for range 2 {
		rec, env := do(t, h, http.MethodGet, "/status", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var st rollout.Status
		require.NoError(t, json.Unmarshal(env.Data, &st))
		assert.Equal(t, st.SessionID, rec.Header().Get(adminapi.SessionHeader))
		ids = append(ids, st.SessionID)
	}

	scoped, err := srv.Get("p:session:shared")
	require.NoError(t, err)
	assert.Equal(t, []string{scoped, scoped}, ids)

	t.Run("header still wins", func(t *testing.T) {
		rec, env := do(t, h, http.MethodGet, "/status", "", map[string]string{adminapi.SessionHeader: "user_42"})
		require.Equal(t, http.StatusOK, rec.Code)
		var st rollout.Status
		require.NoError(t, json.Unmarshal(env.Data, &st))
		assert.Equal(t, "user_42", st.SessionID)
	})
}

func TestDecisions(t *testing.T) {
	t.Parallel()
	h, _ := newRouter(t, 100, map[string]string{
		"override_gtmEnabled":       "true",
		"override_checkoutTracking": "true",
	})

	rec, env := do(t, h, http.MethodGet, "/decisions", "", map[string]string{adminapi.SessionHeader: "user_42"})
	require.Equal(t, http.StatusOK, rec.Code)

	var d adminapi.Decisions
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.Equal(t, "user_42", d.SessionID)
	assert.True(t, d.NewPath)
	assert.False(t, d.ParallelTracking)
	assert.Equal(t, map[string]bool{"checkout": true, "payment": false, "thankyou": false}, d.Components)
}

func TestDecisions_Bucketed(t *testing.T) {
	t.Parallel()
	h, _ := newRouter(t, 50, map[string]string{"override_gtmEnabled": "true"})

	// "user_42" hashes to bucket 6, "session-123" to 77.
	_, env := do(t, h, http.MethodGet, "/decisions", "", map[string]string{adminapi.SessionHeader: "user_42"})
	var d adminapi.Decisions
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.True(t, d.NewPath)

	_, env = do(t, h, http.MethodGet, "/decisions", "", map[string]string{adminapi.SessionHeader: "session-123"})
	require.NoError(t, json.Unmarshal(env.Data, &d))
	assert.False(t, d.NewPath)
}

func TestUpdateFlag(t *testing.T) {
	t.Parallel()

	t.Run("sets override", func(t *testing.T) {
		t.Parallel()
		h, ctrl := newRouter(t, 0, nil)

		rec, env := do(t, h, http.MethodPut, "/flags/gtmEnabled", `{"value":true}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var st rollout.Status
		require.NoError(t, json.Unmarshal(env.Data, &st))
		assert.Equal(t, rollout.PhasePartialNew, st.Phase)
		assert.Equal(t, rollout.PhasePartialNew, ctrl.Phase())
	})

	t.Run("unknown flag", func(t *testing.T) {
		t.Parallel()
		h, _ := newRouter(t, 0, nil)

		rec, env := do(t, h, http.MethodPut, "/flags/nope", `{"value":true}`, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "unknown_flag", env.Error.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		h, ctrl := newRouter(t, 0, nil)

		for _, body := range []string{"", "{", `{"value":"yes"}`, `{}`, `{"value":true,"extra":1}`, `{"value":true}{}`} {
			rec, env := do(t, h, http.MethodPut, "/flags/gtmEnabled", body, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code, body)
			require.NotNil(t, env.Error)
			assert.Equal(t, "bad_request", env.Error.Code)
		}
		assert.Equal(t, rollout.PhaseLegacy, ctrl.Phase())
	})
}

func TestResetFlag(t *testing.T) {
	t.Parallel()
	h, ctrl := newRouter(t, 0, nil)

	require.NoError(t, ctrl.UpdateFlag(context.Background(), "gtmEnabled", true))
	rec, _ := do(t, h, http.MethodDelete, "/flags/gtmEnabled", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, rollout.PhaseLegacy, ctrl.Phase())

	rec, _ = do(t, h, http.MethodDelete, "/flags/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRollback(t *testing.T) {
	t.Parallel()

	t.Run("with reason", func(t *testing.T) {
		t.Parallel()
		h, ctrl := newRouter(t, 100, map[string]string{"override_gtmEnabled": "true"})

		rec, env := do(t, h, http.MethodPost, "/rollback", `{"reason":"checkout broken"}`, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var st rollout.Status
		require.NoError(t, json.Unmarshal(env.Data, &st))
		assert.Equal(t, rollout.PhaseRollback, st.Phase)
		assert.False(t, st.ShouldUseNewPath)

		events, err := ctrl.AuditEvents(context.Background())
		require.NoError(t, err)
		last := events[len(events)-1]
		assert.Equal(t, rollout.EventEmergencyRollback, last.Name)
		assert.Equal(t, "checkout broken", last.Payload["reason"])
	})

	t.Run("empty body uses default reason", func(t *testing.T) {
		t.Parallel()
		h, ctrl := newRouter(t, 0, nil)

		rec, _ := do(t, h, http.MethodPost, "/rollback", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		events, err := ctrl.AuditEvents(context.Background())
		require.NoError(t, err)
		assert.Equal(t, adminapi.DefaultRollbackReason, events[len(events)-1].Payload["reason"])
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		h, ctrl := newRouter(t, 0, nil)

		rec, _ := do(t, h, http.MethodPost, "/rollback", `{"reason":`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEqual(t, rollout.PhaseRollback, ctrl.Phase())
	})
}

func TestAudit(t *testing.T) {
	t.Parallel()
	h, ctrl := newRouter(t, 0, nil)
	ctx := context.Background()
	require.NoError(t, ctrl.UpdateFlag(ctx, "gtmEnabled", true))

	rec, env := do(t, h, http.MethodGet, "/audit", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var events []audit.Event
	require.NoError(t, json.Unmarshal(env.Data, &events))
	require.Len(t, events, 2)
	assert.Equal(t, rollout.EventControllerInitialized, events[0].Name)
	assert.Equal(t, rollout.EventFlagUpdated, events[1].Name)

	rec, _ = do(t, h, http.MethodDelete, "/audit", "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = do(t, h, http.MethodGet, "/audit", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

type brokenSink struct{}

func (brokenSink) Append(context.Context, audit.Event) error     { return errors.New("down") }
func (brokenSink) ReadAll(context.Context) ([]audit.Event, error) { return nil, errors.New("down") }
func (brokenSink) Clear(context.Context) error                    { return errors.New("down") }

func TestAudit_SinkUnavailable(t *testing.T) {
	t.Parallel()
	ctrl := rollout.New(context.Background(), rollout.Config{}, nil, nil, brokenSink{})
	h := adminapi.Router(ctrl)

	rec, env := do(t, h, http.MethodGet, "/audit", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "audit_unavailable", env.Error.Code)

	rec, _ = do(t, h, http.MethodDelete, "/audit", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealthz(t *testing.T) {
	t.Parallel()
	failing := httpserver.Check{Name: "redis", Probe: func(context.Context) error { return errors.New("down") }}
	h, _ := newRouter(t, 0, nil, adminapi.WithHealthChecks(failing))

	rec, _ := do(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, rec.Header().Get(adminapi.SessionHeader))
}

func TestMetrics(t *testing.T) {
	t.Parallel()
	scrape := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("trackflag_rollout_emergency_rollbacks_total 0\n"))
	})
	h, _ := newRouter(t, 0, nil, adminapi.WithMetrics(scrape))

	rec, _ := do(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "emergency_rollbacks_total")
	assert.Empty(t, rec.Header().Get(adminapi.SessionHeader))

	h, _ = newRouter(t, 0, nil)
	rec, _ = do(t, h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotFoundAndMethod(t *testing.T) {
	t.Parallel()
	h, _ := newRouter(t, 0, nil)

	rec, env := do(t, h, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "not_found", env.Error.Code)

	rec, _ = do(t, h, http.MethodPost, "/status", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()
	extract := adminapi.LoggerExtractor()

	_, ok := extract(context.Background())
	assert.False(t, ok)

	attr, ok := extract(rollout.WithSessionID(context.Background(), "s-1"))
	require.True(t, ok)
	assert.Equal(t, "session_id", attr.Key)
	assert.Equal(t, "s-1", attr.Value.String())
}
