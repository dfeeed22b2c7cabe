package http_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	checkinhttp "github.com/aussiebroadwan/checkin/internal/checkin/http"
	"github.com/aussiebroadwan/checkin/internal/checkin/service"
	"github.com/aussiebroadwan/checkin/internal/checkin/store/drivers/sqlite"
	"github.com/aussiebroadwan/checkin/pkg/checkinsdk"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const liveKey = "0007"

type testEnv struct {
	srv   *httptest.Server
	keys  *service.KeyRotator
	store *sqlite.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	reg := prometheus.NewRegistry()
	metrics := service.NewMetrics(reg)

	keys, err := service.NewKeyRotator(service.CodeSourceFunc(func(time.Time) (string, error) {
		return liveKey, nil
	}), time.Minute, time.Minute, logger)
	require.NoError(t, err)
	keys.Metrics = metrics

	bindings, err := service.NewBindingStore(ctx, st, logger, metrics)
	require.NoError(t, err)

	tracker := &service.AttendanceTracker{Store: st, Bindings: bindings, Logger: logger, Metrics: metrics}

	router := checkinhttp.NewRouter("test", st, logger, true)
	router.Keys = keys
	router.Sessions = &service.SessionAuthorizer{
		Keys:       keys,
		Bindings:   bindings,
		Attendance: tracker,
		Logger:     logger,
		Metrics:    metrics,
	}
	router.Attendance = tracker
	router.Gatherer = reg
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, keys: keys, store: st}
}

// device returns a client whose requests appear to come from addr.
func (e *testEnv) device(addr string) *checkinsdk.Client {
	c := checkinsdk.NewClient(e.srv.URL)
	c.Header = http.Header{"X-Forwarded-For": {addr}}
	return c
}

func TestSessionEndpoints(t *testing.T) {
	ctx := context.Background()

	t.Run("login binds and reports the client address", func(t *testing.T) {
		env := newTestEnv(t)

		resp, err := env.device("::ffff:10.0.0.1").Login(ctx, "S1", liveKey)
		require.NoError(t, err)
		require.True(t, resp.Success)
		require.Equal(t, "S1", resp.StudentID)
		require.Equal(t, "10.0.0.1", resp.ClientIP)
		require.Nil(t, resp.OngoingCheckin)
	})

	t.Run("error kinds map to statuses", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.device("10.0.0.1")
		b := env.device("10.0.0.2")

		_, err := a.Login(ctx, "S1", "12")
		require.Equal(t, http.StatusBadRequest, checkinsdk.StatusCode(err))

		_, err = a.Login(ctx, "S1", "9999")
		require.Equal(t, http.StatusForbidden, checkinsdk.StatusCode(err))

		_, err = a.Login(ctx, "S1", liveKey)
		require.NoError(t, err)

		_, err = a.Login(ctx, "S2", liveKey)
		require.Equal(t, http.StatusConflict, checkinsdk.StatusCode(err))
		require.Contains(t, err.Error(), "S1")

		_, err = b.Login(ctx, "S1", liveKey)
		require.Equal(t, http.StatusConflict, checkinsdk.StatusCode(err))
	})

	t.Run("logout releases the device", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.device("10.0.0.1")

		_, err := a.Login(ctx, "S1", liveKey)
		require.NoError(t, err)

		_, err = env.device("10.0.0.2").Logout(ctx, "S1", liveKey)
		require.Equal(t, http.StatusForbidden, checkinsdk.StatusCode(err))

		resp, err := a.Logout(ctx, "S1", liveKey)
		require.NoError(t, err)
		require.True(t, resp.Success)

		_, err = a.Logout(ctx, "S1", liveKey)
		require.Equal(t, http.StatusForbidden, checkinsdk.StatusCode(err))

		_, err = a.Login(ctx, "S2", liveKey)
		require.NoError(t, err)
	})

	t.Run("malformed body", func(t *testing.T) {
		env := newTestEnv(t)

		resp, err := http.Post(env.srv.URL+"/api/login", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("login is rate limited per address", func(t *testing.T) {
		env := newTestEnv(t)
		c := env.device("10.0.0.9")

		var limited bool
		for range 20 {
			_, err := c.Login(ctx, "S1", "9999")
			if checkinsdk.StatusCode(err) == http.StatusTooManyRequests {
				limited = true
				break
			}
		}
		require.True(t, limited)
	})
}

func TestAttendanceEndpoints(t *testing.T) {
	ctx := context.Background()

	t.Run("check in, status, check out, history", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.device("10.0.0.1")

		_, err := a.CheckIn(ctx, "S1")
		require.Equal(t, http.StatusForbidden, checkinsdk.StatusCode(err))

		_, err = a.Login(ctx, "S1", liveKey)
		require.NoError(t, err)

		in, err := a.CheckIn(ctx, "S1")
		require.NoError(t, err)
		require.True(t, in.Success)

		status, err := a.Status(ctx, "S1")
		require.NoError(t, err)
		require.True(t, status.Ongoing)
		require.True(t, in.CheckInTime.Equal(*status.CheckInTime))

		login, err := a.Login(ctx, "S1", liveKey)
		require.NoError(t, err)
		require.NotNil(t, login.OngoingCheckin)

		_, err = env.device("10.0.0.2").CheckOut(ctx, "S1")
		require.Equal(t, http.StatusForbidden, checkinsdk.StatusCode(err))

		out, err := a.CheckOut(ctx, "S1")
		require.NoError(t, err)
		require.Regexp(t, `^\d{2}:\d{2}:\d{2}$`, out.Duration)
		require.True(t, in.CheckInTime.Equal(out.CheckInTime))

		history, err := a.History(ctx)
		require.NoError(t, err)
		require.Len(t, history.Records, 1)
		require.Equal(t, "S1", history.Records[0].ID)
		require.NotNil(t, history.Records[0].CheckOutTime)
	})

	t.Run("check out without check in", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.device("10.0.0.1")

		_, err := a.Login(ctx, "S1", liveKey)
		require.NoError(t, err)

		_, err = a.CheckOut(ctx, "S1")
		require.Equal(t, http.StatusNotFound, checkinsdk.StatusCode(err))
	})

	t.Run("status of unknown student", func(t *testing.T) {
		env := newTestEnv(t)

		status, err := env.device("10.0.0.1").Status(ctx, "nobody")
		require.NoError(t, err)
		require.False(t, status.Ongoing)
		require.Nil(t, status.CheckInTime)
	})

	t.Run("weekly report", func(t *testing.T) {
		env := newTestEnv(t)
		a := env.device("10.0.0.1")

		_, err := a.Login(ctx, "S1", liveKey)
		require.NoError(t, err)
		_, err = a.CheckIn(ctx, "S1")
		require.NoError(t, err)

		report, err := a.WeeklyReport(ctx, "", "")
		require.NoError(t, err)
		require.Len(t, report.Totals, 1)
		require.Equal(t, "S1", report.Totals[0].ID)
		require.Equal(t, "00:00:00", report.Totals[0].Total)

		start, err := time.Parse("2006-01-02", report.WeekStart)
		require.NoError(t, err)
		require.Equal(t, time.Monday, start.Weekday())

		ranged, err := a.WeeklyReport(ctx, "2020-01-06", "2020-01-12")
		require.NoError(t, err)
		require.Empty(t, ranged.Totals)

		_, err = a.WeeklyReport(ctx, "06/01/2020", "")
		require.Equal(t, http.StatusBadRequest, checkinsdk.StatusCode(err))

		_, err = a.WeeklyReport(ctx, "2020-01-12", "2020-01-06")
		require.Equal(t, http.StatusBadRequest, checkinsdk.StatusCode(err))
	})
}

func TestSystemEndpoints(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	c := checkinsdk.NewClient(env.srv.URL)

	require.NoError(t, c.Livez(ctx))
	require.NoError(t, c.Readyz(ctx))

	_, err := env.device("10.0.0.1").Login(ctx, "S1", liveKey)
	require.NoError(t, err)

	resp, err := http.Get(env.srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `checkin_session_requests_total{operation="login",outcome="success"} 1`)
	require.Contains(t, string(body), "checkin_bound_devices 1")

	swagger, err := http.Get(env.srv.URL + "/swagger/doc.json")
	require.NoError(t, err)
	defer swagger.Body.Close()
	require.Equal(t, http.StatusOK, swagger.StatusCode)
}

func TestReadyzHidesDatabaseErrors(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.store.Close())

	resp, err := http.Get(env.srv.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()

	var health checkinsdk.HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))

	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	require.Equal(t, "degraded", health.Status)
	require.NotNil(t, health.Checks)
	require.Equal(t, "error", health.Checks.Database)
	require.Equal(t, "ok", health.Checks.Keys)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodOptions, env.srv.URL+"/api/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://kiosk.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
