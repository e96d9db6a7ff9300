package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/astrochart/internal/domain/chart"
	"github.com/yanqian/astrochart/internal/infra/config"
	apperrors "github.com/yanqian/astrochart/pkg/errors"
)

const snapshotPath = "/api/v1/charts/snapshot"

func TestRouter_SnapshotNetworkErrorRunsPipelineOnce(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("EPHEMERIS_CLIENT_ID", "client-id")
	t.Setenv("EPHEMERIS_CLIENT_SECRET", "client-secret")
	cfg, err := config.Load()
	require.NoError(t, err)

	calls := 0
	svc := &stubChartService{
		snapshotFn: func(context.Context, chart.BirthDetails) (chart.Chart, error) {
			calls++
			return chart.Chart{}, apperrors.Wrap(apperrors.CodeNetwork, "ephemeris request timed out", nil)
		},
	}
	server := NewRouter(cfg, NewChartHandler(svc, stubProvider{}, newTestLogger()))

	rec := performRequest(http.MethodPost, snapshotPath, `{"birth":{"date":"1990-01-15","time":"12:00"}}`, server)
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	require.Equal(t, apperrors.CodeNetwork, decodeErrorBody(t, rec.Body.Bytes())["error"]["code"])
	require.Equal(t, 1, calls)
}

func TestWithRetry_ReplaysListedPathWhenEnabled(t *testing.T) {
	var bodies []string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusGatewayTimeout)
			return
		}
		w.Header().Set("X-Attempt", "2")
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	handler := withRetry(inner, config.RetryConfig{Enabled: true, MaxAttempts: 3, Paths: []string{snapshotPath}}, newTestLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, snapshotPath, strings.NewReader(`{"birth":{}}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2", rec.Header().Get("X-Attempt"))
	require.Equal(t, `{"ok":true}`, rec.Body.String())
	require.Equal(t, []string{`{"birth":{}}`, `{"birth":{}}`}, bodies)
}

func TestWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusGatewayTimeout)
	})
	handler := withRetry(inner, config.RetryConfig{Enabled: true, MaxAttempts: 2, Paths: []string{snapshotPath}}, newTestLogger())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, snapshotPath, strings.NewReader(`{}`)))

	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	require.Equal(t, 2, calls)
}

func TestWithRetry_LeavesOtherRequestsAlone(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		status int
	}{
		{"generate is not idempotent", http.MethodPost, "/api/v1/charts", http.StatusGatewayTimeout},
		{"get passes through", http.MethodGet, snapshotPath, http.StatusGatewayTimeout},
		{"upstream errors are final", http.MethodPost, snapshotPath, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				calls++
				w.WriteHeader(tt.status)
			})
			handler := withRetry(inner, config.RetryConfig{Enabled: true, MaxAttempts: 3, Paths: []string{snapshotPath}}, newTestLogger())

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{}`)))
			require.Equal(t, tt.status, rec.Code)
			require.Equal(t, 1, calls)
		})
	}
}

func TestWithRetry_RejectsOversizedBody(t *testing.T) {
	inner := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	})
	handler := withRetry(inner, config.RetryConfig{Enabled: true, MaxAttempts: 2, Paths: []string{snapshotPath}}, newTestLogger())

	rec := httptest.NewRecorder()
	body := strings.NewReader(strings.Repeat("x", retryBodyLimit+1))
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, snapshotPath, body))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
