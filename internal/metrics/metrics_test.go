package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/raysh454/browserbridge/internal/metrics"
)

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("scrape status = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestMetrics_Exposition(t *testing.T) {
	t.Parallel()
	m := metrics.New()

	m.ObserveSolve("request.get", "ok", 150*time.Millisecond)
	m.ObserveSolve("request.post", "navigation_timeout", 2*time.Second)
	m.ObserveLaunch(true)
	m.ObserveLaunch(false)
	m.SetLiveSessions(3)
	m.ObserveAdmission(5*time.Millisecond, true)
	m.ObserveAdmission(time.Second, false)

	out := scrape(t, m)
	for _, want := range []string{
		`browserbridge_solves_total{cmd="request.get",kind="ok"} 1`,
		`browserbridge_solves_total{cmd="request.post",kind="navigation_timeout"} 1`,
		`browserbridge_browser_launches_total{result="error"} 1`,
		`browserbridge_browser_sessions_live 3`,
		`browserbridge_admission_rejected_total 1`,
		`browserbridge_solve_duration_seconds_count{cmd="request.get"} 1`,
		`go_goroutines`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestMetrics_InstancesAreIndependent(t *testing.T) {
	t.Parallel()
	a, b := metrics.New(), metrics.New()
	a.SetLiveSessions(7)

	if !strings.Contains(scrape(t, b), "browserbridge_browser_sessions_live 0") {
		t.Error("second instance saw the first one's gauge")
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()
	var m *metrics.Metrics
	m.ObserveSolve("request.get", "ok", time.Second)
	m.ObserveLaunch(true)
	m.SetLiveSessions(1)
	m.ObserveAdmission(time.Second, false)
	if err := m.Register(metrics.NewLimitGauge("x", "x", func() float64 { return 1 })); err != nil {
		t.Errorf("nil Register: %v", err)
	}
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil handler status = %d", rec.Code)
	}
}

func TestMetrics_RegisterExposesCollector(t *testing.T) {
	t.Parallel()
	m := metrics.New()
	g := metrics.NewLimitGauge("test_limit", "A test limit.", func() float64 { return 3 })
	if err := m.Register(g); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !strings.Contains(scrape(t, m), "browserbridge_test_limit 3") {
		t.Error("registered gauge missing from exposition")
	}
	if err := m.Register(g); err == nil {
		t.Error("registering the same collector twice succeeded")
	}
}
