package demoserver_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/raysh454/browserbridge/internal/demoserver"
)

func newDemo(t *testing.T) http.Handler {
	t.Helper()
	return demoserver.NewDemoServer(demoserver.DefaultConfig()).Handler()
}

func TestDemoServer_Index(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	newDemo(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// Without a browser the script has not run yet.
	if got := doc.Find("#app").Text(); got != "loading" {
		t.Errorf("#app = %q, want %q", got, "loading")
	}
	if rec.Header().Get("X-Demo") != "index" {
		t.Errorf("missing X-Demo header")
	}
}

func TestDemoServer_UnknownPath(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	newDemo(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDemoServer_Redirect(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	newDemo(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/redirect?to=/headers", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/headers" {
		t.Errorf("Location = %q", loc)
	}
}

func TestDemoServer_Echo(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("a=1&b=2"))
	req.Header.Set("X-Custom", "yes")
	req.Header.Set("Origin", "null")
	rec := httptest.NewRecorder()
	newDemo(t).ServeHTTP(rec, req)

	var got struct {
		Method  string            `json:"method"`
		Body    string            `json:"body"`
		Headers map[string]string `json:"headers"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Method != http.MethodPost || got.Body != "a=1&b=2" {
		t.Errorf("echo = %+v", got)
	}
	if got.Headers["x-custom"] != "yes" {
		t.Errorf("x-custom = %q", got.Headers["x-custom"])
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "null" {
		t.Errorf("origin not reflected: %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Errorf("credentials not allowed")
	}
}

func TestDemoServer_EchoPreflight(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	newDemo(t).ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/echo", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("expected wildcard origin without Origin header")
	}
}

func TestDemoServer_Cookies(t *testing.T) {
	t.Parallel()
	req := httptest.NewRequest(http.MethodGet, "/cookies", nil)
	req.AddCookie(&http.Cookie{Name: "b", Value: "2"})
	req.AddCookie(&http.Cookie{Name: "a", Value: "1"})
	rec := httptest.NewRecorder()
	newDemo(t).ServeHTTP(rec, req)

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var items []string
	doc.Find("#cookies li").Each(func(_ int, s *goquery.Selection) {
		items = append(items, s.Text())
	})
	if strings.Join(items, ",") != "a=1,b=2" {
		t.Errorf("cookies = %v", items)
	}
	if sc := rec.Header().Get("Set-Cookie"); !strings.HasPrefix(sc, "demo_visit=1") {
		t.Errorf("Set-Cookie = %q", sc)
	}
}

func TestDemoServer_Status(t *testing.T) {
	t.Parallel()
	cases := map[string]int{
		"/status/404": http.StatusNotFound,
		"/status/503": http.StatusServiceUnavailable,
		"/status/abc": http.StatusBadRequest,
		"/status/999": http.StatusBadRequest,
	}
	h := newDemo(t)
	for path, want := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != want {
			t.Errorf("%s: status = %d, want %d", path, rec.Code, want)
		}
	}
}

func TestDemoServer_Slow(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	newDemo(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/slow?ms=10", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "done") {
		t.Errorf("slow: %d %q", rec.Code, rec.Body.String())
	}
}
