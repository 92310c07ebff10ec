package demoserver

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DemoServer is a small target site exercising what the bridge has to cope
// with: script-built DOM, redirects, POST echo, cookies and slow responses.
type DemoServer struct {
	cfg Config
	mux *http.ServeMux
}

// NewDemoServer creates a new demo server instance.
func NewDemoServer(cfg Config) *DemoServer {
	s := &DemoServer{cfg: cfg, mux: http.NewServeMux()}

	s.mux.HandleFunc("/", s.indexHandler)
	s.mux.HandleFunc("/redirect", s.redirectHandler)
	s.mux.HandleFunc("/echo", s.echoHandler)
	s.mux.HandleFunc("/cookies", s.cookiesHandler)
	s.mux.HandleFunc("/headers", s.headersHandler)
	s.mux.HandleFunc("/slow", s.slowHandler)
	s.mux.HandleFunc("/status/", s.statusHandler)
	s.mux.HandleFunc("/static/", s.staticHandler)
	return s
}

// Handler exposes the routes, e.g. for httptest.NewServer.
func (s *DemoServer) Handler() http.Handler {
	return s.mux
}

// Start listens on the configured port until the process exits.
func (s *DemoServer) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	fmt.Printf("Demo server starting on http://localhost%s\n", addr)
	return http.ListenAndServe(addr, s.mux)
}

// indexHandler serves a page whose final content only exists after its
// scripts run.
func (s *DemoServer) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Demo", "index")
	_, _ = io.WriteString(w, indexHTML)
}

func (s *DemoServer) redirectHandler(w http.ResponseWriter, r *http.Request) {
	to := r.URL.Query().Get("to")
	if to == "" {
		to = "/"
	}
	http.Redirect(w, r, to, http.StatusFound)
}

// echoHandler answers with the method, body and headers it received. The
// request origin is reflected so credentialed fetches from any page can read it.
func (s *DemoServer) echoHandler(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = "*"
	} else {
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	w.Header().Set("Access-Control-Allow-Origin", origin)
	w.Header().Set("Access-Control-Allow-Headers", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Expose-Headers", "X-Echo-Method")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	body, _ := io.ReadAll(r.Body)
	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[strings.ToLower(k)] = r.Header.Get(k)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Echo-Method", r.Method)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"method":  r.Method,
		"body":    string(body),
		"headers": headers,
	})
}

// cookiesHandler lists the cookies the request carried and sets one more.
func (s *DemoServer) cookiesHandler(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: "demo_visit", Value: "1", Path: "/"})

	var pairs []string
	for _, c := range r.Cookies() {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	sort.Strings(pairs)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = listTemplate.Execute(w, listPage{ID: "cookies", Items: pairs})
}

// headersHandler lists the request headers as "name: value" items.
func (s *DemoServer) headersHandler(w http.ResponseWriter, r *http.Request) {
	var lines []string
	for k := range r.Header {
		lines = append(lines, strings.ToLower(k)+": "+r.Header.Get(k))
	}
	sort.Strings(lines)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = listTemplate.Execute(w, listPage{ID: "headers", Items: lines})
}

// slowHandler waits ?ms= milliseconds (default 2000) before answering.
func (s *DemoServer) slowHandler(w http.ResponseWriter, r *http.Request) {
	delay := 2 * time.Second
	if v, err := strconv.Atoi(r.URL.Query().Get("ms")); err == nil && v >= 0 {
		delay = time.Duration(v) * time.Millisecond
	}
	select {
	case <-time.After(delay):
	case <-r.Context().Done():
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, `<html><body><p id="slow">done</p></body></html>`)
}

// statusHandler answers /status/{code} with that status code.
func (s *DemoServer) statusHandler(w http.ResponseWriter, r *http.Request) {
	code, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/status/"))
	if err != nil || code < 200 || code > 599 {
		http.Error(w, "invalid status code", http.StatusBadRequest)
		return
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	fmt.Fprintf(w, `<html><body><p id="status">%d</p></body></html>`, code)
}

// staticHandler serves a script that marks the body once it has loaded.
func (s *DemoServer) staticHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	_, _ = io.WriteString(w, `document.body.setAttribute("data-static", "loaded");`)
}

type listPage struct {
	ID    string
	Items []string
}

var listTemplate = template.Must(template.New("list").Parse(`<!DOCTYPE html>
<html>
<body>
<ul id="{{.ID}}">{{range .Items}}<li>{{.}}</li>{{end}}</ul>
</body>
</html>`))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Demo Target</title>
</head>
<body>
    <h1 id="title">Demo Target</h1>
    <div id="app">loading</div>
    <script>
        document.getElementById("app").textContent = "rendered by script";
        var marker = document.createElement("p");
        marker.id = "marker";
        marker.textContent = navigator.userAgent;
        document.body.appendChild(marker);
    </script>
    <script src="/static/app.js"></script>
</body>
</html>`
