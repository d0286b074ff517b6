package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mfdash/internal/chart"
	"mfdash/internal/loader"
	"mfdash/internal/log"
	"mfdash/internal/reconcile"
	"mfdash/internal/services"
	"mfdash/internal/session"
	"mfdash/internal/sheets"
)

const sample = "date,major,minor,amount,description\n" +
	"2024-01-05,Food,Groceries,-50,Market\n" +
	"2024-01-20,Food,Dining,-30,Cafe\n" +
	"2024-02-01,Food,Groceries,-20,Market\n" +
	"2024-02-03,Housing,Rent,-1000,Landlord\n" +
	"2024-02-04,Food,Dining,-40,Bistro\n"

type fakeSource struct {
	inputs []loader.Input
	err    error
}

func (f fakeSource) Name() string { return "fake" }

func (f fakeSource) Fetch(context.Context) ([]loader.Input, error) { return f.inputs, f.err }

func newTestServer(t *testing.T, opts Options, sources ...sheets.Source) *Server {
	t.Helper()
	store := session.NewStore(4, time.Hour)
	svc := services.NewDatasetService(loader.New(nil), reconcile.New(reconcile.DefaultOptions(), nil), store, nil, nil)
	if opts.RateLimitRPM == 0 {
		opts.RateLimitRPM = 1000
	}
	srv := NewServer(opts, svc, log.Discard(), sources...)
	t.Cleanup(srv.rateLimiter.Stop)
	return srv
}

func loadSample(t *testing.T, srv *Server) string {
	t.Helper()
	d, err := srv.datasets.Load(context.Background(), []loader.Input{{Name: "sample.csv", Data: []byte(sample)}})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return d.ID
}

func do(srv *Server, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte(content))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, Options{})

	rec := do(srv, http.MethodGet, "/healthz", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected health response %d %s", rec.Code, rec.Body.String())
	}

	rec = do(srv, http.MethodGet, "/readyz", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected ready, got %d %s", rec.Code, rec.Body.String())
	}
	srv.templates = nil
	rec = do(srv, http.MethodGet, "/readyz", nil, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without templates, got %d", rec.Code)
	}
}

func TestHealthReportsMetrics(t *testing.T) {
	srv := newTestServer(t, Options{})
	do(srv, http.MethodGet, "/dashboard?q=%3Cscript%3E", nil, "")

	rec := do(srv, http.MethodGet, "/healthz", nil, "")
	var body struct {
		Requests struct {
			Total        int64 `json:"total"`
			ServerErrors int64 `json:"server_errors"`
		} `json:"requests"`
		Security struct {
			Suspicious int64 `json:"suspicious_requests"`
		} `json:"security"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body.Requests.Total != 1 || body.Requests.ServerErrors != 0 || body.Security.Suspicious != 1 {
		t.Fatalf("unexpected metrics: %+v", body)
	}
}

func TestTrustedProxies(t *testing.T) {
	srv := newTestServer(t, Options{TrustedProxies: []string{"203.0.113.0/24", "bogus"}})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:4000"
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 203.0.113.9")
	if got := srv.detector.ExtractClientIP(req); got != "198.51.100.7" {
		t.Fatalf("configured proxy must be trusted, got %s", got)
	}

	req.RemoteAddr = "198.51.100.200:4000"
	if got := srv.detector.ExtractClientIP(req); got != "198.51.100.200" {
		t.Fatalf("unknown peer must not be trusted, got %s", got)
	}
}

func TestErrorPageShowsRequestID(t *testing.T) {
	srv := newTestServer(t, Options{})
	id := loadSample(t, srv)

	rec := do(srv, http.MethodGet, "/dashboard?session="+id+"&mode=fortnightly", nil, "")
	reqID := rec.Header().Get("X-Request-ID")
	if rec.Code != http.StatusBadRequest || reqID == "" {
		t.Fatalf("expected 400 with a request ID, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Reference: <code>"+reqID+"</code>") {
		t.Fatalf("error page must show the request ID %s", reqID)
	}
}

func TestIndex(t *testing.T) {
	srv := newTestServer(t, Options{})

	rec := do(srv, http.MethodGet, "/", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Upload MoneyForward exports") {
		t.Fatalf("unexpected index %d", rec.Code)
	}
	if rec.Header().Get("Content-Security-Policy") == "" || rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("security and trace headers must be set: %v", rec.Header())
	}
	if rec.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("pages must not be cached, got %q", rec.Header().Get("Cache-Control"))
	}

	rec = do(srv, http.MethodGet, "/?expired=1", nil, "")
	if !strings.Contains(rec.Body.String(), "expired") {
		t.Fatalf("expired sessions must be explained")
	}
}

func TestUpload(t *testing.T) {
	srv := newTestServer(t, Options{})

	body, ct := multipartBody(t, map[string]string{"sample.csv": sample})
	rec := do(srv, http.MethodPost, "/upload", body, ct)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d %s", rec.Code, rec.Body.String())
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/dashboard?session=") {
		t.Fatalf("unexpected redirect %q", loc)
	}

	rec = do(srv, http.MethodGet, loc, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: %d %s", rec.Code, rec.Body.String())
	}
	page := rec.Body.String()
	for _, want := range []string{"2024-02", "¥1,060", "Landlord", "/api/charts?", "chartjs-chart-boxplot"} {
		if !strings.Contains(page, want) {
			t.Fatalf("dashboard missing %q", want)
		}
	}
}

func TestUploadErrors(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		maxBytes int64
		want     []int
		contains string
	}{
		{"parse error", map[string]string{"bad.csv": "x,y\n1,2\n"}, 0, []int{http.StatusUnprocessableEntity}, "bad.csv"},
		{"no files", map[string]string{}, 0, []int{http.StatusBadRequest}, "select at least one CSV file"},
		{"unsafe name", map[string]string{".hidden.csv": sample}, 0, []int{http.StatusBadRequest}, "alert"},
		{"too large", map[string]string{"big.csv": strings.Repeat(sample, 200)}, 1024, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, "alert"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, Options{MaxUploadBytes: tt.maxBytes})
			body, ct := multipartBody(t, tt.files)
			rec := do(srv, http.MethodPost, "/upload", body, ct)

			ok := false
			for _, code := range tt.want {
				ok = ok || rec.Code == code
			}
			if !ok {
				t.Fatalf("expected %v, got %d", tt.want, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.contains) {
				t.Fatalf("expected %q in body", tt.contains)
			}
		})
	}
}

func TestDashboardRedirects(t *testing.T) {
	srv := newTestServer(t, Options{})

	rec := do(srv, http.MethodGet, "/dashboard", nil, "")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Fatalf("no session must redirect to upload, got %d %q", rec.Code, rec.Header().Get("Location"))
	}
	rec = do(srv, http.MethodGet, "/dashboard?session=missing", nil, "")
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/?expired=1" {
		t.Fatalf("unknown session must redirect with expired flag, got %q", rec.Header().Get("Location"))
	}
}

func TestDashboardEmptySelection(t *testing.T) {
	srv := newTestServer(t, Options{})
	id := loadSample(t, srv)

	rec := do(srv, http.MethodGet, "/dashboard?session="+id+"&period=2023-01", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "No data for this selection") {
		t.Fatalf("empty selection must render a notice, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `value="2024-02"`) {
		t.Fatalf("period selector must still list available periods")
	}
}

func TestAPICharts(t *testing.T) {
	srv := newTestServer(t, Options{})
	id := loadSample(t, srv)

	rec := do(srv, http.MethodGet, "/api/charts?session="+id, nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("charts: %d %s", rec.Code, rec.Body.String())
	}
	var dash chart.Dashboard
	if err := json.Unmarshal(rec.Body.Bytes(), &dash); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dash.Label != "2024-02" || len(dash.Main) != 6 || dash.Category != "Housing" {
		t.Fatalf("unexpected dashboard %s %d %s", dash.Label, len(dash.Main), dash.Category)
	}

	do(srv, http.MethodGet, "/api/charts?session="+id, nil, "")
	if srv.dashCache.Size() != 1 {
		t.Fatalf("repeated selection must reuse the cached dashboard, size %d", srv.dashCache.Size())
	}

	tests := []struct {
		target string
		code   int
		errMsg string
	}{
		{"/api/charts?session=missing", http.StatusNotFound, "session not found"},
		{"/api/charts?session=" + id + "&period=2023-01", http.StatusUnprocessableEntity, "no data for this selection"},
		{"/api/charts?session=" + id + "&mode=fortnightly", http.StatusBadRequest, "unknown granularity"},
	}
	for _, tt := range tests {
		rec := do(srv, http.MethodGet, tt.target, nil, "")
		if rec.Code != tt.code || !strings.Contains(rec.Body.String(), tt.errMsg) {
			t.Fatalf("%s: expected %d %q, got %d %s", tt.target, tt.code, tt.errMsg, rec.Code, rec.Body.String())
		}
	}
}

func TestAPISeries(t *testing.T) {
	srv := newTestServer(t, Options{})
	id := loadSample(t, srv)

	rec := do(srv, http.MethodGet, "/api/series?session="+id+"&mode=yearly&granularity=monthly", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("series: %d %s", rec.Code, rec.Body.String())
	}
	var series []seriesJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &series); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(series) != 2 || series[0].Name != "Housing" || series[1].Name != "Food" {
		t.Fatalf("series must be ordered by absolute total: %+v", series)
	}
	food := series[1]
	if food.Total != -140 || len(food.Points) != 2 || food.Points[0].Label != "2024-01" || food.Points[0].Value != -80 {
		t.Fatalf("unexpected food series: %+v", food)
	}
}

func TestAPISearch(t *testing.T) {
	srv := newTestServer(t, Options{})
	id := loadSample(t, srv)

	rec := do(srv, http.MethodGet, "/api/search?session="+id+"&q=mark", nil, "")
	var body struct {
		Results []string `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Results) != 1 || body.Results[0] != "Market" {
		t.Fatalf("unexpected suggestions %v", body.Results)
	}

	rec = do(srv, http.MethodGet, "/api/search?session="+id, nil, "")
	if !strings.Contains(rec.Body.String(), `"results":[]`) {
		t.Fatalf("empty query must return no suggestions: %s", rec.Body.String())
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, Options{})
	id := loadSample(t, srv)

	rec := do(srv, http.MethodGet, "/export/csv?session="+id+"&period=2024-02", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d %s", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "mfdash_summary_") || !strings.HasSuffix(cd, `.csv"`) {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if !strings.Contains(rec.Body.String(), "Housing,1000") {
		t.Fatalf("summary must list categories: %s", rec.Body.String())
	}

	rec = do(srv, http.MethodGet, "/export/json?session="+id+"&mode=yearly&category=Food&level=minor", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Dining") || strings.Contains(rec.Body.String(), "Housing") {
		t.Fatalf("minor export must cover the chosen category: %s", rec.Body.String())
	}

	rec = do(srv, http.MethodGet, "/export/xml?session="+id, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown format must be 404, got %d", rec.Code)
	}
}

func TestExportBreakdownDefaultsToLargestCategory(t *testing.T) {
	srv := newTestServer(t, Options{})
	id := loadSample(t, srv)

	rec := do(srv, http.MethodGet, "/export/csv?session="+id+"&period=2024-02&level=minor", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d %s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Rent,1000") || strings.Contains(body, "Dining") || strings.Contains(body, "Groceries") {
		t.Fatalf("breakdown must cover only the largest category: %s", body)
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "mfdash_summary_") {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}
}

func TestDashboardStaleCategory(t *testing.T) {
	srv := newTestServer(t, Options{})
	id := loadSample(t, srv)

	rec := do(srv, http.MethodGet, "/dashboard?session="+id+"&period=2024-01&category=Housing&sub=Rent", nil, "")
	body := rec.Body.String()
	if rec.Code != http.StatusOK || strings.Contains(body, "No data for this selection") {
		t.Fatalf("stale category must fall back, got %d", rec.Code)
	}
	if !strings.Contains(body, "Food breakdown") || strings.Contains(body, "category=Housing") {
		t.Fatalf("dashboard must drill into Food and link to it:\n%s", body)
	}
	if !strings.Contains(body, "category=Food") {
		t.Fatalf("links must carry the resolved category")
	}
}

func TestReload(t *testing.T) {
	src := fakeSource{inputs: []loader.Input{{Name: "sample.csv", Data: []byte(sample)}}}
	srv := newTestServer(t, Options{}, src)

	rec := do(srv, http.MethodPost, "/reload", nil, "")
	if rec.Code != http.StatusSeeOther || srv.DefaultSession() == "" {
		t.Fatalf("reload must create the default session, got %d", rec.Code)
	}

	rec = do(srv, http.MethodGet, "/dashboard", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard must fall back to the default session, got %d", rec.Code)
	}
	rec = do(srv, http.MethodGet, "/", nil, "")
	if !strings.Contains(rec.Body.String(), "Open the loaded dataset") {
		t.Fatalf("index must link the default session")
	}
}

func TestReloadErrors(t *testing.T) {
	tests := []struct {
		name    string
		sources []sheets.Source
		code    int
	}{
		{"no sources", nil, http.StatusBadRequest},
		{"empty source", []sheets.Source{fakeSource{}}, http.StatusBadRequest},
		{"failing source", []sheets.Source{fakeSource{err: errors.New("boom")}}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, Options{}, tt.sources...)
			rec := do(srv, http.MethodPost, "/reload", nil, "")
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			if srv.DefaultSession() != "" {
				t.Fatalf("failed reload must not set a default session")
			}
		})
	}
}

func TestSuspiciousRequestRejected(t *testing.T) {
	srv := newTestServer(t, Options{})
	rec := do(srv, http.MethodGet, "/dashboard?q=%3Cscript%3Ealert(1)%3C/script%3E", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestStaticAssets(t *testing.T) {
	srv := newTestServer(t, Options{})
	rec := do(srv, http.MethodGet, "/static/app.js", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "valueLabels") {
		t.Fatalf("static script not served: %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Cache-Control"), "max-age=3600") {
		t.Fatalf("static assets must be cacheable: %q", rec.Header().Get("Cache-Control"))
	}
}
