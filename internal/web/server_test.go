package web

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/csvdash/internal/config"
	"github.com/JonMunkholm/csvdash/internal/dashboard"
	"github.com/JonMunkholm/csvdash/internal/frame"
	"github.com/JonMunkholm/csvdash/internal/logging"
	"github.com/JonMunkholm/csvdash/internal/session"
	"github.com/JonMunkholm/csvdash/internal/web/templates"
)

const visitsCSV = "city,visits\nrio,10\nniteroi,20\nrio,15\n"

type testClient struct {
	t      *testing.T
	server *Server
	cookie *http.Cookie
}

func newTestClient(t *testing.T, mutate func(*config.Config)) *testClient {
	t.Helper()
	cfg := config.Default()
	cfg.Rate.Enabled = false
	if mutate != nil {
		mutate(cfg)
	}

	svc, err := dashboard.NewService(session.NewMemoryStore(time.Hour), dashboard.Options{
		CacheSize:     4,
		MaxConcurrent: 2,
		MaxWait:       time.Second,
		MaxFileSize:   cfg.Upload.MaxFileSize,
	})
	require.NoError(t, err)

	s := NewServer(svc, cfg)
	t.Cleanup(func() { s.Shutdown(t.Context()) })

	return &testClient{
		t:      t,
		server: s,
		cookie: &http.Cookie{Name: cfg.Session.CookieName, Value: session.NewID()},
	}
}

func (c *testClient) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	req.AddCookie(c.cookie)
	rec := httptest.NewRecorder()
	c.server.Router().ServeHTTP(rec, req)
	return rec
}

func (c *testClient) get(target string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (c *testClient) upload(name, content string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if name != "" {
		fw, err := mw.CreateFormFile("file", name)
		require.NoError(c.t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(c.t, err)
	}
	for k, vs := range form {
		for _, v := range vs {
			require.NoError(c.t, mw.WriteField(k, v))
		}
	}
	require.NoError(c.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *testClient) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func TestPage_WithoutFile(t *testing.T) {
	c := newTestClient(t, nil)

	rec := c.get("/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), templates.UploadPromptText)
	assert.NotContains(t, rec.Body.String(), "Total de Registros")
}

func TestPage_IssuesSessionCookie(t *testing.T) {
	c := newTestClient(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c.server.Router().ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "csvdash_session", cookies[0].Name)
	assert.True(t, session.ValidID(cookies[0].Value))
	assert.True(t, cookies[0].HttpOnly)
}

func TestPage_KeepsValidSessionCookie(t *testing.T) {
	c := newTestClient(t, nil)

	rec := c.get("/")

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, c.cookie.Value, cookies[0].Value)
}

func TestUpload_ThenPage(t *testing.T) {
	c := newTestClient(t, nil)

	rec := c.upload("visits.csv", visitsCSV, nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	rec = c.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Arquivo carregado com sucesso!")
	assert.Contains(t, body, "visits.csv")
	assert.Contains(t, body, "Total de Registros: 3")
	assert.Contains(t, body, "Média de Valores: visits=15")
	assert.Contains(t, body, "Soma de Valores: visits=45")
	assert.NotContains(t, body, templates.UploadPromptText)
}

func TestUpload_RedirectKeepsControls(t *testing.T) {
	c := newTestClient(t, nil)

	rec := c.upload("visits.csv", visitsCSV, url.Values{"return": {"chart=linhas"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?chart=linhas", rec.Header().Get("Location"))
}

func TestUpload_MissingFile(t *testing.T) {
	c := newTestClient(t, nil)

	rec := c.upload("", "", url.Values{"return": {""}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FILE005")
}

func TestUpload_TooLarge(t *testing.T) {
	c := newTestClient(t, func(cfg *config.Config) {
		cfg.Upload.MaxFileSize = 16
	})

	rec := c.upload("visits.csv", visitsCSV, nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Contains(t, rec.Body.String(), "FILE001")
}

func TestColumns_SelectAndExport(t *testing.T) {
	c := newTestClient(t, nil)
	c.upload("visits.csv", visitsCSV, nil)

	rec := c.postForm("/columns", url.Values{"columns": {"visits"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = c.get("/export/csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "dados_filtrados.csv")
	assert.Equal(t, "visits\n10\n20\n15\n", rec.Body.String())
}

func TestColumns_JSON(t *testing.T) {
	c := newTestClient(t, nil)
	c.upload("visits.csv", visitsCSV, nil)

	req := httptest.NewRequest(http.MethodPost, "/columns", strings.NewReader("columns=visits&columns=city&columns=missing"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	rec := c.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Columns []string `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"city", "visits"}, resp.Columns)
}

func TestExport_FullTableByDefault(t *testing.T) {
	c := newTestClient(t, nil)
	c.upload("visits.csv", visitsCSV, nil)

	rec := c.get("/export/csv")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, visitsCSV, rec.Body.String())
}

func TestExport_XLSX(t *testing.T) {
	c := newTestClient(t, nil)
	c.upload("visits.csv", visitsCSV, nil)

	rec := c.get("/export/xlsx")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "dados_filtrados.xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")), "xlsx is a zip archive")
}

func TestExport_Errors(t *testing.T) {
	c := newTestClient(t, nil)

	rec := c.get("/export/csv")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = c.get("/export/pdf")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChart(t *testing.T) {
	c := newTestClient(t, nil)
	c.upload("visits.csv", visitsCSV, nil)

	rec := c.get("/chart?kind=pizza&column=city")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "echarts")
	assert.Contains(t, rec.Body.String(), "rio (66.7%)")

	rec = c.get("/chart?kind=dispersao&x=visits&y=visits")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = c.get("/chart?kind=dispersao&enabled=1&x=city&y=visits")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"category"`)

	rec = c.get("/chart?kind=radar")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChart_Grid(t *testing.T) {
	c := newTestClient(t, nil)
	c.upload("visits.csv", visitsCSV, nil)

	rec := c.get("/chart?kind=tabela&sort=visits&dir=desc")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	body := rec.Body.String()
	assert.Contains(t, body, "<th>visits</th>", "standalone grid has no sort links")
	assert.Less(t, strings.Index(body, "<td>20</td>"), strings.Index(body, "<td>10</td>"))
}

func TestRenderHTML_LogsFailure(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&logs, "error", "text"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	tbl, err := frame.IngestCSV([]byte(visitsCSV))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/chart?kind=tabela", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	renderHTML(rec, req, http.StatusOK, "grid", templates.Grid(tbl, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, logs.String(), "render failed")
	assert.Contains(t, logs.String(), "template=grid")
	assert.Contains(t, logs.String(), "context canceled")
}

func TestPage_AdvancedChartWithDefaults(t *testing.T) {
	c := newTestClient(t, nil)
	c.upload("visits.csv", visitsCSV, nil)

	rec := c.get("/?advanced=1")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "/chart?enabled=1&amp;kind=dispersao&amp;x=city&amp;y=city")
	assert.Contains(t, body, "Total de Registros: 3")
}

func TestPage_ChartErrorShownInline(t *testing.T) {
	c := newTestClient(t, nil)
	c.upload("visits.csv", "city,visits\nrio,\nniteroi,\n", nil)

	rec := c.get("/?chart=pizza&pie=visits")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "CHART003")
	assert.Contains(t, body, "Arquivo carregado com sucesso!")
	assert.NotContains(t, body, "Total de Registros", "sections after the failing chart are not drawn")
}

func TestChart_NoValues(t *testing.T) {
	c := newTestClient(t, nil)
	c.upload("visits.csv", "city,visits\nrio,\nniteroi,\n", nil)

	rec := c.get("/chart?kind=pizza&column=visits")

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "CHART003")
}

func TestReset(t *testing.T) {
	c := newTestClient(t, nil)
	c.upload("visits.csv", visitsCSV, nil)

	rec := c.postForm("/session/reset", url.Values{})
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	rec = c.get("/")
	assert.Contains(t, rec.Body.String(), templates.UploadPromptText)
}

func TestAPIMetrics(t *testing.T) {
	c := newTestClient(t, nil)
	c.upload("visits.csv", "city,visits,empty\nrio,10,\nniteroi,20,\n", nil)

	rec := c.get("/api/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2.0, resp["row_count"])
	mean := resp["mean"].(map[string]any)
	assert.Equal(t, 15.0, mean["visits"])
}

func TestAPIMetrics_NullMean(t *testing.T) {
	c := newTestClient(t, nil)
	c.upload("visits.csv", "city,visits\nrio,\nniteroi,\n", nil)

	rec := c.get("/api/metrics")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp MetricsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	for _, col := range resp.Columns {
		assert.Nil(t, resp.Mean[col], "mean of %s", col)
	}
}

func TestAPIMetrics_WithoutFile(t *testing.T) {
	c := newTestClient(t, nil)

	rec := c.get("/api/metrics")

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "FILE005", resp.Code)
}

func TestAPIColumns(t *testing.T) {
	c := newTestClient(t, nil)
	c.upload("visits.csv", visitsCSV, nil)

	rec := c.get("/api/columns")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Rows    int `json:"rows"`
		Columns []struct {
			Name    string `json:"name"`
			Numeric bool   `json:"numeric"`
		} `json:"columns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Rows)
	require.Len(t, resp.Columns, 2)
	assert.Equal(t, "city", resp.Columns[0].Name)
	assert.False(t, resp.Columns[0].Numeric)
	assert.True(t, resp.Columns[1].Numeric)
}

func TestAPIKeyAuth(t *testing.T) {
	c := newTestClient(t, func(cfg *config.Config) {
		cfg.Security.RequireAPIKey = true
		cfg.Security.APIKeys = []string{"secret"}
	})

	rec := c.get("/api/columns")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/columns", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = c.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/columns", nil)
	req.Header.Set("X-API-Key", "secret")
	rec = c.do(req)
	assert.Equal(t, http.StatusConflict, rec.Code, "authenticated, but no file yet")

	rec = c.get("/")
	assert.Equal(t, http.StatusOK, rec.Code, "the page itself is not behind the key")
}

func TestHealth(t *testing.T) {
	c := newTestClient(t, nil)

	rec := c.get("/healthz")

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
	assert.Contains(t, resp, "service")
}

func TestSecurityHeaders(t *testing.T) {
	c := newTestClient(t, func(cfg *config.Config) {
		cfg.Security.EnableCSP = true
	})

	rec := c.get("/healthz")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	csp := rec.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "frame-ancestors 'self'")
	assert.Contains(t, csp, "https://go-echarts.github.io")
}

func TestRateLimit(t *testing.T) {
	c := newTestClient(t, func(cfg *config.Config) {
		cfg.Rate.Enabled = true
		cfg.Rate.RequestsPerMinute = 2
	})

	assert.Equal(t, http.StatusOK, c.get("/healthz").Code)
	assert.Equal(t, http.StatusOK, c.get("/healthz").Code)

	rec := c.get("/healthz")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE001")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, statusFor(dashboard.ErrNoFile))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusFor(dashboard.ErrFileTooLarge))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(dashboard.ErrTooManyIngests))
	assert.Equal(t, http.StatusTooManyRequests, statusFor(errRateLimited))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}

func TestReturnURL(t *testing.T) {
	tests := []struct {
		name   string
		form   string
		expect string
	}{
		{"empty", "", "/"},
		{"controls", "return=" + url.QueryEscape("chart=pizza&pie=city"), "/?chart=pizza&pie=city"},
		{"absolute url is only a query", "return=" + url.QueryEscape("https://evil.example/"), "/?https%3A%2F%2Fevil.example%2F="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/columns", strings.NewReader(tt.form))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			assert.Equal(t, tt.expect, returnURL(req))
		})
	}
}
