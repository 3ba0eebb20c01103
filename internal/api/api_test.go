package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mshadianto/wbs-bpkh-2026/internal/config"
	"github.com/mshadianto/wbs-bpkh-2026/internal/knowledge"
	"github.com/mshadianto/wbs-bpkh-2026/internal/model"
	"github.com/mshadianto/wbs-bpkh-2026/internal/notify"
	"github.com/mshadianto/wbs-bpkh-2026/internal/pipeline"
	"github.com/mshadianto/wbs-bpkh-2026/internal/service"
	"github.com/mshadianto/wbs-bpkh-2026/internal/store"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	kb, err := knowledge.Load()
	require.NoError(t, err)
	pipe := pipeline.New(nil, kb, config.AnthropicConfig{}, config.PipelineConfig{})
	svc := service.New(pipe, st, notify.New(config.NotifyConfig{}))

	return NewRouter(svc, config.ServerConfig{AllowedOrigins: []string{"*"}})
}

func submitBody() string {
	return `{
		"what": "Dugaan korupsi dana pengadaan barang",
		"who": "Kepala bagian pengadaan",
		"when": "Maret 2026",
		"where": "Kantor pusat Jakarta",
		"how": "Mark up harga vendor dan suap",
		"evidence": "Salinan invoice"
	}`
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body == "" {
		rdr = bytes.NewReader(nil)
	} else {
		rdr = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func submitReport(t *testing.T, h http.Handler) service.Receipt {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/reports", submitBody())
	require.Equal(t, http.StatusAccepted, rec.Code)

	var receipt service.Receipt
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	require.NotEmpty(t, receipt.ReportID)
	require.Len(t, receipt.PIN, 6)
	return receipt
}

func TestHealth(t *testing.T) {
	rec := doJSON(t, newTestRouter(t), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSubmitAndGetReport(t *testing.T) {
	h := newTestRouter(t)
	receipt := submitReport(t, h)

	assert.Equal(t, "Korupsi", string(receipt.Result.Classification.ViolationType))

	rec := doJSON(t, h, http.MethodGet, "/api/reports/"+receipt.ReportID+"?pin="+receipt.PIN, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var report model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, receipt.ReportID, report.ID)
	assert.Equal(t, model.StatusNew, report.Status)
}

func TestSubmitRequiresWhat(t *testing.T) {
	rec := doJSON(t, newTestRouter(t), http.MethodPost, "/api/reports", `{"what":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "what")
}

func TestSubmitRejectsMalformedBody(t *testing.T) {
	rec := doJSON(t, newTestRouter(t), http.MethodPost, "/api/reports", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetWrongPIN(t *testing.T) {
	h := newTestRouter(t)
	receipt := submitReport(t, h)

	wrong := "000000"
	if receipt.PIN == wrong {
		wrong = "000001"
	}
	rec := doJSON(t, h, http.MethodGet, "/api/reports/"+receipt.ReportID+"?pin="+wrong, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetUnknownReport(t *testing.T) {
	rec := doJSON(t, newTestRouter(t), http.MethodGet, "/api/reports/WBS-2026-000000?pin=123456", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListReportsFilter(t *testing.T) {
	h := newTestRouter(t)
	submitReport(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/reports?status=new&limit=10", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reports []model.Report `json:"reports"`
		Count   int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)

	rec = doJSON(t, h, http.MethodGet, "/api/reports?status=closed", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Count)
}

func TestUpdateStatus(t *testing.T) {
	h := newTestRouter(t)
	receipt := submitReport(t, h)

	rec := doJSON(t, h, http.MethodPatch, "/api/reports/"+receipt.ReportID+"/status",
		`{"status":"under_review"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/reports/"+receipt.ReportID+"?pin="+receipt.PIN, "")
	var report model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, model.StatusUnderReview, report.Status)
}

func TestUpdateStatusUnknownValue(t *testing.T) {
	h := newTestRouter(t)
	receipt := submitReport(t, h)

	rec := doJSON(t, h, http.MethodPatch, "/api/reports/"+receipt.ReportID+"/status",
		`{"status":"archived"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignReport(t *testing.T) {
	h := newTestRouter(t)
	receipt := submitReport(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/reports/"+receipt.ReportID+"/assign",
		`{"assignee":"budi.santoso"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/reports/"+receipt.ReportID+"?pin="+receipt.PIN, "")
	var report model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "budi.santoso", report.AssignedTo)
	assert.Equal(t, model.StatusInvestigation, report.Status)
}

func TestMessageThread(t *testing.T) {
	h := newTestRouter(t)
	receipt := submitReport(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/reports/"+receipt.ReportID+"/messages",
		`{"pin":"`+receipt.PIN+`","content":"Ada bukti tambahan"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h, http.MethodGet,
		"/api/reports/"+receipt.ReportID+"/messages?pin="+receipt.PIN, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ada bukti tambahan")
}

func TestMessageRequiresPIN(t *testing.T) {
	h := newTestRouter(t)
	receipt := submitReport(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/reports/"+receipt.ReportID+"/messages",
		`{"pin":"","content":"halo"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMessageRequiresContent(t *testing.T) {
	h := newTestRouter(t)
	receipt := submitReport(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/reports/"+receipt.ReportID+"/messages",
		`{"pin":"`+receipt.PIN+`","content":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatisticsEndpoint(t *testing.T) {
	h := newTestRouter(t)
	submitReport(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/statistics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Statistics model.Statistics   `json:"statistics"`
		Trends     []model.TrendPoint `json:"trends"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Statistics.Total)
	assert.NotEmpty(t, resp.Trends)
}

func TestTrendsEndpoint(t *testing.T) {
	h := newTestRouter(t)
	submitReport(t, h)

	rec := doJSON(t, h, http.MethodGet, "/api/trends?days=7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `"days":7`))
}
