package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niana0/vendor-security-assessment-tool/internal/api"
	"github.com/niana0/vendor-security-assessment-tool/internal/metrics"
	"github.com/niana0/vendor-security-assessment-tool/internal/model"
	"github.com/niana0/vendor-security-assessment-tool/internal/pipeline"
	"github.com/niana0/vendor-security-assessment-tool/internal/similarity"
	"github.com/niana0/vendor-security-assessment-tool/internal/store"
)

const acmeInput = `{
  "vendor": "Acme",
  "questions": [
    {"id": "Q1", "text": "Does the vendor hold SOC 2 certification?"},
    {"id": "Q2", "text": "Does the vendor comply with GDPR requirements?"}
  ],
  "evidence": [
    {
      "source_kind": "document",
      "source_ref": "soc2.pdf",
      "items": ["SOC 2 Type II certified since 2022"]
    }
  ]
}`

type fixture struct {
	handler http.Handler
	store   *store.Store
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, withStore bool) fixture {
	t.Helper()
	cfg := model.DefaultConfig()
	tokenizer := similarity.NewTokenizer(cfg.Tables.StopWords)
	embedder := similarity.NewLocalEmbedder(tokenizer, cfg.Tables.Concepts, cfg.Embedding.Dimensions)
	p, err := pipeline.New(cfg, tokenizer, embedder)
	require.NoError(t, err)

	m := metrics.New()
	p.SetMetrics(m)

	f := fixture{metrics: m}
	var repo api.Repository
	if withStore {
		st, err := store.Open(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = st.Close() })
		f.store = st
		repo = st
	}

	f.handler = api.NewServer(cfg.Server, p, repo, m, "test").Routes()
	return f
}

func (f fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, "local", resp.Backend)
}

func TestCreateAndFetchAssessment(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(t, http.MethodPost, "/api/v1/assessments", acmeInput)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created model.Assessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "/api/v1/assessments/"+created.ID, rec.Header().Get("Location"))
	assert.Equal(t, "Acme", created.Vendor)
	require.Len(t, created.Results, 2)
	assert.Equal(t, model.TierHigh, created.Results[0].Tier)

	rec = f.do(t, http.MethodGet, "/api/v1/assessments/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched model.Assessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Report.OverallScore, fetched.Report.OverallScore)

	rec = f.do(t, http.MethodGet, "/api/v1/assessments/"+created.ID+"/report", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var report model.RiskReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, created.Report.OverallLevel, report.OverallLevel)

	rec = f.do(t, http.MethodGet, "/api/v1/assessments?vendor=Acme&level="+strings.ToLower(string(created.Report.OverallLevel)), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list api.ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Assessments, 1)
	assert.Equal(t, created.ID, list.Assessments[0].ID)
	assert.Equal(t, store.DefaultListLimit, list.Limit)

	rec = f.do(t, http.MethodDelete, "/api/v1/assessments/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/assessments/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateAssessment_InvalidInput(t *testing.T) {
	f := newFixture(t, true)

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"malformed", `{"vendor": `},
		{"unknown field", `{"vendor": "Acme", "questionz": []}`},
		{"no questions", `{"vendor": "Acme", "questions": []}`},
		{"unknown source kind", `{"questions": [{"id": "Q1", "text": "Is data encrypted?"}], "evidence": [{"source_kind": "fax", "items": ["x"]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/v1/assessments", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var resp api.ErrResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "invalid request", resp.StatusText)
			assert.NotEmpty(t, resp.ErrorText)
		})
	}
}

func TestListAssessments_BadQuery(t *testing.T) {
	f := newFixture(t, true)

	for _, q := range []string{"limit=0", "limit=abc", "limit=1000", "offset=-1", "level=severe"} {
		rec := f.do(t, http.MethodGet, "/api/v1/assessments?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestWithoutStore(t *testing.T) {
	f := newFixture(t, false)

	rec := f.do(t, http.MethodPost, "/api/v1/assessments", acmeInput)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/assessments", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = f.do(t, http.MethodGet, "/api/v1/assessments/abc", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetAssessment_NotFound(t *testing.T) {
	f := newFixture(t, true)
	rec := f.do(t, http.MethodGet, "/api/v1/assessments/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodDelete, "/api/v1/assessments/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, false)
	f.do(t, http.MethodPost, "/api/v1/assessments", acmeInput)

	rec := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vsat_assessments_total")
}
