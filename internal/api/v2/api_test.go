package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundscape-lab/annotator/internal/annotation"
	"github.com/soundscape-lab/annotator/internal/api/middleware"
	"github.com/soundscape-lab/annotator/internal/conf"
	"github.com/soundscape-lab/annotator/internal/datastore"
	"github.com/soundscape-lab/annotator/internal/datastore/entities"
	"github.com/soundscape-lab/annotator/internal/errors"
)

type testEnv struct {
	echo  *echo.Echo
	store *datastore.Store
	phase *entities.AnnotationCampaignPhase
	file  entities.DatasetFile
}

func setupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	store := datastore.NewTestStore(t)
	repos := store.Repositories()

	dataset := &entities.Dataset{Name: "hydrophone-1", SampleRate: 20000}
	require.NoError(t, repos.Datasets.Create(ctx, dataset))
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	file := entities.DatasetFile{DatasetID: dataset.ID, Filename: "a.wav", Start: start, End: start.Add(10 * time.Minute)}
	require.NoError(t, repos.Datasets.AddFile(ctx, &file))

	campaign := &entities.AnnotationCampaign{Name: "Campaign 1"}
	require.NoError(t, repos.Campaigns.Create(ctx, campaign))
	phase := &entities.AnnotationCampaignPhase{AnnotationCampaignID: campaign.ID, Phase: entities.PhaseAnnotation}
	require.NoError(t, repos.Campaigns.CreatePhase(ctx, phase))

	e := echo.New()
	e.Use(middleware.NewTraceID())
	service := annotation.NewService(store, conf.AnnotationSettings{MaxNameProbes: 10, MaxLineageDepth: 8})
	New(e, service, store, WithVersion("test"))

	return &testEnv{echo: e, store: store, phase: phase, file: file}
}

func (env *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	req.Header.Set(middleware.HeaderRequestID, "req-1")
	rec := httptest.NewRecorder()
	env.echo.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthCheck(t *testing.T) {
	env := setupTestEnvironment(t)

	rec := env.do(t, http.MethodGet, "/api/v2/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "connected", body["database_status"])
	assert.Equal(t, "test", body["version"])
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.NewStd("connection refused") }

func TestHealthCheck_DatabaseDown(t *testing.T) {
	e := echo.New()
	New(e, nil, failingPinger{})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v2/health", http.NoBody))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "connection refused", body["database_error"])
}

func TestImportResults(t *testing.T) {
	env := setupTestEnvironment(t)
	path := "/api/v2/phases/" + itoa(env.phase.ID) + "/results/import"
	body := `{
		"force_datetime": false,
		"rows": [
			{"is_box": true, "dataset": "hydrophone-1", "detector": "PAMGuard", "detector_config": "v1",
			 "start_datetime": "2021-01-01T00:01:00Z", "end_datetime": "2021-01-01T00:01:05Z",
			 "min_frequency": 100, "max_frequency": 900, "label": "Upcall",
			 "confidence_indicator": {"label": "sure", "level": 1, "is_default": true}},
			{"is_box": false, "dataset": "nowhere", "start_datetime": "2021-01-01T00:00:00Z",
			 "end_datetime": "2021-01-01T00:00:00Z", "label": "Upcall"}
		]
	}`

	rec := env.do(t, http.MethodPost, path, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[ImportResponse](t, rec)
	assert.Equal(t, 1, resp.Created)
	assert.Equal(t, 1, resp.Skipped)
	require.Len(t, resp.Results, 1)
	got := resp.Results[0]
	assert.Equal(t, entities.ResultBox, got.Type)
	assert.Equal(t, "Upcall", got.Label)
	assert.InDelta(t, 60.0, *got.StartTime, 1e-9)
	assert.InDelta(t, 65.0, *got.EndTime, 1e-9)
	require.NotNil(t, got.ConfidenceIndicator)
	assert.Equal(t, "sure", got.ConfidenceIndicator.Label)
	require.Len(t, resp.Outcomes, 2)
	assert.Equal(t, annotation.SkipDatasetNotFound, resp.Outcomes[1].Skip)

	// the same batch again only produces duplicates
	rec = env.do(t, http.MethodPost, path, body)
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[ImportResponse](t, rec)
	assert.Zero(t, resp.Created)
	assert.Equal(t, annotation.SkipDuplicate, resp.Outcomes[0].Skip)
}

func TestImportResults_Errors(t *testing.T) {
	env := setupTestEnvironment(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		field  string
	}{
		{"bad phase id", "/api/v2/phases/abc/results/import", `{"rows":[{}]}`, http.StatusBadRequest, "phaseId"},
		{"no rows", "/api/v2/phases/1/results/import", `{"rows":[]}`, http.StatusBadRequest, "rows"},
		{"malformed json", "/api/v2/phases/1/results/import", `{"rows":`, http.StatusBadRequest, "body"},
		{"unknown phase", "/api/v2/phases/99/results/import", `{"rows":[{"label":"x"}]}`, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.status, resp.Code)
			assert.Equal(t, "req-1", resp.CorrelationID)
			assert.Equal(t, tt.field, resp.Field)
		})
	}
}

func TestCreateUpdateGetResult(t *testing.T) {
	env := setupTestEnvironment(t)
	fileID := itoa(env.file.ID)

	rec := env.do(t, http.MethodPost, "/api/v2/phases/"+itoa(env.phase.ID)+"/results", `{
		"label": "Upcall", "annotator": 4, "dataset_file": `+fileID+`,
		"start_time": 20, "end_time": 10, "start_frequency": 500, "end_frequency": 100,
		"comments": [{"author": 4, "comment": "clear"}]
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[annotation.ResultView](t, rec)
	assert.Equal(t, entities.ResultBox, created.Type)
	assert.InDelta(t, 10.0, *created.StartTime, 0)
	assert.InDelta(t, 100.0, *created.StartFrequency, 0)
	require.Len(t, created.Comments, 1)

	rec = env.do(t, http.MethodPut, "/api/v2/results/"+itoa(created.ID), `{
		"annotation_campaign_phase": `+itoa(env.phase.ID)+`,
		"label": "Downcall", "annotator": 4, "dataset_file": `+fileID+`
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[annotation.ResultView](t, rec)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, entities.ResultWeak, updated.Type)
	assert.Equal(t, "Downcall", updated.Label)
	assert.Empty(t, updated.Comments)

	rec = env.do(t, http.MethodPost, "/api/v2/phases/"+itoa(env.phase.ID)+"/results", `{
		"label": "Upcall", "annotator": 4, "dataset_file": `+fileID+`, "is_update_of": `+itoa(created.ID)+`
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	successor := decode[annotation.ResultView](t, rec)

	rec = env.do(t, http.MethodGet, "/api/v2/results/"+itoa(created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[annotation.ResultView](t, rec)
	require.Len(t, got.UpdatedTo, 1)
	assert.Equal(t, successor.ID, got.UpdatedTo[0].ID)
}

func TestResultErrors(t *testing.T) {
	env := setupTestEnvironment(t)
	phasePath := "/api/v2/phases/" + itoa(env.phase.ID) + "/results"
	fileID := itoa(env.file.ID)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		field  string
	}{
		{"missing label", http.MethodPost, phasePath, `{"annotator": 1, "dataset_file": ` + fileID + `}`, http.StatusBadRequest, "label"},
		{"negative time", http.MethodPost, phasePath, `{"label": "x", "annotator": 1, "dataset_file": ` + fileID + `, "start_time": -1, "start_frequency": 1}`, http.StatusBadRequest, "start_time"},
		{"out of bounds", http.MethodPost, phasePath, `{"label": "x", "annotator": 1, "dataset_file": ` + fileID + `, "start_time": 1, "end_time": 700, "start_frequency": 1, "end_frequency": 2}`, http.StatusBadRequest, "end_time"},
		{"no author", http.MethodPost, phasePath, `{"label": "x", "dataset_file": ` + fileID + `}`, http.StatusBadRequest, "annotator"},
		{"update without phase", http.MethodPut, "/api/v2/results/1", `{"label": "x", "annotator": 1, "dataset_file": ` + fileID + `}`, http.StatusBadRequest, "annotation_campaign_phase"},
		{"update unknown result", http.MethodPut, "/api/v2/results/77", `{"annotation_campaign_phase": ` + itoa(env.phase.ID) + `, "label": "x", "annotator": 1, "dataset_file": ` + fileID + `}`, http.StatusNotFound, ""},
		{"get unknown result", http.MethodGet, "/api/v2/results/77", "", http.StatusNotFound, ""},
		{"get bad id", http.MethodGet, "/api/v2/results/0", "", http.StatusBadRequest, "id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, tt.field, resp.Field)
			assert.Equal(t, "req-1", resp.CorrelationID)
		})
	}
}

func TestNewErrorResponse_HidesServerErrors(t *testing.T) {
	e := echo.New()
	c := New(e, nil, nil)

	rec := httptest.NewRecorder()
	ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/", http.NoBody), rec)
	dbErr := errors.New(errors.NewStd("disk I/O error")).Category(errors.CategoryDatabase).Build()
	require.NoError(t, c.HandleError(ctx, dbErr, "Failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "Internal Server Error", resp.Error)
	assert.NotContains(t, rec.Body.String(), "disk")
}

func TestFieldPath(t *testing.T) {
	assert.Equal(t, "label", fieldPath("ResultUpdateRequest.ResultRequest.label"))
	assert.Equal(t, "comments[0].comment", fieldPath("ResultRequest.comments[0].comment"))
	assert.Equal(t, "rows", fieldPath("ImportRequest.rows"))
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
