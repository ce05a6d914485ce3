package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlboard/api/types"
	"mlboard/auth"
	"mlboard/internal/testutils"
	"mlboard/models"
)

var secret = []byte("test-secret")

type fixture struct {
	router  *gin.Engine
	owner   *models.User
	outside *models.User
	project *models.Project
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	testutils.SetupDB(t)

	router, err := NewRouter(secret)
	require.NoError(t, err)

	owner := testutils.CreateUser(t, "owner")
	outside := testutils.CreateUser(t, "outsider")
	return &fixture{
		router:  router,
		owner:   owner,
		outside: outside,
		project: testutils.CreateProject(t, "vision", owner),
	}
}

func (f *fixture) do(t *testing.T, user *models.User, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if user != nil {
		token, err := auth.NewToken(secret, user.ID, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) path(format string, args ...any) string {
	return fmt.Sprintf("/api/v1/projects/%d", f.project.ID) + fmt.Sprintf(format, args...)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAuthentication(t *testing.T) {
	f := setup(t)

	w := f.do(t, nil, http.MethodGet, f.path("/experiments"), "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, f.path("/experiments"), nil)
	req.Header.Set("Authorization", "Bearer nonsense")
	w = httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	ghost := &models.User{ID: 4242}
	w = f.do(t, ghost, http.MethodGet, f.path("/experiments"), "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExperimentList(t *testing.T) {
	f := setup(t)
	other := testutils.CreateProject(t, "other", f.owner)

	older := testutils.CreateExperiment(t, f.project, f.owner, "e1",
		`{"lr": 0.1, "depth": 5}`, `{"metric_list": ["accuracy"], "summary": {"accuracy": [0.8, 0.9]}}`)
	newer := testutils.CreateExperiment(t, f.project, f.owner, "e2", `{"lr": 0.2}`, "")
	foreign := testutils.CreateExperiment(t, other, f.owner, "e3", "", "")

	t.Run("all newest first", func(t *testing.T) {
		w := f.do(t, f.owner, http.MethodGet, f.path("/experiments"), "", "")
		require.Equal(t, http.StatusOK, w.Code)

		got := decode[[]types.Experiment](t, w)
		require.Len(t, got, 2)
		assert.Equal(t, newer.ID, got[0].ID)
		assert.Equal(t, older.ID, got[1].ID)
		assert.Equal(t, "owner", got[0].User.Username)
	})

	t.Run("selected fields", func(t *testing.T) {
		q := url.Values{}
		q.Add("param_fields[]", "lr")
		q.Add("metric_fields[]", "accuracy$1")
		w := f.do(t, f.owner, http.MethodGet, f.path("/experiments/%d?%s", older.ID, q.Encode()), "", "")
		require.Equal(t, http.StatusOK, w.Code)

		got := decode[[]types.Experiment](t, w)
		require.Len(t, got, 1)
		assert.Equal(t, map[string]any{"lr": 0.1}, got[0].ParamFields)
		assert.Equal(t, map[string]any{"accuracy$1": 0.9}, got[0].MetricFields)
	})

	t.Run("model of another project", func(t *testing.T) {
		w := f.do(t, f.owner, http.MethodGet, f.path("/experiments/%d", foreign.ID), "", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("model id zero", func(t *testing.T) {
		w := f.do(t, f.owner, http.MethodGet, f.path("/experiments/0"), "", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})

	t.Run("bad model id", func(t *testing.T) {
		w := f.do(t, f.owner, http.MethodGet, f.path("/experiments/abc"), "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non member", func(t *testing.T) {
		w := f.do(t, f.outside, http.MethodGet, f.path("/experiments"), "", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}

func TestExperimentCreate(t *testing.T) {
	f := setup(t)

	body := `{
		"experiment_id": "7f1c",
		"name": "resnet",
		"model_parameters": {"lr": 0.1},
		"evaluation_parameters": {"metric_list": ["loss"]}
	}`

	w := f.do(t, f.owner, http.MethodPost, f.path("/experiments"), "application/json", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[types.ModelIDResponse](t, w)
	require.NotZero(t, first.ModelID)

	w = f.do(t, f.owner, http.MethodPost, f.path("/experiments"), "application/json", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	second := decode[types.ModelIDResponse](t, w)
	assert.Equal(t, first.ModelID, second.ModelID)

	var stored models.Experiment
	require.NoError(t, models.DB.First(&stored, first.ModelID).Error)
	assert.Equal(t, f.owner.ID, stored.UserID)
	assert.Equal(t, f.project.ID, stored.ProjectID)
	assert.JSONEq(t, `{"lr": 0.1}`, string(stored.ModelParameters))
}

func TestExperimentCreate_GeneratesExperimentID(t *testing.T) {
	f := setup(t)

	w := f.do(t, f.owner, http.MethodPost, f.path("/experiments"), "application/json", `{"name": "x"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var stored models.Experiment
	require.NoError(t, models.DB.First(&stored, decode[types.ModelIDResponse](t, w).ModelID).Error)
	assert.Len(t, stored.ExperimentID, 36)
}

func TestExperimentCreate_ValidationErrors(t *testing.T) {
	f := setup(t)

	w := f.do(t, f.owner, http.MethodPost, f.path("/experiments"), "application/json",
		fmt.Sprintf(`{"name": %q, "model_parameters": [1, 2]}`, strings.Repeat("n", 201)))
	require.Equal(t, http.StatusBadRequest, w.Code)

	got := decode[types.Response](t, w)
	assert.Equal(t, "error", got.Status)
	assert.Contains(t, got.Errors, "name")
	assert.Contains(t, got.Errors, "model_parameters")

	var count int64
	require.NoError(t, models.DB.Model(&models.Experiment{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestExperimentCreate_ConflictAcrossProjects(t *testing.T) {
	f := setup(t)
	other := testutils.CreateProject(t, "other", f.owner)
	testutils.CreateExperiment(t, other, f.owner, "shared", "", "")

	w := f.do(t, f.owner, http.MethodPost, f.path("/experiments"), "application/json", `{"experiment_id": "shared"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestExperimentDelete(t *testing.T) {
	f := setup(t)
	e1 := testutils.CreateExperiment(t, f.project, f.owner, "e1", "", "")
	e2 := testutils.CreateExperiment(t, f.project, f.owner, "e2", "", "")
	e3 := testutils.CreateExperiment(t, f.project, f.owner, "e3", "", "")
	e4 := testutils.CreateExperiment(t, f.project, f.owner, "e4", "", "")

	w := f.do(t, f.owner, http.MethodDelete, f.path("/experiments"), "application/json",
		fmt.Sprintf(`{"model_ids": "%d,%d,%d"}`, e1.ID, e2.ID, e3.ID))
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	var left []models.Experiment
	require.NoError(t, models.DB.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, e4.ID, left[0].ID)

	w = f.do(t, f.owner, http.MethodDelete, f.path("/experiments"), "application/json",
		fmt.Sprintf(`{"model_id": %d}`, e4.ID))
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
}

func TestExperimentDelete_QueryString(t *testing.T) {
	f := setup(t)
	e1 := testutils.CreateExperiment(t, f.project, f.owner, "e1", "", "")

	w := f.do(t, f.owner, http.MethodDelete, f.path("/experiments?model_id=%d", e1.ID), "", "")
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())
}

func TestExperimentDelete_FormBody(t *testing.T) {
	f := setup(t)
	e1 := testutils.CreateExperiment(t, f.project, f.owner, "e1", "", "")
	e2 := testutils.CreateExperiment(t, f.project, f.owner, "e2", "", "")
	e3 := testutils.CreateExperiment(t, f.project, f.owner, "e3", "", "")

	w := f.do(t, f.owner, http.MethodDelete, f.path("/experiments"),
		"application/x-www-form-urlencoded", fmt.Sprintf("model_id=%d", e1.ID))
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	form := url.Values{}
	form.Set("model_ids", fmt.Sprintf("%d,%d", e2.ID, e3.ID))
	w = f.do(t, f.owner, http.MethodDelete, f.path("/experiments"),
		"application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	var count int64
	require.NoError(t, models.DB.Model(&models.Experiment{}).Count(&count).Error)
	assert.Zero(t, count)

	w = f.do(t, f.owner, http.MethodDelete, f.path("/experiments"),
		"application/x-www-form-urlencoded", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExperimentDelete_Failures(t *testing.T) {
	f := setup(t)
	e1 := testutils.CreateExperiment(t, f.project, f.owner, "e1", "", "")

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"no ids", `{}`, http.StatusBadRequest},
		{"empty body", "", http.StatusBadRequest},
		{"malformed id", `{"model_ids": "1,abc"}`, http.StatusBadRequest},
		{"unknown id", fmt.Sprintf(`{"model_ids": "%d,999"}`, e1.ID), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, f.owner, http.MethodDelete, f.path("/experiments"), "application/json", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	var count int64
	require.NoError(t, models.DB.Model(&models.Experiment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestParamFields(t *testing.T) {
	f := setup(t)
	testutils.CreateExperiment(t, f.project, f.owner, "e1",
		`{"lr": 0.1, "depth": 5}`, `{"metric_list": ["loss", "accuracy"]}`)
	testutils.CreateExperiment(t, f.project, f.owner, "e2", `[1]`, "")

	w := f.do(t, f.owner, http.MethodGet, f.path("/param-fields"), "", "")
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[types.FieldsResponse](t, w)
	assert.ElementsMatch(t, []types.FieldName{{Name: "lr"}, {Name: "depth"}}, got.Parameter)
	assert.Equal(t, []types.FieldName{
		{Name: "accuracy$0"}, {Name: "accuracy$1"},
		{Name: "loss$0"}, {Name: "loss$1"},
	}, got.Metric)
}

func TestParamFields_Access(t *testing.T) {
	f := setup(t)
	testutils.CreateExperiment(t, f.project, f.owner, "e1", `{"lr": 0.1}`, "")

	w := f.do(t, f.outside, http.MethodGet, f.path("/param-fields"), "", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), "lr")

	w = f.do(t, f.owner, http.MethodGet, "/api/v1/projects/abc/param-fields", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParamData(t *testing.T) {
	f := setup(t)
	e1 := testutils.CreateExperiment(t, f.project, f.owner, "e1", `{"lr": 0.1, "depth": 5}`, "")

	form := url.Values{}
	form.Add("param_fields[]", "lr")
	form.Add("param_fields[]", "depth")

	w := f.do(t, f.owner, http.MethodPost, f.path("/param-fields/data"),
		"application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, fmt.Sprintf(`[
		{"id": %[1]d, "key": "depth", "value": "5"},
		{"id": %[1]d, "key": "lr", "value": "0.1"}
	]`, e1.ID), w.Body.String())

	w = f.do(t, f.owner, http.MethodPost, f.path("/param-fields/data"),
		"application/json", `{"param_fields": ["lr"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, fmt.Sprintf(`[{"id": %d, "key": "lr", "value": "0.1"}]`, e1.ID), w.Body.String())
}

func TestParamData_KeysKeepSurroundingSpaces(t *testing.T) {
	f := setup(t)
	e1 := testutils.CreateExperiment(t, f.project, f.owner, "e1", `{" lr ": 0.3, "lr": 0.1}`, "")

	form := url.Values{}
	form.Add("param_fields[]", " lr ")
	form.Add("param_fields[]", "")

	w := f.do(t, f.owner, http.MethodPost, f.path("/param-fields/data"),
		"application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, fmt.Sprintf(`[{"id": %d, "key": " lr ", "value": "0.3"}]`, e1.ID), w.Body.String())
}

func TestParamData_Failures(t *testing.T) {
	f := setup(t)

	w := f.do(t, f.owner, http.MethodPost, f.path("/param-fields/data"), "application/json", `{"param_fields": []}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, f.owner, http.MethodPost, f.path("/param-fields/data"), "application/x-www-form-urlencoded", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, f.outside, http.MethodPost, f.path("/param-fields/data"),
		"application/x-www-form-urlencoded", "param_fields%5B%5D=lr")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealth(t *testing.T) {
	f := setup(t)

	w := f.do(t, nil, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
