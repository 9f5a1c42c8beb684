package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/refstore"
	"github.com/ignite/gameplan-importer/internal/service/imports"
	"github.com/ignite/gameplan-importer/internal/session"
	"github.com/ignite/gameplan-importer/internal/validation"
	"github.com/ignite/gameplan-importer/internal/worker"
)

func setupRouter(t *testing.T) http.Handler {
	t.Helper()
	f, err := os.Open("../refstore/testdata/reference.yaml")
	require.NoError(t, err)
	defer f.Close()
	mem, err := refstore.LoadMemory(f)
	require.NoError(t, err)

	jobs := worker.NewImportRunner(nil, 0)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		jobs.Shutdown(ctx)
	})
	svc := imports.NewService(session.NewMemoryStore(), mem, jobs, imports.Options{})
	return SetupRoutes(NewHandlers(svc, 1), nil, []string{"*"})
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func planRow(start, end string) map[string]string {
	return map[string]string{
		validation.ColCategory:     "Deo",
		validation.ColRange:        "Black & White",
		validation.ColCampaign:     "Black & White",
		validation.ColMedia:        "TV",
		validation.ColMediaSubtype: "Linear TV",
		validation.ColStartDate:    start,
		validation.ColEndDate:      end,
		validation.ColQ1Budget:     "1,000",
	}
}

func uploadBody(rows ...map[string]string) map[string]any {
	return map[string]any{
		"template":         "gameplan",
		"countryId":        "Germany",
		"financialCycleId": "FC05 2025",
		"records":          rows,
	}
}

func TestImportFlow(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, http.MethodPost, "/api/imports", uploadBody(planRow("2025-01-06", "2025-03-30")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	up := decode[uploadResponse](t, rec)
	assert.Equal(t, domain.SessionUploaded, up.Status)
	assert.Equal(t, 1, up.Rows)

	rec = do(t, h, http.MethodPost, "/api/imports/validate", sessionRequest{SessionID: up.SessionID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	val := decode[imports.ValidateResult](t, rec)
	assert.True(t, val.Success)
	assert.True(t, val.CanImport)
	assert.Equal(t, "campaign", val.FieldMapping[validation.ColCampaign])

	rec = do(t, h, http.MethodPost, "/api/imports/import", sessionRequest{SessionID: up.SessionID})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	started := decode[imports.StartResult](t, rec)
	assert.Equal(t, "Import process started", started.Message)
	assert.Equal(t, domain.StageStarting, started.Progress.Stage)

	require.Eventually(t, func() bool {
		rec := do(t, h, http.MethodGet, "/api/imports/"+up.SessionID+"/progress", nil)
		return rec.Code == http.StatusOK && decode[imports.ProgressView](t, rec).Status == domain.SessionImported
	}, 2*time.Second, 10*time.Millisecond)

	rec = do(t, h, http.MethodPost, "/api/imports/progress", sessionRequest{SessionID: up.SessionID})
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[imports.ProgressView](t, rec)
	assert.Equal(t, 100, view.Progress.Percentage)
	require.NotNil(t, view.Results)
	assert.Equal(t, 1, view.Results.GamePlansCount)

	rec = do(t, h, http.MethodGet, "/api/imports/"+up.SessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.SessionImported, decode[domain.ImportSession](t, rec).Status)
}

func TestImportWithCriticalIssuesIsUnprocessable(t *testing.T) {
	h := setupRouter(t)
	rec := do(t, h, http.MethodPost, "/api/imports", uploadBody(planRow("2025-09-01", "2025-08-01")))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[uploadResponse](t, rec).SessionID

	rec = do(t, h, http.MethodPost, "/api/imports/validate", sessionRequest{SessionID: id})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[imports.ValidateResult](t, rec).CanImport)

	rec = do(t, h, http.MethodPost, "/api/imports/import", sessionRequest{SessionID: id})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "critical_issues")
}

func TestUploadRejectsInvalidRequests(t *testing.T) {
	h := setupRouter(t)

	body := uploadBody(planRow("2025-01-06", "2025-03-30"))
	delete(body, "countryId")
	rec := do(t, h, http.MethodPost, "/api/imports", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"countryId":"required"`)

	body = uploadBody(planRow("2025-01-06", "2025-03-30"))
	body["template"] = "budget"
	rec = do(t, h, http.MethodPost, "/api/imports", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/imports", uploadBody())
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	huge := bytes.Repeat([]byte("x"), 2<<20)
	req := httptest.NewRequest(http.MethodPost, "/api/imports", bytes.NewReader(huge))
	out := httptest.NewRecorder()
	h.ServeHTTP(out, req)
	assert.Equal(t, http.StatusBadRequest, out.Code)
}

func TestUploadFile(t *testing.T) {
	h := setupRouter(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("template", "gameplan"))
	require.NoError(t, mw.WriteField("countryId", "Germany"))
	require.NoError(t, mw.WriteField("financialCycleId", "FC05 2025"))
	fw, err := mw.CreateFormFile("file", "plan.csv")
	require.NoError(t, err)
	fmt.Fprint(fw, "Category,Range,Campaign,Media,Media Subtype,Start Date,End Date\n"+
		"Deo,Black & White,Black & White,TV,Linear TV,2025-01-06,2025-03-30\n"+
		"Deo,Black & White,Black & White,TV,Linear TV,2025-04-07,2025-06-29\n")
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports/file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[uploadResponse](t, rec).Rows)
}

func TestFieldMappingEndpoint(t *testing.T) {
	h := setupRouter(t)

	rec := do(t, h, http.MethodGet, "/api/imports/field-mapping?template=sufficiency", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		FieldMapping map[string]string `json:"fieldMapping"`
	}](t, rec)
	assert.Equal(t, "digitalReach", body.FieldMapping[validation.ColDigitalReach])

	rec = do(t, h, http.MethodGet, "/api/imports/field-mapping", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/imports/field-mapping?template=nope", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// stubService fails every call with err.
type stubService struct{ err error }

func (s stubService) Upload(context.Context, imports.UploadInput) (*domain.ImportSession, error) {
	return nil, s.err
}
func (s stubService) Session(context.Context, string) (*domain.ImportSession, error) { return nil, s.err }
func (s stubService) Validate(context.Context, string) (*imports.ValidateResult, error) {
	return nil, s.err
}
func (s stubService) StartImport(context.Context, string) (*imports.StartResult, error) {
	return nil, s.err
}
func (s stubService) Progress(context.Context, string) (*imports.ProgressView, error) {
	return nil, s.err
}
func (s stubService) Cancel(context.Context, string) error            { return s.err }
func (s stubService) FieldMapping(string) (map[string]string, error) { return nil, s.err }

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{session.ErrNotFound, http.StatusNotFound, "session_not_found"},
		{fmt.Errorf("put session s1: %w", session.ErrTooLarge), http.StatusRequestEntityTooLarge, "session_too_large"},
		{fmt.Errorf("start: %w", worker.ErrImportInProgress), http.StatusConflict, "import_in_progress"},
		{session.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{imports.ErrNotValidated, http.StatusUnprocessableEntity, "not_validated"},
		{worker.ErrShuttingDown, http.StatusServiceUnavailable, "shutting_down"},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.status, tt.code), func(t *testing.T) {
			h := SetupRoutes(NewHandlers(stubService{err: tt.err}, 0), nil, nil)
			rec := do(t, h, http.MethodPost, "/api/imports/import", sessionRequest{SessionID: "s1"})
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, rec.Body.String(), "pq:")
			}
		})
	}

	h := SetupRoutes(NewHandlers(stubService{err: imports.ErrNotRunning}, 0), nil, nil)
	rec := do(t, h, http.MethodPost, "/api/imports/s1/cancel", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	healthy := SetupRoutes(NewHandlers(stubService{}, 0), NewHealthChecker(fakePinger{}, rdb, nil, ""), nil)
	rec := do(t, healthy, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[HealthStatus](t, rec)
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "up", status.Checks["redis"].Status)
	assert.Equal(t, "not_configured", status.Checks["archive"].Status)

	down := SetupRoutes(NewHandlers(stubService{}, 0),
		NewHealthChecker(fakePinger{err: errors.New("refused")}, nil, nil, ""), nil)
	rec = do(t, down, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(t, down, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := setupRouter(t)
	do(t, h, http.MethodPost, "/api/imports", uploadBody(planRow("2025-01-06", "2025-03-30")))

	rec := do(t, h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gameplan_session_transitions_total")
}
