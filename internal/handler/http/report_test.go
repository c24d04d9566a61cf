package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cmlabs-hris/attendance-summary/internal/domain/report"
	"github.com/cmlabs-hris/attendance-summary/internal/domain/user"
	"github.com/cmlabs-hris/attendance-summary/internal/pkg/jwt"
	reportService "github.com/cmlabs-hris/attendance-summary/internal/service/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	handlerTestSecret    = "test-secret-key-for-jwt"
	handlerTestAccessExp = "1h"
	handlerTestCompanyID = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b"
	summaryPath          = "/api/v1/reports/attendance-summary"
)

type stubReportRepository struct {
	payload      report.Payload
	gotCompanyID string
	gotFilter    report.SummaryFilter
}

func (s *stubReportRepository) GetAttendanceSummarySnapshot(ctx context.Context, companyID string, filter report.SummaryFilter) (report.Payload, error) {
	s.gotCompanyID = companyID
	s.gotFilter = filter
	return s.payload, nil
}

func (s *stubReportRepository) ListActiveCompanyIDs(ctx context.Context) ([]string, error) {
	return []string{handlerTestCompanyID}, nil
}

type envelope struct {
	Success bool                 `json:"success"`
	Data    report.SummaryResult `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func newTestRouter(t *testing.T, repo report.ReportRepository) (http.Handler, jwt.Service) {
	t.Helper()
	jwtSvc := jwt.NewJWTService(handlerTestSecret, handlerTestAccessExp)
	handler := NewReportHandler(reportService.NewReportService(repo))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRouter(jwtSvc, handler, RouterOptions{Logger: logger, AllowedOrigins: []string{"http://localhost:3000"}}), jwtSvc
}

func bearer(t *testing.T, jwtSvc jwt.Service, role user.Role) string {
	t.Helper()
	companyID := handlerTestCompanyID
	token, _, err := jwtSvc.GenerateAccessToken("user-1", &companyID, role)
	require.NoError(t, err)
	return "Bearer " + token
}

func doRequest(t *testing.T, router http.Handler, method, target, auth, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	var resp envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return w, resp
}

func TestReportHandler_BuildAttendanceSummary_Success(t *testing.T) {
	router, jwtSvc := newTestRouter(t, &stubReportRepository{})

	body := `{"rows":[{"username":"x","date":"2024-01-01","hours":12.345},{"username":"y","hours":5}],"totals":{"hours":17.345,"records":2}}`
	w, resp := doRequest(t, router, http.MethodPost, summaryPath, bearer(t, jwtSvc, user.RoleManager), body)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t,
		"Processed 2 attendance records for 2 user(s). Total hours: 17.34. Average hours per record: 8.67. Found 1 potential anomaly entries with 12+ hours.",
		resp.Data.Summary,
	)
	assert.Equal(t, []report.Anomaly{{Username: "x", Date: "2024-01-01", Hours: 12.35}}, resp.Data.Anomalies)
	assert.Equal(t, 2, resp.Data.RowCount)
}

func TestReportHandler_BuildAttendanceSummary_EmptyBody(t *testing.T) {
	router, jwtSvc := newTestRouter(t, &stubReportRepository{})

	w, resp := doRequest(t, router, http.MethodPost, summaryPath, bearer(t, jwtSvc, user.RoleOwner), "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, resp.Data.RowCount)
	assert.Empty(t, resp.Data.Anomalies)
	assert.Contains(t, resp.Data.Summary, "No high-hour anomalies detected.")
}

func TestReportHandler_BuildAttendanceSummary_MalformedBody(t *testing.T) {
	router, jwtSvc := newTestRouter(t, &stubReportRepository{})

	w, resp := doRequest(t, router, http.MethodPost, summaryPath, bearer(t, jwtSvc, user.RoleManager), `{"rows": [`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "BAD_REQUEST", resp.Error.Code)
}

func TestReportHandler_BuildAttendanceSummary_CoercionFailure(t *testing.T) {
	router, jwtSvc := newTestRouter(t, &stubReportRepository{})

	w, resp := doRequest(t, router, http.MethodPost, summaryPath, bearer(t, jwtSvc, user.RoleManager), `{"totals":{"records":[1]}}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "totals.records")
}

func TestReportHandler_RequiresToken(t *testing.T) {
	router, _ := newTestRouter(t, &stubReportRepository{})

	w, resp := doRequest(t, router, http.MethodPost, summaryPath, "", `{}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, resp.Success)
}

func TestReportHandler_RejectsForeignSignature(t *testing.T) {
	router, _ := newTestRouter(t, &stubReportRepository{})
	other := jwt.NewJWTService("some-other-secret", handlerTestAccessExp)

	w, _ := doRequest(t, router, http.MethodPost, summaryPath, bearer(t, other, user.RoleManager), `{}`)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReportHandler_RequiresManagerRole(t *testing.T) {
	router, jwtSvc := newTestRouter(t, &stubReportRepository{})

	w, resp := doRequest(t, router, http.MethodPost, summaryPath, bearer(t, jwtSvc, user.RoleEmployee), `{}`)

	assert.Equal(t, http.StatusForbidden, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "FORBIDDEN", resp.Error.Code)
}

func TestReportHandler_GetAttendanceSummary_Success(t *testing.T) {
	username, date := "EMP-007", "2024-05-03"
	hours := 12.0
	totalHours := 12.0
	records, users := 1, 1
	repo := &stubReportRepository{payload: report.Payload{
		Rows:   []report.AttendanceRow{{Username: &username, Date: &date, Hours: &hours}},
		Totals: report.Totals{Hours: &totalHours, Records: &records, Users: &users},
	}}
	router, jwtSvc := newTestRouter(t, repo)

	w, resp := doRequest(t, router, http.MethodGet, summaryPath+"?start_date=2024-05-01&end_date=2024-05-31", bearer(t, jwtSvc, user.RoleManager), "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, handlerTestCompanyID, repo.gotCompanyID)
	assert.Equal(t,
		"Processed 1 attendance records for 1 user(s). Total hours: 12.00. Average hours per record: 12.00. Found 1 potential anomaly entries with 12+ hours.",
		resp.Data.Summary,
	)
	assert.Equal(t, []report.Anomaly{{Username: "EMP-007", Date: "2024-05-03", Hours: 12}}, resp.Data.Anomalies)
}

func TestReportHandler_GetAttendanceSummary_TrimsQueryParameters(t *testing.T) {
	repo := &stubReportRepository{payload: report.Payload{Rows: []report.AttendanceRow{}}}
	router, jwtSvc := newTestRouter(t, repo)

	target := summaryPath + "?start_date=%202024-05-01%20&end_date=2024-05-31%20&employee_id=%200188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b"
	w, resp := doRequest(t, router, http.MethodGet, target, bearer(t, jwtSvc, user.RoleManager), "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "2024-05-01", repo.gotFilter.StartDate.Format("2006-01-02"))
	assert.Equal(t, "2024-05-31", repo.gotFilter.EndDate.Format("2006-01-02"))
	require.NotNil(t, repo.gotFilter.EmployeeID)
	assert.Equal(t, "0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b", *repo.gotFilter.EmployeeID)
}

func TestReportHandler_GetAttendanceSummary_ValidationError(t *testing.T) {
	router, jwtSvc := newTestRouter(t, &stubReportRepository{})

	w, resp := doRequest(t, router, http.MethodGet, summaryPath+"?start_date=2024-05-01&employee_id=nope", bearer(t, jwtSvc, user.RoleManager), "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "end_date")
	assert.Contains(t, resp.Error.Details, "employee_id")
}

func TestRouter_UnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t, &stubReportRepository{})

	w, resp := doRequest(t, router, http.MethodGet, "/api/v2/nothing", "", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Success)
}
