package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-summary/internal/domain/report"
	"github.com/cmlabs-hris/attendance-summary/internal/domain/user"
	"github.com/cmlabs-hris/attendance-summary/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-summary/internal/pkg/validator"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt"

type fakeReportRepository struct {
	payload report.Payload
	err     error

	gotCompanyID string
	gotFilter    report.SummaryFilter
	calls        int
}

func (f *fakeReportRepository) GetAttendanceSummarySnapshot(ctx context.Context, companyID string, filter report.SummaryFilter) (report.Payload, error) {
	f.calls++
	f.gotCompanyID = companyID
	f.gotFilter = filter
	return f.payload, f.err
}

func (f *fakeReportRepository) ListActiveCompanyIDs(ctx context.Context) ([]string, error) {
	return nil, nil
}

func contextWithClaims(t *testing.T, companyID *string, role user.Role) context.Context {
	t.Helper()
	jwtSvc := jwt.NewJWTService(testSecret, "1h")
	tokenString, _, err := jwtSvc.GenerateAccessToken("user-1", companyID, role)
	require.NoError(t, err)

	token, err := jwtSvc.JWTAuth().Decode(tokenString)
	require.NoError(t, err)

	return jwtauth.NewContext(context.Background(), token, nil)
}

func storedPayload() report.Payload {
	alice, bob := "EMP-001", "EMP-002"
	day1, day2 := "2024-05-01", "2024-05-02"
	long, short := 13.5, 7.25
	hours := 20.75
	records, users := 2, 2
	return report.Payload{
		Rows: []report.AttendanceRow{
			{Username: &alice, Date: &day1, Hours: &long},
			{Username: &bob, Date: &day2, Hours: &short},
		},
		Totals: report.Totals{Hours: &hours, Records: &records, Users: &users},
	}
}

func TestReportService_GenerateAttendanceSummary_Success(t *testing.T) {
	companyID := "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b"
	ctx := contextWithClaims(t, &companyID, user.RoleManager)
	repo := &fakeReportRepository{payload: storedPayload()}
	svc := NewReportService(repo)

	result, err := svc.GenerateAttendanceSummary(ctx, report.AttendanceSummaryRequest{
		StartDate: "2024-05-01",
		EndDate:   "2024-05-31",
	})

	require.NoError(t, err)
	assert.Equal(t, companyID, repo.gotCompanyID)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), repo.gotFilter.StartDate)
	assert.Equal(t, time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), repo.gotFilter.EndDate)
	assert.Nil(t, repo.gotFilter.EmployeeID)

	assert.Equal(t,
		"Processed 2 attendance records for 2 user(s). Total hours: 20.75. Average hours per record: 10.38. Found 1 potential anomaly entries with 12+ hours.",
		result.Summary,
	)
	assert.Equal(t, []report.Anomaly{{Username: "EMP-001", Date: "2024-05-01", Hours: 13.5}}, result.Anomalies)
	assert.Equal(t, 2, result.RowCount)
}

func TestReportService_GenerateAttendanceSummary_ValidationError(t *testing.T) {
	companyID := "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a5b"
	ctx := contextWithClaims(t, &companyID, user.RoleOwner)
	repo := &fakeReportRepository{}
	svc := NewReportService(repo)

	_, err := svc.GenerateAttendanceSummary(ctx, report.AttendanceSummaryRequest{StartDate: "2024-05-31", EndDate: "2024-05-01"})

	var errs validator.ValidationErrors
	assert.ErrorAs(t, err, &errs)
	assert.Equal(t, 0, repo.calls)
}

func TestReportService_GenerateAttendanceSummary_MissingCompany(t *testing.T) {
	ctx := contextWithClaims(t, nil, user.RoleManager)
	repo := &fakeReportRepository{}
	svc := NewReportService(repo)

	_, err := svc.GenerateAttendanceSummary(ctx, report.AttendanceSummaryRequest{StartDate: "2024-05-01", EndDate: "2024-05-02"})

	assert.ErrorIs(t, err, user.ErrCompanyIDRequired)
	assert.Equal(t, 0, repo.calls)
}

func TestReportService_GenerateAttendanceSummary_NoClaims(t *testing.T) {
	svc := NewReportService(&fakeReportRepository{})

	_, err := svc.GenerateAttendanceSummary(context.Background(), report.AttendanceSummaryRequest{StartDate: "2024-05-01", EndDate: "2024-05-02"})

	assert.ErrorIs(t, err, user.ErrCompanyIDRequired)
}

func TestReportService_GenerateCompanyAttendanceSummary_RepositoryError(t *testing.T) {
	dbErr := errors.New("connection refused")
	svc := NewReportService(&fakeReportRepository{err: dbErr})

	_, err := svc.GenerateCompanyAttendanceSummary(context.Background(), "company-1", report.AttendanceSummaryRequest{StartDate: "2024-05-01", EndDate: "2024-05-02"})

	assert.ErrorIs(t, err, report.ErrReportGenerationFailed)
	assert.ErrorIs(t, err, dbErr)
}

func TestReportService_GenerateCompanyAttendanceSummary_EmployeeFilter(t *testing.T) {
	employeeID := "0188d0f2-7b8c-7b4a-8a2b-6b8b8b8b8b8b"
	repo := &fakeReportRepository{payload: report.Payload{Rows: []report.AttendanceRow{}}}
	svc := NewReportService(repo)

	result, err := svc.GenerateCompanyAttendanceSummary(context.Background(), "company-1", report.AttendanceSummaryRequest{
		StartDate:  "2024-05-01",
		EndDate:    "2024-05-01",
		EmployeeID: &employeeID,
	})

	require.NoError(t, err)
	require.NotNil(t, repo.gotFilter.EmployeeID)
	assert.Equal(t, employeeID, *repo.gotFilter.EmployeeID)
	assert.Equal(t, 0, result.RowCount)
	assert.Contains(t, result.Summary, "No high-hour anomalies detected.")
}

func TestReportService_BuildSummary(t *testing.T) {
	svc := NewReportService(&fakeReportRepository{})

	result := svc.BuildSummary(report.DefaultPayload())

	assert.Equal(t, BuildSummary(report.DefaultPayload()), result)
}
