package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/internal/repository"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

// enrollmentTable models the partial unique index: at most one enrolled row per pair.
type enrollmentTable struct {
	rows []models.Enrollment
}

func (t *enrollmentTable) FindActive(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	for i := range t.rows {
		if t.rows[i].UserID == userID && t.rows[i].CourseID == courseID && t.rows[i].Status == models.EnrollmentStatusEnrolled {
			return &t.rows[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (t *enrollmentTable) EnsureEnrolled(ctx context.Context, userID, courseID string) error {
	if _, err := t.FindActive(ctx, userID, courseID); err == nil {
		return nil
	}
	t.rows = append(t.rows, models.Enrollment{UserID: userID, CourseID: courseID, Status: models.EnrollmentStatusEnrolled})
	return nil
}

func (t *enrollmentTable) drop(userID, courseID string) {
	for i := range t.rows {
		if t.rows[i].UserID == userID && t.rows[i].CourseID == courseID && t.rows[i].Status == models.EnrollmentStatusEnrolled {
			t.rows[i].Status = models.EnrollmentStatusDropped
		}
	}
}

func (t *enrollmentTable) count(userID, courseID string, status models.EnrollmentStatus) int {
	n := 0
	for _, r := range t.rows {
		if r.UserID == userID && r.CourseID == courseID && r.Status == status {
			n++
		}
	}
	return n
}

type stubRequestRepo struct {
	requests map[string]*models.Request
	table    *enrollmentTable
	listed   models.RequestFilter
}

func (s *stubRequestRepo) Create(ctx context.Context, request *models.Request) error {
	request.ID = "new"
	s.requests[request.ID] = request
	return nil
}

func (s *stubRequestRepo) FindByID(ctx context.Context, id string) (*models.Request, error) {
	if id == malformedID {
		return nil, errMalformedID
	}
	if r, ok := s.requests[id]; ok {
		copy := *r
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubRequestRepo) List(ctx context.Context, filter models.RequestFilter) ([]models.RequestDetail, int, error) {
	s.listed = filter
	var out []models.RequestDetail
	for _, r := range s.requests {
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, models.RequestDetail{Request: *r})
	}
	return out, len(out), nil
}

func (s *stubRequestRepo) Decide(ctx context.Context, id string, status models.RequestStatus, decidedBy string, change repository.EnrollmentChange) (bool, error) {
	r := s.requests[id]
	if r.Status != models.RequestStatusPending {
		return false, nil
	}
	r.Status = status
	r.DecidedBy = &decidedBy
	for _, c := range change.Drop {
		s.table.drop(change.UserID, c)
	}
	for _, c := range change.Ensure {
		_ = s.table.EnsureEnrolled(ctx, change.UserID, c)
	}
	return true, nil
}

var advisor = Actor{ID: "adv", Role: models.RoleAdvisor}

func newRequestFixture(cfg RequestServiceConfig, requests ...*models.Request) (*RequestService, *stubRequestRepo, *enrollmentTable) {
	table := &enrollmentTable{}
	repo := &stubRequestRepo{requests: map[string]*models.Request{}, table: table}
	for _, r := range requests {
		repo.requests[r.ID] = r
	}
	return NewRequestService(repo, table, newCourseFinder(), nil, cfg, nil, nil), repo, table
}

func addRequest(id, status string) *models.Request {
	course := "cs101"
	return &models.Request{ID: id, UserID: "stu", Type: models.RequestTypeAdd, CourseID: &course, Status: models.RequestStatus(status)}
}

func TestApprovePendingAddEnsuresEnrollment(t *testing.T) {
	svc, repo, table := newRequestFixture(RequestServiceConfig{}, addRequest("r1", "pending"))

	out, err := svc.Approve(context.Background(), advisor, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, out.Status)
	assert.Equal(t, "adv", *repo.requests["r1"].DecidedBy)
	assert.Equal(t, 1, table.count("stu", "cs101", models.EnrollmentStatusEnrolled))
}

func TestApproveTwiceKeepsSingleEnrollment(t *testing.T) {
	svc, _, table := newRequestFixture(RequestServiceConfig{}, addRequest("r1", "pending"))

	_, err := svc.Approve(context.Background(), advisor, "r1")
	require.NoError(t, err)
	out, err := svc.Approve(context.Background(), advisor, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusApproved, out.Status)
	assert.Equal(t, 1, table.count("stu", "cs101", models.EnrollmentStatusEnrolled))
}

func TestApproveWhenEnrollmentAlreadyExists(t *testing.T) {
	svc, _, table := newRequestFixture(RequestServiceConfig{}, addRequest("r1", "pending"))
	table.rows = append(table.rows, models.Enrollment{UserID: "stu", CourseID: "cs101", Status: models.EnrollmentStatusEnrolled})

	_, err := svc.Approve(context.Background(), advisor, "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, table.count("stu", "cs101", models.EnrollmentStatusEnrolled))
}

func TestRejectLeavesEnrollmentsUntouched(t *testing.T) {
	svc, repo, table := newRequestFixture(RequestServiceConfig{}, addRequest("r1", "pending"))
	table.rows = append(table.rows, models.Enrollment{UserID: "stu", CourseID: "cs101", Status: models.EnrollmentStatusEnrolled})

	out, err := svc.Reject(context.Background(), advisor, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, out.Status)
	assert.Equal(t, models.RequestStatusRejected, repo.requests["r1"].Status)
	assert.Equal(t, 1, table.count("stu", "cs101", models.EnrollmentStatusEnrolled))
}

func TestRejectTwiceIsNoop(t *testing.T) {
	svc, _, _ := newRequestFixture(RequestServiceConfig{}, addRequest("r1", "rejected"))
	out, err := svc.Reject(context.Background(), advisor, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusRejected, out.Status)
}

func TestApproveRejectedConflicts(t *testing.T) {
	svc, _, table := newRequestFixture(RequestServiceConfig{}, addRequest("r1", "rejected"))
	_, err := svc.Approve(context.Background(), advisor, "r1")
	appErr := appErrors.FromError(err)
	assert.Equal(t, 409, appErr.Status)
	assert.Empty(t, table.rows)
}

func TestRejectApprovedConflicts(t *testing.T) {
	svc, _, _ := newRequestFixture(RequestServiceConfig{}, addRequest("r1", "approved"))
	_, err := svc.Reject(context.Background(), advisor, "r1")
	assert.True(t, appErrors.Is(err, appErrors.ErrRequestDecided))
}

func TestDecideRequiresStaff(t *testing.T) {
	svc, _, _ := newRequestFixture(RequestServiceConfig{}, addRequest("r1", "pending"))
	_, err := svc.Approve(context.Background(), student, "r1")
	assert.True(t, appErrors.Is(err, appErrors.ErrForbidden))
}

func TestDecideUnknownRequest(t *testing.T) {
	svc, _, _ := newRequestFixture(RequestServiceConfig{})
	_, err := svc.Approve(context.Background(), advisor, "ghost")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestApproveDropIsStatusOnlyByDefault(t *testing.T) {
	course := "cs101"
	drop := &models.Request{ID: "r2", UserID: "stu", Type: models.RequestTypeDrop, CourseID: &course, Status: models.RequestStatusPending}
	svc, _, table := newRequestFixture(RequestServiceConfig{}, drop)
	table.rows = append(table.rows, models.Enrollment{UserID: "stu", CourseID: "cs101", Status: models.EnrollmentStatusEnrolled})

	_, err := svc.Approve(context.Background(), advisor, "r2")
	require.NoError(t, err)
	assert.Equal(t, 1, table.count("stu", "cs101", models.EnrollmentStatusEnrolled))
}

func TestApproveSwapAppliesWhenEnabled(t *testing.T) {
	course, target := "cs101", "ma201"
	swap := &models.Request{ID: "r3", UserID: "stu", Type: models.RequestTypeSwap, CourseID: &course, TargetCourseID: &target, Status: models.RequestStatusPending}
	svc, _, table := newRequestFixture(RequestServiceConfig{ApplyDropSwap: true}, swap)
	table.rows = append(table.rows, models.Enrollment{UserID: "stu", CourseID: "cs101", Status: models.EnrollmentStatusEnrolled})

	_, err := svc.Approve(context.Background(), advisor, "r3")
	require.NoError(t, err)
	assert.Equal(t, 0, table.count("stu", "cs101", models.EnrollmentStatusEnrolled))
	assert.Equal(t, 1, table.count("stu", "cs101", models.EnrollmentStatusDropped))
	assert.Equal(t, 1, table.count("stu", "ma201", models.EnrollmentStatusEnrolled))
}

func TestSubmitSwapValidation(t *testing.T) {
	svc, _, table := newRequestFixture(RequestServiceConfig{})
	table.rows = append(table.rows, models.Enrollment{UserID: "stu", CourseID: "cs101", Status: models.EnrollmentStatusEnrolled})

	_, err := svc.Submit(context.Background(), student, SubmitRequestPayload{Type: "swap", CourseID: "cs101"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Submit(context.Background(), student, SubmitRequestPayload{Type: "swap", CourseID: "cs101", TargetCourseID: "cs101"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	_, err = svc.Submit(context.Background(), student, SubmitRequestPayload{Type: "add", CourseID: "cs101"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))

	req, err := svc.Submit(context.Background(), student, SubmitRequestPayload{Type: "Swap", CourseID: "cs101", TargetCourseID: "ma201", Message: " schedule clash "})
	require.NoError(t, err)
	assert.Equal(t, models.RequestTypeSwap, req.Type)
	assert.Equal(t, "ma201", *req.TargetCourseID)
	assert.Equal(t, "schedule clash", *req.Message)
}

func TestSubmitDropRequiresActiveEnrollment(t *testing.T) {
	svc, _, _ := newRequestFixture(RequestServiceConfig{})
	_, err := svc.Submit(context.Background(), student, SubmitRequestPayload{Type: "drop", CourseID: "cs101"})
	assert.True(t, appErrors.Is(err, appErrors.ErrValidation))
}

func TestParseRequestStatus(t *testing.T) {
	s, err := ParseRequestStatus("ALL")
	require.NoError(t, err)
	assert.Empty(t, s)
	s, err = ParseRequestStatus("pending")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, s)
	_, err = ParseRequestStatus("archived")
	assert.Error(t, err)
}

func TestDecideMalformedIDIsNotFound(t *testing.T) {
	svc, _, _ := newRequestFixture(RequestServiceConfig{})

	_, err := svc.Approve(context.Background(), advisor, malformedID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
	_, err = svc.Reject(context.Background(), advisor, malformedID)
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}
