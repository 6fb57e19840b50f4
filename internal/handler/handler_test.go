package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-registration-api/internal/middleware"
	"github.com/noah-isme/uni-registration-api/internal/models"
	"github.com/noah-isme/uni-registration-api/internal/service"
	appErrors "github.com/noah-isme/uni-registration-api/pkg/errors"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func newContext(method, target string, body interface{}, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

var studentClaims = &models.JWTClaims{UserID: "stu", Role: models.RoleStudent}

type fakeEnrollments struct {
	registerErr error
	lastActor   service.Actor
}

func (f *fakeEnrollments) Register(ctx context.Context, actor service.Actor, req service.RegisterRequest) (*service.Registration, error) {
	f.lastActor = actor
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &service.Registration{
		Enrollment: models.Enrollment{ID: "e1", UserID: actor.ID, CourseID: req.CourseID, Status: models.EnrollmentStatusEnrolled},
	}, nil
}

func (f *fakeEnrollments) ListMine(ctx context.Context, userID string, status string) ([]models.EnrollmentDetail, error) {
	return []models.EnrollmentDetail{}, nil
}

func (f *fakeEnrollments) RecordGrade(ctx context.Context, actor service.Actor, id string, req service.RecordGradeRequest) (*models.Enrollment, error) {
	return nil, appErrors.ErrForbidden
}

func TestRegisterCreated(t *testing.T) {
	fake := &fakeEnrollments{}
	h := NewEnrollmentHandler(fake)
	c, rec := newContext(http.MethodPost, "/registrations", gin.H{"course_id": "cs101"}, studentClaims)

	h.Register(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "stu", fake.lastActor.ID)
	assert.Equal(t, models.RoleStudent, fake.lastActor.Role)
}

func TestRegisterAlreadyEnrolled(t *testing.T) {
	h := NewEnrollmentHandler(&fakeEnrollments{registerErr: appErrors.ErrAlreadyEnrolled})
	c, rec := newContext(http.MethodPost, "/registrations", gin.H{"course_id": "cs101"}, studentClaims)

	h.Register(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decode(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ALREADY_ENROLLED", env.Error.Code)
	assert.Equal(t, "you are already enrolled in this course", env.Error.Message)
}

func TestRegisterWithoutClaims(t *testing.T) {
	h := NewEnrollmentHandler(&fakeEnrollments{})
	c, rec := newContext(http.MethodPost, "/registrations", gin.H{"course_id": "cs101"}, nil)
	h.Register(c)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type fakeRequests struct {
	filter models.RequestFilter
}

func (f *fakeRequests) List(ctx context.Context, actor service.Actor, filter models.RequestFilter) ([]models.RequestDetail, *models.Pagination, error) {
	f.filter = filter
	return []models.RequestDetail{}, models.NewPagination(filter.Page, filter.PageSize, 0), nil
}

func (f *fakeRequests) ListMine(ctx context.Context, userID string, filter models.RequestFilter) ([]models.RequestDetail, *models.Pagination, error) {
	return f.List(ctx, service.Actor{}, filter)
}

func (f *fakeRequests) Submit(ctx context.Context, actor service.Actor, payload service.SubmitRequestPayload) (*models.Request, error) {
	return &models.Request{ID: "r1"}, nil
}

func (f *fakeRequests) Approve(ctx context.Context, actor service.Actor, id string) (*models.Request, error) {
	return nil, appErrors.ErrRequestDecided
}

func (f *fakeRequests) Reject(ctx context.Context, actor service.Actor, id string) (*models.Request, error) {
	return &models.Request{ID: id, Status: models.RequestStatusRejected}, nil
}

func TestRequestListStatusFilter(t *testing.T) {
	fake := &fakeRequests{}
	h := NewRequestHandler(fake)

	c, rec := newContext(http.MethodGet, "/requests?status=pending&page=2&limit=10", nil, &models.JWTClaims{UserID: "adv", Role: models.RoleAdvisor})
	h.List(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RequestStatusPending, fake.filter.Status)
	assert.Equal(t, 2, fake.filter.Page)

	c, rec = newContext(http.MethodGet, "/requests?status=bogus", nil, &models.JWTClaims{UserID: "adv", Role: models.RoleAdvisor})
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApproveDecidedConflict(t *testing.T) {
	h := NewRequestHandler(&fakeRequests{})
	c, rec := newContext(http.MethodPost, "/requests/r1/approve", nil, &models.JWTClaims{UserID: "adv", Role: models.RoleAdvisor})
	c.Params = gin.Params{{Key: "id", Value: "r1"}}
	h.Approve(c)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "REQUEST_DECIDED", decode(t, rec).Error.Code)
}

type fakeChatbot struct {
	reply *service.ChatbotReply
	err   error
}

func (f fakeChatbot) Reply(ctx context.Context, req service.ChatbotRequest) (*service.ChatbotReply, error) {
	return f.reply, f.err
}

type fakeChat struct {
	events chan models.ChatEvent
	closed bool
}

func (f *fakeChat) Send(ctx context.Context, actor service.Actor, req service.SendChatRequest) (*models.ChatMessage, error) {
	return &models.ChatMessage{ID: "m1", SenderID: actor.ID, ReceiverID: "adm", Message: req.Message}, nil
}

func (f *fakeChat) Conversation(ctx context.Context, actor service.Actor, peerID string) ([]models.ChatMessage, error) {
	return []models.ChatMessage{}, nil
}

func (f *fakeChat) Subscribe(ctx context.Context, userID string) (<-chan models.ChatEvent, func(), error) {
	return f.events, func() { f.closed = true }, nil
}

func TestChatbotReply(t *testing.T) {
	h := NewChatHandler(&fakeChat{}, fakeChatbot{reply: &service.ChatbotReply{Response: "Use the registration page."}})
	c, rec := newContext(http.MethodPost, "/chatbot", gin.H{"message": "how do I register?", "language": "en"}, nil)

	h.Chatbot(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var data service.ChatbotReply
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	assert.Equal(t, "Use the registration page.", data.Response)
}

func TestChatbotUpstreamFailure(t *testing.T) {
	failure := appErrors.Wrap(errors.New("429"), appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "Sorry, I could not process your request.")
	h := NewChatHandler(&fakeChat{}, fakeChatbot{err: failure})
	c, rec := newContext(http.MethodPost, "/chatbot", gin.H{"message": "hi"}, nil)

	h.Chatbot(c)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Sorry, I could not process your request.", decode(t, rec).Error.Message)
}

// closeNotifyingRecorder satisfies http.CloseNotifier, which gin's Stream requires.
type closeNotifyingRecorder struct {
	*httptest.ResponseRecorder
	closed chan bool
}

func (r *closeNotifyingRecorder) CloseNotify() <-chan bool {
	return r.closed
}

func TestChatStreamWritesEvents(t *testing.T) {
	events := make(chan models.ChatEvent, 1)
	events <- models.ChatEvent{Type: models.ChatEventInserted, Message: models.ChatMessage{ID: "m1", SenderID: "adm", ReceiverID: "stu", Message: "hello"}}
	close(events)
	fake := &fakeChat{events: events}
	h := NewChatHandler(fake, fakeChatbot{})
	h.heartbeat = time.Hour

	gin.SetMode(gin.TestMode)
	rec := &closeNotifyingRecorder{ResponseRecorder: httptest.NewRecorder(), closed: make(chan bool, 1)}
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/chat/stream", nil)
	c.Set(middleware.ContextUserKey, studentClaims)
	h.Stream(c)

	body := rec.Body.String()
	assert.Contains(t, body, "event:inserted")
	assert.Contains(t, body, `"message":"hello"`)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.True(t, fake.closed)
}

type fakeDashboards struct{ hit bool }

func (f fakeDashboards) Student(ctx context.Context, userID string) (*models.StudentDashboard, error) {
	return &models.StudentDashboard{EnrolledCourses: 4}, nil
}

func (f fakeDashboards) Admin(ctx context.Context) (*models.AdminDashboard, bool, error) {
	return &models.AdminDashboard{Students: 10}, f.hit, nil
}

func TestDashboardAdminCacheMeta(t *testing.T) {
	h := NewDashboardHandler(fakeDashboards{hit: true})
	c, rec := newContext(http.MethodGet, "/admin/dashboard", nil, &models.JWTClaims{UserID: "adm", Role: models.RoleAdmin})

	h.Admin(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec).Meta["cache_hit"])
}

type fakeExporter struct{}

func (fakeExporter) Transcript(ctx context.Context, userID string, format service.ExportFormat) (*service.ExportResult, error) {
	return &service.ExportResult{Filename: "transcript-" + userID + ".csv", ContentType: "text/csv", Body: []byte("Code,Course\n")}, nil
}

func TestExportTranscriptAttachment(t *testing.T) {
	h := NewAcademicHandler(nil, fakeExporter{}, nil)

	c, rec := newContext(http.MethodGet, "/students/me/transcript/export?format=csv", nil, studentClaims)
	h.ExportTranscript(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="transcript-stu.csv"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Code,Course"))

	c, rec = newContext(http.MethodGet, "/students/me/transcript/export?format=docx", nil, studentClaims)
	h.ExportTranscript(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReadyReportsDegraded(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]Pinger{
		"postgres": func(ctx context.Context) error { return nil },
		"redis":    func(ctx context.Context) error { return errors.New("connection refused") },
	})
	c, rec := newContext(http.MethodGet, "/ready", nil, nil)

	h.Ready(c)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"connection refused"`)
	assert.Contains(t, rec.Body.String(), `"postgres":"ok"`)
}

type fakeUsers struct {
	created service.CreateStaffRequest
}

func (f *fakeUsers) ListStaff(ctx context.Context, actor service.Actor) ([]models.User, error) {
	return []models.User{{ID: "adv", Role: models.RoleAdvisor}}, nil
}

func (f *fakeUsers) CreateStaff(ctx context.Context, actor service.Actor, req service.CreateStaffRequest) (*models.User, error) {
	f.created = req
	return &models.User{ID: "new", Email: req.Email, Role: req.Role}, nil
}

func TestCreateStaffCreated(t *testing.T) {
	users := &fakeUsers{}
	h := NewUserHandler(users)
	adminClaims := &models.JWTClaims{UserID: "adm", Role: models.RoleAdmin}
	c, rec := newContext(http.MethodPost, "/api/v1/users", map[string]string{
		"email": "advisor@uni.edu", "full_name": "Dr. Advisor", "role": "advisor", "password": "secret1",
	}, adminClaims)

	h.CreateStaff(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, models.RoleAdvisor, users.created.Role)
	assert.Equal(t, "advisor@uni.edu", users.created.Email)
}
