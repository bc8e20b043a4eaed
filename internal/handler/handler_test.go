package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"qadamsafe/internal/ai"
	"qadamsafe/internal/models"
	"qadamsafe/internal/player"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, email, password, name, language string) (*models.User, *models.TokenDetails, error) {
	args := m.Called(ctx, email, password, name, language)
	u, _ := args.Get(0).(*models.User)
	td, _ := args.Get(1).(*models.TokenDetails)
	return u, td, args.Error(2)
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*models.User, *models.TokenDetails, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(0).(*models.User)
	td, _ := args.Get(1).(*models.TokenDetails)
	return u, td, args.Error(2)
}

func (m *mockAuthService) Logout(ctx context.Context, claims *models.Claims, refreshToken string) error {
	return m.Called(ctx, claims, refreshToken).Error(0)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error) {
	args := m.Called(ctx, refreshToken)
	td, _ := args.Get(0).(*models.TokenDetails)
	return td, args.Error(1)
}

func (m *mockAuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	args := m.Called(ctx, tokenString)
	c, _ := args.Get(0).(*models.Claims)
	return c, args.Error(1)
}

func (m *mockAuthService) GetMe(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAuthService) UpdateLanguage(ctx context.Context, userID uuid.UUID, language string) (*models.User, error) {
	args := m.Called(ctx, userID, language)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockAuthService) MarkWelcomeSeen(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

type mockScenarioService struct{ mock.Mock }

func (m *mockScenarioService) ListScenarios(ctx context.Context, userID uuid.UUID) ([]*models.ScenarioWithStatus, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).([]*models.ScenarioWithStatus)
	return s, args.Error(1)
}

func (m *mockScenarioService) GetScenario(ctx context.Context, userID, scenarioID uuid.UUID) (*models.ScenarioWithStatus, error) {
	args := m.Called(ctx, userID, scenarioID)
	s, _ := args.Get(0).(*models.ScenarioWithStatus)
	return s, args.Error(1)
}

func (m *mockScenarioService) CreateScenario(ctx context.Context, authorID uuid.UUID, scenario *models.Scenario) (*models.Scenario, error) {
	args := m.Called(ctx, authorID, scenario)
	s, _ := args.Get(0).(*models.Scenario)
	return s, args.Error(1)
}

func (m *mockScenarioService) DeleteScenario(ctx context.Context, scenarioID uuid.UUID) error {
	return m.Called(ctx, scenarioID).Error(0)
}

type mockProgressService struct{ mock.Mock }

func (m *mockProgressService) CompleteScenario(ctx context.Context, userID, scenarioID uuid.UUID, choices []player.Choice) (*models.CompletionResult, error) {
	args := m.Called(ctx, userID, scenarioID, choices)
	r, _ := args.Get(0).(*models.CompletionResult)
	return r, args.Error(1)
}

func (m *mockProgressService) RecordRun(ctx context.Context, userID uuid.UUID, scenario *models.Scenario, res *player.Result) (*models.CompletionResult, error) {
	args := m.Called(ctx, userID, scenario, res)
	r, _ := args.Get(0).(*models.CompletionResult)
	return r, args.Error(1)
}

func (m *mockProgressService) GetProgress(ctx context.Context, userID uuid.UUID) ([]*models.UserProgress, error) {
	args := m.Called(ctx, userID)
	p, _ := args.Get(0).([]*models.UserProgress)
	return p, args.Error(1)
}

func (m *mockProgressService) GetScenarioProgress(ctx context.Context, userID, scenarioID uuid.UUID) (*models.UserProgress, error) {
	args := m.Called(ctx, userID, scenarioID)
	p, _ := args.Get(0).(*models.UserProgress)
	return p, args.Error(1)
}

func (m *mockProgressService) GetStats(ctx context.Context, userID uuid.UUID) (*models.UserStats, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*models.UserStats)
	return s, args.Error(1)
}

type mockClassroomService struct{ mock.Mock }

func (m *mockClassroomService) CreateClassroom(ctx context.Context, ownerID uuid.UUID, role, name string) (*models.Classroom, error) {
	args := m.Called(ctx, ownerID, role, name)
	c, _ := args.Get(0).(*models.Classroom)
	return c, args.Error(1)
}

func (m *mockClassroomService) JoinClassroom(ctx context.Context, userID uuid.UUID, code string) (*models.Classroom, error) {
	args := m.Called(ctx, userID, code)
	c, _ := args.Get(0).(*models.Classroom)
	return c, args.Error(1)
}

func (m *mockClassroomService) ListClassrooms(ctx context.Context, userID uuid.UUID) ([]*models.Classroom, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).([]*models.Classroom)
	return c, args.Error(1)
}

func (m *mockClassroomService) ListStudents(ctx context.Context, requesterID uuid.UUID, role string, classroomID uuid.UUID) ([]*models.ClassroomStudent, error) {
	args := m.Called(ctx, requesterID, role, classroomID)
	s, _ := args.Get(0).([]*models.ClassroomStudent)
	return s, args.Error(1)
}

type mockGeneratorService struct{ mock.Mock }

func (m *mockGeneratorService) GenerateScenario(ctx context.Context, authorID uuid.UUID, role string, req ai.ScenarioRequest) (*models.Scenario, error) {
	args := m.Called(ctx, authorID, role, req)
	s, _ := args.Get(0).(*models.Scenario)
	return s, args.Error(1)
}

type testAPI struct {
	router     *gin.Engine
	auth       *mockAuthService
	scenarios  *mockScenarioService
	progress   *mockProgressService
	classrooms *mockClassroomService
	generator  *mockGeneratorService
}

func newTestAPI() *testAPI {
	gin.SetMode(gin.TestMode)
	api := &testAPI{
		router:     gin.New(),
		auth:       new(mockAuthService),
		scenarios:  new(mockScenarioService),
		progress:   new(mockProgressService),
		classrooms: new(mockClassroomService),
		generator:  new(mockGeneratorService),
	}
	h := NewHandler(Services{
		Auth:       api.auth,
		Scenarios:  api.scenarios,
		Progress:   api.progress,
		Classrooms: api.classrooms,
		Generator:  api.generator,
	}, zap.NewNop())
	h.RegisterRoutes(api.router, nil)
	return api
}

// withUser регистрирует токен с заданной ролью.
func (a *testAPI) withUser(token, role string) *models.Claims {
	claims := &models.Claims{UserID: uuid.New(), Role: role}
	a.auth.On("VerifyAccessToken", mock.Anything, token).Return(claims, nil)
	return claims
}

func (a *testAPI) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp.Code
}

func TestHealth(t *testing.T) {
	w := newTestAPI().do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware(t *testing.T) {
	api := newTestAPI()

	w := api.do(http.MethodGet, "/api/scenarios", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, models.ErrCodeTokenInvalid, errorCode(t, w))

	api.auth.On("VerifyAccessToken", mock.Anything, "old").Return(nil, models.ErrTokenExpired)
	w = api.do(http.MethodGet, "/api/scenarios", "old", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, models.ErrCodeTokenExpired, errorCode(t, w))
}

func TestRegister(t *testing.T) {
	api := newTestAPI()
	user := &models.User{ID: uuid.New(), Email: "a@b.kz", Name: "Aibek"}
	api.auth.On("Register", mock.Anything, "a@b.kz", "secret123", "Aibek", "kk").
		Return(user, &models.TokenDetails{AccessToken: "at", RefreshToken: "rt"}, nil)

	w := api.do(http.MethodPost, "/api/auth/register", "", gin.H{
		"email": "a@b.kz", "password": "secret123", "name": "Aibek", "language": "kk",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp authResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "at", resp.Tokens.AccessToken)
	assert.Equal(t, user.ID, resp.User.ID)

	w = api.do(http.MethodPost, "/api/auth/register", "", gin.H{"email": "not-an-email", "password": "x", "name": "y"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	api.auth.On("Login", mock.Anything, "a@b.kz", "wrong").Return(nil, nil, models.ErrInvalidCredentials)
	w = api.do(http.MethodPost, "/api/auth/login", "", gin.H{"email": "a@b.kz", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, models.ErrCodeWrongCredentials, errorCode(t, w))
}

func TestGetScenarioErrors(t *testing.T) {
	api := newTestAPI()
	claims := api.withUser("tok", models.RoleUser)
	locked, premium := uuid.New(), uuid.New()
	api.scenarios.On("GetScenario", mock.Anything, claims.UserID, locked).Return(nil, models.ErrScenarioLocked)
	api.scenarios.On("GetScenario", mock.Anything, claims.UserID, premium).Return(nil, models.ErrSubscriptionRequired)

	w := api.do(http.MethodGet, "/api/scenarios/"+locked.String(), "tok", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, models.ErrCodeScenarioLocked, errorCode(t, w))

	w = api.do(http.MethodGet, "/api/scenarios/"+premium.String(), "tok", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, models.ErrCodeSubscriptionRequired, errorCode(t, w))

	w = api.do(http.MethodGet, "/api/scenarios/not-a-uuid", "tok", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCompleteScenario(t *testing.T) {
	api := newTestAPI()
	claims := api.withUser("tok", models.RoleUser)
	id := uuid.New()
	choices := []player.Choice{{StepID: "q1", OptionID: "a"}}

	api.progress.On("CompleteScenario", mock.Anything, claims.UserID, id, mock.MatchedBy(func(c []player.Choice) bool {
		return len(c) == 1 && c[0].StepID == "q1"
	})).Return(&models.CompletionResult{Score: 10, SecurityScoreGained: 10}, nil).Once()

	w := api.do(http.MethodPost, "/api/scenarios/"+id.String()+"/complete", "tok", gin.H{"decisions": choices})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var res models.CompletionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 10, res.Score)

	api.progress.On("CompleteScenario", mock.Anything, claims.UserID, id, mock.Anything).
		Return(nil, fmt.Errorf("%w: %w", models.ErrInvalidDecisions, player.ErrStepMismatch)).Once()
	w = api.do(http.MethodPost, "/api/scenarios/"+id.String()+"/complete", "tok", gin.H{"decisions": choices})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.ErrCodeInvalidDecisions, errorCode(t, w))

	w = api.do(http.MethodPost, "/api/scenarios/"+id.String()+"/complete", "tok", gin.H{"decisions": []gin.H{{"stepId": "q1"}}})
	assert.Equal(t, http.StatusBadRequest, w.Code, "optionId is required")
}

func TestRoleGuards(t *testing.T) {
	api := newTestAPI()
	api.withUser("student", models.RoleUser)
	teacher := api.withUser("teacher", models.RoleTeacher)

	w := api.do(http.MethodPost, "/api/scenarios", "student", gin.H{"title": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = api.do(http.MethodPost, "/api/scenarios", "teacher", gin.H{"title": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code, "only admins manage the catalog")

	w = api.do(http.MethodPost, "/api/classrooms", "student", gin.H{"name": "8A"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	api.classrooms.On("CreateClassroom", mock.Anything, teacher.UserID, models.RoleTeacher, "8A").
		Return(&models.Classroom{ID: uuid.New(), Name: "8A", Code: "ABC123"}, nil)
	w = api.do(http.MethodPost, "/api/classrooms", "teacher", gin.H{"name": "8A"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestJoinClassroomConflict(t *testing.T) {
	api := newTestAPI()
	claims := api.withUser("tok", models.RoleUser)
	api.classrooms.On("JoinClassroom", mock.Anything, claims.UserID, "abc123").Return(nil, models.ErrAlreadyJoined)

	w := api.do(http.MethodPost, "/api/classrooms/join", "tok", gin.H{"code": "abc123"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, models.ErrCodeAlreadyJoined, errorCode(t, w))
}

func TestGenerateScenarioErrors(t *testing.T) {
	api := newTestAPI()
	claims := api.withUser("tok", models.RoleAdmin)
	req := ai.ScenarioRequest{Type: models.ScenarioPhoneScam, Language: "ru"}

	// невалидный сценарий от модели - это ошибка провайдера, а не клиента
	api.generator.On("GenerateScenario", mock.Anything, claims.UserID, models.RoleAdmin, req).
		Return(nil, fmt.Errorf("%w: %w", models.ErrAIGenerationFailed, models.ErrInvalidScenario)).Once()
	w := api.do(http.MethodPost, "/api/ai/scenarios", "tok", gin.H{"type": "PHONE_SCAM", "language": "ru"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, models.ErrCodeAIUnavailable, errorCode(t, w))

	api.generator.On("GenerateScenario", mock.Anything, claims.UserID, models.RoleAdmin, req).
		Return(nil, models.ErrAIDisabled).Once()
	w = api.do(http.MethodPost, "/api/ai/scenarios", "tok", gin.H{"type": "PHONE_SCAM", "language": "ru"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestScenarioProgressNull(t *testing.T) {
	api := newTestAPI()
	claims := api.withUser("tok", models.RoleUser)
	id := uuid.New()
	api.progress.On("GetScenarioProgress", mock.Anything, claims.UserID, id).Return(nil, nil)

	w := api.do(http.MethodGet, "/api/progress/scenario/"+id.String(), "tok", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", w.Body.String())
}
