package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dimitrije/taskhub-api/internal/config"
	"github.com/dimitrije/taskhub-api/internal/middleware"
	"github.com/dimitrije/taskhub-api/internal/models"
	"github.com/dimitrije/taskhub-api/internal/services"
	"github.com/dimitrije/taskhub-api/pkg/dto"
	"github.com/dimitrije/taskhub-api/tests/testutil"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestJWTService() *services.JWTService {
	return services.NewJWTService("test-secret-key", 168*time.Hour)
}

func generateTestToken(t *testing.T, jwtSvc *services.JWTService, userID uuid.UUID, email, role string) string {
	t.Helper()
	token, err := jwtSvc.Generate(userID, email, role)
	require.NoError(t, err)
	return token
}

func testConfig() *config.Config {
	return &config.Config{
		AdminSecretKey: "test-admin-secret",
		FrontendURL:    "http://localhost:3000",
	}
}

func newUserApp(t *testing.T, mockUserService *testutil.MockUserService) (http.Handler, *services.JWTService) {
	t.Helper()
	handler := NewUserHandler(testConfig(), mockUserService)
	jwtSvc := newTestJWTService()

	app := drift.New()
	app.Use(driftmw.BodyParser())

	app.Post("/users/promote-admin", handler.PromoteAdmin)

	protected := app.Group("")
	protected.Use(middleware.Auth(jwtSvc))
	protected.Get("/users/me", handler.GetMe)
	protected.Patch("/users/me", handler.UpdateMe)

	admin := app.Group("/users")
	admin.Use(middleware.Auth(jwtSvc))
	admin.Use(middleware.RequireAdmin())
	admin.Get("", handler.List)
	admin.Post("", handler.Create)
	admin.Patch("/:id/role", handler.UpdateRole)
	admin.Delete("/:id", handler.Delete)

	return app, jwtSvc
}

func testUser(role string) *models.User {
	now := time.Now()
	name := "Test User"
	return &models.User{
		ID:        uuid.New(),
		Email:     "test@example.com",
		Name:      &name,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestUserHandler_List_Admin(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, jwtSvc := newUserApp(t, mockUserService)

	user := testUser(models.RoleUser)
	users := []models.UserWithCounts{{User: *user, TaskCount: 2, AssignedCount: 1}}

	mockUserService.On("List", mock.Anything).Return(users, nil)

	token := generateTestToken(t, jwtSvc, uuid.New(), "admin@example.com", models.RoleAdmin)
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response []dto.UserWithCountsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, 2, response[0].TaskCount)
	assert.Equal(t, 1, response[0].AssignedCount)

	mockUserService.AssertExpectations(t)
}

func TestUserHandler_List_UserForbidden(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, jwtSvc := newUserApp(t, mockUserService)

	token := generateTestToken(t, jwtSvc, uuid.New(), "user@example.com", models.RoleUser)
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	mockUserService.AssertNotCalled(t, "List")
}

func TestUserHandler_Create_Success(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, jwtSvc := newUserApp(t, mockUserService)

	created := testUser(models.RoleUser)

	mockUserService.On("Create", mock.Anything, created.Email, "password123", (*string)(nil), models.RoleUser).
		Return(created, nil)

	token := generateTestToken(t, jwtSvc, uuid.New(), "admin@example.com", models.RoleAdmin)
	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/users", dto.CreateUserRequest{
		Email:    created.Email,
		Password: "password123",
	}, map[string]string{"Authorization": testutil.AuthHeader(token)})

	assert.Equal(t, http.StatusCreated, rec.Code)
	mockUserService.AssertExpectations(t)
}

func TestUserHandler_Create_DuplicateEmail(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, jwtSvc := newUserApp(t, mockUserService)

	mockUserService.On("Create", mock.Anything, "dup@example.com", "password123", (*string)(nil), models.RoleUser).
		Return(nil, services.ErrEmailTaken)

	token := generateTestToken(t, jwtSvc, uuid.New(), "admin@example.com", models.RoleAdmin)
	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/users", dto.CreateUserRequest{
		Email:    "dup@example.com",
		Password: "password123",
	}, map[string]string{"Authorization": testutil.AuthHeader(token)})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "user already exists")
	mockUserService.AssertExpectations(t)
}

func TestUserHandler_Create_InvalidRole(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, jwtSvc := newUserApp(t, mockUserService)

	token := generateTestToken(t, jwtSvc, uuid.New(), "admin@example.com", models.RoleAdmin)
	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/users", dto.CreateUserRequest{
		Email:    "new@example.com",
		Password: "password123",
		Role:     "SUPERUSER",
	}, map[string]string{"Authorization": testutil.AuthHeader(token)})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid role")
	mockUserService.AssertNotCalled(t, "Create")
}

func TestUserHandler_UpdateRole_Success(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, jwtSvc := newUserApp(t, mockUserService)

	target := testUser(models.RoleAdmin)

	mockUserService.On("UpdateRole", mock.Anything, target.ID, models.RoleAdmin).
		Return(target, nil)

	token := generateTestToken(t, jwtSvc, uuid.New(), "admin@example.com", models.RoleAdmin)
	client := testutil.NewHTTPTestClient(t, app)
	rec := client.PATCH("/users/"+target.ID.String()+"/role", dto.UpdateRoleRequest{Role: models.RoleAdmin},
		map[string]string{"Authorization": testutil.AuthHeader(token)})

	assert.Equal(t, http.StatusOK, rec.Code)
	mockUserService.AssertExpectations(t)
}

func TestUserHandler_UpdateRole_Self(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, jwtSvc := newUserApp(t, mockUserService)

	adminID := uuid.New()

	token := generateTestToken(t, jwtSvc, adminID, "admin@example.com", models.RoleAdmin)
	client := testutil.NewHTTPTestClient(t, app)
	rec := client.PATCH("/users/"+adminID.String()+"/role", dto.UpdateRoleRequest{Role: models.RoleUser},
		map[string]string{"Authorization": testutil.AuthHeader(token)})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot change your own role")
	mockUserService.AssertNotCalled(t, "UpdateRole")
}

func TestUserHandler_UpdateRole_NotFound(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, jwtSvc := newUserApp(t, mockUserService)

	targetID := uuid.New()

	mockUserService.On("UpdateRole", mock.Anything, targetID, models.RoleAdmin).
		Return(nil, services.ErrUserNotFound)

	token := generateTestToken(t, jwtSvc, uuid.New(), "admin@example.com", models.RoleAdmin)
	client := testutil.NewHTTPTestClient(t, app)
	rec := client.PATCH("/users/"+targetID.String()+"/role", dto.UpdateRoleRequest{Role: models.RoleAdmin},
		map[string]string{"Authorization": testutil.AuthHeader(token)})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	mockUserService.AssertExpectations(t)
}

func TestUserHandler_Delete_Success(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, jwtSvc := newUserApp(t, mockUserService)

	targetID := uuid.New()

	mockUserService.On("Delete", mock.Anything, targetID).Return(nil)

	token := generateTestToken(t, jwtSvc, uuid.New(), "admin@example.com", models.RoleAdmin)
	req := httptest.NewRequest(http.MethodDelete, "/users/"+targetID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	mockUserService.AssertExpectations(t)
}

func TestUserHandler_Delete_Self(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, jwtSvc := newUserApp(t, mockUserService)

	adminID := uuid.New()

	token := generateTestToken(t, jwtSvc, adminID, "admin@example.com", models.RoleAdmin)
	req := httptest.NewRequest(http.MethodDelete, "/users/"+adminID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot delete your own account")
	mockUserService.AssertNotCalled(t, "Delete")
}

func TestUserHandler_PromoteAdmin_Success(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, _ := newUserApp(t, mockUserService)

	promoted := testUser(models.RoleAdmin)

	mockUserService.On("PromoteToAdmin", mock.Anything, promoted.Email).
		Return(promoted, false, nil)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/users/promote-admin", dto.PromoteAdminRequest{Email: promoted.Email}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.PromoteAdminResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "User promoted to admin successfully", response.Message)
	assert.Equal(t, models.RoleAdmin, response.User.Role)

	mockUserService.AssertExpectations(t)
}

func TestUserHandler_PromoteAdmin_AlreadyAdmin(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, _ := newUserApp(t, mockUserService)

	admin := testUser(models.RoleAdmin)

	mockUserService.On("PromoteToAdmin", mock.Anything, admin.Email).
		Return(admin, true, nil)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/users/promote-admin", dto.PromoteAdminRequest{Email: admin.Email}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.PromoteAdminResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "User is already an admin", response.Message)

	mockUserService.AssertExpectations(t)
}

func TestUserHandler_PromoteAdmin_WrongSecret(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, _ := newUserApp(t, mockUserService)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/users/promote-admin", dto.PromoteAdminRequest{
		Email:     "user@example.com",
		SecretKey: "wrong-secret",
	}, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	mockUserService.AssertNotCalled(t, "PromoteToAdmin")
}

func TestUserHandler_PromoteAdmin_CorrectSecret(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, _ := newUserApp(t, mockUserService)

	promoted := testUser(models.RoleAdmin)

	mockUserService.On("PromoteToAdmin", mock.Anything, promoted.Email).
		Return(promoted, false, nil)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/users/promote-admin", dto.PromoteAdminRequest{
		Email:     promoted.Email,
		SecretKey: "test-admin-secret",
	}, nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	mockUserService.AssertExpectations(t)
}

func TestUserHandler_PromoteAdmin_MissingEmail(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, _ := newUserApp(t, mockUserService)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/users/promote-admin", dto.PromoteAdminRequest{}, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email is required")
}

func TestUserHandler_PromoteAdmin_UserNotFound(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, _ := newUserApp(t, mockUserService)

	mockUserService.On("PromoteToAdmin", mock.Anything, "ghost@example.com").
		Return(nil, false, services.ErrUserNotFound)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/users/promote-admin", dto.PromoteAdminRequest{Email: "ghost@example.com"}, nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	mockUserService.AssertExpectations(t)
}

func TestUserHandler_GetMe_Success(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, jwtSvc := newUserApp(t, mockUserService)

	user := testUser(models.RoleUser)

	mockUserService.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	token := generateTestToken(t, jwtSvc, user.ID, user.Email, user.Role)
	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response dto.UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, user.ID, response.ID)
	assert.Equal(t, user.Email, response.Email)

	mockUserService.AssertExpectations(t)
}

func TestUserHandler_GetMe_NotAuthenticated(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, _ := newUserApp(t, mockUserService)

	req := httptest.NewRequest(http.MethodGet, "/users/me", nil)
	rec := httptest.NewRecorder()

	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserHandler_UpdateMe_Success(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, jwtSvc := newUserApp(t, mockUserService)

	user := testUser(models.RoleUser)
	newName := "Renamed"

	mockUserService.On("UpdateProfile", mock.Anything, user.ID, &newName, (*string)(nil)).
		Return(user, nil)

	token := generateTestToken(t, jwtSvc, user.ID, user.Email, user.Role)
	client := testutil.NewHTTPTestClient(t, app)
	rec := client.PATCH("/users/me", dto.UpdateProfileRequest{Name: &newName},
		map[string]string{"Authorization": testutil.AuthHeader(token)})

	assert.Equal(t, http.StatusOK, rec.Code)
	mockUserService.AssertExpectations(t)
}

func TestUserHandler_UpdateMe_NothingToUpdate(t *testing.T) {
	mockUserService := new(testutil.MockUserService)
	app, jwtSvc := newUserApp(t, mockUserService)

	user := testUser(models.RoleUser)

	token := generateTestToken(t, jwtSvc, user.ID, user.Email, user.Role)
	client := testutil.NewHTTPTestClient(t, app)
	rec := client.PATCH("/users/me", dto.UpdateProfileRequest{},
		map[string]string{"Authorization": testutil.AuthHeader(token)})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "nothing to update")
	mockUserService.AssertNotCalled(t, "UpdateProfile")
}
