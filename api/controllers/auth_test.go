package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/inkingiwoods/sokohub-backend/api/middleware"
	"github.com/inkingiwoods/sokohub-backend/internal/users"
	"github.com/inkingiwoods/sokohub-backend/pkg/db/models"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
	pkgerrors "github.com/inkingiwoods/sokohub-backend/pkg/errors"
	"github.com/inkingiwoods/sokohub-backend/pkg/logger"
)

type stubUserService struct {
	loginResult *users.LoginResult
	loginErr    error
	profile     *models.User
	profileErr  error

	lastLogin users.LoginInput
}

func (s *stubUserService) Login(_ context.Context, input users.LoginInput) (*users.LoginResult, error) {
	s.lastLogin = input
	if s.loginErr != nil {
		return nil, s.loginErr
	}
	return s.loginResult, nil
}

func (s *stubUserService) Profile(context.Context, uuid.UUID) (*models.User, error) {
	if s.profileErr != nil {
		return nil, s.profileErr
	}
	return s.profile, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestAuthLogin_returnsTokenAndUser(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "aline", Email: "aline@example.com", UserType: enums.UserTypeCustomer}
	svc := &stubUserService{loginResult: &users.LoginResult{Token: "jwt-token", User: user}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"aline","password":"pw"}`))
	rec := httptest.NewRecorder()
	AuthLogin(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "aline", svc.lastLogin.Username)

	var body struct {
		Data loginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "jwt-token", body.Data.Token)
	require.Equal(t, user.ID, body.Data.User.ID)
	require.Equal(t, "customer", body.Data.User.UserType)
}

func TestAuthLogin_rejectsMissingFields(t *testing.T) {
	svc := &stubUserService{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"aline"}`))
	rec := httptest.NewRecorder()
	AuthLogin(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Empty(t, svc.lastLogin.Username, "service must not be called on validation failure")
}

func TestAuthLogin_mapsUnauthorized(t *testing.T) {
	svc := &stubUserService{loginErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"aline","password":"bad"}`))
	rec := httptest.NewRecorder()
	AuthLogin(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, string(pkgerrors.CodeUnauthorized), body.Error.Code)
	require.Equal(t, "invalid credentials", body.Error.Message)
}

func TestAuthProfile_requiresIdentity(t *testing.T) {
	svc := &stubUserService{profile: &models.User{ID: uuid.New()}}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	rec := httptest.NewRecorder()
	AuthProfile(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthProfile_returnsAccount(t *testing.T) {
	user := &models.User{ID: uuid.New(), Username: "vendor1", UserType: enums.UserTypeVendor}
	svc := &stubUserService{profile: user}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), user.ID, enums.UserTypeVendor, false))
	rec := httptest.NewRecorder()
	AuthProfile(svc, testLogger())(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data userResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, user.ID, body.Data.ID)
	require.Equal(t, "vendor", body.Data.UserType)
}
