package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	pkgauth "github.com/inkingiwoods/sokohub-backend/pkg/auth"
	"github.com/inkingiwoods/sokohub-backend/pkg/config"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
	"github.com/inkingiwoods/sokohub-backend/pkg/logger"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret-test-secret-test-secret",
		Issuer:            "sokohub-test",
		ExpirationMinutes: 15,
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func mintToken(t *testing.T, userType enums.UserType, isStaff bool) (string, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	token, err := pkgauth.MintAccessToken(testJWTConfig(), time.Now(), pkgauth.AccessTokenPayload{
		UserID:   userID,
		Email:    "user@example.com",
		UserType: userType,
		IsStaff:  isStaff,
		JTI:      uuid.NewString(),
	})
	require.NoError(t, err)
	return token, userID
}

func identityEcho(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"user_id":   UserIDFromContext(r.Context()).String(),
			"user_type": string(UserTypeFromContext(r.Context())),
			"is_staff":  IsStaffFromContext(r.Context()),
		}
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	})
}

func TestAuth_seedsIdentityFromBearerToken(t *testing.T) {
	token, userID := mintToken(t, enums.UserTypeVendor, false)

	handler := Auth(testJWTConfig(), testLogger())(identityEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, userID.String(), body["user_id"])
	require.Equal(t, "vendor", body["user_type"])
	require.Equal(t, false, body["is_staff"])
}

func TestAuth_rejectsMissingAndMalformedCredentials(t *testing.T) {
	handler := Auth(testJWTConfig(), testLogger())(identityEcho(t))

	for _, header := range []string{"", "Bearer ", "Bearer not-a-token"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestAuth_rejectsTokenSignedWithOtherSecret(t *testing.T) {
	otherCfg := testJWTConfig()
	otherCfg.Secret = "another-secret-another-secret-12"
	token, err := pkgauth.MintAccessToken(otherCfg, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   uuid.New(),
		Email:    "user@example.com",
		UserType: enums.UserTypeCustomer,
		JTI:      uuid.NewString(),
	})
	require.NoError(t, err)

	handler := Auth(testJWTConfig(), testLogger())(identityEcho(t))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUserType(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireUserType(enums.UserTypeVendor, testLogger())(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), uuid.New(), enums.UserTypeVendor, false))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), uuid.New(), enums.UserTypeCustomer, false))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	// staff bypass the type check
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), uuid.New(), enums.UserTypeStaff, true))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireStaff(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireStaff(testLogger())(next)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), uuid.New(), enums.UserTypeCustomer, false))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), uuid.New(), enums.UserTypeStaff, true))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
