package middleware

import (
	"net/http"

	"github.com/inkingiwoods/sokohub-backend/api/responses"
	"github.com/inkingiwoods/sokohub-backend/pkg/enums"
	pkgerrors "github.com/inkingiwoods/sokohub-backend/pkg/errors"
	"github.com/inkingiwoods/sokohub-backend/pkg/logger"
)

// RequireUserType rejects requests unless the authenticated account has
// the given user type. Staff accounts pass regardless of type.
func RequireUserType(userType enums.UserType, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if IsStaffFromContext(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			if UserTypeFromContext(r.Context()) != userType {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, string(userType)+" account required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireStaff rejects requests from non-staff accounts.
func RequireStaff(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsStaffFromContext(r.Context()) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "staff account required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
