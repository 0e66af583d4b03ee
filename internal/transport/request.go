package transport

import (
	"errors"
	"net/http"

	"storefront/internal/middleware"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// decodeRequest decodes and validates the JSON body into v. On failure it
// writes the 400 response and returns false.
func decodeRequest(w http.ResponseWriter, r *http.Request, v interface{}, logger *zap.Logger) bool {
	err := middleware.DecodeAndValidate(r, v)
	if err == nil {
		return true
	}

	logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))

	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return false
	}
	if errors.Is(err, middleware.ErrMalformedBody) {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	middleware.RespondWithError(w, http.StatusBadRequest, "invalid request")
	return false
}

// callerID returns the authenticated user's id placed in the context by the
// auth middleware
func callerID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		logger.Error("User ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		logger.Debug("Token carries a malformed user ID", zap.String("user_id", userIDStr))
		middleware.RespondWithError(w, http.StatusForbidden, "invalid token")
		return uuid.Nil, false
	}

	return userID, true
}
