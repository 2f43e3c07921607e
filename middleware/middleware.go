package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/SainiAdi-04/Task-Manager/logging"
	"github.com/SainiAdi-04/Task-Manager/models"
	"github.com/SainiAdi-04/Task-Manager/repositories"
	"github.com/SainiAdi-04/Task-Manager/services"
	"github.com/SainiAdi-04/Task-Manager/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const userKey contextKey = "user"

// WithUser stores the authenticated user on ctx.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user set by Protect, or nil.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

type Authenticator struct {
	tokens *services.JWTService
	users  repositories.UserRepository
}

func NewAuthenticator(tokens *services.JWTService, users repositories.UserRepository) *Authenticator {
	return &Authenticator{tokens: tokens, users: users}
}

// Protect requires a valid bearer token for an existing user and puts that user
// on the request context.
func (a *Authenticator) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			logging.Logger.Warnf("Event ID: AUTH_MISSING_TOKEN, Description: No bearer token for request to %s %s", r.Method, r.URL.Path)
			utils.RespondWithError(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := a.tokens.ParseAuthToken(tokenStr)
		if err != nil {
			logging.Logger.Warnf("Event ID: AUTH_INVALID_TOKEN, Description: Invalid token for request to %s %s: %v", r.Method, r.URL.Path, err)
			utils.RespondWithError(w, http.StatusUnauthorized, "Token failed")
			return
		}

		id, err := primitive.ObjectIDFromHex(claims.ID)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Token failed")
			return
		}

		user, err := a.users.FindByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				logging.Logger.Warnf("Event ID: AUTH_UNKNOWN_USER, Description: Token references missing user %s", claims.ID)
				utils.RespondWithError(w, http.StatusUnauthorized, "User not found")
				return
			}
			utils.RespondWithServiceError(w, err)
			return
		}

		logging.Logger.Debugf("Event ID: AUTH_SUCCESS, Description: User %s authenticated for %s %s", claims.ID, r.Method, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

// AdminsOnly must run after Protect.
func AdminsOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := services.RequireAdmin(UserFromContext(r.Context())); err != nil {
			logging.Logger.Warnf("Event ID: ADMIN_REQUIRED, Description: Non-admin request to %s %s", r.Method, r.URL.Path)
			utils.RespondWithServiceError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}
