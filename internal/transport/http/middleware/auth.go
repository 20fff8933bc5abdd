package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"inkwell/internal/httputil"
	"inkwell/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const (
	// ViewerKey is the context key for the authenticated model.Viewer
	ViewerKey contextKey = "viewer"
)

// errNoToken means the request carried no credentials at all.
var errNoToken = errors.New("missing token")

// AuthMiddleware rejects requests without a valid access token and puts the
// verified viewer in the request context.
// Checks the Authorization header first, then falls back to the cookie.
func AuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, err := viewerFromRequest(r, jwtSecret)
			if err != nil {
				writeAuthError(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), ViewerKey, viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuthMiddleware attaches the viewer when a valid token is present and
// otherwise lets the request through anonymously.
func OptionalAuthMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, err := viewerFromRequest(r, jwtSecret)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ViewerKey, viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after AuthMiddleware. Authenticated non-admins get 403.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, ok := GetViewerFromContext(r.Context())
		if !ok {
			httputil.WriteUnauthorized(w, "Missing authentication token")
			return
		}
		if !viewer.IsAdmin() {
			httputil.WriteForbidden(w, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetViewerFromContext extracts the verified viewer from the request context.
// Returns false for anonymous requests.
func GetViewerFromContext(ctx context.Context) (model.Viewer, bool) {
	viewer, ok := ctx.Value(ViewerKey).(model.Viewer)
	return viewer, ok
}

// GetUserIDFromContext extracts the user ID from the request context
// Returns the user ID and true if found, or 0 and false if not found
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	viewer, ok := GetViewerFromContext(ctx)
	return viewer.UserID, ok
}

// WithViewer returns a copy of ctx carrying viewer.
func WithViewer(ctx context.Context, viewer model.Viewer) context.Context {
	return context.WithValue(ctx, ViewerKey, viewer)
}

func tokenFromRequest(r *http.Request) string {
	// 1. Authorization header
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		// Expected format: "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	// 2. Fall back to cookie (web browsers)
	if cookie, err := r.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}

func viewerFromRequest(r *http.Request, jwtSecret string) (model.Viewer, error) {
	tokenString := tokenFromRequest(r)
	if tokenString == "" {
		return model.Viewer{}, errNoToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return model.Viewer{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return model.Viewer{}, jwt.ErrTokenInvalidClaims
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return model.Viewer{}, jwt.ErrTokenInvalidClaims
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = model.RoleUser
	}

	return model.Viewer{UserID: int64(userIDFloat), Role: role}, nil
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNoToken):
		httputil.WriteUnauthorized(w, "Missing authentication token")
	case errors.Is(err, jwt.ErrTokenExpired):
		httputil.WriteUnauthorizedWithCode(w, model.CodeTokenExpired, "Access token has expired")
	case errors.Is(err, jwt.ErrTokenInvalidClaims):
		httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid token claims")
	default:
		httputil.WriteUnauthorizedWithCode(w, model.CodeTokenInvalid, "Invalid authentication token")
	}
}
