package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type contextKey string

const (
	ClaimsContextKey contextKey = "workspace"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// WorkspaceAuth middleware validates the workspace token
func WorkspaceAuth(tokens *Tokens, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString, err := ExtractToken(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Message: err.Error()})
			return
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{Message: err.Error()})
			return
		}

		next(w, r.WithContext(WithClaims(r.Context(), claims)), ps)
	}
}

// OptionalWorkspace attaches claims when a valid token is present and
// passes the request through untouched otherwise
func OptionalWorkspace(tokens *Tokens, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if tokenString, err := ExtractToken(r); err == nil {
			if claims, err := tokens.ValidateToken(tokenString); err == nil {
				r = r.WithContext(WithClaims(r.Context(), claims))
			}
		}
		next(w, r, ps)
	}
}

// WithClaims stores claims in ctx
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// GetClaimsFromContext gets workspace claims from context
func GetClaimsFromContext(ctx context.Context) *Claims {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}
