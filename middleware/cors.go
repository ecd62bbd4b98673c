package middleware

import (
	"net/http"
	"strings"
)

// CORS allows credentialed requests from the dashboard and local
// development origins
func CORS(dashboardURL string, next http.Handler) http.Handler {
	allowed := strings.TrimRight(dashboardURL, "/")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		if isOriginAllowed(origin, allowed) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}

		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Requested-With")
		w.Header().Set("Access-Control-Max-Age", "86400")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isOriginAllowed(origin, dashboardURL string) bool {
	if origin == "" {
		return false
	}
	if dashboardURL != "" && origin == dashboardURL {
		return true
	}
	// any port on localhost for development
	return origin == "http://localhost" || strings.HasPrefix(origin, "http://localhost:")
}
