package middleware

import (
	"net/http"
	"slices"
	"strings"
)

const (
	corsAllowMethods  = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders  = "Content-Type, Authorization"
	corsExposeHeaders = "Content-Disposition, Retry-After"
)

// CORSMiddleware answers preflight requests and sets CORS headers for the
// configured origins. The calendar widget and the .ics download both run in
// the browser, so Content-Disposition has to be exposed.
type CORSMiddleware struct {
	origins  []string
	allowAll bool
}

// NewCORSMiddleware allows the given origins. An empty list or "*" allows any origin.
func NewCORSMiddleware(origins []string) *CORSMiddleware {
	return &CORSMiddleware{
		origins:  origins,
		allowAll: len(origins) == 0 || slices.Contains(origins, "*"),
	}
}

func (m *CORSMiddleware) allowedOrigin(origin string) (string, bool) {
	if m.allowAll {
		return "*", true
	}
	if origin != "" && slices.ContainsFunc(m.origins, func(o string) bool { return strings.EqualFold(o, origin) }) {
		return origin, true
	}
	return "", false
}

func (m *CORSMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if origin, ok := m.allowedOrigin(req.Header.Get("Origin")); ok {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", corsAllowMethods)
			h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
			h.Set("Access-Control-Expose-Headers", corsExposeHeaders)
		}

		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, req)
	})
}
