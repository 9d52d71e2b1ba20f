package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// Landing page, static assets and operational endpoints stay open so the UI
// can load and health checks work without a key.
var openPaths = map[string]bool{"/": true, "/health": true, "/metrics": true}

const staticPrefix = "/static/"

func isExempt(r *http.Request) bool {
	return r.Method == http.MethodOptions || openPaths[r.URL.Path] || strings.HasPrefix(r.URL.Path, staticPrefix)
}

// BearerAuthMiddleware requires "Authorization: Bearer <key>" with one of apiKeys.
// Blank keys are ignored; with no keys left the middleware is a pass-through.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	var digests [][sha256.Size]byte
	for _, k := range apiKeys {
		if k != "" {
			digests = append(digests, sha256.Sum256([]byte(k)))
		}
	}

	return func(next http.Handler) http.Handler {
		if len(digests) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExempt(r) {
				next.ServeHTTP(w, r)
				return
			}
			if msg := checkBearer(r.Header.Get("Authorization"), digests); msg != "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// checkBearer returns an empty string when header carries a known key, or the
// rejection message otherwise.
func checkBearer(header string, digests [][sha256.Size]byte) string {
	if header == "" {
		return "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "authorization header must use Bearer scheme"
	}
	got := sha256.Sum256([]byte(strings.TrimSpace(token)))
	match := 0
	for _, d := range digests {
		match |= subtle.ConstantTimeCompare(got[:], d[:])
	}
	if match == 0 {
		return "invalid api key"
	}
	return ""
}
