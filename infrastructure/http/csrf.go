package http

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	requestcontext "github.com/KocBilge/barcode/frontend/shared/context"
	sharedhtml "github.com/KocBilge/barcode/frontend/shared/html"
)

const csrfFormField = "_csrf"

// scannerPostPath is the only state-changing route open to scanner-key callers.
const scannerPostPath = "/scan"

// CSRFMiddleware checks the double-submit token on state-changing requests from the page.
// Requests authenticated by a scanner key carry no cookies; they may read and post scans
// but are refused on every other command route.
func (s *Server) CSRFMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, keyed := requestcontext.GetScannerFromContext(r.Context()); keyed {
			if isSafeMethod(r.Method) || (r.Method == http.MethodPost && r.URL.Path == scannerPostPath) {
				next.ServeHTTP(w, r)
				return
			}
			http.Error(w, "scanner keys may only post scans", http.StatusForbidden)
			return
		}
		expected := csrfCookieToken(w, r)
		if isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		got := submittedCSRFToken(r)
		if got == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
			http.Error(w, "invalid csrf token", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}

// submittedCSRFToken prefers the header set by fetch calls over the hidden form field.
func submittedCSRFToken(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(sharedhtml.CSRFCookieName)); v != "" {
		return v
	}
	return strings.TrimSpace(r.FormValue(csrfFormField))
}

// csrfCookieToken returns the cookie token, issuing a fresh one when the browser has none.
// The cookie stays readable by the page script.
func csrfCookieToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sharedhtml.CSRFCookieName); err == nil {
		if v := strings.TrimSpace(c.Value); v != "" {
			return v
		}
	}
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	token := hex.EncodeToString(buf)
	http.SetCookie(w, &http.Cookie{
		Name:     sharedhtml.CSRFCookieName,
		Value:    token,
		Path:     "/",
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return token
}
