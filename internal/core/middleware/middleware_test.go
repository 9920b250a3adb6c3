package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORS_AllowedOriginEchoedWithCredentials(t *testing.T) {
	h := CORS()(okHandler())

	for _, origin := range []string{"http://localhost", "http://127.0.0.1", "http://127.0.0.1:5500", "null"} {
		r := httptest.NewRequest(http.MethodGet, "/download-image", nil)
		r.Header.Set("Origin", origin)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != origin {
			t.Errorf("origin %q: Allow-Origin = %q", origin, got)
		}
		if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
			t.Errorf("origin %q: Allow-Credentials = %q", origin, got)
		}
	}
}

func TestCORS_DisallowedOriginGetsNoHeaders(t *testing.T) {
	h := CORS()(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/download-image", nil)
	r.Header.Set("Origin", "https://evil.example")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Allow-Origin = %q for disallowed origin", got)
	}
	if w.Code != http.StatusOK {
		t.Errorf("request itself should still be served, status = %d", w.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS()(okHandler())

	r := httptest.NewRequest(http.MethodOptions, "/get-image", nil)
	r.Header.Set("Origin", "http://localhost")
	r.Header.Set("Access-Control-Request-Method", "POST")
	r.Header.Set("Access-Control-Request-Headers", "Content-Type")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d want 204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "POST" {
		t.Errorf("Allow-Methods = %q want echoed %q", got, "POST")
	}
	if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
		t.Errorf("Allow-Headers = %q", got)
	}
}

// Every method a preflight asks for is permitted for allowed origins.
func TestCORS_PreflightEchoesAnyMethod(t *testing.T) {
	h := CORS()(okHandler())

	for _, method := range []string{"DELETE", "PUT", "PATCH"} {
		r := httptest.NewRequest(http.MethodOptions, "/get-image", nil)
		r.Header.Set("Origin", "http://localhost")
		r.Header.Set("Access-Control-Request-Method", method)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		if got := w.Header().Get("Access-Control-Allow-Methods"); got != method {
			t.Errorf("method %s: Allow-Methods = %q", method, got)
		}
	}
}

func TestRecover_PanicBecomes500(t *testing.T) {
	h := Recover()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d want 500", w.Code)
	}
}
