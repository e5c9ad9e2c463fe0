package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestLoggerPassesThrough(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusTeapot)
	})

	h := RequestLogger(nil)(next)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	if !called {
		t.Fatal("next handler was not called")
	}
	if w.Code != http.StatusTeapot {
		t.Fatalf("status: got %d, want %d", w.Code, http.StatusTeapot)
	}
}
