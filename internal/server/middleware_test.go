package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware(t *testing.T) {
	for _, tc := range []struct {
		name   string
		token  string
		method string
		path   string
		auth   string
		want   int
	}{
		{name: "NoHeader", token: "secret", method: http.MethodGet, path: "/pit", want: http.StatusUnauthorized},
		{name: "WrongToken", token: "secret", method: http.MethodGet, path: "/pit", auth: "Bearer wrong", want: http.StatusUnauthorized},
		{name: "InvalidScheme", token: "secret", method: http.MethodGet, path: "/pit", auth: "Basic secret", want: http.StatusUnauthorized},
		{name: "CorrectToken", token: "secret", method: http.MethodPost, path: "/pit", auth: "Bearer secret", want: http.StatusOK},
		{name: "HealthExempt", token: "secret", method: http.MethodGet, path: "/health", want: http.StatusOK},
		{name: "Disabled", method: http.MethodDelete, path: "/match", want: http.StatusOK},
	} {
		t.Run(tc.name, func(t *testing.T) {
			handler := AuthMiddleware(tc.token, okHandler())
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d; body: %s", tc.want, rec.Code, rec.Body.String())
			}
			if tc.want == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), `"error"`) {
				t.Fatalf("expected error envelope, got %s", rec.Body.String())
			}
		})
	}
}

func TestCORS(t *testing.T) {
	t.Run("Preflight", func(t *testing.T) {
		handler := CORS([]string{"*"}, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatal("preflight reached the handler")
		}))
		req := httptest.NewRequest(http.MethodOptions, "/pit", nil)
		req.Header.Set("Origin", "http://tablet.local")
		req.Header.Set("Access-Control-Request-Headers", "content-type")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("Allow-Origin = %q", got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "content-type" {
			t.Fatalf("Allow-Headers = %q", got)
		}
	})

	t.Run("ListedOrigin", func(t *testing.T) {
		handler := CORS([]string{"http://a.example"}, okHandler())
		req := httptest.NewRequest(http.MethodGet, "/pit", nil)
		req.Header.Set("Origin", "http://a.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://a.example" {
			t.Fatalf("Allow-Origin = %q", got)
		}
	})

	t.Run("UnlistedOrigin", func(t *testing.T) {
		handler := CORS([]string{"http://a.example"}, okHandler())
		req := httptest.NewRequest(http.MethodGet, "/pit", nil)
		req.Header.Set("Origin", "http://b.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Fatalf("Allow-Origin = %q, want none", got)
		}
	})
}

func TestRecovery(t *testing.T) {
	handler := Recovery(discardLogger, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pit", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"error":"internal server error"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestAccessLogRequestID(t *testing.T) {
	handler := AccessLog(discardLogger, okHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pit", nil))
	if id := rec.Header().Get(RequestIDHeader); !strings.HasPrefix(id, "req-") {
		t.Fatalf("generated request id = %q", id)
	}

	req := httptest.NewRequest(http.MethodGet, "/pit", nil)
	req.Header.Set(RequestIDHeader, "req-from-client")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if id := rec.Header().Get(RequestIDHeader); id != "req-from-client" {
		t.Fatalf("echoed request id = %q", id)
	}
}
