package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func authGet(t *testing.T, handler http.Handler, path, authHeader string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, http.NoBody)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestBearerAuth_Disabled(t *testing.T) {
	for _, keys := range [][]string{nil, {}, {"", ""}} {
		handler := BearerAuthMiddleware(keys)(okHandler())
		rr := authGet(t, handler, "/api/v1/collections", "")
		if rr.Code != http.StatusOK {
			t.Errorf("keys %v: got %d, want %d", keys, rr.Code, http.StatusOK)
		}
	}
}

func TestBearerAuth_Rejections(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"})(okHandler())

	tests := []struct {
		name   string
		header string
	}{
		{"missing_header", ""},
		{"basic_scheme", "Basic dXNlcjpwYXNz"},
		{"no_scheme", "secret"},
		{"wrong_token", "Bearer wrong-key"},
		{"empty_token", "Bearer "},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := authGet(t, handler, "/api/v1/collections", tc.header)
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("got %d, want %d", rr.Code, http.StatusUnauthorized)
			}

			var errResp errorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != codeBadRequest {
				t.Errorf("error code: got %s, want %s", errResp.Code, codeBadRequest)
			}
		})
	}
}

func TestBearerAuth_ValidToken(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"key1", "key2"})(okHandler())

	// Scheme casing must not matter.
	for _, header := range []string{"Bearer key1", "Bearer key2", "bearer key1", "BEARER key2"} {
		rr := authGet(t, handler, "/api/v1/collections", header)
		if rr.Code != http.StatusOK {
			t.Errorf("header %q: got %d, want %d", header, rr.Code, http.StatusOK)
		}
	}
}

func TestBearerAuth_ExemptPaths(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"})(okHandler())

	for _, path := range []string{"/health", "/metrics"} {
		rr := authGet(t, handler, path, "")
		if rr.Code != http.StatusOK {
			t.Errorf("exempt path %s: got %d, want %d", path, rr.Code, http.StatusOK)
		}
	}

	rr := authGet(t, handler, "/api/v1/collections", "")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("api path without token: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}
