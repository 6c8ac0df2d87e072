package middleware_test

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JaimeStill/harmony/pkg/middleware"
)

func ok(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestApplyOrder(t *testing.T) {
	var order []string
	mw := middleware.New()

	for _, name := range []string{"first", "second"} {
		mw.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		})
	}

	handler := mw.Apply(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	if strings.Join(order, ",") != "first,second,handler" {
		t.Errorf("order: got %v, want [first second handler]", order)
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		cfg        middleware.CORSConfig
		method     string
		origin     string
		wantOrigin string
		wantStatus int
	}{
		{
			name:       "disabled",
			cfg:        middleware.CORSConfig{Enabled: false, Origins: []string{"http://example.com"}},
			method:     "GET",
			origin:     "http://example.com",
			wantStatus: http.StatusOK,
		},
		{
			name:       "allowed origin",
			cfg:        middleware.CORSConfig{Enabled: true, Origins: []string{"http://example.com"}, MaxAge: 3600},
			method:     "POST",
			origin:     "http://example.com",
			wantOrigin: "http://example.com",
			wantStatus: http.StatusOK,
		},
		{
			name:       "wildcard origin",
			cfg:        middleware.CORSConfig{Enabled: true, Origins: []string{"*"}},
			method:     "GET",
			origin:     "http://any.dev",
			wantOrigin: "http://any.dev",
			wantStatus: http.StatusOK,
		},
		{
			name:       "disallowed origin",
			cfg:        middleware.CORSConfig{Enabled: true, Origins: []string{"http://allowed.com"}},
			method:     "GET",
			origin:     "http://denied.com",
			wantStatus: http.StatusOK,
		},
		{
			name:       "preflight",
			cfg:        middleware.CORSConfig{Enabled: true, Origins: []string{"http://example.com"}},
			method:     "OPTIONS",
			origin:     "http://example.com",
			wantOrigin: "http://example.com",
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			cfg.Finalize(nil)
			handler := middleware.CORS(&cfg)(http.HandlerFunc(ok))

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("allow-origin: got %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := middleware.RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = middleware.RequestIDFrom(r.Context())
	}))

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

		if seen == "" {
			t.Fatal("request id should be set on the context")
		}
		if rec.Header().Get(middleware.RequestIDHeader) != seen {
			t.Errorf("response header: got %q, want %q", rec.Header().Get(middleware.RequestIDHeader), seen)
		}
	})

	t.Run("propagated", func(t *testing.T) {
		const inbound = "6f1c1c5e-8d0b-4a57-9c2f-2f7d3f1c9a10"
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(middleware.RequestIDHeader, inbound)
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if seen != inbound {
			t.Errorf("request id: got %q, want %q", seen, inbound)
		}
	})

	t.Run("malformed replaced", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(middleware.RequestIDHeader, "not a uuid")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if seen == "not a uuid" {
			t.Error("malformed inbound id should be replaced")
		}
	})
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := middleware.RequestID()(middleware.Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/test", nil))

	out := buf.String()
	if !strings.Contains(out, "status=418") {
		t.Errorf("log should record status, got %s", out)
	}
	if !strings.Contains(out, "request_id="+rec.Header().Get(middleware.RequestIDHeader)) {
		t.Errorf("log should record request id, got %s", out)
	}
}

func TestCORSConfigFinalizeDefaults(t *testing.T) {
	cfg := middleware.CORSConfig{}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if len(cfg.AllowedMethods) != 3 {
		t.Errorf("allowed_methods: got %d, want 3", len(cfg.AllowedMethods))
	}
	if len(cfg.AllowedHeaders) != 2 {
		t.Errorf("allowed_headers: got %d, want 2", len(cfg.AllowedHeaders))
	}
	if cfg.MaxAge != 3600 {
		t.Errorf("max_age: got %d, want 3600", cfg.MaxAge)
	}
}

func TestCORSConfigFinalizeEnv(t *testing.T) {
	t.Setenv("TEST_CORS_ENABLED", "true")
	t.Setenv("TEST_CORS_ORIGINS", "http://a.com, ,http://b.com")
	t.Setenv("TEST_CORS_CREDS", "true")

	env := &middleware.CORSEnv{
		Enabled:          "TEST_CORS_ENABLED",
		Origins:          "TEST_CORS_ORIGINS",
		AllowCredentials: "TEST_CORS_CREDS",
	}

	cfg := middleware.CORSConfig{}
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if !cfg.Enabled {
		t.Error("enabled should be true")
	}
	if len(cfg.Origins) != 2 || cfg.Origins[0] != "http://a.com" || cfg.Origins[1] != "http://b.com" {
		t.Errorf("origins: got %v", cfg.Origins)
	}
	if !cfg.AllowCredentials {
		t.Error("allow_credentials should be true")
	}
}

func TestCORSConfigMerge(t *testing.T) {
	base := middleware.CORSConfig{
		Origins:        []string{"http://base.com"},
		AllowedMethods: []string{"GET"},
		MaxAge:         3600,
	}

	base.Merge(&middleware.CORSConfig{
		Enabled: true,
		Origins: []string{"http://overlay.com"},
	})

	if !base.Enabled {
		t.Error("enabled should be true after merge")
	}
	if len(base.Origins) != 1 || base.Origins[0] != "http://overlay.com" {
		t.Errorf("origins: got %v", base.Origins)
	}
	if base.MaxAge != 3600 {
		t.Errorf("max_age should survive an unset overlay, got %d", base.MaxAge)
	}
	if len(base.AllowedMethods) != 1 {
		t.Errorf("allowed_methods: got %v", base.AllowedMethods)
	}
}
