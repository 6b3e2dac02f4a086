package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestOAuthHandler(t *testing.T) {
	ok := func(context.Context, string) error { return nil }

	tests := []struct {
		name       string
		query      string
		exchange   Exchanger
		wantStatus int
		wantErr    string
	}{
		{"success", "?state=s3cret&code=abc", ok, http.StatusOK, ""},
		{"state mismatch", "?state=other&code=abc", ok, http.StatusBadRequest, "invalid state"},
		{"denied", "?state=s3cret&error=access_denied", ok, http.StatusBadRequest, "access_denied"},
		{
			"exchange failure", "?state=s3cret&code=abc",
			func(context.Context, string) error { return errors.New("bad code") },
			http.StatusInternalServerError, "bad code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOAuthHandler("Spotify", "", "s3cret", tt.exchange)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback"+tt.query, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}

			res, open := <-h.Result()
			if !open {
				t.Fatal("expected a result")
			}
			if tt.wantErr == "" {
				if res.Err != nil {
					t.Errorf("unexpected error %v", res.Err)
				}
				if !strings.Contains(rec.Body.String(), "Spotify connected") {
					t.Errorf("unexpected body %s", rec.Body.String())
				}
			} else if res.Err == nil || !strings.Contains(res.Err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, res.Err)
			}

			if _, open := <-h.Result(); open {
				t.Error("expected channel closed after one result")
			}
		})
	}

	t.Run("code passed to exchanger", func(t *testing.T) {
		var got string
		h := NewOAuthHandler("Spotify", "/cb", "s", func(_ context.Context, code string) error {
			got = code
			return nil
		})
		if h.Routes()[0] != "/cb" {
			t.Errorf("unexpected routes %v", h.Routes())
		}
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cb?state=s&code=xyz", nil))
		if got != "xyz" {
			t.Errorf("expected code xyz, got %q", got)
		}
	})

	t.Run("second callback rejected", func(t *testing.T) {
		h := NewOAuthHandler("Spotify", "", "s", ok)
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/callback?state=s&code=1", nil))

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=2", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("wait honours context", func(t *testing.T) {
		h := NewOAuthHandler("Spotify", "", "s", ok)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := h.Wait(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := NewBasicRouter()
	r.Use(mark("first"), mark("second"))
	r.Handle(http.MethodPost, "/hook", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		order = append(order, "handler")
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hook", nil))
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if strings.Join(order, ",") != "first,second,handler" {
		t.Errorf("unexpected middleware order %v", order)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/hook", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

func TestCallbackServer(t *testing.T) {
	logger := log.New(io.Discard)
	h := NewOAuthHandler("Tidal", "", "state", func(context.Context, string) error { return nil })

	router := NewBasicRouter()
	router.Use(RequestLogger(logger))
	router.Handler(h)

	srv, err := Listen("127.0.0.1:0", router, logger)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/callback?state=state&code=c")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Wait(ctx); err != nil {
		t.Errorf("Wait failed: %v", err)
	}
	if err := srv.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown failed: %v", err)
	}
}
