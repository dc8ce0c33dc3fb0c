package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/swapcycle/swapcycle/internal/domain"
	"github.com/swapcycle/swapcycle/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterAPIMetrics()
	os.Exit(m.Run())
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL + "/api"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_InvalidBaseURL(t *testing.T) {
	if _, err := New(Config{BaseURL: "not a url"}); err == nil {
		t.Fatal("expected error")
	}
	c, err := New(Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.BaseURL() != DefaultBaseURL {
		t.Errorf("BaseURL() = %q, want %q", c.BaseURL(), DefaultBaseURL)
	}
}

func TestDo_Headers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/profile" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		if _, err := uuid.Parse(r.Header.Get("X-Request-ID")); err != nil {
			t.Errorf("X-Request-ID is not a uuid: %q", r.Header.Get("X-Request-ID"))
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	c.SetTokenSource(func() string { return "tok-1" })

	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.Do(context.Background(), http.MethodGet, "/auth/profile", nil, nil, &out); err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !out.OK {
		t.Error("response not decoded")
	}
}

func TestDo_NoTokenNoAuthorization(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header: %q", r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusNoContent)
	})
	c.SetTokenSource(func() string { return "" })

	if err := c.Do(context.Background(), http.MethodDelete, "/products/1", nil, nil, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
}

func TestDo_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		body   string
		want   error
		msg    string
	}{
		{http.StatusBadRequest, `{"message":"name is required"}`, domain.ErrValidation, "name is required"},
		{http.StatusUnprocessableEntity, `{"msg":"bad"}`, domain.ErrValidation, "bad"},
		{http.StatusForbidden, `{"message":"Unauthorized"}`, domain.ErrForbidden, "Unauthorized"},
		{http.StatusNotFound, ``, domain.ErrNotFound, "Not Found"},
		{http.StatusConflict, `{"error":"exists"}`, domain.ErrConflict, "exists"},
		{http.StatusInternalServerError, `<html>`, domain.ErrBackend, "Internal Server Error"},
		{http.StatusBadGateway, `{"message":"upstream"}`, domain.ErrBackend, "upstream"},
	}
	for _, tc := range tests {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			err := c.Do(context.Background(), http.MethodGet, "/search", nil, nil, nil)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			apiErr, ok := IsAPIError(err)
			if !ok {
				t.Fatalf("expected APIError, got %T", err)
			}
			if apiErr.Status != tc.status || apiErr.Message != tc.msg {
				t.Errorf("APIError = %+v", apiErr)
			}
		})
	}
}

func TestDo_UnauthorizedHookOncePerCall(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Token has expired"}`))
	})
	calls := 0
	c.OnUnauthorized(func(context.Context) { calls++ })

	for range 2 {
		err := c.Do(context.Background(), http.MethodGet, "/auth/profile", nil, nil, nil)
		if !errors.Is(err, domain.ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	}
	if calls != 2 {
		t.Errorf("hook calls = %d, want 2", calls)
	}
}

func TestDo_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c, err := New(Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	err = c.Do(context.Background(), http.MethodGet, "/search", nil, nil, nil)
	if !errors.Is(err, domain.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestDo_CanceledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Do(ctx, http.MethodGet, "/search", nil, nil, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDo_RecordsMetrics(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"product":{"id":7}}`))
	})

	before := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("GET", "/products/{id}", "200"))
	if err := c.Do(context.Background(), http.MethodGet, "/products/7", nil, nil, nil); err != nil {
		t.Fatalf("Do: %v", err)
	}
	after := testutil.ToFloat64(metrics.APIRequestsTotal.WithLabelValues("GET", "/products/{id}", "200"))
	if after-before != 1 {
		t.Errorf("api_requests_total delta = %f, want 1", after-before)
	}
}

func TestRouteLabel(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/search", "/search"},
		{"search/map-data", "/search/map-data"},
		{"/products/12", "/products/{id}"},
		{"/trades/3/", "/trades/{id}"},
		{"/a/1/2", "/a/{id}/{id}"},
	}
	for _, tc := range tests {
		if got := routeLabel(tc.in); got != tc.want {
			t.Errorf("routeLabel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
