package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

var jwtSecret = []byte("0123456789abcdef")

func runMiddleware(t *testing.T, decorate func(*http.Request)) (echo.Context, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/research/cached", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	next := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	return c, EchoAuthMiddleware(jwtSecret)(next)(c)
}

func TestAuthMiddlewareAcceptsBearer(t *testing.T) {
	tok, err := SignJWT("user-1", jwtSecret, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	c, err := runMiddleware(t, func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+tok)
	})
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if got := c.Get("user_id"); got != "user-1" {
		t.Fatalf("expected subject on context, got %v", got)
	}
	if sub, ok := SubjectFromContext(c.Request().Context()); !ok || sub != "user-1" {
		t.Fatalf("expected subject on request context, got %q", sub)
	}
}

func TestAuthMiddlewareAcceptsCookie(t *testing.T) {
	tok, err := SignJWT("user-2", jwtSecret, time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	c, err := runMiddleware(t, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "auth", Value: tok})
	})
	if err != nil {
		t.Fatalf("middleware: %v", err)
	}
	if got := c.Get("user_id"); got != "user-2" {
		t.Fatalf("expected subject on context, got %v", got)
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	expired, err := SignJWT("user-3", jwtSecret, -time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	forged, err := SignJWT("user-3", []byte("another-secret-entirely"), time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := []struct {
		name     string
		decorate func(*http.Request)
	}{
		{"no token", nil},
		{"expired token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+expired) }},
		{"wrong secret", func(req *http.Request) { req.Header.Set("Authorization", "Bearer "+forged) }},
		{"garbage token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer not.a.jwt") }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runMiddleware(t, tc.decorate)
			he, ok := err.(*echo.HTTPError)
			if !ok || he.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %v", err)
			}
		})
	}
}
