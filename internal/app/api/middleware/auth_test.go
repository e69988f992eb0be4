package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/csinmamit/membership/pkg/apperr"
	"github.com/csinmamit/membership/pkg/logctx"
)

type stubVerifier map[string]string

func (s stubVerifier) Verify(_ context.Context, raw string) (string, error) {
	if sub, ok := s[raw]; ok {
		return sub, nil
	}
	return "", apperr.ErrUnauthenticated
}

type stubAdmins struct {
	admins map[string]bool
	err    error
}

func (s stubAdmins) IsAdmin(_ context.Context, id string) (bool, error) {
	return s.admins[id], s.err
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	log := zap.NewNop().Sugar()
	r.Use(TraceMiddleware(), RequestLoggerMiddleware(log))
	r.Any("/x", handlers...)
	return r
}

func TestRequireSubject(t *testing.T) {
	log := zap.NewNop().Sugar()
	var seen, seenCtx string
	r := newRouter(RequireSubject(stubVerifier{"good": "uid-1"}, log), func(c *gin.Context) {
		seen = Subject(c)
		seenCtx = logctx.UserID(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic good", http.StatusUnauthorized},
		{"invalid", "Bearer bad", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/x", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			require.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusUnauthorized {
				require.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
			}
		})
	}
	require.Equal(t, "uid-1", seen)
	require.Equal(t, "uid-1", seenCtx)
}

func TestRequireAdmin(t *testing.T) {
	log := zap.NewNop().Sugar()
	verifier := stubVerifier{"admin": "uid-admin", "member": "uid-member"}

	cases := []struct {
		name   string
		token  string
		admins stubAdmins
		want   int
	}{
		{"admin", "admin", stubAdmins{admins: map[string]bool{"uid-admin": true}}, http.StatusNoContent},
		{"member", "member", stubAdmins{admins: map[string]bool{"uid-admin": true}}, http.StatusForbidden},
		{"store down", "admin", stubAdmins{err: errors.New("db down")}, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newRouter(RequireSubject(verifier, log), RequireAdmin(tc.admins, log), func(c *gin.Context) {
				c.Status(http.StatusNoContent)
			})
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/x", nil)
			req.Header.Set("Authorization", "Bearer "+tc.token)
			r.ServeHTTP(w, req)
			require.Equal(t, tc.want, w.Code)
		})
	}
}

func TestAllowMethods(t *testing.T) {
	r := newRouter(AllowMethods(http.MethodPost), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
	require.JSONEq(t, `{"error":"Method not allowed"}`, w.Body.String())
	require.Equal(t, "POST", w.Header().Get("Allow"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/x", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestTraceMiddleware_EchoesRequestID(t *testing.T) {
	r := newRouter(func(c *gin.Context) {
		require.Equal(t, "req-123", logctx.TraceID(c.Request.Context()))
		c.Status(http.StatusNoContent)
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(w, req)
	require.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}
