package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/api/internal/apperr"
	"storefront/api/internal/models"
	"storefront/api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth struct {
	paths   []string
	session service.Session
	err     error
}

func (s *stubAuth) AuthenticateByToken(_ context.Context, path string, token string) (service.Session, error) {
	s.paths = append(s.paths, path)
	if s.err != nil {
		return service.Session{}, s.err
	}
	session := s.session
	session.Token = token
	return session, nil
}

func newRouter(auth Authenticator, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	chain := append([]gin.HandlerFunc{Auth(auth)}, extra...)
	chain = append(chain, func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": account.ID, "token": CurrentToken(c)})
	})
	r.GET("/api/users/:section", chain...)
	return r
}

func do(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMissingBearer(t *testing.T) {
	stub := &stubAuth{}
	r := newRouter(stub)

	for _, header := range []string{"", "Basic abc", "Bearer", "Bearer   ", "Bearertok"} {
		rec := do(r, header)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.JSONEq(t, `{"success":false,"message":"missing token"}`, rec.Body.String())
	}
	assert.Empty(t, stub.paths)
}

func TestAuthPassesRoutePatternAndStoresSession(t *testing.T) {
	stub := &stubAuth{session: service.Session{Account: models.Account{ID: "acct-1", Role: models.RoleUser}}}
	r := newRouter(stub)

	rec := do(r, "Bearer tok-123")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"acct-1","token":"tok-123"}`, rec.Body.String())
	assert.Equal(t, []string{"/api/users/:section"}, stub.paths)
}

func TestAuthSchemeIsCaseInsensitive(t *testing.T) {
	stub := &stubAuth{session: service.Session{Account: models.Account{ID: "acct-1"}}}
	r := newRouter(stub)

	for _, header := range []string{"bearer tok-1", "BEARER tok-1", "bEaReR   tok-1 "} {
		rec := do(r, header)
		require.Equal(t, http.StatusOK, rec.Code, header)
		assert.JSONEq(t, `{"id":"acct-1","token":"tok-1"}`, rec.Body.String())
	}
}

func TestAuthRejections(t *testing.T) {
	cases := map[apperr.Kind]int{
		apperr.KindExpired:      http.StatusUnauthorized,
		apperr.KindInvalidToken: http.StatusUnauthorized,
		apperr.KindUnknown:      http.StatusInternalServerError,
	}
	for kind, status := range cases {
		r := newRouter(&stubAuth{err: apperr.New(kind, "nope")})
		rec := do(r, "Bearer tok")
		assert.Equal(t, status, rec.Code, kind.String())
	}
}

func TestRequireRoles(t *testing.T) {
	admin := &stubAuth{session: service.Session{Account: models.Account{ID: "a", Role: models.RoleAdmin}}}
	user := &stubAuth{session: service.Session{Account: models.Account{ID: "u", Role: models.RoleUser}}}

	rec := do(newRouter(admin, RequireRoles(models.RoleAdmin)), "Bearer tok")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(newRouter(user, RequireRoles(models.RoleAdmin)), "Bearer tok")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"forbidden"}`, rec.Body.String())
}

func TestRequireRolesWithoutAuth(t *testing.T) {
	r := gin.New()
	r.GET("/admin", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequestIDAndLogger(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	r := gin.New()
	r.Use(RequestID(), Logger(log), Recovery(log))
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(requestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
	assert.Contains(t, buf.String(), `"request_id":"req-42"`)

	buf.Reset()
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), `"status":500`)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://shop.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDReplacesOversizedHeader(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, RequestIDFrom(c)) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(requestIDHeader, strings.Repeat("a", maxRequestIDLen+1))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Len(t, rec.Body.String(), 36)
	assert.Equal(t, rec.Body.String(), rec.Header().Get(requestIDHeader))
}
