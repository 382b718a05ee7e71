package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw)
	r.GET("/", func(ctx *gin.Context) {
		ctx.String(http.StatusOK, ctx.GetString(UsernameKey))
	})

	return r
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func TestRequireTickSecret(t *testing.T) {
	secret := "s3cret"
	r := newRouter(RequireTickSecret(func() string { return secret }, false))

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{name: "bearer", path: "/", header: "Bearer s3cret", want: http.StatusOK},
		{name: "query", path: "/?secret=s3cret", want: http.StatusOK},
		{name: "missing", path: "/", want: http.StatusUnauthorized},
		{name: "wrong bearer", path: "/", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "wrong query", path: "/?secret=s3cre", want: http.StatusUnauthorized},
		{name: "basic scheme", path: "/", header: "Basic s3cret", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, serve(r, req).Code)
		})
	}
}

func TestRequireTickSecret_Unset(t *testing.T) {
	open := newRouter(RequireTickSecret(func() string { return "" }, true))
	assert.Equal(t, http.StatusOK, serve(open, httptest.NewRequest(http.MethodGet, "/", nil)).Code)

	closed := newRouter(RequireTickSecret(func() string { return "" }, false))
	assert.Equal(t, http.StatusUnauthorized, serve(closed, httptest.NewRequest(http.MethodGet, "/?secret=", nil)).Code)
}

func TestRequireTickSecret_Rotation(t *testing.T) {
	secret := "old"
	r := newRouter(RequireTickSecret(func() string { return secret }, false))

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/?secret=old", nil)).Code)

	secret = "new"
	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/?secret=old", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/?secret=new", nil)).Code)
}

func TestRequireAdminPin(t *testing.T) {
	r := newRouter(RequireAdminPin(func() string { return "1234" }, false))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(AdminPinHeader, "1234")
	assert.Equal(t, http.StatusOK, serve(r, req).Code)

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/?pin=1234", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/?pin=4321", nil)).Code)
}

func TestUsername(t *testing.T) {
	r := newRouter(Username())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UsernameHeader, "  alice ")
	assert.Equal(t, "alice", serve(r, req).Body.String())

	assert.Equal(t, "bob", serve(r, httptest.NewRequest(http.MethodGet, "/?username=bob", nil)).Body.String())
	assert.Empty(t, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UsernameHeader, strings.Repeat("a", 65))
	assert.Empty(t, serve(r, req).Body.String())
}
