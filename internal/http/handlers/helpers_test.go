package handlers_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/geocoder89/jobtracker/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

// prefixVerifier accepts "token-<ownerID>".
type prefixVerifier struct{}

func (prefixVerifier) Verify(token string) (string, error) {
	owner, ok := strings.CutPrefix(token, "token-")
	if !ok || owner == "" {
		return "", errors.New("invalid token")
	}
	return owner, nil
}

// setupAuthedRouter mounts one handler behind the real auth middleware.
func setupAuthedRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestID())
	r.Handle(method, path, middlewares.NewAuthMiddleware(prefixVerifier{}).RequireAuth(), h)
	return r
}

func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Handle(method, path, h)
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path, owner, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if owner != "" {
		req.Header.Set("Authorization", "Bearer token-"+owner)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
