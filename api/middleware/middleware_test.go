package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
)

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(PrometheusMiddleware("feed-test"))
	r.GET("/optional", OptionalActorMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, Actor(c))
	})
	r.GET("/required", ActorMiddleware(), func(c *gin.Context) {
		c.String(http.StatusOK, Actor(c))
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

func serve(r *gin.Engine, path, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestActorMiddleware(t *testing.T) {
	r := newRouter()

	w := serve(r, "/required", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, "/required", " alice ")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "alice", w.Body.String())

	w = serve(r, "/optional", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, w.Body.String())

	w = serve(r, "/optional", "bob")
	require.Equal(t, "bob", w.Body.String())
}

func TestPrometheusMiddlewareCountsRequests(t *testing.T) {
	r := newRouter()

	serve(r, "/required", "")
	serve(r, "/nowhere", "")

	body := serve(r, "/metrics", "").Body.String()
	require.Contains(t, body, `http_requests_total{endpoint="/required",method="GET",service="feed-test",status="401"}`)
	require.Contains(t, body, `http_requests_total{endpoint="unmatched",method="GET",service="feed-test",status="404"}`)
	require.Contains(t, body, `http_request_duration_seconds_count{endpoint="/required",method="GET",service="feed-test"}`)
}
