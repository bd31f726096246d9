package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func rateLimitRouter(userID string, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/mutate",
		func(c *gin.Context) {
			if userID != "" {
				c.Set("user_id", userID)
			}
		},
		handler,
		func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) },
	)
	return r
}

func TestRateLimitByUser_ThrottlesPerUser(t *testing.T) {
	r := rateLimitRouter("user-1", RateLimitByUser(0.01, 1))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/mutate", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodPost, "/mutate", nil))
	assert.Equal(t, http.StatusTooManyRequests, w2.Code)
}

func TestRateLimitByUser_PassesUnauthenticated(t *testing.T) {
	// Missing user_id is the auth middleware's problem, not the limiter's.
	r := rateLimitRouter("", RateLimitByUser(0.01, 1))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/mutate", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
