package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func idempotencyRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/ingestions", func(c *gin.Context) {
		c.Set("user_id", "user-1")
	}, mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"handled": true})
	})
	return r
}

func TestIdempotency_PassThroughWithoutKey(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	r := idempotencyRouter(Idempotency(rdb))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ingestions", strings.NewReader(`{}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "handled")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_ReplaysCachedResult(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cacheKey := "idemp:/ingestions:user-1:key-1"
	mock.ExpectGet(cacheKey).SetVal(`{"job_id":"j1"}`)

	r := idempotencyRouter(Idempotency(rdb))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ingestions", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "key-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "j1")
	// The handler never ran.
	assert.NotContains(t, w.Body.String(), "handled")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_ConflictWhileLocked(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cacheKey := "idemp:/ingestions:user-1:key-1"
	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(false)

	r := idempotencyRouter(Idempotency(rdb))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ingestions", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "key-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "PROCESSING")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotency_AcquiresLockAndContinues(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cacheKey := "idemp:/ingestions:user-1:key-1"
	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(true)

	r := idempotencyRouter(Idempotency(rdb))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ingestions", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "key-1")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "handled")
	assert.NoError(t, mock.ExpectationsWereMet())
}
