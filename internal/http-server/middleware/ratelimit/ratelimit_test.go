package ratelimit

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func setupLimiter(limit int64) (*Limiter, redismock.ClientMock) {
	db, mock := redismock.NewClientMock()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(db, "register", limit, time.Minute, log), mock
}

func request() *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/register", nil)
	req.RemoteAddr = "203.0.113.7:41000"
	return req
}

func TestLimiter_FirstRequestSetsExpiry(t *testing.T) {
	limiter, mock := setupLimiter(2)
	defer mock.ClearExpect()

	mock.ExpectIncr("ratelimit:register:203.0.113.7").SetVal(1)
	mock.ExpectExpire("ratelimit:register:203.0.113.7", time.Minute).SetVal(true)

	assert.True(t, limiter.Allow(request()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLimiter_OverLimitRejected(t *testing.T) {
	limiter, mock := setupLimiter(2)
	defer mock.ClearExpect()

	mock.ExpectIncr("ratelimit:register:203.0.113.7").SetVal(3)

	called := false
	h := limiter.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request())

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLimiter_RedisErrorFailsOpen(t *testing.T) {
	limiter, mock := setupLimiter(2)
	defer mock.ClearExpect()

	mock.ExpectIncr("ratelimit:register:203.0.113.7").SetErr(errors.New("connection refused"))

	assert.True(t, limiter.Allow(request()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLimiter_IgnoresForwardedHeader(t *testing.T) {
	limiter, mock := setupLimiter(1)
	defer mock.ClearExpect()

	mock.ExpectIncr("ratelimit:register:203.0.113.7").SetVal(1)
	mock.ExpectExpire("ratelimit:register:203.0.113.7", time.Minute).SetVal(true)
	for i := 2; i <= 5; i++ {
		mock.ExpectIncr("ratelimit:register:203.0.113.7").SetVal(int64(i))
	}

	allowed := 0
	for i := 1; i <= 5; i++ {
		req := request()
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("1.2.3.%d", i))
		if limiter.Allow(req) {
			allowed++
		}
	}

	assert.Equal(t, 1, allowed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
