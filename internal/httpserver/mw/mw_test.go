package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MrSnakeDoc/hrtlog/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(h http.Handler, method, host, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "http://"+host+"/api/doses", nil)
	req.RemoteAddr = remote
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host, pattern string
		want          bool
	}{
		{"hrt.example.com", "hrt.example.com", true},
		{"a.example.com", "*.example.com", true},
		{"example.com", "*.example.com", false},
		{"evil.com", "*.example.com", false},
		{"other.example.com", "hrt.example.com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchHost(tt.host, tt.pattern), "%s vs %s", tt.host, tt.pattern)
	}
}

func TestEnforceHost(t *testing.T) {
	log := logger.Nop()

	h := EnforceHost(nil, log)(okHandler)
	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodGet, "anything", "1.2.3.4:1").Code)

	h = EnforceHost([]string{"HRT.example.com"}, log)(okHandler)
	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodGet, "hrt.example.com:8080", "1.2.3.4:1").Code)
	assert.Equal(t, http.StatusForbidden, serve(h, http.MethodGet, "other.example.com", "1.2.3.4:1").Code)
}

func TestAllowOnlyCIDRS(t *testing.T) {
	log := logger.Nop()

	h := AllowOnlyCIDRS(nil, false, log)(okHandler)
	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodGet, "h", "8.8.8.8:1").Code)

	h = AllowOnlyCIDRS([]string{"10.0.0.0/8", "192.168.1.5"}, false, log)(okHandler)
	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodGet, "h", "10.1.2.3:5000").Code)
	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodGet, "h", "192.168.1.5:5000").Code)
	assert.Equal(t, http.StatusForbidden, serve(h, http.MethodGet, "h", "8.8.8.8:5000").Code)
}

func TestRateLimitOnlyMutatingRequests(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	h := RateLimit(RateLimitConfig{
		Burst:             2,
		RefillPerIPPerMin: 60,
		Now:               func() time.Time { return now },
	}, logger.Nop())(okHandler)

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, serve(h, http.MethodGet, "h", "1.1.1.1:1").Code)
	}

	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodPost, "h", "1.1.1.1:1").Code)
	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodDelete, "h", "1.1.1.1:1").Code)

	rec := serve(h, http.MethodPost, "h", "1.1.1.1:1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// other clients have their own bucket
	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodPost, "h", "2.2.2.2:1").Code)

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusNoContent, serve(h, http.MethodPost, "h", "1.1.1.1:1").Code)
}
