package httpretry

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryOnUnavailable(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "payload", string(body), "body must be replayed on retry")
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rc := NewRetryClient(srv.Client(), 3).WithBackoff(time.Millisecond, 5*time.Millisecond)
	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader("payload"))
	require.NoError(t, err)

	resp, err := rc.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestNoRetryOnServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	rc := NewRetryClient(srv.Client(), 3).WithBackoff(time.Millisecond, time.Millisecond)
	req, _ := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader("x"))

	resp, err := rc.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLastAttemptReturnsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	rc := NewRetryClient(srv.Client(), 1).WithBackoff(time.Millisecond, time.Millisecond)
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	resp, err := rc.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

type failingDoer struct{ calls int }

func (f *failingDoer) Do(*http.Request) (*http.Response, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func TestZeroRetriesDisablesRetry(t *testing.T) {
	doer := &failingDoer{}
	rc := NewRetryClient(doer, 0)
	req, _ := http.NewRequest(http.MethodGet, "http://example.invalid", nil)

	_, err := rc.Do(req)
	require.Error(t, err)
	assert.Equal(t, 1, doer.calls)
}

func TestIsRetryableStatus(t *testing.T) {
	for _, code := range []int{429, 502, 503, 504} {
		assert.True(t, isRetryableStatus(code), code)
	}
	for _, code := range []int{200, 400, 401, 404, 422, 500} {
		assert.False(t, isRetryableStatus(code), code)
	}
}

type countingDoer struct {
	next  HTTPDoer
	calls int32
}

func (c *countingDoer) Do(req *http.Request) (*http.Response, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.next.Do(req)
}

func TestNoRetryAfterRequestWasSent(t *testing.T) {
	var received int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.ReadAll(r.Body)
		atomic.AddInt32(&received, 1)
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	defer close(release)

	base := srv.Client()
	base.Timeout = 100 * time.Millisecond
	rc := NewRetryClient(base, 2).WithBackoff(time.Millisecond, time.Millisecond)
	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader("campaign"))
	require.NoError(t, err)

	_, err = rc.Do(req)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&received), "a timed-out request must not be resent")
}

func TestRetryWhenConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	doer := &countingDoer{next: &http.Client{Timeout: time.Second}}
	rc := NewRetryClient(doer, 2).WithBackoff(time.Millisecond, time.Millisecond)
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader("campaign"))
	require.NoError(t, err)

	_, err = rc.Do(req)
	require.Error(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&doer.calls), "unsent requests are retried")
}
