package remote

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTransient_NilError(t *testing.T) {
	assert.False(t, isTransient(nil))
}

func TestIsTransient_ServerError(t *testing.T) {
	err := &RemoteError{Status: 500, Code: "internal_error", Message: "server error"}
	assert.True(t, isTransient(err))
}

func TestIsTransient_TooManyRequests(t *testing.T) {
	err := &RemoteError{Status: http.StatusTooManyRequests, Code: "rate_limited", Message: "too many"}
	assert.True(t, isTransient(err))
}

func TestIsTransient_ClientError(t *testing.T) {
	err := &RemoteError{Status: 404, Code: "not_found", Message: "not found"}
	assert.False(t, isTransient(err))
}

func TestIsTransient_ContextCanceled(t *testing.T) {
	assert.False(t, isTransient(context.Canceled))
	assert.False(t, isTransient(context.DeadlineExceeded))
}

func TestIsTransient_NetworkError(t *testing.T) {
	err := &http.MaxBytesError{Limit: 100}
	assert.True(t, isTransient(err))
}

func TestRetryClient_Backoff(t *testing.T) {
	rc := NewRetryClient(nil, &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     10 * time.Second,
		JitterFraction: 0.0, // no jitter for deterministic test
	})

	d0 := rc.backoff(0)
	d1 := rc.backoff(1)
	d2 := rc.backoff(2)

	assert.Equal(t, 100*time.Millisecond, d0)
	assert.Equal(t, 200*time.Millisecond, d1)
	assert.Equal(t, 400*time.Millisecond, d2)
}

func TestRetryClient_BackoffCapped(t *testing.T) {
	rc := NewRetryClient(nil, &RetryConfig{
		MaxRetries:     10,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     5 * time.Second,
		JitterFraction: 0.0,
	})

	assert.Equal(t, 5*time.Second, rc.backoff(10))
}

// flakyClient fails a fixed number of times before succeeding.
type flakyClient struct {
	MockClient
	failures int
	failWith error
}

func (f *flakyClient) GetServiceInfo(ctx context.Context) (*ServiceInfo, error) {
	if f.failures > 0 {
		f.failures--
		return nil, f.failWith
	}
	return &ServiceInfo{Name: "flaky"}, nil
}

func TestRetryClient_RecoversFromTransientErrors(t *testing.T) {
	inner := &flakyClient{
		failures: 2,
		failWith: &RemoteError{Status: 503, Code: "unavailable", Message: "try later"},
	}
	rc := NewRetryClient(inner, &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	})

	info, err := rc.GetServiceInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "flaky", info.Name)
}

func TestRetryClient_DoesNotRetryClientErrors(t *testing.T) {
	inner := &flakyClient{
		failures: 100,
		failWith: &RemoteError{Status: 404, Code: "not_found", Message: "missing"},
	}
	rc := NewRetryClient(inner, &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	})

	_, err := rc.GetServiceInfo(context.Background())
	require.Error(t, err)
	assert.Equal(t, 99, inner.failures, "should have attempted exactly once")
}

func TestRetryClient_GivesUpAfterMaxRetries(t *testing.T) {
	inner := &flakyClient{
		failures: 100,
		failWith: &RemoteError{Status: 500, Code: "internal_error", Message: "boom"},
	}
	rc := NewRetryClient(inner, &RetryConfig{
		MaxRetries:     2,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	})

	_, err := rc.GetServiceInfo(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, 97, inner.failures, "1 attempt + 2 retries")
}
