package remote

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/edkvist/maskann/internal/models"
)

// RetryConfig configures retry behavior for transient errors.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	JitterFraction float64 // 0.0 to 1.0
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     30 * time.Second,
		JitterFraction: 0.25,
	}
}

// RetryClient wraps a Client with automatic retry on transient errors. All
// request bodies are JSON-buffered, so every operation is safe to retry.
type RetryClient struct {
	inner  Client
	config *RetryConfig
}

// NewRetryClient creates a RetryClient that wraps the given Client.
func NewRetryClient(inner Client, cfg *RetryConfig) *RetryClient {
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}
	return &RetryClient{inner: inner, config: cfg}
}

// isTransient returns true for errors that are worth retrying.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Status >= 500 || re.Status == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true // network errors are transient
}

// backoff computes the delay for the given attempt with jitter.
func (rc *RetryClient) backoff(attempt int) time.Duration {
	base := float64(rc.config.InitialBackoff) * math.Pow(2, float64(attempt))
	if base > float64(rc.config.MaxBackoff) {
		base = float64(rc.config.MaxBackoff)
	}
	jitter := base * rc.config.JitterFraction * (rand.Float64()*2 - 1) // +/- jitter
	d := time.Duration(base + jitter)
	if d < 0 {
		d = 0
	}
	return d
}

// sleep waits for the given duration or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// retry executes fn with retry logic. Only retries transient errors.
func (rc *RetryClient) retry(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= rc.config.MaxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !isTransient(lastErr) {
			return lastErr
		}
		if attempt < rc.config.MaxRetries {
			d := rc.backoff(attempt)
			if err := sleep(ctx, d); err != nil {
				return fmt.Errorf("%s: %w (retry cancelled)", operation, lastErr)
			}
		}
	}
	return fmt.Errorf("%s: %w (after %d retries)", operation, lastErr, rc.config.MaxRetries)
}

// --- Delegate all Client methods through retry logic ---

func (rc *RetryClient) GetServiceInfo(ctx context.Context) (info *ServiceInfo, err error) {
	err = rc.retry(ctx, "get service info", func() error {
		info, err = rc.inner.GetServiceInfo(ctx)
		return err
	})
	return
}

func (rc *RetryClient) GetCollection(ctx context.Context, collectionID string) (info *CollectionInfo, err error) {
	err = rc.retry(ctx, "get collection", func() error {
		info, err = rc.inner.GetCollection(ctx, collectionID)
		return err
	})
	return
}

func (rc *RetryClient) ListSources(ctx context.Context, collectionID string) (sources []*SourceInfo, err error) {
	err = rc.retry(ctx, "list sources", func() error {
		sources, err = rc.inner.ListSources(ctx, collectionID)
		return err
	})
	return
}

func (rc *RetryClient) GetImagesetID(ctx context.Context, collectionID, source string) (id string, err error) {
	err = rc.retry(ctx, "get imageset id", func() error {
		id, err = rc.inner.GetImagesetID(ctx, collectionID, source)
		return err
	})
	return
}

func (rc *RetryClient) GetImageMetaLookup(ctx context.Context, imagesetID string) (lookup []int, err error) {
	err = rc.retry(ctx, "get image meta lookup", func() error {
		lookup, err = rc.inner.GetImageMetaLookup(ctx, imagesetID)
		return err
	})
	return
}

func (rc *RetryClient) UploadAnnotation(ctx context.Context, collectionID string, req *UploadAnnotationRequest) (stored *models.StoredAnnotation, err error) {
	err = rc.retry(ctx, "upload annotation", func() error {
		stored, err = rc.inner.UploadAnnotation(ctx, collectionID, req)
		return err
	})
	return
}

func (rc *RetryClient) GetAnnotation(ctx context.Context, collectionID, annotationID string) (stored *models.StoredAnnotation, err error) {
	err = rc.retry(ctx, "get annotation", func() error {
		stored, err = rc.inner.GetAnnotation(ctx, collectionID, annotationID)
		return err
	})
	return
}

func (rc *RetryClient) ListAnnotations(ctx context.Context, collectionID, source string, imageIndex int) (anns []*models.StoredAnnotation, err error) {
	err = rc.retry(ctx, "list annotations", func() error {
		anns, err = rc.inner.ListAnnotations(ctx, collectionID, source, imageIndex)
		return err
	})
	return
}
