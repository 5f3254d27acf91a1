package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/edkvist/maskann/internal/models"
)

// Client defines the contract for communicating with an annotation service.
// ListAnnotations filters by source and image index; pass source="" or
// imageIndex=AllImages to skip a filter.
type Client interface {
	GetServiceInfo(ctx context.Context) (*ServiceInfo, error)

	GetCollection(ctx context.Context, collectionID string) (*CollectionInfo, error)
	ListSources(ctx context.Context, collectionID string) ([]*SourceInfo, error)
	GetImagesetID(ctx context.Context, collectionID, source string) (string, error)
	GetImageMetaLookup(ctx context.Context, imagesetID string) ([]int, error)

	UploadAnnotation(ctx context.Context, collectionID string, req *UploadAnnotationRequest) (*models.StoredAnnotation, error)
	GetAnnotation(ctx context.Context, collectionID, annotationID string) (*models.StoredAnnotation, error)
	ListAnnotations(ctx context.Context, collectionID, source string, imageIndex int) ([]*models.StoredAnnotation, error)
}

// AllImages disables the image-index filter of ListAnnotations.
const AllImages = -1

// HTTPClient implements Client over HTTP.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates an HTTP-based annotation service client.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{},
	}
}

func (c *HTTPClient) apiURL(path string) string {
	return fmt.Sprintf("%s/api/v1%s", c.baseURL, path)
}

func (c *HTTPClient) do(ctx context.Context, method, url string, body io.Reader, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}

	return resp, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, url string, reqBody, respBody interface{}) error {
	var body io.Reader
	headers := map[string]string{"Content-Type": "application/json"}

	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	resp, err := c.do(ctx, method, url, body, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}

	return nil
}

// GetServiceInfo returns summary info about the annotation service.
func (c *HTTPClient) GetServiceInfo(ctx context.Context) (*ServiceInfo, error) {
	var info ServiceInfo
	if err := c.doJSON(ctx, "GET", c.apiURL("/info"), nil, &info); err != nil {
		return nil, fmt.Errorf("get service info: %w", err)
	}
	return &info, nil
}

// GetCollection fetches a collection's summary record.
func (c *HTTPClient) GetCollection(ctx context.Context, collectionID string) (*CollectionInfo, error) {
	var info CollectionInfo
	if err := c.doJSON(ctx, "GET", c.apiURL("/collections/"+collectionID), nil, &info); err != nil {
		return nil, fmt.Errorf("get collection %s: %w", collectionID, err)
	}
	return &info, nil
}

// ListSources lists the sources of a collection.
func (c *HTTPClient) ListSources(ctx context.Context, collectionID string) ([]*SourceInfo, error) {
	var sources []*SourceInfo
	if err := c.doJSON(ctx, "GET", c.apiURL("/collections/"+collectionID+"/sources"), nil, &sources); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}

// GetImagesetID resolves a collection source to its imageset.
func (c *HTTPClient) GetImagesetID(ctx context.Context, collectionID, source string) (string, error) {
	var resp ImagesetResponse
	url := c.apiURL("/collections/" + collectionID + "/sources/" + source + "/imageset")
	if err := c.doJSON(ctx, "GET", url, nil, &resp); err != nil {
		return "", fmt.Errorf("get imageset for source %s: %w", source, err)
	}
	return resp.ImagesetID, nil
}

// GetImageMetaLookup downloads the ordered image-meta lookup of an imageset.
func (c *HTTPClient) GetImageMetaLookup(ctx context.Context, imagesetID string) ([]int, error) {
	var resp LookupResponse
	if err := c.doJSON(ctx, "GET", c.apiURL("/imagesets/"+imagesetID+"/lookup"), nil, &resp); err != nil {
		return nil, fmt.Errorf("get image meta lookup for imageset %s: %w", imagesetID, err)
	}
	return resp.ImageIndices, nil
}

// UploadAnnotation hands an uploadable package to the service and returns the
// stored record the service created from it.
func (c *HTTPClient) UploadAnnotation(ctx context.Context, collectionID string, req *UploadAnnotationRequest) (*models.StoredAnnotation, error) {
	var stored models.StoredAnnotation
	url := c.apiURL("/collections/" + collectionID + "/annotations")
	if err := c.doJSON(ctx, "POST", url, req, &stored); err != nil {
		return nil, fmt.Errorf("upload annotation: %w", err)
	}
	return &stored, nil
}

// GetAnnotation fetches a single stored annotation record.
func (c *HTTPClient) GetAnnotation(ctx context.Context, collectionID, annotationID string) (*models.StoredAnnotation, error) {
	var stored models.StoredAnnotation
	url := c.apiURL("/collections/" + collectionID + "/annotations/" + annotationID)
	if err := c.doJSON(ctx, "GET", url, nil, &stored); err != nil {
		return nil, fmt.Errorf("get annotation %s: %w", annotationID, err)
	}
	return &stored, nil
}

// ListAnnotations lists stored annotation records, optionally filtered by
// source and image index.
func (c *HTTPClient) ListAnnotations(ctx context.Context, collectionID, source string, imageIndex int) ([]*models.StoredAnnotation, error) {
	q := url.Values{}
	if source != "" {
		q.Set("source", source)
	}
	if imageIndex != AllImages {
		q.Set("image_index", strconv.Itoa(imageIndex))
	}

	u := c.apiURL("/collections/" + collectionID + "/annotations")
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var resp AnnotationListResponse
	if err := c.doJSON(ctx, "GET", u, nil, &resp); err != nil {
		return nil, fmt.Errorf("list annotations: %w", err)
	}
	return resp.Annotations, nil
}

// CreateCollection seeds a collection on the reference server. It is not part
// of the Client interface; only admin tooling needs it.
func (c *HTTPClient) CreateCollection(ctx context.Context, req *CreateCollectionRequest) (*CollectionInfo, error) {
	var info CollectionInfo
	if err := c.doJSON(ctx, "POST", c.apiURL("/collections"), req, &info); err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &info, nil
}

// RemoteError represents a structured error from the server.
type RemoteError struct {
	Code    string
	Message string
	Status  int
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote error (%d): %s — %s", e.Status, e.Code, e.Message)
}

func decodeError(resp *http.Response) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err != nil {
		return &RemoteError{
			Code:    "unknown",
			Message: fmt.Sprintf("HTTP %d", resp.StatusCode),
			Status:  resp.StatusCode,
		}
	}

	return &RemoteError{
		Code:    errResp.Error,
		Message: errResp.Message,
		Status:  resp.StatusCode,
	}
}
