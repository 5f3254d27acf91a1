package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/edkvist/maskann/internal/mask"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *HTTPClient {
	t.Helper()
	c := NewHTTPClient("http://svc.test", "secret-token")
	httpmock.ActivateNonDefault(c.httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	return c
}

func TestHTTPClient_GetCollection(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder("GET", "http://svc.test/api/v1/collections/col-1",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer secret-token", req.Header.Get("Authorization"))
			return httpmock.NewJsonResponse(200, &CollectionInfo{
				ID: "col-1", Name: "Cells", SourceCount: 2,
			})
		})

	info, err := c.GetCollection(context.Background(), "col-1")
	require.NoError(t, err)
	assert.Equal(t, "Cells", info.Name)
	assert.Equal(t, 2, info.SourceCount)
}

func TestHTTPClient_GetImageMetaLookup(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder("GET", "http://svc.test/api/v1/imagesets/is-9/lookup",
		httpmock.NewJsonResponderOrPanic(200, &LookupResponse{ImageIndices: []int{5, 2, 8}}))

	lookup, err := c.GetImageMetaLookup(context.Background(), "is-9")
	require.NoError(t, err)
	assert.Equal(t, []int{5, 2, 8}, lookup)
}

func TestHTTPClient_UploadAnnotation(t *testing.T) {
	c := newTestClient(t)

	up, err := mask.CreateUploadable([][]bool{{true, false}, {false, true}}, 2)
	require.NoError(t, err)

	httpmock.RegisterResponder("POST", "http://svc.test/api/v1/collections/col-1/annotations",
		func(req *http.Request) (*http.Response, error) {
			var body UploadAnnotationRequest
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "main", body.Source)
			assert.Equal(t, 7, body.ImageIndex)
			require.NotNil(t, body.Uploadable)
			assert.Equal(t, "1UC1", body.Uploadable.Format)

			idx := body.ImageIndex
			return httpmock.NewJsonResponse(201, map[string]any{
				"id":          "ann-1",
				"imageset_id": "is-1",
				"image_index": idx,
				"type":        body.Uploadable.Type,
				"annotation":  body.Uploadable.Annotation,
			})
		})

	stored, err := c.UploadAnnotation(context.Background(), "col-1", &UploadAnnotationRequest{
		Source:     "main",
		ImageIndex: 7,
		Uploadable: up,
	})
	require.NoError(t, err)
	assert.Equal(t, "ann-1", stored.ID)
	require.NotNil(t, stored.ImageIndex)
	assert.Equal(t, 7, *stored.ImageIndex)

	// The mask survives the wire round trip.
	p, err := mask.DecodeDataURI(stored.Annotation.Mask)
	require.NoError(t, err)
	assert.True(t, p.At(0, 0))
	assert.False(t, p.At(1, 0))
}

func TestHTTPClient_ListAnnotationsQuery(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder("GET", "http://svc.test/api/v1/collections/col-1/annotations",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "main", req.URL.Query().Get("source"))
			assert.Equal(t, "3", req.URL.Query().Get("image_index"))
			return httpmock.NewJsonResponse(200, &AnnotationListResponse{})
		})

	_, err := c.ListAnnotations(context.Background(), "col-1", "main", 3)
	require.NoError(t, err)
}

func TestHTTPClient_DecodesStructuredError(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder("GET", "http://svc.test/api/v1/collections/nope",
		httpmock.NewJsonResponderOrPanic(404, &ErrorResponse{
			Error:   "not_found",
			Message: "collection 'nope' does not exist",
		}))

	_, err := c.GetCollection(context.Background(), "nope")
	require.Error(t, err)

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 404, re.Status)
	assert.Equal(t, "not_found", re.Code)
	assert.Contains(t, re.Message, "nope")
}

func TestHTTPClient_UnstructuredError(t *testing.T) {
	c := newTestClient(t)

	httpmock.RegisterResponder("GET", "http://svc.test/api/v1/info",
		httpmock.NewStringResponder(502, "bad gateway"))

	_, err := c.GetServiceInfo(context.Background())
	require.Error(t, err)

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 502, re.Status)
	assert.Equal(t, "unknown", re.Code)
}
