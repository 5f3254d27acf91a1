package remote

import (
	"context"
	"fmt"

	"github.com/edkvist/maskann/internal/models"
)

// MockClient is a mock implementation of Client for testing.
type MockClient struct {
	// Collections stores collection summaries by ID.
	Collections map[string]*CollectionInfo
	// Sources stores each collection's sources by collection ID.
	Sources map[string][]*SourceInfo
	// Lookups stores image-meta lookups by imageset ID.
	Lookups map[string][]int
	// Annotations stores annotation records by "collectionID/annotationID".
	Annotations map[string]*models.StoredAnnotation
	// Err can be set to make all methods return an error.
	Err error
	// Calls counts invocations per method name.
	Calls map[string]int

	nextID int
}

// NewMockClient creates a new MockClient for testing.
func NewMockClient() *MockClient {
	return &MockClient{
		Collections: make(map[string]*CollectionInfo),
		Sources:     make(map[string][]*SourceInfo),
		Lookups:     make(map[string][]int),
		Annotations: make(map[string]*models.StoredAnnotation),
		Calls:       make(map[string]int),
	}
}

// AddCollection registers a collection with its sources and lookups.
func (m *MockClient) AddCollection(info *CollectionInfo, sources []*SourceInfo, lookups map[string][]int) {
	m.Collections[info.ID] = info
	m.Sources[info.ID] = sources
	for imagesetID, lookup := range lookups {
		m.Lookups[imagesetID] = lookup
	}
}

func (m *MockClient) called(name string) error {
	m.Calls[name]++
	return m.Err
}

func (m *MockClient) GetServiceInfo(ctx context.Context) (*ServiceInfo, error) {
	if err := m.called("GetServiceInfo"); err != nil {
		return nil, err
	}
	return &ServiceInfo{
		Name:            "mock",
		Version:         "0.0.0",
		CollectionCount: len(m.Collections),
		AnnotationCount: len(m.Annotations),
	}, nil
}

func (m *MockClient) GetCollection(ctx context.Context, collectionID string) (*CollectionInfo, error) {
	if err := m.called("GetCollection"); err != nil {
		return nil, err
	}
	info, ok := m.Collections[collectionID]
	if !ok {
		return nil, &RemoteError{Code: "not_found", Message: "collection " + collectionID, Status: 404}
	}
	return info, nil
}

func (m *MockClient) ListSources(ctx context.Context, collectionID string) ([]*SourceInfo, error) {
	if err := m.called("ListSources"); err != nil {
		return nil, err
	}
	return m.Sources[collectionID], nil
}

func (m *MockClient) GetImagesetID(ctx context.Context, collectionID, source string) (string, error) {
	if err := m.called("GetImagesetID"); err != nil {
		return "", err
	}
	for _, s := range m.Sources[collectionID] {
		if s.Name == source {
			return s.ImagesetID, nil
		}
	}
	return "", &RemoteError{Code: "not_found", Message: "source " + source, Status: 404}
}

func (m *MockClient) GetImageMetaLookup(ctx context.Context, imagesetID string) ([]int, error) {
	if err := m.called("GetImageMetaLookup"); err != nil {
		return nil, err
	}
	lookup, ok := m.Lookups[imagesetID]
	if !ok {
		return nil, &RemoteError{Code: "not_found", Message: "imageset " + imagesetID, Status: 404}
	}
	return lookup, nil
}

func (m *MockClient) UploadAnnotation(ctx context.Context, collectionID string, req *UploadAnnotationRequest) (*models.StoredAnnotation, error) {
	if err := m.called("UploadAnnotation"); err != nil {
		return nil, err
	}

	m.nextID++
	imagesetID, _ := m.GetImagesetID(ctx, collectionID, req.Source)
	idx := req.ImageIndex
	stored := &models.StoredAnnotation{
		ID:         fmt.Sprintf("ann-%d", m.nextID),
		ImagesetID: imagesetID,
		ImageIndex: &idx,
		Source:     req.Source,
		Type:       req.Uploadable.Type,
		Format:     req.Uploadable.Format,
		ClassID:    req.Uploadable.ClassID,
		Annotation: req.Uploadable.Annotation,
	}
	m.Annotations[collectionID+"/"+stored.ID] = stored
	return stored, nil
}

func (m *MockClient) GetAnnotation(ctx context.Context, collectionID, annotationID string) (*models.StoredAnnotation, error) {
	if err := m.called("GetAnnotation"); err != nil {
		return nil, err
	}
	stored, ok := m.Annotations[collectionID+"/"+annotationID]
	if !ok {
		return nil, &RemoteError{Code: "not_found", Message: "annotation " + annotationID, Status: 404}
	}
	return stored, nil
}

func (m *MockClient) ListAnnotations(ctx context.Context, collectionID, source string, imageIndex int) ([]*models.StoredAnnotation, error) {
	if err := m.called("ListAnnotations"); err != nil {
		return nil, err
	}
	var out []*models.StoredAnnotation
	for key, a := range m.Annotations {
		if len(key) < len(collectionID) || key[:len(collectionID)] != collectionID {
			continue
		}
		if source != "" && a.Source != source {
			continue
		}
		if imageIndex != AllImages && (a.ImageIndex == nil || *a.ImageIndex != imageIndex) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
