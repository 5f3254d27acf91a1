// Package remote defines the protocol types and client for talking to a
// maskann annotation service.
package remote

import (
	"github.com/edkvist/maskann/internal/models"
)

// ServiceInfo is summary information about the annotation service.
type ServiceInfo struct {
	Name            string `json:"name"`
	Version         string `json:"version"`
	CollectionCount int    `json:"collection_count"`
	AnnotationCount int    `json:"annotation_count"`
}

// CollectionInfo describes a collection of images.
type CollectionInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	SourceCount int    `json:"source_count"`
}

// SourceInfo describes one source of a collection. Each source points at an
// imageset holding the actual images.
type SourceInfo struct {
	Name       string `json:"name"`
	ImagesetID string `json:"imageset_id"`
	ImageCount int    `json:"image_count"`
}

// ImagesetResponse resolves a source to its imageset.
type ImagesetResponse struct {
	ImagesetID string `json:"imageset_id"`
}

// LookupResponse carries the ordered image-meta lookup of an imageset: the
// i-th row of the collection maps to ImageIndices[i].
type LookupResponse struct {
	ImageIndices []int `json:"image_indices"`
}

// UploadAnnotationRequest attaches an uploadable mask package to an image of
// a collection source.
type UploadAnnotationRequest struct {
	Source     string             `json:"source"`
	ImageIndex int                `json:"image_index"`
	Uploadable *models.Uploadable `json:"uploadable"`
}

// AnnotationListResponse is a page of stored annotation records.
type AnnotationListResponse struct {
	Annotations []*models.StoredAnnotation `json:"annotations"`
}

// CreateCollectionRequest seeds a collection with its sources and their
// image-meta lookups. Served by the reference server's admin surface.
type CreateCollectionRequest struct {
	ID      string              `json:"id,omitempty"`
	Name    string              `json:"name"`
	Sources []*CreateSourceSpec `json:"sources"`
}

// CreateSourceSpec describes one source to seed.
type CreateSourceSpec struct {
	Name         string `json:"name"`
	ImagesetID   string `json:"imageset_id,omitempty"`
	ImageIndices []int  `json:"image_indices"`
}

// ErrorResponse is the structured error format returned by the server.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Detail  map[string]string `json:"detail,omitempty"`
}
