package server

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/edkvist/maskann/internal/models"
	"github.com/edkvist/maskann/internal/remote"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketCollections = []byte("collections")
	bucketLookups     = []byte("lookups")
	bucketAnnotations = []byte("annotations")
)

// ErrNotFound is returned by store reads for missing records.
type ErrNotFound struct {
	Kind string
	ID   string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.Kind, e.ID)
}

// storedCollection is the bbolt representation of a collection.
type storedCollection struct {
	Info    *remote.CollectionInfo `json:"info"`
	Sources []*remote.SourceInfo   `json:"sources"`
}

// Store persists collections, imageset lookups, and annotations in bbolt.
type Store struct {
	db *bolt.DB
}

// NewStore opens or creates a bbolt database at the given path.
func NewStore(path string) (*Store, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bbolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketCollections, bucketLookups, bucketAnnotations} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateCollection stores a collection with its sources and their lookups.
func (s *Store) CreateCollection(info *remote.CollectionInfo, sources []*remote.SourceInfo, lookups map[string][]int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		colls := tx.Bucket(bucketCollections)
		if colls.Get([]byte(info.ID)) != nil {
			return fmt.Errorf("collection '%s' already exists", info.ID)
		}

		data, err := json.Marshal(&storedCollection{Info: info, Sources: sources})
		if err != nil {
			return fmt.Errorf("marshal collection: %w", err)
		}
		if err := colls.Put([]byte(info.ID), data); err != nil {
			return err
		}

		lb := tx.Bucket(bucketLookups)
		for imagesetID, lookup := range lookups {
			data, err := json.Marshal(lookup)
			if err != nil {
				return fmt.Errorf("marshal lookup: %w", err)
			}
			if err := lb.Put([]byte(imagesetID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetCollection returns a collection's summary and sources.
func (s *Store) GetCollection(id string) (*remote.CollectionInfo, []*remote.SourceInfo, error) {
	var sc storedCollection
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketCollections).Get([]byte(id))
		if data == nil {
			return &ErrNotFound{Kind: "collection", ID: id}
		}
		return json.Unmarshal(data, &sc)
	})
	if err != nil {
		return nil, nil, err
	}
	return sc.Info, sc.Sources, nil
}

// GetLookup returns the image-meta lookup of an imageset.
func (s *Store) GetLookup(imagesetID string) ([]int, error) {
	var lookup []int
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketLookups).Get([]byte(imagesetID))
		if data == nil {
			return &ErrNotFound{Kind: "imageset", ID: imagesetID}
		}
		return json.Unmarshal(data, &lookup)
	})
	if err != nil {
		return nil, err
	}
	return lookup, nil
}

func annotationKey(collectionID, annotationID string) []byte {
	return []byte(collectionID + "/" + annotationID)
}

// PutAnnotation stores an annotation record under its collection.
func (s *Store) PutAnnotation(collectionID string, ann *models.StoredAnnotation) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(ann)
		if err != nil {
			return fmt.Errorf("marshal annotation: %w", err)
		}
		return tx.Bucket(bucketAnnotations).Put(annotationKey(collectionID, ann.ID), data)
	})
}

// GetAnnotation returns a single annotation record.
func (s *Store) GetAnnotation(collectionID, annotationID string) (*models.StoredAnnotation, error) {
	var ann models.StoredAnnotation
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketAnnotations).Get(annotationKey(collectionID, annotationID))
		if data == nil {
			return &ErrNotFound{Kind: "annotation", ID: annotationID}
		}
		return json.Unmarshal(data, &ann)
	})
	if err != nil {
		return nil, err
	}
	return &ann, nil
}

// ListAnnotations returns all annotation records of a collection, ordered by
// id for stable output.
func (s *Store) ListAnnotations(collectionID string) ([]*models.StoredAnnotation, error) {
	prefix := []byte(collectionID + "/")
	var anns []*models.StoredAnnotation

	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketAnnotations).Cursor()
		for k, v := c.Seek(prefix); k != nil && strings.HasPrefix(string(k), string(prefix)); k, v = c.Next() {
			var ann models.StoredAnnotation
			if err := json.Unmarshal(v, &ann); err != nil {
				return fmt.Errorf("unmarshal annotation %s: %w", k, err)
			}
			anns = append(anns, &ann)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(anns, func(i, j int) bool { return anns[i].ID < anns[j].ID })
	return anns, nil
}

// Counts returns the number of collections and annotations, for /info.
func (s *Store) Counts() (collections, annotations int, err error) {
	err = s.db.View(func(tx *bolt.Tx) error {
		collections = tx.Bucket(bucketCollections).Stats().KeyN
		annotations = tx.Bucket(bucketAnnotations).Stats().KeyN
		return nil
	})
	return
}
