// internal/application/docstore/port.go
package docstore

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrPermissionDenied = errors.New("docstore: permission denied")
	ErrInvalidArgument  = errors.New("docstore: invalid argument")
	ErrNotFound         = errors.New("docstore: not found")
	ErrAlreadyExists    = errors.New("docstore: already exists")
)

// DocumentRef identifies a single document.
type DocumentRef struct {
	Collection string
	ID         string
}

// Doc builds a *DocumentRef; keep the pointer stable when handing it to a subscription.
func Doc(collection, id string) *DocumentRef {
	return &DocumentRef{
		Collection: strings.Trim(strings.TrimSpace(collection), "/"),
		ID:         strings.TrimSpace(id),
	}
}

func (r DocumentRef) Path() string {
	return r.Collection + "/" + r.ID
}

func (r DocumentRef) Valid() bool {
	return r.Collection != "" && r.ID != "" && !strings.Contains(r.ID, "/")
}

// Record is one document as read from the store.
type Record struct {
	ID     string
	decode func(dst any) error
}

func NewRecord(id string, decode func(dst any) error) Record {
	return Record{ID: id, decode: decode}
}

// DataTo decodes the document fields into dst (pointer to struct or map).
func (r Record) DataTo(dst any) error {
	if r.decode == nil {
		return errors.New("docstore: record has no decoder")
	}
	return r.decode(dst)
}

// Reader performs one-shot reads.
type Reader interface {
	// Get returns (nil, nil) when the document does not exist.
	Get(ctx context.Context, ref DocumentRef) (*Record, error)
	List(ctx context.Context, q *Query) ([]Record, error)
}

// LiveSource opens live feeds. onError is called at most once per feed, after
// which the feed delivers nothing more. The returned stop function is safe to
// call more than once and must not block on in-flight callbacks.
type LiveSource interface {
	OpenLiveQuery(q *Query, onSnapshot func([]Record), onError func(error)) (stop func())
	// OpenLiveDocument delivers nil when the document does not exist.
	OpenLiveDocument(ref DocumentRef, onSnapshot func(*Record), onError func(error)) (stop func())
}

// Mutator performs writes.
type Mutator interface {
	// NewRef allocates a fresh document id in collection without writing.
	NewRef(collection string) DocumentRef
	Create(ctx context.Context, ref DocumentRef, data any) error
	// Set overwrites the document; with merge=true data must be a map and only
	// the given fields are replaced.
	Set(ctx context.Context, ref DocumentRef, data any, merge bool) error
	Update(ctx context.Context, ref DocumentRef, fields map[string]any) error
	Delete(ctx context.Context, ref DocumentRef) error
	Batch(ctx context.Context, ops []BatchOp) error
}

// Store is the whole document-store boundary.
type Store interface {
	Reader
	LiveSource
	Mutator
	Close() error
}

type BatchKind string

const (
	BatchSet    BatchKind = "set"
	BatchUpdate BatchKind = "update"
	BatchDelete BatchKind = "delete"
)

// BatchOp is one write of an atomic batch.
type BatchOp struct {
	Kind   BatchKind
	Ref    DocumentRef
	Data   any            // BatchSet
	Merge  bool           // BatchSet
	Fields map[string]any // BatchUpdate
}
