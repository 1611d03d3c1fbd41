package docstore

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound      = errors.New("docstore: document not found")
	ErrAlreadyExists = errors.New("docstore: document already exists")
)

// Document 路径寻址的文档快照
type Document struct {
	Path      string
	Fields    map[string]any
	CreatedAt time.Time
}

// ID returns the last path segment.
func (d *Document) ID() string {
	if i := strings.LastIndexByte(d.Path, '/'); i >= 0 {
		return d.Path[i+1:]
	}
	return d.Path
}

func (d *Document) String(key string) string {
	if v, ok := d.Fields[key].(string); ok {
		return v
	}
	return ""
}

func (d *Document) Bool(key string) bool {
	v, _ := d.Fields[key].(bool)
	return v
}

// Strings returns an array-valued field; missing reads as empty.
func (d *Document) Strings(key string) []string {
	switch v := d.Fields[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Contains reports membership of member in the array-valued field.
func (d *Document) Contains(key, member string) bool {
	for _, m := range d.Strings(key) {
		if m == member {
			return true
		}
	}
	return false
}

// Filter ops mirror the store's native query surface: "==", ">=", "<="
// on scalar string fields and "array-contains" on array fields.
type Filter struct {
	Field string
	Op    string
	Value any
}

// Query describes an ordered collection read. Ordering is always by the
// store-assigned creation time; Desc selects newest-first.
type Query struct {
	Collection string
	Filters    []Filter
	Desc       bool
	Limit      int
}

// Subscription is a standing watch on a query. Every change notification
// (the initial load included) delivers the full current ordered snapshot
// on C. Slow consumers are coalesced to the latest snapshot.
type Subscription struct {
	C      <-chan []Document
	cancel func()
	once   sync.Once
}

// Cancel detaches the subscription. No deliveries happen afterwards;
// already dispatched snapshots are not retracted. Safe to call twice.
func (s *Subscription) Cancel() {
	if s.cancel != nil {
		s.once.Do(s.cancel)
	}
}

// Store is a path-addressed document database. Paths alternate collection
// and document segments ("posts/p1", "posts/p1/comments/c1"). Creation
// timestamps are assigned by the store at write time, never by callers.
type Store interface {
	// Get point-reads a document. ErrNotFound when absent.
	Get(ctx context.Context, path string) (Document, error)
	// Create writes a new document, failing with ErrAlreadyExists when a
	// document is already present at path (create-if-absent).
	Create(ctx context.Context, path string, fields map[string]any) error
	// Set overwrites all fields, creating the document when missing.
	// An existing creation timestamp is preserved.
	Set(ctx context.Context, path string, fields map[string]any) error
	// Merge partially updates fields of an existing document.
	Merge(ctx context.Context, path string, fields map[string]any) error
	// Delete removes the document. Deleting an absent document is a no-op.
	Delete(ctx context.Context, path string) error

	// AddToSet / RemoveFromSet atomically mutate membership of an
	// array-valued field. The parent document must exist.
	AddToSet(ctx context.Context, path, field string, members ...string) error
	RemoveFromSet(ctx context.Context, path, field string, members ...string) error

	// Query returns the current ordered snapshot for q.
	Query(ctx context.Context, q Query) ([]Document, error)
	// Watch establishes a change subscription for q.
	Watch(ctx context.Context, q Query) (*Subscription, error)

	Close() error
}

// Collection returns the collection a document path belongs to.
func Collection(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

func matches(d *Document, filters []Filter) bool {
	for _, f := range filters {
		switch f.Op {
		case "==":
			if d.Fields[f.Field] != f.Value {
				return false
			}
		case ">=":
			s, _ := f.Value.(string)
			if d.String(f.Field) < s {
				return false
			}
		case "<=":
			s, _ := f.Value.(string)
			if d.String(f.Field) > s {
				return false
			}
		case "array-contains":
			s, _ := f.Value.(string)
			if !d.Contains(f.Field, s) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// stamper hands out strictly monotonic creation timestamps so the
// ordering key never ties even for back-to-back writes.
type stamper struct {
	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

func (s *stamper) stamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.now()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

// applyQuery filters, orders and limits a collection-scoped snapshot.
func applyQuery(docs []Document, q Query) []Document {
	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].Path < docs[j].Path
		}
		return docs[i].CreatedAt.Before(docs[j].CreatedAt)
	})
	out := make([]Document, 0, len(docs))
	for i := range docs {
		if matches(&docs[i], q.Filters) {
			out = append(out, docs[i])
		}
	}
	if q.Desc {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// coalesce sends snap on ch, replacing a pending undelivered snapshot so
// a slow consumer always observes the latest state.
func coalesce(ch chan []Document, snap []Document) {
	for {
		select {
		case ch <- snap:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
