// Package docstore keeps at most one live CRDT document handle per key and
// tracks which documents have advanced past their last flush.
//
// The cache is not internally synchronized: the session hub serializes all
// access under its single mutex, including the flush timer's collection
// pass, so no document is serialized while a mutation is mid-flight.
package docstore

import (
	"context"
	"fmt"

	"github.com/drschille/CRDT-Server/internal/crdt"
	"github.com/drschille/CRDT-Server/internal/domain"
	"github.com/drschille/CRDT-Server/internal/models"
	"github.com/drschille/CRDT-Server/internal/store"
)

// Cache is the in-memory registry of live document handles.
type Cache struct {
	store store.Store
	docs  map[models.DocKey]*crdt.Doc
	// dirty maps keys to a generation counter; the counter advances on
	// every MarkDirty, so a flush only clears the bit when no further
	// mutation landed while its write was in flight.
	dirty map[models.DocKey]uint64
}

// PendingWrite is one serialized dirty document awaiting a blob write.
type PendingWrite struct {
	Key  models.DocKey
	Data []byte
	gen  uint64
}

// New creates an empty cache over the given blob store.
func New(s store.Store) *Cache {
	return &Cache{
		store: s,
		docs:  make(map[models.DocKey]*crdt.Doc),
		dirty: make(map[models.DocKey]uint64),
	}
}

// Get returns the live handle for key, loading its blob on first access or
// initializing an empty document of the appropriate shape when no blob
// exists. A freshly initialized document is marked dirty so it reaches the
// store on the next flush.
func (c *Cache) Get(ctx context.Context, key models.DocKey) (*crdt.Doc, error) {
	if doc, ok := c.docs[key]; ok {
		return doc, nil
	}

	data, err := c.store.Read(ctx, key.StoreKey())
	if err != nil {
		return nil, err
	}

	var doc *crdt.Doc
	if data == nil {
		doc = crdt.New()
		if err := domain.InitDoc(key, doc); err != nil {
			return nil, fmt.Errorf("initialize %s: %w", key, err)
		}
		c.docs[key] = doc
		c.MarkDirty(key)
		return doc, nil
	}

	doc, err = crdt.Load(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	c.docs[key] = doc
	return doc, nil
}

// Peek returns the cached handle for key without loading, or nil.
func (c *Cache) Peek(key models.DocKey) *crdt.Doc {
	return c.docs[key]
}

// MarkDirty records that key's in-memory state has advanced past the last
// flush.
func (c *Cache) MarkDirty(key models.DocKey) {
	c.dirty[key]++
}

// Forget drops the cached handle and dirty bit without writing. Used when
// a list is deleted.
func (c *Cache) Forget(key models.DocKey) {
	delete(c.docs, key)
	delete(c.dirty, key)
}

// CollectDirty serializes every dirty document. The caller performs the
// blob writes outside the critical section and reports each success via
// ClearFlushed.
func (c *Cache) CollectDirty() []PendingWrite {
	writes := make([]PendingWrite, 0, len(c.dirty))
	for key, gen := range c.dirty {
		doc, ok := c.docs[key]
		if !ok {
			delete(c.dirty, key)
			continue
		}
		writes = append(writes, PendingWrite{Key: key, Data: doc.Save(), gen: gen})
	}
	return writes
}

// ClearFlushed clears the dirty bit for a completed write unless the
// document was mutated again while the write was in flight.
func (c *Cache) ClearFlushed(w PendingWrite) {
	if c.dirty[w.Key] == w.gen {
		delete(c.dirty, w.Key)
	}
}

// DirtyCount returns the number of documents awaiting a flush.
func (c *Cache) DirtyCount() int {
	return len(c.dirty)
}

// Len returns the number of live document handles.
func (c *Cache) Len() int {
	return len(c.docs)
}
