// Package crdt wraps the automerge library behind a small surface so the
// rest of the server never handles automerge types directly. Documents are
// mutated in place; Commit seals all pending mutations into one change.
package crdt

import (
	"fmt"

	automerge "github.com/automerge/automerge-go"
)

// Doc is a handle on one CRDT document.
type Doc struct {
	am *automerge.Doc
}

// New returns an empty document.
func New() *Doc {
	return &Doc{am: automerge.New()}
}

// Load deserializes a document from its opaque binary encoding.
func Load(data []byte) (*Doc, error) {
	am, err := automerge.Load(data)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return &Doc{am: am}, nil
}

// Save returns the opaque binary encoding of the document.
func (d *Doc) Save() []byte {
	return d.am.Save()
}

// Commit seals every mutation since the previous commit into a single
// change. Every domain action calls this exactly once.
func (d *Doc) Commit(message string) error {
	if _, err := d.am.Commit(message, automerge.CommitOptions{AllowEmpty: true}); err != nil {
		return fmt.Errorf("commit %q: %w", message, err)
	}
	return nil
}

// Root returns the document's root map.
func (d *Doc) Root() *Map {
	return &Map{am: d.am.RootMap()}
}

// Map wraps an attached automerge map.
type Map struct {
	am *automerge.Map
}

// GetList returns the list stored under key, or nil if absent.
func (m *Map) GetList(key string) (*List, error) {
	v, err := m.am.Get(key)
	if err != nil {
		return nil, err
	}
	if v.Kind() != automerge.KindList {
		return nil, nil
	}
	return &List{am: v.List()}, nil
}

// GetString returns the plain string under key and whether it was present.
func (m *Map) GetString(key string) (string, bool, error) {
	v, err := m.am.Get(key)
	if err != nil {
		return "", false, err
	}
	if v.Kind() != automerge.KindStr {
		return "", false, nil
	}
	return v.Str(), true, nil
}

// GetBool returns the boolean under key, defaulting to false when absent.
func (m *Map) GetBool(key string) (bool, error) {
	v, err := m.am.Get(key)
	if err != nil {
		return false, err
	}
	if v.Kind() != automerge.KindBool {
		return false, nil
	}
	return v.Bool(), nil
}

// GetText returns the collaborative text under key, or nil if absent.
func (m *Map) GetText(key string) (*Text, error) {
	v, err := m.am.Get(key)
	if err != nil {
		return nil, err
	}
	if v.Kind() != automerge.KindText {
		return nil, nil
	}
	return &Text{am: v.Text()}, nil
}

// Set stores a plain value (string, bool, []string, ...) under key.
func (m *Map) Set(key string, value interface{}) error {
	return m.am.Set(key, value)
}

// SetText attaches a fresh collaborative text field under key.
func (m *Map) SetText(key, content string) error {
	return m.am.Set(key, automerge.NewText(content))
}

// SetNewList attaches an empty list under key and returns it.
func (m *Map) SetNewList(key string) (*List, error) {
	if err := m.am.Set(key, automerge.NewList()); err != nil {
		return nil, err
	}
	return m.GetList(key)
}

// Delete removes key from the map. Deleting an absent key is a no-op.
func (m *Map) Delete(key string) error {
	return m.am.Delete(key)
}

// List wraps an attached automerge list.
type List struct {
	am *automerge.List
}

// Len returns the number of elements.
func (l *List) Len() int {
	return l.am.Len()
}

// Map returns the map element at index i, or nil if the element is not a map.
func (l *List) Map(i int) (*Map, error) {
	v, err := l.am.Get(i)
	if err != nil {
		return nil, err
	}
	if v.Kind() != automerge.KindMap {
		return nil, nil
	}
	return &Map{am: v.Map()}, nil
}

// Str returns the string element at index i, or "" if it is not a string.
func (l *List) Str(i int) (string, error) {
	v, err := l.am.Get(i)
	if err != nil {
		return "", err
	}
	if v.Kind() != automerge.KindStr {
		return "", nil
	}
	return v.Str(), nil
}

// AppendNewMap appends an empty map element and returns it.
func (l *List) AppendNewMap() (*Map, error) {
	if err := l.am.Append(automerge.NewMap()); err != nil {
		return nil, err
	}
	return l.Map(l.am.Len() - 1)
}

// Delete removes the element at index i.
func (l *List) Delete(i int) error {
	return l.am.Delete(i)
}

// Text wraps an attached collaborative text field.
type Text struct {
	am *automerge.Text
}

// String renders the full text content.
func (t *Text) String() (string, error) {
	return t.am.Get()
}

// Replace swaps the entire content for s as one splice.
func (t *Text) Replace(s string) error {
	return t.am.Set(s)
}
