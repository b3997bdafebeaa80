package models

import (
	"encoding/json"
	"fmt"
)

// DocKind distinguishes the three document families served by the engine.
type DocKind string

const (
	DocRegistry  DocKind = "registry"
	DocBulletins DocKind = "bulletins"
	DocList      DocKind = "list"
)

// DocKey identifies one document: the registry, the bulletin board, or a
// single list. It is comparable and used as a map key for caches and
// subscription sets.
type DocKey struct {
	Kind   DocKind
	ListID string
}

// RegistryKey returns the key of the list registry document.
func RegistryKey() DocKey { return DocKey{Kind: DocRegistry} }

// BulletinsKey returns the key of the bulletin board document.
func BulletinsKey() DocKey { return DocKey{Kind: DocBulletins} }

// ListKey returns the key of the list document with the given id.
func ListKey(listID string) DocKey { return DocKey{Kind: DocList, ListID: listID} }

// IsList reports whether the key names a per-list document.
func (k DocKey) IsList() bool { return k.Kind == DocList }

// StoreKey returns the blob-store key for this document.
func (k DocKey) StoreKey() string {
	if k.Kind == DocList {
		return "list/" + k.ListID
	}
	return string(k.Kind)
}

func (k DocKey) String() string { return k.StoreKey() }

// MarshalJSON renders the wire form: "registry", "bulletins", or {"listId": id}.
func (k DocKey) MarshalJSON() ([]byte, error) {
	switch k.Kind {
	case DocRegistry, DocBulletins:
		return json.Marshal(string(k.Kind))
	case DocList:
		return json.Marshal(map[string]string{"listId": k.ListID})
	}
	return nil, fmt.Errorf("unknown document kind %q", k.Kind)
}

// UnmarshalJSON parses the wire form of a document selector.
func (k *DocKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case string(DocRegistry):
			*k = RegistryKey()
			return nil
		case string(DocBulletins):
			*k = BulletinsKey()
			return nil
		}
		return fmt.Errorf("unknown document selector %q", s)
	}

	var obj struct {
		ListID string `json:"listId"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid document selector")
	}
	if obj.ListID == "" {
		return fmt.Errorf("document selector missing listId")
	}
	*k = ListKey(obj.ListID)
	return nil
}
