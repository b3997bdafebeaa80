package domain

import (
	"fmt"
	"time"

	"github.com/drschille/CRDT-Server/internal/crdt"
	"github.com/drschille/CRDT-Server/internal/models"
)

// InitDoc gives an empty document the fixed shape of its kind. Called once
// when no blob exists for the key.
func InitDoc(key models.DocKey, doc *crdt.Doc) error {
	root := doc.Root()
	switch key.Kind {
	case models.DocRegistry:
		if _, err := root.SetNewList("lists"); err != nil {
			return err
		}
	case models.DocBulletins:
		if _, err := root.SetNewList("bulletins"); err != nil {
			return err
		}
	case models.DocList:
		if err := root.Set("listId", key.ListID); err != nil {
			return err
		}
		if _, err := root.SetNewList("items"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown document kind %q", key.Kind)
	}
	return doc.Commit("init " + string(key.Kind))
}

func entriesList(reg *crdt.Doc) (*crdt.List, error) {
	lists, err := reg.Root().GetList("lists")
	if err != nil {
		return nil, err
	}
	if lists == nil {
		return nil, fmt.Errorf("registry document missing lists")
	}
	return lists, nil
}

func itemsList(doc *crdt.Doc) (*crdt.List, error) {
	items, err := doc.Root().GetList("items")
	if err != nil {
		return nil, err
	}
	if items == nil {
		return nil, fmt.Errorf("list document missing items")
	}
	return items, nil
}

func bulletinsList(doc *crdt.Doc) (*crdt.List, error) {
	bulletins, err := doc.Root().GetList("bulletins")
	if err != nil {
		return nil, err
	}
	if bulletins == nil {
		return nil, fmt.Errorf("bulletins document missing bulletins")
	}
	return bulletins, nil
}

func readEntry(m *crdt.Map) (*models.ListEntryView, error) {
	var e models.ListEntryView
	var err error
	if e.ID, _, err = m.GetString("id"); err != nil {
		return nil, err
	}
	if e.OwnerID, _, err = m.GetString("ownerId"); err != nil {
		return nil, err
	}
	name, err := m.GetText("name")
	if err != nil {
		return nil, err
	}
	if name != nil {
		if e.Name, err = name.String(); err != nil {
			return nil, err
		}
	}
	if e.CreatedAt, _, err = m.GetString("createdAt"); err != nil {
		return nil, err
	}
	if e.UpdatedAt, _, err = m.GetString("updatedAt"); err != nil {
		return nil, err
	}
	if e.Visibility, _, err = m.GetString("visibility"); err != nil {
		return nil, err
	}
	if e.Archived, err = m.GetBool("archived"); err != nil {
		return nil, err
	}
	e.Collaborators = []string{}
	collabs, err := m.GetList("collaborators")
	if err != nil {
		return nil, err
	}
	if collabs != nil {
		for i := 0; i < collabs.Len(); i++ {
			c, err := collabs.Str(i)
			if err != nil {
				return nil, err
			}
			if c != "" {
				e.Collaborators = append(e.Collaborators, c)
			}
		}
	}
	return &e, nil
}

func readItem(m *crdt.Map) (*models.ItemView, error) {
	var it models.ItemView
	var err error
	if it.ID, _, err = m.GetString("id"); err != nil {
		return nil, err
	}
	label, err := m.GetText("label")
	if err != nil {
		return nil, err
	}
	if label != nil {
		if it.Label, err = label.String(); err != nil {
			return nil, err
		}
	}
	if it.CreatedAt, _, err = m.GetString("createdAt"); err != nil {
		return nil, err
	}
	if it.AddedBy, _, err = m.GetString("addedBy"); err != nil {
		return nil, err
	}
	if it.Quantity, _, err = m.GetString("quantity"); err != nil {
		return nil, err
	}
	if it.Vendor, _, err = m.GetString("vendor"); err != nil {
		return nil, err
	}
	notes, err := m.GetText("notes")
	if err != nil {
		return nil, err
	}
	if notes != nil {
		if it.Notes, err = notes.String(); err != nil {
			return nil, err
		}
	}
	if it.Checked, err = m.GetBool("checked"); err != nil {
		return nil, err
	}
	return &it, nil
}

func readBulletin(m *crdt.Map) (*models.BulletinView, error) {
	var b models.BulletinView
	var err error
	if b.ID, _, err = m.GetString("id"); err != nil {
		return nil, err
	}
	if b.AuthorID, _, err = m.GetString("authorId"); err != nil {
		return nil, err
	}
	text, err := m.GetText("text")
	if err != nil {
		return nil, err
	}
	if text != nil {
		if b.Text, err = text.String(); err != nil {
			return nil, err
		}
	}
	if b.CreatedAt, _, err = m.GetString("createdAt"); err != nil {
		return nil, err
	}
	if b.EditedAt, _, err = m.GetString("editedAt"); err != nil {
		return nil, err
	}
	if b.Visibility, _, err = m.GetString("visibility"); err != nil {
		return nil, err
	}
	return &b, nil
}

// findByID locates the element of l whose "id" field equals id.
func findByID(l *crdt.List, id string) (*crdt.Map, int, error) {
	for i := 0; i < l.Len(); i++ {
		m, err := l.Map(i)
		if err != nil {
			return nil, -1, err
		}
		if m == nil {
			continue
		}
		elemID, _, err := m.GetString("id")
		if err != nil {
			return nil, -1, err
		}
		if elemID == id {
			return m, i, nil
		}
	}
	return nil, -1, nil
}

// FindEntry returns the registry entry for listID, or nil when absent.
func FindEntry(reg *crdt.Doc, listID string) (*models.ListEntryView, error) {
	lists, err := entriesList(reg)
	if err != nil {
		return nil, err
	}
	m, _, err := findByID(lists, listID)
	if err != nil || m == nil {
		return nil, err
	}
	return readEntry(m)
}

// TouchEntry refreshes a list entry's updatedAt after an item mutation.
// Committed as its own change on the registry document.
func TouchEntry(reg *crdt.Doc, listID string, now time.Time) error {
	lists, err := entriesList(reg)
	if err != nil {
		return err
	}
	m, _, err := findByID(lists, listID)
	if err != nil {
		return err
	}
	if m == nil {
		return nil
	}
	if err := m.Set("updatedAt", timestamp(now)); err != nil {
		return err
	}
	return reg.Commit("touch " + listID)
}

// timestamp renders the host clock in ISO-8601 UTC. Ordering between
// concurrent updates is resolved by the CRDT, not by these values.
func timestamp(now time.Time) string {
	return now.UTC().Format(time.RFC3339)
}
