package domain

import (
	"github.com/drschille/CRDT-Server/internal/crdt"
	"github.com/drschille/CRDT-Server/internal/models"
)

// ProjectRegistry renders the registry for one viewer: entries the viewer
// cannot see are omitted entirely.
func ProjectRegistry(reg *crdt.Doc, viewer string) (*models.RegistrySnapshot, error) {
	lists, err := entriesList(reg)
	if err != nil {
		return nil, err
	}
	snapshot := &models.RegistrySnapshot{Lists: []models.ListEntryView{}}
	for i := 0; i < lists.Len(); i++ {
		m, err := lists.Map(i)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		entry, err := readEntry(m)
		if err != nil {
			return nil, err
		}
		if VisibleTo(entry, viewer) {
			snapshot.Lists = append(snapshot.Lists, *entry)
		}
	}
	return snapshot, nil
}

// ProjectBulletins renders the bulletin board for one viewer: private
// bulletins appear only to their author.
func ProjectBulletins(doc *crdt.Doc, viewer string) (*models.BulletinsSnapshot, error) {
	bulletins, err := bulletinsList(doc)
	if err != nil {
		return nil, err
	}
	snapshot := &models.BulletinsSnapshot{Bulletins: []models.BulletinView{}}
	for i := 0; i < bulletins.Len(); i++ {
		m, err := bulletins.Map(i)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		b, err := readBulletin(m)
		if err != nil {
			return nil, err
		}
		if b.Visibility == models.VisibilityPublic || b.AuthorID == viewer {
			snapshot.Bulletins = append(snapshot.Bulletins, *b)
		}
	}
	return snapshot, nil
}

// DumpRegistry renders every registry entry with no privacy filter.
// Development use only.
func DumpRegistry(reg *crdt.Doc) (*models.RegistrySnapshot, error) {
	lists, err := entriesList(reg)
	if err != nil {
		return nil, err
	}
	snapshot := &models.RegistrySnapshot{Lists: []models.ListEntryView{}}
	for i := 0; i < lists.Len(); i++ {
		m, err := lists.Map(i)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		entry, err := readEntry(m)
		if err != nil {
			return nil, err
		}
		snapshot.Lists = append(snapshot.Lists, *entry)
	}
	return snapshot, nil
}

// DumpBulletins renders every bulletin with no privacy filter.
// Development use only.
func DumpBulletins(doc *crdt.Doc) (*models.BulletinsSnapshot, error) {
	bulletins, err := bulletinsList(doc)
	if err != nil {
		return nil, err
	}
	snapshot := &models.BulletinsSnapshot{Bulletins: []models.BulletinView{}}
	for i := 0; i < bulletins.Len(); i++ {
		m, err := bulletins.Map(i)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		b, err := readBulletin(m)
		if err != nil {
			return nil, err
		}
		snapshot.Bulletins = append(snapshot.Bulletins, *b)
	}
	return snapshot, nil
}

// ProjectList renders one list document. Visibility is enforced by the
// caller before projecting; the projection itself is viewer-independent.
func ProjectList(doc *crdt.Doc) (*models.ListSnapshot, error) {
	listID, _, err := doc.Root().GetString("listId")
	if err != nil {
		return nil, err
	}
	items, err := itemsList(doc)
	if err != nil {
		return nil, err
	}
	snapshot := &models.ListSnapshot{ListID: listID, Items: []models.ItemView{}}
	for i := 0; i < items.Len(); i++ {
		m, err := items.Map(i)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		item, err := readItem(m)
		if err != nil {
			return nil, err
		}
		snapshot.Items = append(snapshot.Items, *item)
	}
	return snapshot, nil
}
