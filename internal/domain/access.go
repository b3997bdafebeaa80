// Package domain implements the document shapes, access-control predicates,
// validated actions, and snapshot projections for the three document
// families: the list registry, per-list item documents, and the bulletin
// board.
package domain

import "github.com/drschille/CRDT-Server/internal/models"

// VisibleTo reports whether userID may read the list described by entry.
func VisibleTo(entry *models.ListEntryView, userID string) bool {
	if entry.Visibility == models.VisibilityPublic {
		return true
	}
	if entry.OwnerID == userID {
		return true
	}
	for _, c := range entry.Collaborators {
		if c == userID {
			return true
		}
	}
	return false
}

// EditableTo reports whether userID may mutate the items of the list
// described by entry. Archived lists are read-only; any signed-in user may
// edit a public list's items.
func EditableTo(entry *models.ListEntryView, userID string) bool {
	if entry.Archived {
		return false
	}
	if entry.Visibility == models.VisibilityPublic {
		return true
	}
	return VisibleTo(entry, userID)
}
