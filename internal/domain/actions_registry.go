package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/drschille/CRDT-Server/internal/crdt"
	"github.com/drschille/CRDT-Server/internal/models"
)

// RegistryResult reports side effects the session loop must carry out on
// top of the registry mutation itself.
type RegistryResult struct {
	// CreatedListID is set by create_list; the caller creates the list
	// document and marks it dirty.
	CreatedListID string
	// DeletedListID is set by delete_list; the caller drops the cached
	// document, deletes its blob, and releases subscriptions.
	DeletedListID string
}

// ApplyRegistryAction validates and applies one registry action as a single
// CRDT change. Metadata operations are owner-only.
func ApplyRegistryAction(reg *crdt.Doc, caller string, a models.RegistryAction, now time.Time) (*RegistryResult, error) {
	switch a.Type {
	case models.RegistryActionCreate:
		return createList(reg, caller, a, now)
	case models.RegistryActionRename,
		models.RegistryActionVisibility,
		models.RegistryActionCollaborators,
		models.RegistryActionArchive,
		models.RegistryActionRestore,
		models.RegistryActionDelete:
		return mutateEntry(reg, caller, a, now)
	}
	return nil, models.BadRequest("unknown registry action %q", a.Type)
}

func createList(reg *crdt.Doc, caller string, a models.RegistryAction, now time.Time) (*RegistryResult, error) {
	name, err := requiredText(a.Name, models.MaxShortTextLen, "name")
	if err != nil {
		return nil, err
	}
	visibility, err := validVisibility(a.Visibility, models.VisibilityPrivate)
	if err != nil {
		return nil, err
	}
	collaborators, err := normalizeCollaborators(a.Collaborators, caller)
	if err != nil {
		return nil, err
	}

	lists, err := entriesList(reg)
	if err != nil {
		return nil, err
	}
	owned := 0
	for i := 0; i < lists.Len(); i++ {
		m, err := lists.Map(i)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		ownerID, _, err := m.GetString("ownerId")
		if err != nil {
			return nil, err
		}
		archived, err := m.GetBool("archived")
		if err != nil {
			return nil, err
		}
		if ownerID == caller && !archived {
			owned++
		}
	}
	if owned >= models.MaxListsPerUser {
		return nil, models.BadRequest("list limit of %d reached", models.MaxListsPerUser)
	}

	listID := uuid.NewString()
	entry, err := lists.AppendNewMap()
	if err != nil {
		return nil, err
	}
	if err := entry.Set("id", listID); err != nil {
		return nil, err
	}
	if err := entry.Set("ownerId", caller); err != nil {
		return nil, err
	}
	if err := entry.SetText("name", name); err != nil {
		return nil, err
	}
	if err := entry.Set("createdAt", timestamp(now)); err != nil {
		return nil, err
	}
	if err := entry.Set("visibility", visibility); err != nil {
		return nil, err
	}
	if err := entry.Set("collaborators", collaborators); err != nil {
		return nil, err
	}
	if err := entry.Set("archived", false); err != nil {
		return nil, err
	}
	if err := reg.Commit("create_list " + listID); err != nil {
		return nil, err
	}
	return &RegistryResult{CreatedListID: listID}, nil
}

func mutateEntry(reg *crdt.Doc, caller string, a models.RegistryAction, now time.Time) (*RegistryResult, error) {
	if a.ListID == "" {
		return nil, models.BadRequest("listId is required")
	}
	lists, err := entriesList(reg)
	if err != nil {
		return nil, err
	}
	entry, index, err := findByID(lists, a.ListID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, models.NotFound("list %s does not exist", a.ListID)
	}
	ownerID, _, err := entry.GetString("ownerId")
	if err != nil {
		return nil, err
	}
	if ownerID != caller {
		return nil, models.Forbidden("only the owner may modify list metadata")
	}

	result := &RegistryResult{}
	switch a.Type {
	case models.RegistryActionRename:
		name, err := requiredText(a.Name, models.MaxShortTextLen, "name")
		if err != nil {
			return nil, err
		}
		text, err := entry.GetText("name")
		if err != nil {
			return nil, err
		}
		if text == nil {
			if err := entry.SetText("name", name); err != nil {
				return nil, err
			}
		} else if err := text.Replace(name); err != nil {
			return nil, err
		}

	case models.RegistryActionVisibility:
		visibility, err := validVisibility(a.Visibility, "")
		if err != nil {
			return nil, err
		}
		if visibility == "" {
			return nil, models.BadRequest("visibility is required")
		}
		if err := entry.Set("visibility", visibility); err != nil {
			return nil, err
		}

	case models.RegistryActionCollaborators:
		collaborators, err := normalizeCollaborators(a.Collaborators, ownerID)
		if err != nil {
			return nil, err
		}
		if err := entry.Set("collaborators", collaborators); err != nil {
			return nil, err
		}

	case models.RegistryActionArchive:
		if err := entry.Set("archived", true); err != nil {
			return nil, err
		}

	case models.RegistryActionRestore:
		if err := entry.Set("archived", false); err != nil {
			return nil, err
		}

	case models.RegistryActionDelete:
		if err := lists.Delete(index); err != nil {
			return nil, err
		}
		result.DeletedListID = a.ListID
		return result, reg.Commit("delete_list " + a.ListID)
	}

	if err := entry.Set("updatedAt", timestamp(now)); err != nil {
		return nil, err
	}
	return result, reg.Commit(a.Type + " " + a.ListID)
}
