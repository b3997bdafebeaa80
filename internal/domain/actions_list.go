package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/drschille/CRDT-Server/internal/crdt"
	"github.com/drschille/CRDT-Server/internal/models"
)

// ApplyListAction validates and applies one item action as a single CRDT
// change on the list document. The caller resolves the registry entry;
// EditableTo gates every mutation, so archived lists reject all of them.
func ApplyListAction(doc *crdt.Doc, entry *models.ListEntryView, caller string, a models.ListAction, now time.Time) error {
	if !EditableTo(entry, caller) {
		if entry.Archived {
			return models.Forbidden("list %s is archived", entry.ID)
		}
		return models.Forbidden("no edit access to list %s", entry.ID)
	}

	items, err := itemsList(doc)
	if err != nil {
		return err
	}

	if a.Type == models.ListActionAddItem {
		return addItem(doc, items, caller, a, now)
	}

	if a.ItemID == "" {
		return models.BadRequest("itemId is required")
	}
	item, index, err := findByID(items, a.ItemID)
	if err != nil {
		return err
	}
	if item == nil {
		return models.NotFound("item %s does not exist", a.ItemID)
	}

	switch a.Type {
	case models.ListActionUpdateItem:
		label, err := requiredText(a.Label, models.MaxShortTextLen, "label")
		if err != nil {
			return err
		}
		text, err := item.GetText("label")
		if err != nil {
			return err
		}
		if text == nil {
			if err := item.SetText("label", label); err != nil {
				return err
			}
		} else if err := text.Replace(label); err != nil {
			return err
		}

	case models.ListActionSetQuantity:
		if err := setOptionalString(item, "quantity", a.Quantity); err != nil {
			return err
		}

	case models.ListActionSetVendor:
		if err := setOptionalString(item, "vendor", a.Vendor); err != nil {
			return err
		}

	case models.ListActionSetNotes:
		notes, err := optionalText(a.Notes, models.MaxLongTextLen, "notes")
		if err != nil {
			return err
		}
		if notes == "" {
			if err := item.Delete("notes"); err != nil {
				return err
			}
			break
		}
		text, err := item.GetText("notes")
		if err != nil {
			return err
		}
		if text == nil {
			if err := item.SetText("notes", notes); err != nil {
				return err
			}
		} else if err := text.Replace(notes); err != nil {
			return err
		}

	case models.ListActionToggle:
		// Explicit target value keeps repeated delivery idempotent.
		if a.Checked == nil {
			return models.BadRequest("checked is required")
		}
		if err := item.Set("checked", *a.Checked); err != nil {
			return err
		}

	case models.ListActionRemoveItem:
		if err := items.Delete(index); err != nil {
			return err
		}

	default:
		return models.BadRequest("unknown list action %q", a.Type)
	}

	return doc.Commit(a.Type + " " + a.ItemID)
}

func addItem(doc *crdt.Doc, items *crdt.List, caller string, a models.ListAction, now time.Time) error {
	label, err := requiredText(a.Label, models.MaxShortTextLen, "label")
	if err != nil {
		return err
	}
	quantity, err := optionalText(a.Quantity, models.MaxShortTextLen, "quantity")
	if err != nil {
		return err
	}
	vendor, err := optionalText(a.Vendor, models.MaxShortTextLen, "vendor")
	if err != nil {
		return err
	}
	if items.Len() >= models.MaxItemsPerList {
		return models.BadRequest("item limit of %d reached", models.MaxItemsPerList)
	}

	itemID := uuid.NewString()
	item, err := items.AppendNewMap()
	if err != nil {
		return err
	}
	if err := item.Set("id", itemID); err != nil {
		return err
	}
	if err := item.SetText("label", label); err != nil {
		return err
	}
	if err := item.Set("createdAt", timestamp(now)); err != nil {
		return err
	}
	if err := item.Set("addedBy", caller); err != nil {
		return err
	}
	if err := item.Set("checked", false); err != nil {
		return err
	}
	if quantity != "" {
		if err := item.Set("quantity", quantity); err != nil {
			return err
		}
	}
	if vendor != "" {
		if err := item.Set("vendor", vendor); err != nil {
			return err
		}
	}
	return doc.Commit("add_item " + itemID)
}

// setOptionalString trims and stores a bounded plain string; empty removes
// the field.
func setOptionalString(item *crdt.Map, field, value string) error {
	v, err := optionalText(value, models.MaxShortTextLen, field)
	if err != nil {
		return err
	}
	if v == "" {
		return item.Delete(field)
	}
	return item.Set(field, v)
}
