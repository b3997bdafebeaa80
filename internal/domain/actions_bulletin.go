package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/drschille/CRDT-Server/internal/crdt"
	"github.com/drschille/CRDT-Server/internal/models"
)

// ApplyBulletinAction validates and applies one bulletin action as a single
// CRDT change. Edits and deletes are author-only.
func ApplyBulletinAction(doc *crdt.Doc, caller string, a models.BulletinAction, now time.Time) error {
	bulletins, err := bulletinsList(doc)
	if err != nil {
		return err
	}

	switch a.Type {
	case models.BulletinActionAdd:
		text, err := requiredText(a.Text, models.MaxLongTextLen, "text")
		if err != nil {
			return err
		}
		visibility, err := validVisibility(a.Visibility, models.VisibilityPublic)
		if err != nil {
			return err
		}
		bulletinID := uuid.NewString()
		b, err := bulletins.AppendNewMap()
		if err != nil {
			return err
		}
		if err := b.Set("id", bulletinID); err != nil {
			return err
		}
		if err := b.Set("authorId", caller); err != nil {
			return err
		}
		if err := b.SetText("text", text); err != nil {
			return err
		}
		if err := b.Set("createdAt", timestamp(now)); err != nil {
			return err
		}
		if err := b.Set("visibility", visibility); err != nil {
			return err
		}
		return doc.Commit("add_bulletin " + bulletinID)

	case models.BulletinActionEdit:
		b, _, err := resolveBulletin(bulletins, a.BulletinID, caller)
		if err != nil {
			return err
		}
		text, err := requiredText(a.Text, models.MaxLongTextLen, "text")
		if err != nil {
			return err
		}
		existing, err := b.GetText("text")
		if err != nil {
			return err
		}
		if existing == nil {
			if err := b.SetText("text", text); err != nil {
				return err
			}
		} else if err := existing.Replace(text); err != nil {
			return err
		}
		if err := b.Set("editedAt", timestamp(now)); err != nil {
			return err
		}
		return doc.Commit("edit_bulletin " + a.BulletinID)

	case models.BulletinActionDelete:
		_, index, err := resolveBulletin(bulletins, a.BulletinID, caller)
		if err != nil {
			return err
		}
		if err := bulletins.Delete(index); err != nil {
			return err
		}
		return doc.Commit("delete_bulletin " + a.BulletinID)
	}

	return models.BadRequest("unknown bulletin action %q", a.Type)
}

func resolveBulletin(bulletins *crdt.List, bulletinID, caller string) (*crdt.Map, int, error) {
	if bulletinID == "" {
		return nil, -1, models.BadRequest("bulletinId is required")
	}
	b, index, err := findByID(bulletins, bulletinID)
	if err != nil {
		return nil, -1, err
	}
	if b == nil {
		return nil, -1, models.NotFound("bulletin %s does not exist", bulletinID)
	}
	authorID, _, err := b.GetString("authorId")
	if err != nil {
		return nil, -1, err
	}
	if authorID != caller {
		return nil, -1, models.Forbidden("only the author may modify a bulletin")
	}
	return b, index, nil
}
