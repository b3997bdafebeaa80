package models

// Visibility values for lists and bulletins
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Field length bounds and cardinality caps
const (
	MaxShortTextLen = 200  // list name, item label, quantity, vendor
	MaxLongTextLen  = 2000 // item notes, bulletin text
	MaxListsPerUser = 200  // owned, non-archived
	MaxItemsPerList = 1000
)

// ListEntryView is the plain-data projection of a registry entry.
type ListEntryView struct {
	ID            string   `json:"id"`
	OwnerID       string   `json:"ownerId"`
	Name          string   `json:"name"`
	CreatedAt     string   `json:"createdAt"`
	UpdatedAt     string   `json:"updatedAt,omitempty"`
	Visibility    string   `json:"visibility"`
	Collaborators []string `json:"collaborators"`
	Archived      bool     `json:"archived"`
}

// ItemView is the plain-data projection of a list item.
type ItemView struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	CreatedAt string `json:"createdAt"`
	AddedBy   string `json:"addedBy"`
	Quantity  string `json:"quantity,omitempty"`
	Vendor    string `json:"vendor,omitempty"`
	Notes     string `json:"notes,omitempty"`
	Checked   bool   `json:"checked"`
}

// BulletinView is the plain-data projection of a bulletin.
type BulletinView struct {
	ID         string `json:"id"`
	AuthorID   string `json:"authorId"`
	Text       string `json:"text"`
	CreatedAt  string `json:"createdAt"`
	EditedAt   string `json:"editedAt,omitempty"`
	Visibility string `json:"visibility"`
}

// RegistrySnapshot is the privacy-filtered projection of the list registry.
type RegistrySnapshot struct {
	Lists []ListEntryView `json:"lists"`
}

// ListSnapshot is the projection of a single list document.
type ListSnapshot struct {
	ListID string     `json:"listId"`
	Items  []ItemView `json:"items"`
}

// BulletinsSnapshot is the privacy-filtered projection of the bulletin board.
type BulletinsSnapshot struct {
	Bulletins []BulletinView `json:"bulletins"`
}

// Registry action types
const (
	RegistryActionCreate        = "create_list"
	RegistryActionRename        = "rename_list"
	RegistryActionVisibility    = "update_list_visibility"
	RegistryActionCollaborators = "set_collaborators"
	RegistryActionArchive       = "archive_list"
	RegistryActionRestore       = "restore_list"
	RegistryActionDelete        = "delete_list"
)

// List action types
const (
	ListActionAddItem     = "add_item"
	ListActionUpdateItem  = "update_item"
	ListActionSetQuantity = "set_item_quantity"
	ListActionSetVendor   = "set_item_vendor"
	ListActionSetNotes    = "set_item_notes"
	ListActionToggle      = "toggle_item_checked"
	ListActionRemoveItem  = "remove_item"
)

// Bulletin action types
const (
	BulletinActionAdd    = "add_bulletin"
	BulletinActionEdit   = "edit_bulletin"
	BulletinActionDelete = "delete_bulletin"
)

// RegistryAction is the payload of a registry_action frame.
type RegistryAction struct {
	Type          string   `json:"type"`
	ListID        string   `json:"listId,omitempty"`
	Name          string   `json:"name,omitempty"`
	Visibility    string   `json:"visibility,omitempty"`
	Collaborators []string `json:"collaborators,omitempty"`
}

// ListAction is the payload of a list_action frame.
type ListAction struct {
	Type     string `json:"type"`
	ItemID   string `json:"itemId,omitempty"`
	Label    string `json:"label,omitempty"`
	Quantity string `json:"quantity,omitempty"`
	Vendor   string `json:"vendor,omitempty"`
	Notes    string `json:"notes,omitempty"`
	Checked  *bool  `json:"checked,omitempty"`
}

// BulletinAction is the payload of a bulletin_action frame.
type BulletinAction struct {
	Type       string `json:"type"`
	BulletinID string `json:"bulletinId,omitempty"`
	Text       string `json:"text,omitempty"`
	Visibility string `json:"visibility,omitempty"`
}
