package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drschille/CRDT-Server/internal/crdt"
	"github.com/drschille/CRDT-Server/internal/models"
)

func newList(t *testing.T) *crdt.Doc {
	t.Helper()
	doc := crdt.New()
	require.NoError(t, InitDoc(models.ListKey("list-1"), doc))
	return doc
}

func publicEntry() *models.ListEntryView {
	return &models.ListEntryView{
		ID:         "list-1",
		OwnerID:    "user-alice",
		Visibility: models.VisibilityPublic,
	}
}

func mustAddItem(t *testing.T, doc *crdt.Doc, caller string, a models.ListAction) string {
	t.Helper()
	a.Type = models.ListActionAddItem
	require.NoError(t, ApplyListAction(doc, publicEntry(), caller, a, testNow))
	snapshot, err := ProjectList(doc)
	require.NoError(t, err)
	return snapshot.Items[len(snapshot.Items)-1].ID
}

func TestAddItem(t *testing.T) {
	doc := newList(t)
	itemID := mustAddItem(t, doc, "user-bob", models.ListAction{
		Label:    " Milk ",
		Quantity: "2",
		Vendor:   "corner store",
	})

	snapshot, err := ProjectList(doc)
	require.NoError(t, err)
	assert.Equal(t, "list-1", snapshot.ListID)
	require.Len(t, snapshot.Items, 1)
	item := snapshot.Items[0]
	assert.Equal(t, itemID, item.ID)
	assert.Equal(t, "Milk", item.Label)
	assert.Equal(t, "2", item.Quantity)
	assert.Equal(t, "corner store", item.Vendor)
	assert.Equal(t, "user-bob", item.AddedBy)
	assert.False(t, item.Checked)
	assert.Empty(t, item.Notes)
}

func TestAddItemValidation(t *testing.T) {
	doc := newList(t)

	tests := []struct {
		name   string
		action models.ListAction
	}{
		{"missing label", models.ListAction{Type: models.ListActionAddItem}},
		{"long label", models.ListAction{Type: models.ListActionAddItem, Label: longString(201)}},
		{"long quantity", models.ListAction{Type: models.ListActionAddItem, Label: "x", Quantity: longString(201)}},
		{"long vendor", models.ListAction{Type: models.ListActionAddItem, Label: "x", Vendor: longString(201)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ApplyListAction(doc, publicEntry(), "user-bob", tt.action, testNow)
			require.Error(t, err)
			assert.Equal(t, models.CodeBadRequest, models.AsProtocolError(err).Code)
		})
	}
}

func TestUpdateItemLabel(t *testing.T) {
	doc := newList(t)
	itemID := mustAddItem(t, doc, "user-alice", models.ListAction{Label: "Milk"})

	require.NoError(t, ApplyListAction(doc, publicEntry(), "user-bob", models.ListAction{
		Type: models.ListActionUpdateItem, ItemID: itemID, Label: "Milk 2%",
	}, testNow))

	snapshot, err := ProjectList(doc)
	require.NoError(t, err)
	assert.Equal(t, "Milk 2%", snapshot.Items[0].Label)
}

func TestSetQuantityEmptyClearsField(t *testing.T) {
	doc := newList(t)
	itemID := mustAddItem(t, doc, "user-alice", models.ListAction{Label: "Milk", Quantity: "2"})

	require.NoError(t, ApplyListAction(doc, publicEntry(), "user-alice", models.ListAction{
		Type: models.ListActionSetQuantity, ItemID: itemID, Quantity: "  ",
	}, testNow))

	snapshot, err := ProjectList(doc)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Items[0].Quantity)
}

func TestSetNotes(t *testing.T) {
	doc := newList(t)
	itemID := mustAddItem(t, doc, "user-alice", models.ListAction{Label: "Milk"})

	require.NoError(t, ApplyListAction(doc, publicEntry(), "user-alice", models.ListAction{
		Type: models.ListActionSetNotes, ItemID: itemID, Notes: "lactose free",
	}, testNow))
	snapshot, err := ProjectList(doc)
	require.NoError(t, err)
	assert.Equal(t, "lactose free", snapshot.Items[0].Notes)

	err = ApplyListAction(doc, publicEntry(), "user-alice", models.ListAction{
		Type: models.ListActionSetNotes, ItemID: itemID, Notes: longString(2001),
	}, testNow)
	require.Error(t, err)
	assert.Equal(t, models.CodeBadRequest, models.AsProtocolError(err).Code)
}

func TestToggleIsIdempotent(t *testing.T) {
	doc := newList(t)
	itemID := mustAddItem(t, doc, "user-alice", models.ListAction{Label: "Milk"})

	checked := true
	toggle := models.ListAction{Type: models.ListActionToggle, ItemID: itemID, Checked: &checked}

	require.NoError(t, ApplyListAction(doc, publicEntry(), "user-bob", toggle, testNow))
	first, err := ProjectList(doc)
	require.NoError(t, err)

	// Repeated delivery of the same toggle yields the same state
	require.NoError(t, ApplyListAction(doc, publicEntry(), "user-bob", toggle, testNow))
	second, err := ProjectList(doc)
	require.NoError(t, err)

	assert.True(t, first.Items[0].Checked)
	assert.Equal(t, first, second)
}

func TestToggleRequiresTarget(t *testing.T) {
	doc := newList(t)
	itemID := mustAddItem(t, doc, "user-alice", models.ListAction{Label: "Milk"})

	err := ApplyListAction(doc, publicEntry(), "user-bob", models.ListAction{
		Type: models.ListActionToggle, ItemID: itemID,
	}, testNow)
	require.Error(t, err)
	assert.Equal(t, models.CodeBadRequest, models.AsProtocolError(err).Code)
}

func TestRemoveItem(t *testing.T) {
	doc := newList(t)
	keep := mustAddItem(t, doc, "user-alice", models.ListAction{Label: "Keep"})
	drop := mustAddItem(t, doc, "user-alice", models.ListAction{Label: "Drop"})

	require.NoError(t, ApplyListAction(doc, publicEntry(), "user-alice", models.ListAction{
		Type: models.ListActionRemoveItem, ItemID: drop,
	}, testNow))

	snapshot, err := ProjectList(doc)
	require.NoError(t, err)
	require.Len(t, snapshot.Items, 1)
	assert.Equal(t, keep, snapshot.Items[0].ID)
}

func TestUnknownItemIsNotFound(t *testing.T) {
	doc := newList(t)
	err := ApplyListAction(doc, publicEntry(), "user-alice", models.ListAction{
		Type: models.ListActionRemoveItem, ItemID: "ghost",
	}, testNow)
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, models.AsProtocolError(err).Code)
}

func TestArchivedListRejectsAllMutations(t *testing.T) {
	doc := newList(t)
	itemID := mustAddItem(t, doc, "user-alice", models.ListAction{Label: "Milk"})

	archived := publicEntry()
	archived.Archived = true

	checked := true
	actions := []models.ListAction{
		{Type: models.ListActionAddItem, Label: "More"},
		{Type: models.ListActionUpdateItem, ItemID: itemID, Label: "x"},
		{Type: models.ListActionSetQuantity, ItemID: itemID, Quantity: "1"},
		{Type: models.ListActionToggle, ItemID: itemID, Checked: &checked},
		{Type: models.ListActionRemoveItem, ItemID: itemID},
	}
	for _, a := range actions {
		err := ApplyListAction(doc, archived, "user-alice", a, testNow)
		require.Error(t, err, "action %s", a.Type)
		assert.Equal(t, models.CodeForbidden, models.AsProtocolError(err).Code)
	}
}

func TestPrivateListRejectsStrangers(t *testing.T) {
	doc := newList(t)
	private := &models.ListEntryView{
		ID:         "list-1",
		OwnerID:    "user-alice",
		Visibility: models.VisibilityPrivate,
	}
	err := ApplyListAction(doc, private, "user-carol", models.ListAction{
		Type: models.ListActionAddItem, Label: "Sneaky",
	}, testNow)
	require.Error(t, err)
	assert.Equal(t, models.CodeForbidden, models.AsProtocolError(err).Code)
}

func TestItemCap(t *testing.T) {
	doc := newList(t)
	items, err := doc.Root().GetList("items")
	require.NoError(t, err)
	for i := 0; i < models.MaxItemsPerList; i++ {
		m, err := items.AppendNewMap()
		require.NoError(t, err)
		require.NoError(t, m.Set("id", "bulk"))
	}
	require.NoError(t, doc.Commit("bulk fill"))

	err = ApplyListAction(doc, publicEntry(), "user-alice", models.ListAction{
		Type: models.ListActionAddItem, Label: "Overflow",
	}, testNow)
	require.Error(t, err)
	assert.Equal(t, models.CodeBadRequest, models.AsProtocolError(err).Code)
}
