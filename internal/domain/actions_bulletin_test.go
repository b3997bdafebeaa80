package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drschille/CRDT-Server/internal/crdt"
	"github.com/drschille/CRDT-Server/internal/models"
)

func newBulletins(t *testing.T) *crdt.Doc {
	t.Helper()
	doc := crdt.New()
	require.NoError(t, InitDoc(models.BulletinsKey(), doc))
	return doc
}

func mustAddBulletin(t *testing.T, doc *crdt.Doc, author, text, visibility string) string {
	t.Helper()
	require.NoError(t, ApplyBulletinAction(doc, author, models.BulletinAction{
		Type: models.BulletinActionAdd, Text: text, Visibility: visibility,
	}, testNow))
	snapshot, err := DumpBulletins(doc)
	require.NoError(t, err)
	return snapshot.Bulletins[len(snapshot.Bulletins)-1].ID
}

func TestAddBulletin(t *testing.T) {
	doc := newBulletins(t)
	id := mustAddBulletin(t, doc, "user-alice", "hi", models.VisibilityPublic)

	snapshot, err := DumpBulletins(doc)
	require.NoError(t, err)
	require.Len(t, snapshot.Bulletins, 1)
	b := snapshot.Bulletins[0]
	assert.Equal(t, id, b.ID)
	assert.Equal(t, "user-alice", b.AuthorID)
	assert.Equal(t, "hi", b.Text)
	assert.Equal(t, models.VisibilityPublic, b.Visibility)
	assert.Empty(t, b.EditedAt)
}

func TestAddBulletinDefaultsPublic(t *testing.T) {
	doc := newBulletins(t)
	mustAddBulletin(t, doc, "user-alice", "hi", "")

	snapshot, err := DumpBulletins(doc)
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPublic, snapshot.Bulletins[0].Visibility)
}

func TestAddBulletinValidation(t *testing.T) {
	doc := newBulletins(t)

	err := ApplyBulletinAction(doc, "user-alice", models.BulletinAction{
		Type: models.BulletinActionAdd, Text: "  ",
	}, testNow)
	require.Error(t, err)
	assert.Equal(t, models.CodeBadRequest, models.AsProtocolError(err).Code)

	err = ApplyBulletinAction(doc, "user-alice", models.BulletinAction{
		Type: models.BulletinActionAdd, Text: longString(2001),
	}, testNow)
	require.Error(t, err)
	assert.Equal(t, models.CodeBadRequest, models.AsProtocolError(err).Code)
}

func TestEditBulletinAuthorOnly(t *testing.T) {
	doc := newBulletins(t)
	id := mustAddBulletin(t, doc, "user-alice", "original", models.VisibilityPublic)

	err := ApplyBulletinAction(doc, "user-bob", models.BulletinAction{
		Type: models.BulletinActionEdit, BulletinID: id, Text: "defaced",
	}, testNow)
	require.Error(t, err)
	assert.Equal(t, models.CodeForbidden, models.AsProtocolError(err).Code)

	later := testNow.Add(time.Minute)
	require.NoError(t, ApplyBulletinAction(doc, "user-alice", models.BulletinAction{
		Type: models.BulletinActionEdit, BulletinID: id, Text: "updated",
	}, later))

	snapshot, err := DumpBulletins(doc)
	require.NoError(t, err)
	assert.Equal(t, "updated", snapshot.Bulletins[0].Text)
	assert.Equal(t, "2024-06-01T12:01:00Z", snapshot.Bulletins[0].EditedAt)
}

func TestDeleteBulletin(t *testing.T) {
	doc := newBulletins(t)
	id := mustAddBulletin(t, doc, "user-alice", "bye", models.VisibilityPublic)

	err := ApplyBulletinAction(doc, "user-bob", models.BulletinAction{
		Type: models.BulletinActionDelete, BulletinID: id,
	}, testNow)
	require.Error(t, err)
	assert.Equal(t, models.CodeForbidden, models.AsProtocolError(err).Code)

	require.NoError(t, ApplyBulletinAction(doc, "user-alice", models.BulletinAction{
		Type: models.BulletinActionDelete, BulletinID: id,
	}, testNow))

	snapshot, err := DumpBulletins(doc)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Bulletins)
}

func TestBulletinNotFound(t *testing.T) {
	doc := newBulletins(t)
	err := ApplyBulletinAction(doc, "user-alice", models.BulletinAction{
		Type: models.BulletinActionEdit, BulletinID: "ghost", Text: "x",
	}, testNow)
	require.Error(t, err)
	assert.Equal(t, models.CodeNotFound, models.AsProtocolError(err).Code)
}
