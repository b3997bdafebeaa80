package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/drschille/CRDT-Server/internal/models"
)

func TestVisibleTo(t *testing.T) {
	entry := &models.ListEntryView{
		OwnerID:       "user-alice",
		Visibility:    models.VisibilityPrivate,
		Collaborators: []string{"user-bob"},
	}

	tests := []struct {
		name    string
		entry   models.ListEntryView
		user    string
		visible bool
	}{
		{"owner sees private", *entry, "user-alice", true},
		{"collaborator sees private", *entry, "user-bob", true},
		{"stranger blocked from private", *entry, "user-carol", false},
		{"anon blocked from private", *entry, "anon-12345678", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.visible, VisibleTo(&tt.entry, tt.user))
		})
	}

	public := *entry
	public.Visibility = models.VisibilityPublic
	assert.True(t, VisibleTo(&public, "user-carol"))
}

func TestEditableTo(t *testing.T) {
	private := &models.ListEntryView{
		OwnerID:       "user-alice",
		Visibility:    models.VisibilityPrivate,
		Collaborators: []string{"user-bob"},
	}
	assert.True(t, EditableTo(private, "user-alice"))
	assert.True(t, EditableTo(private, "user-bob"))
	assert.False(t, EditableTo(private, "user-carol"))

	// Any signed-in user may edit a public list's items
	public := &models.ListEntryView{OwnerID: "user-alice", Visibility: models.VisibilityPublic}
	assert.True(t, EditableTo(public, "user-carol"))

	// Archived lists are read-only even for the owner
	archived := &models.ListEntryView{OwnerID: "user-alice", Visibility: models.VisibilityPublic, Archived: true}
	assert.False(t, EditableTo(archived, "user-alice"))
}
