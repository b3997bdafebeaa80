package docstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drschille/CRDT-Server/internal/crdt"
	"github.com/drschille/CRDT-Server/internal/domain"
	"github.com/drschille/CRDT-Server/internal/models"
	"github.com/drschille/CRDT-Server/internal/store"
)

func testNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newCache(t *testing.T) (*Cache, store.Store) {
	t.Helper()
	s, err := store.NewFS(t.TempDir())
	require.NoError(t, err)
	return New(s), s
}

// flush mimics the hub's flush pass: collect, write, clear.
func flush(t *testing.T, c *Cache, s store.Store) {
	t.Helper()
	for _, w := range c.CollectDirty() {
		require.NoError(t, s.Write(context.Background(), w.Key.StoreKey(), w.Data))
		c.ClearFlushed(w)
	}
}

func TestGetInitializesEmptyShapes(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	reg, err := c.Get(ctx, models.RegistryKey())
	require.NoError(t, err)
	snapshot, err := domain.DumpRegistry(reg)
	require.NoError(t, err)
	assert.Empty(t, snapshot.Lists)

	listDoc, err := c.Get(ctx, models.ListKey("abc"))
	require.NoError(t, err)
	listSnapshot, err := domain.ProjectList(listDoc)
	require.NoError(t, err)
	assert.Equal(t, "abc", listSnapshot.ListID)
	assert.Empty(t, listSnapshot.Items)

	// Fresh documents are dirty so they reach the store on next flush
	assert.Equal(t, 2, c.DirtyCount())
}

func TestGetReturnsSameHandle(t *testing.T) {
	ctx := context.Background()
	c, _ := newCache(t)

	d1, err := c.Get(ctx, models.BulletinsKey())
	require.NoError(t, err)
	d2, err := c.Get(ctx, models.BulletinsKey())
	require.NoError(t, err)
	assert.Same(t, d1, d2)
}

func TestFlushClearsDirty(t *testing.T) {
	ctx := context.Background()
	c, s := newCache(t)

	_, err := c.Get(ctx, models.RegistryKey())
	require.NoError(t, err)
	flush(t, c, s)
	assert.Zero(t, c.DirtyCount())

	data, err := s.Read(ctx, "registry")
	require.NoError(t, err)
	assert.NotNil(t, data)
}

func TestFlushKeepsBitWhenRedirtied(t *testing.T) {
	ctx := context.Background()
	c, s := newCache(t)

	_, err := c.Get(ctx, models.RegistryKey())
	require.NoError(t, err)

	writes := c.CollectDirty()
	require.Len(t, writes, 1)

	// A mutation lands while the write is in flight
	c.MarkDirty(models.RegistryKey())

	require.NoError(t, s.Write(ctx, writes[0].Key.StoreKey(), writes[0].Data))
	c.ClearFlushed(writes[0])
	assert.Equal(t, 1, c.DirtyCount())
}

func TestForgetDropsWithoutWriting(t *testing.T) {
	ctx := context.Background()
	c, s := newCache(t)

	key := models.ListKey("doomed")
	_, err := c.Get(ctx, key)
	require.NoError(t, err)

	c.Forget(key)
	assert.Zero(t, c.DirtyCount())
	assert.Zero(t, c.Len())

	data, err := s.Read(ctx, key.StoreKey())
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestFlushedBlobDeserializesToEqualDocument(t *testing.T) {
	ctx := context.Background()
	c, s := newCache(t)

	reg, err := c.Get(ctx, models.RegistryKey())
	require.NoError(t, err)
	result, err := domain.ApplyRegistryAction(reg, "user-alice", models.RegistryAction{
		Type: models.RegistryActionCreate, Name: "Groceries", Visibility: models.VisibilityPublic,
	}, testNow())
	require.NoError(t, err)
	c.MarkDirty(models.RegistryKey())
	flush(t, c, s)

	data, err := s.Read(ctx, "registry")
	require.NoError(t, err)
	loaded, err := crdt.Load(data)
	require.NoError(t, err)

	want, err := domain.DumpRegistry(reg)
	require.NoError(t, err)
	got, err := domain.DumpRegistry(loaded)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, result.CreatedListID, got.Lists[0].ID)

	// save(load(save(d))) == save(d)
	assert.Equal(t, data, loaded.Save())
}

func TestRestartDurability(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s1, err := store.NewFS(dir)
	require.NoError(t, err)
	c1 := New(s1)

	reg, err := c1.Get(ctx, models.RegistryKey())
	require.NoError(t, err)
	result, err := domain.ApplyRegistryAction(reg, "user-alice", models.RegistryAction{
		Type: models.RegistryActionCreate, Name: "Groceries",
	}, testNow())
	require.NoError(t, err)
	c1.MarkDirty(models.RegistryKey())

	listKey := models.ListKey(result.CreatedListID)
	listDoc, err := c1.Get(ctx, listKey)
	require.NoError(t, err)
	entry, err := domain.FindEntry(reg, result.CreatedListID)
	require.NoError(t, err)
	require.NoError(t, domain.ApplyListAction(listDoc, entry, "user-alice", models.ListAction{
		Type: models.ListActionAddItem, Label: "Milk",
	}, testNow()))
	c1.MarkDirty(listKey)
	flush(t, c1, s1)

	// Simulated restart: fresh store and cache over the same directory
	s2, err := store.NewFS(dir)
	require.NoError(t, err)
	c2 := New(s2)

	reg2, err := c2.Get(ctx, models.RegistryKey())
	require.NoError(t, err)
	snapshot, err := domain.ProjectRegistry(reg2, "user-alice")
	require.NoError(t, err)
	require.Len(t, snapshot.Lists, 1)
	assert.Equal(t, "Groceries", snapshot.Lists[0].Name)

	listDoc2, err := c2.Get(ctx, listKey)
	require.NoError(t, err)
	listSnapshot, err := domain.ProjectList(listDoc2)
	require.NoError(t, err)
	require.Len(t, listSnapshot.Items, 1)
	assert.Equal(t, "Milk", listSnapshot.Items[0].Label)
	assert.Zero(t, c2.DirtyCount())
}
