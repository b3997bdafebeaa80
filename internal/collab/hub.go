package collab

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/drschille/CRDT-Server/internal/crdt"
	"github.com/drschille/CRDT-Server/internal/docstore"
	"github.com/drschille/CRDT-Server/internal/domain"
	"github.com/drschille/CRDT-Server/internal/logger"
	"github.com/drschille/CRDT-Server/internal/models"
	"github.com/drschille/CRDT-Server/internal/store"
)

// Hub owns the document cache, the dirty set, and the session registry
// under one mutex. Each inbound frame is handled entirely inside the
// critical section; socket I/O and blob writes happen outside it.
type Hub struct {
	mu       sync.Mutex
	cache    *docstore.Cache
	store    store.Store
	sessions map[*Session]struct{}

	flushErr error
}

// NewHub wires the hub over a document cache and its backing store.
func NewHub(cache *docstore.Cache, s store.Store) *Hub {
	return &Hub{
		cache:    cache,
		store:    s,
		sessions: make(map[*Session]struct{}),
	}
}

// Attach registers a session, sends its welcome frame, and auto-subscribes
// it to the registry and the bulletin board.
func (h *Hub) Attach(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.sessions[s] = struct{}{}
	s.enqueue(models.Welcome(s.userID))

	for _, key := range []models.DocKey{models.RegistryKey(), models.BulletinsKey()} {
		if err := h.subscribe(s, key); err != nil {
			logger.Error("auto-subscribe %s for %s: %v", key, s.userID, err)
		}
	}

	logger.Info("session %s connected as %s (total: %d)", s.id, s.userID, len(h.sessions))
}

// Detach drops a session and all its subscriptions.
func (h *Hub) Detach(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.sessions[s]; !ok {
		return
	}
	delete(h.sessions, s)
	logger.Info("session %s (%s) disconnected (total: %d)", s.id, s.userID, len(h.sessions))
}

// Handle processes one inbound frame: parse, rate-limit, dispatch. Action
// failures are answered with typed error frames; the connection stays open.
func (h *Hub) Handle(s *Session, raw []byte) {
	var msg models.ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		s.enqueue(models.ErrorFrame(models.BadRequest("malformed frame")))
		return
	}

	if cost := frameCost(msg.Type); cost > 0 && !s.limiter.AllowN(time.Now(), cost) {
		s.enqueue(models.ErrorFrame(models.RateLimited()))
		return
	}

	h.mu.Lock()
	blobDeletes, err := h.dispatch(s, msg)
	h.mu.Unlock()

	if err != nil {
		s.enqueue(models.ErrorFrame(models.AsProtocolError(err)))
	}

	// Blob deletion is a suspension point and runs outside the critical
	// section; the cache entry is already forgotten.
	for _, key := range blobDeletes {
		if err := h.store.Delete(context.Background(), key); err != nil {
			logger.Error("delete blob %s: %v", key, err)
		}
	}
}

func (h *Hub) dispatch(s *Session, msg models.ClientMessage) ([]string, error) {
	ctx := context.Background()

	switch msg.Type {
	case models.MsgTypeHello:
		logger.Debug("hello from %s (client %s)", s.userID, msg.ClientVersion)
		return nil, nil

	case models.MsgTypeSubscribe:
		if msg.Doc == nil {
			return nil, models.BadRequest("doc is required")
		}
		return nil, h.subscribe(s, *msg.Doc)

	case models.MsgTypeUnsubscribe:
		if msg.Doc == nil {
			return nil, models.BadRequest("doc is required")
		}
		delete(s.subs, *msg.Doc)
		return nil, nil

	case models.MsgTypeRegistryAction:
		return h.handleRegistryAction(ctx, s, msg)

	case models.MsgTypeListAction:
		return nil, h.handleListAction(ctx, s, msg)

	case models.MsgTypeBulletinAction:
		return nil, h.handleBulletinAction(ctx, s, msg)

	case models.MsgTypeSync:
		return nil, h.handleSync(s, msg)

	case models.MsgTypeRequestFullState:
		return nil, h.handleRequestFullState(ctx, s, msg)
	}

	return nil, models.BadRequest("unknown message type %q", msg.Type)
}

// subscribe authorizes and activates a subscription, then emits the initial
// snapshot and runs the outbound sync loop. Re-subscribing is idempotent
// and keeps the existing sync state.
func (h *Hub) subscribe(s *Session, key models.DocKey) error {
	ctx := context.Background()

	if key.IsList() {
		entry, err := h.resolveEntry(ctx, key.ListID)
		if err != nil {
			return err
		}
		if !domain.VisibleTo(entry, s.userID) {
			return models.Forbidden("no access to list %s", key.ListID)
		}
	}

	doc, err := h.cache.Get(ctx, key)
	if err != nil {
		return err
	}

	sub, ok := s.subs[key]
	if !ok {
		sub = &subscription{}
		// Registry sync is disabled: mutations flow through registry
		// actions only, so its subscribers get snapshots alone.
		if key.Kind != models.DocRegistry {
			sub.state = crdt.NewSyncState(doc)
		}
		s.subs[key] = sub
	}

	if err := h.sendSnapshot(s, key, doc); err != nil {
		return err
	}
	if sub.state != nil {
		runOutbound(s, key, sub)
	}
	return nil
}

// resolveEntry loads the registry entry for a list id.
func (h *Hub) resolveEntry(ctx context.Context, listID string) (*models.ListEntryView, error) {
	reg, err := h.cache.Get(ctx, models.RegistryKey())
	if err != nil {
		return nil, err
	}
	entry, err := domain.FindEntry(reg, listID)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, models.NotFound("list %s does not exist", listID)
	}
	return entry, nil
}

func (h *Hub) handleRegistryAction(ctx context.Context, s *Session, msg models.ClientMessage) ([]string, error) {
	var action models.RegistryAction
	if err := unmarshalAction(msg.Action, &action); err != nil {
		return nil, err
	}

	reg, err := h.cache.Get(ctx, models.RegistryKey())
	if err != nil {
		return nil, err
	}
	result, err := domain.ApplyRegistryAction(reg, s.userID, action, time.Now())
	if err != nil {
		return nil, err
	}
	h.cache.MarkDirty(models.RegistryKey())

	var blobDeletes []string
	if result.CreatedListID != "" {
		// Materialize the new list document; Get marks it dirty on init.
		if _, err := h.cache.Get(ctx, models.ListKey(result.CreatedListID)); err != nil {
			return nil, err
		}
	}
	if result.DeletedListID != "" {
		key := models.ListKey(result.DeletedListID)
		for sess := range h.sessions {
			delete(sess.subs, key)
		}
		h.cache.Forget(key)
		blobDeletes = append(blobDeletes, key.StoreKey())
	}

	h.pruneListSubscriptions(reg)
	if err := h.broadcast(models.RegistryKey()); err != nil {
		return blobDeletes, err
	}
	return blobDeletes, nil
}

func (h *Hub) handleListAction(ctx context.Context, s *Session, msg models.ClientMessage) error {
	if msg.ListID == "" {
		return models.BadRequest("listId is required")
	}
	var action models.ListAction
	if err := unmarshalAction(msg.Action, &action); err != nil {
		return err
	}

	entry, err := h.resolveEntry(ctx, msg.ListID)
	if err != nil {
		return err
	}
	if !domain.VisibleTo(entry, s.userID) {
		return models.Forbidden("no access to list %s", msg.ListID)
	}

	key := models.ListKey(msg.ListID)
	doc, err := h.cache.Get(ctx, key)
	if err != nil {
		return err
	}
	now := time.Now()
	if err := domain.ApplyListAction(doc, entry, s.userID, action, now); err != nil {
		return err
	}
	h.cache.MarkDirty(key)

	// Item mutations refresh the entry's updatedAt on the registry.
	reg, err := h.cache.Get(ctx, models.RegistryKey())
	if err != nil {
		return err
	}
	if err := domain.TouchEntry(reg, msg.ListID, now); err != nil {
		return err
	}
	h.cache.MarkDirty(models.RegistryKey())

	if err := h.broadcast(key); err != nil {
		return err
	}
	return h.broadcast(models.RegistryKey())
}

func (h *Hub) handleBulletinAction(ctx context.Context, s *Session, msg models.ClientMessage) error {
	var action models.BulletinAction
	if err := unmarshalAction(msg.Action, &action); err != nil {
		return err
	}

	doc, err := h.cache.Get(ctx, models.BulletinsKey())
	if err != nil {
		return err
	}
	if err := domain.ApplyBulletinAction(doc, s.userID, action, time.Now()); err != nil {
		return err
	}
	h.cache.MarkDirty(models.BulletinsKey())
	return h.broadcast(models.BulletinsKey())
}

func (h *Hub) handleSync(s *Session, msg models.ClientMessage) error {
	if msg.Doc == nil {
		return models.BadRequest("doc is required")
	}
	key := *msg.Doc
	if key.Kind == models.DocRegistry {
		return models.BadRequest("registry sync not supported")
	}
	sub, ok := s.subs[key]
	if !ok || sub.state == nil {
		return models.BadRequest("not subscribed to %s", key)
	}
	data, err := base64.StdEncoding.DecodeString(msg.Data)
	if err != nil {
		return models.BadRequest("sync data is not valid base64")
	}
	if err := sub.state.Receive(data); err != nil {
		return models.BadRequest("invalid sync message")
	}
	h.cache.MarkDirty(key)

	// All subscribers including the originator: their sync state no-ops
	// once the merge reaches them.
	return h.broadcast(key)
}

func (h *Hub) handleRequestFullState(ctx context.Context, s *Session, msg models.ClientMessage) error {
	if msg.Doc == nil {
		for key := range s.subs {
			doc := h.cache.Peek(key)
			if doc == nil {
				continue
			}
			if err := h.sendSnapshot(s, key, doc); err != nil {
				return err
			}
		}
		return nil
	}

	key := *msg.Doc
	if _, ok := s.subs[key]; !ok && key.IsList() {
		entry, err := h.resolveEntry(ctx, key.ListID)
		if err != nil {
			return err
		}
		if !domain.VisibleTo(entry, s.userID) {
			return models.Forbidden("no access to list %s", key.ListID)
		}
	}
	doc, err := h.cache.Get(ctx, key)
	if err != nil {
		return err
	}
	return h.sendSnapshot(s, key, doc)
}

// sendSnapshot projects a document for the session's viewer and enqueues
// the snapshot frame.
func (h *Hub) sendSnapshot(s *Session, key models.DocKey, doc *crdt.Doc) error {
	var state interface{}
	var err error
	switch key.Kind {
	case models.DocRegistry:
		state, err = domain.ProjectRegistry(doc, s.userID)
	case models.DocBulletins:
		state, err = domain.ProjectBulletins(doc, s.userID)
	case models.DocList:
		state, err = domain.ProjectList(doc)
	}
	if err != nil {
		return err
	}
	s.enqueue(models.Snapshot(key, state))
	return nil
}

// broadcast re-runs every subscriber's outbound loop after a mutation and
// hands each a fresh privacy-filtered snapshot first. Subscribers that
// lost visibility of a list are silently unsubscribed instead.
func (h *Hub) broadcast(key models.DocKey) error {
	doc := h.cache.Peek(key)
	if doc == nil {
		return nil
	}

	var entry *models.ListEntryView
	if key.IsList() {
		reg := h.cache.Peek(models.RegistryKey())
		if reg != nil {
			var err error
			if entry, err = domain.FindEntry(reg, key.ListID); err != nil {
				return err
			}
		}
	}

	for sess := range h.sessions {
		sub, ok := sess.subs[key]
		if !ok {
			continue
		}
		if key.IsList() && (entry == nil || !domain.VisibleTo(entry, sess.userID)) {
			delete(sess.subs, key)
			continue
		}
		if err := h.sendSnapshot(sess, key, doc); err != nil {
			return err
		}
		if sub.state != nil {
			runOutbound(sess, key, sub)
		}
	}
	return nil
}

// pruneListSubscriptions drops list subscriptions whose entry vanished or
// whose visibility no longer admits the subscriber.
func (h *Hub) pruneListSubscriptions(reg *crdt.Doc) {
	for sess := range h.sessions {
		for key := range sess.subs {
			if !key.IsList() {
				continue
			}
			entry, err := domain.FindEntry(reg, key.ListID)
			if err != nil || entry == nil || !domain.VisibleTo(entry, sess.userID) {
				delete(sess.subs, key)
			}
		}
	}
}

// runOutbound drains the subscription's outbound sync loop until the peer
// is up to date.
func runOutbound(s *Session, key models.DocKey, sub *subscription) {
	for {
		msg, ok := sub.state.Generate()
		if !ok {
			return
		}
		s.enqueue(models.SyncFrame(key, base64.StdEncoding.EncodeToString(msg)))
	}
}

func unmarshalAction(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return models.BadRequest("action is required")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return models.BadRequest("malformed action")
	}
	return nil
}

// FlushAll serializes every dirty document under the lock, writes the
// blobs outside it, and clears dirty bits only for writes that succeeded
// with no newer mutation. Failed writes stay dirty and retry next tick.
func (h *Hub) FlushAll(ctx context.Context) error {
	h.mu.Lock()
	writes := h.cache.CollectDirty()
	h.mu.Unlock()

	var firstErr error
	for _, w := range writes {
		if err := h.store.Write(ctx, w.Key.StoreKey(), w.Data); err != nil {
			logger.Error("flush %s: %v", w.Key, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		h.mu.Lock()
		h.cache.ClearFlushed(w)
		h.mu.Unlock()
	}

	h.mu.Lock()
	h.flushErr = firstErr
	h.mu.Unlock()
	return firstErr
}

// LastFlushError reports the outcome of the most recent flush pass.
func (h *Hub) LastFlushError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.flushErr
}

// Stats returns connection and document counters.
func (h *Hub) Stats() map[string]interface{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return map[string]interface{}{
		"sessions":  len(h.sessions),
		"documents": h.cache.Len(),
		"dirty":     h.cache.DirtyCount(),
	}
}

// DebugState dumps every cached document with no privacy filter.
// Development use only.
func (h *Hub) DebugState(ctx context.Context) (map[string]interface{}, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]interface{})

	reg, err := h.cache.Get(ctx, models.RegistryKey())
	if err != nil {
		return nil, err
	}
	registry, err := domain.DumpRegistry(reg)
	if err != nil {
		return nil, err
	}
	out["registry"] = registry

	bdoc, err := h.cache.Get(ctx, models.BulletinsKey())
	if err != nil {
		return nil, err
	}
	bulletins, err := domain.DumpBulletins(bdoc)
	if err != nil {
		return nil, err
	}
	out["bulletins"] = bulletins

	lists := make(map[string]interface{})
	for _, entry := range registry.Lists {
		doc := h.cache.Peek(models.ListKey(entry.ID))
		if doc == nil {
			continue
		}
		snapshot, err := domain.ProjectList(doc)
		if err != nil {
			return nil, err
		}
		lists[entry.ID] = snapshot
	}
	out["lists"] = lists

	return out, nil
}
