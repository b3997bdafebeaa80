package crdt

import (
	"fmt"

	automerge "github.com/automerge/automerge-go"
)

// SyncState is the per-peer bookkeeping of one (connection, document)
// subscription. It records what the peer is known to have seen so
// generated messages carry minimal deltas.
type SyncState struct {
	am *automerge.SyncState
}

// NewSyncState creates fresh sync bookkeeping against doc.
func NewSyncState(doc *Doc) *SyncState {
	return &SyncState{am: automerge.NewSyncState(doc.am)}
}

// Receive ingests one client sync message, applying any changes it carries
// to the underlying document.
func (s *SyncState) Receive(msg []byte) error {
	if _, err := s.am.ReceiveMessage(msg); err != nil {
		return fmt.Errorf("receive sync message: %w", err)
	}
	return nil
}

// Generate produces the next server sync message, or ok=false when the
// peer is up to date. Callers loop until ok is false.
func (s *SyncState) Generate() (msg []byte, ok bool) {
	m, valid := s.am.GenerateMessage()
	if !valid {
		return nil, false
	}
	return m.Bytes(), true
}
