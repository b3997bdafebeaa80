package models

import "encoding/json"

// Client-to-server message types
const (
	MsgTypeHello            = "hello"
	MsgTypeSubscribe        = "subscribe"
	MsgTypeUnsubscribe      = "unsubscribe"
	MsgTypeRegistryAction   = "registry_action"
	MsgTypeListAction       = "list_action"
	MsgTypeBulletinAction   = "bulletin_action"
	MsgTypeSync             = "sync"
	MsgTypeRequestFullState = "request_full_state"
)

// Server-to-client message types
const (
	MsgTypeWelcome  = "welcome"
	MsgTypeSnapshot = "snapshot"
	MsgTypeError    = "error"
)

// ClientMessage is the envelope of every inbound frame. Fields beyond Type
// are populated depending on the message type.
type ClientMessage struct {
	Type          string          `json:"type"`
	ClientVersion string          `json:"clientVersion,omitempty"`
	Doc           *DocKey         `json:"doc,omitempty"`
	ListID        string          `json:"listId,omitempty"`
	Action        json.RawMessage `json:"action,omitempty"`
	Data          string          `json:"data,omitempty"`
}

// ServerMessage is the envelope of every outbound frame.
type ServerMessage struct {
	Type    string      `json:"type"`
	UserID  string      `json:"userId,omitempty"`
	Doc     *DocKey     `json:"doc,omitempty"`
	State   interface{} `json:"state,omitempty"`
	Data    string      `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Welcome builds the first frame sent on every connection.
func Welcome(userID string) ServerMessage {
	return ServerMessage{Type: MsgTypeWelcome, UserID: userID}
}

// Snapshot builds a snapshot frame for a document.
func Snapshot(doc DocKey, state interface{}) ServerMessage {
	return ServerMessage{Type: MsgTypeSnapshot, Doc: &doc, State: state}
}

// SyncFrame builds a sync frame carrying base64-encoded CRDT bytes.
func SyncFrame(doc DocKey, data string) ServerMessage {
	return ServerMessage{Type: MsgTypeSync, Doc: &doc, Data: data}
}

// ErrorFrame builds an error frame from a protocol error.
func ErrorFrame(err *ProtocolError) ServerMessage {
	return ServerMessage{Type: MsgTypeError, Code: err.Code, Message: err.Message}
}
