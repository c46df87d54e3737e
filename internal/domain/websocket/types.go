// internal/domain/websocket/types.go
package websocket

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"
)

type EventType string

const (
	// Connection events
	EventTypePing         EventType = "ping"
	EventTypePong         EventType = "pong"
	EventTypeConnected    EventType = "connected"
	EventTypeDisconnected EventType = "disconnected"
	EventTypeError        EventType = "error"

	// Subscription events
	EventTypeSubscribe   EventType = "subscribe"
	EventTypeUnsubscribe EventType = "unsubscribe"

	// Server pushes
	EventTypePermissionsUpdated EventType = "permissions:updated"
	EventTypeClaimStatusChanged EventType = "claim:status_changed"
	EventTypeForceLogout        EventType = "session:force_logout"
)

// WSMessage is the envelope for every frame in both directions.
type WSMessage struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	ID        string      `json:"id,omitempty"`
}

type ChannelType string

const (
	ChannelClaims      ChannelType = "claims"
	ChannelPermissions ChannelType = "permissions"
	ChannelSystem      ChannelType = "system"
)

// DefaultChannels are subscribed on connect.
var DefaultChannels = []ChannelType{ChannelClaims, ChannelPermissions, ChannelSystem}

type SubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

type UnsubscribeRequest struct {
	Channels []ChannelType `json:"channels"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// PermissionsUpdatedData replaces client-side polling of the role matrix.
type PermissionsUpdatedData struct {
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ClaimStatusData struct {
	ClaimID        int64    `json:"claim_id"`
	ClaimNumber    string   `json:"claim_number"`
	From           string   `json:"from"`
	To             string   `json:"to"`
	ApprovedAmount *float64 `json:"approved_amount,omitempty"`
	Note           string   `json:"note,omitempty"`
}

type SessionEventData struct {
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
	Message   string `json:"message"`
}

func NewMessage(eventType EventType, data interface{}) *WSMessage {
	return &WSMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now(),
		ID:        ulid.Make().String(),
	}
}

func (m *WSMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ParseMessage(data []byte) (*WSMessage, error) {
	var msg WSMessage
	err := json.Unmarshal(data, &msg)
	return &msg, err
}
