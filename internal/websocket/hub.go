// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"
	"time"

	wstypes "insurance-service/internal/domain/websocket"
	"insurance-service/internal/metrics"
	"insurance-service/internal/pkg/jwt"

	"go.uber.org/zap"
)

// Authenticator validates an access token together with its session.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*jwt.Claims, error)
}

// AuthenticatorFunc adapts a plain function to Authenticator.
type AuthenticatorFunc func(ctx context.Context, token string) (*jwt.Claims, error)

func (f AuthenticatorFunc) Authenticate(ctx context.Context, token string) (*jwt.Claims, error) {
	return f(ctx, token)
}

type Hub struct {
	// Registered clients by user ID
	clients map[int64]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage

	auth   Authenticator
	logger *zap.Logger
}

// BroadcastMessage targets UserIDs, or every client holding Role when set,
// or everyone when both are empty.
type BroadcastMessage struct {
	UserIDs []int64
	Role    string
	Channel wstypes.ChannelType
	Message *wstypes.WSMessage
}

func NewHub(auth Authenticator, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client, 64),
		broadcast:  make(chan *BroadcastMessage, 256),
		auth:       auth,
		logger:     logger,
	}
}

func (h *Hub) AuthenticateClient(ctx context.Context, token string) (*ClientAuth, error) {
	claims, err := h.auth.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	return &ClientAuth{UserID: claims.UserID, SessionID: claims.ID, Role: claims.Role}, nil
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Register hands a connected client to the hub, giving up after a second if
// the hub is not running.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-time.After(time.Second):
		return false
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true
	total := h.totalClients()
	h.mu.Unlock()

	metrics.WebsocketConnections.Inc()
	h.logger.Info("websocket client connected",
		zap.Int64("user_id", client.userID),
		zap.String("session_id", client.sessionID),
		zap.Int("total", total),
	)

	client.SendMessage(wstypes.NewMessage(wstypes.EventTypeConnected, map[string]interface{}{
		"user_id":    client.userID,
		"session_id": client.sessionID,
		"role":       client.role,
		"channels":   wstypes.DefaultChannels,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.userID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	client.Close()
	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}

	metrics.WebsocketConnections.Dec()
	h.logger.Info("websocket client disconnected",
		zap.Int64("user_id", client.userID),
		zap.String("session_id", client.sessionID),
		zap.Int("total", h.totalClients()),
	)
}

func (h *Hub) deliver(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	send := func(clients map[*Client]bool) {
		for client := range clients {
			if msg.Role != "" && client.role != msg.Role {
				continue
			}
			if client.IsSubscribed(msg.Channel) {
				client.SendMessage(msg.Message)
			}
		}
	}

	if len(msg.UserIDs) == 0 {
		for _, clients := range h.clients {
			send(clients)
		}
		return
	}
	for _, id := range msg.UserIDs {
		send(h.clients[id])
	}
}

// Publish queues msg without blocking the caller.
func (h *Hub) Publish(msg *BroadcastMessage) error {
	select {
	case h.broadcast <- msg:
		return nil
	default:
		h.logger.Warn("dropping websocket broadcast", zap.String("type", string(msg.Message.Type)))
		return ErrHubFull
	}
}

// PermissionsUpdated pushes the new permission set to every client of role.
func (h *Hub) PermissionsUpdated(role string, perms []string, at time.Time) {
	h.Publish(&BroadcastMessage{
		Role:    role,
		Channel: wstypes.ChannelPermissions,
		Message: wstypes.NewMessage(wstypes.EventTypePermissionsUpdated, wstypes.PermissionsUpdatedData{
			Role:        role,
			Permissions: perms,
			UpdatedAt:   at,
		}),
	})
}

// ClaimStatusChanged tells the agent who filed the claim about a decision.
func (h *Hub) ClaimStatusChanged(agentID int64, data wstypes.ClaimStatusData) {
	h.Publish(&BroadcastMessage{
		UserIDs: []int64{agentID},
		Channel: wstypes.ChannelClaims,
		Message: wstypes.NewMessage(wstypes.EventTypeClaimStatusChanged, data),
	})
}

func (h *Hub) ForceLogout(userID int64, sessionID, reason string) {
	h.Publish(&BroadcastMessage{
		UserIDs: []int64{userID},
		Channel: wstypes.ChannelSystem,
		Message: wstypes.NewMessage(wstypes.EventTypeForceLogout, wstypes.SessionEventData{
			SessionID: sessionID,
			Reason:    reason,
			Message:   "You have been logged out",
		}),
	})
}

func (h *Hub) IsUserConnected(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, clients := range h.clients {
		for client := range clients {
			client.Close()
			metrics.WebsocketConnections.Dec()
		}
		delete(h.clients, id)
	}
}
