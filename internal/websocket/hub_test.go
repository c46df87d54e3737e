package websocket

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	wstypes "insurance-service/internal/domain/websocket"
	"insurance-service/internal/pkg/jwt"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAuth map[string]*jwt.Claims

func (f fakeAuth) Authenticate(_ context.Context, token string) (*jwt.Claims, error) {
	if c, ok := f[token]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

func startHub(t *testing.T) (*Hub, *httptest.Server, context.CancelFunc) {
	t.Helper()

	auth := fakeAuth{
		"agent-7": {UserID: 7, Role: "agent", RegisteredClaims: gojwt.RegisteredClaims{ID: "s7"}},
		"agent-8": {UserID: 8, Role: "agent", RegisteredClaims: gojwt.RegisteredClaims{ID: "s8"}},
		"admin-1": {UserID: 1, Role: "admin", RegisteredClaims: gojwt.RegisteredClaims{ID: "s1"}},
	}
	hub := NewHub(auth, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ca, err := hub.AuthenticateClient(r.Context(), r.URL.Query().Get("token"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(ctx, hub, conn, ca)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, srv, cancel
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	msg := read(t, conn)
	require.Equal(t, wstypes.EventTypeConnected, msg.Type)
	return conn
}

func read(t *testing.T, conn *websocket.Conn) *wstypes.WSMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg wstypes.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return &msg
}

func TestHubRejectsBadToken(t *testing.T) {
	_, srv, _ := startHub(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=nope"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPingPong(t *testing.T) {
	_, srv, _ := startHub(t)
	conn := dial(t, srv, "agent-7")

	require.NoError(t, conn.WriteJSON(wstypes.NewMessage(wstypes.EventTypePing, nil)))
	assert.Equal(t, wstypes.EventTypePong, read(t, conn).Type)
}

func TestClaimStatusGoesToOwningAgent(t *testing.T) {
	hub, srv, _ := startHub(t)
	owner := dial(t, srv, "agent-7")
	other := dial(t, srv, "agent-8")

	require.Eventually(t, func() bool { return hub.TotalClients() == 2 }, time.Second, 10*time.Millisecond)

	hub.ClaimStatusChanged(7, wstypes.ClaimStatusData{ClaimID: 3, From: "SUBMITTED", To: "APPROVED"})

	msg := read(t, owner)
	assert.Equal(t, wstypes.EventTypeClaimStatusChanged, msg.Type)

	other.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := other.ReadMessage()
	assert.Error(t, err)
}

func TestPermissionsUpdatedGoesToRole(t *testing.T) {
	hub, srv, _ := startHub(t)
	agent := dial(t, srv, "agent-7")
	admin := dial(t, srv, "admin-1")

	require.Eventually(t, func() bool { return hub.TotalClients() == 2 }, time.Second, 10*time.Millisecond)

	hub.PermissionsUpdated("agent", []string{"claims.view"}, time.Now())

	msg := read(t, agent)
	assert.Equal(t, wstypes.EventTypePermissionsUpdated, msg.Type)

	admin.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err := admin.ReadMessage()
	assert.Error(t, err)
}

func TestUnsubscribedChannelIsSkipped(t *testing.T) {
	hub, srv, _ := startHub(t)
	conn := dial(t, srv, "agent-7")

	require.NoError(t, conn.WriteJSON(wstypes.NewMessage(wstypes.EventTypeUnsubscribe,
		wstypes.UnsubscribeRequest{Channels: []wstypes.ChannelType{wstypes.ChannelClaims}})))
	assert.Equal(t, wstypes.EventTypeUnsubscribe, read(t, conn).Type)

	hub.ClaimStatusChanged(7, wstypes.ClaimStatusData{ClaimID: 1})
	hub.ForceLogout(7, "s7", "test")
	assert.Equal(t, wstypes.EventTypeForceLogout, read(t, conn).Type)
}

func TestShutdownClosesClients(t *testing.T) {
	hub, srv, cancel := startHub(t)
	conn := dial(t, srv, "agent-7")
	require.Eventually(t, func() bool { return hub.IsUserConnected(7) }, time.Second, 10*time.Millisecond)

	cancel()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}
