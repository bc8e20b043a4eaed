package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"qadamsafe/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticVerifier map[string]uuid.UUID

func (v staticVerifier) VerifyAccessToken(_ context.Context, token string) (*models.Claims, error) {
	id, ok := v[token]
	if !ok {
		return nil, models.ErrTokenInvalid
	}
	return &models.Claims{UserID: id, Role: models.RoleUser}, nil
}

func dial(t *testing.T, srv *httptest.Server, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func TestServeWS_DeliversEvents(t *testing.T) {
	userID := uuid.New()
	manager := NewManager(zap.NewNop())
	h := NewHandler(manager, staticVerifier{"good": userID}, nil, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	first, _, err := dial(t, srv, "good")
	require.NoError(t, err)
	defer first.Close()
	second, _, err := dial(t, srv, "good")
	require.NoError(t, err)
	defer second.Close()

	require.Eventually(t, func() bool { return manager.Connections() == 2 }, time.Second, 10*time.Millisecond)

	ok := manager.SendToUser(userID, models.ClientEvent{Type: "rank_changed", UserID: userID, Payload: map[string]string{"rank": "DEFENDER"}})
	assert.True(t, ok)

	for _, conn := range []*websocket.Conn{first, second} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var got models.ClientEvent
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, "rank_changed", got.Type)
		assert.Equal(t, userID, got.UserID)
	}

	assert.False(t, manager.SendToUser(uuid.New(), models.ClientEvent{Type: "x"}), "offline user")

	require.NoError(t, first.Close())
	require.Eventually(t, func() bool { return manager.Connections() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestServeWS_RejectsBadToken(t *testing.T) {
	h := NewHandler(NewManager(zap.NewNop()), staticVerifier{}, nil, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	_, resp, err := dial(t, srv, "nope")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = dial(t, srv, "")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWS_ChecksOrigin(t *testing.T) {
	userID := uuid.New()
	h := NewHandler(NewManager(zap.NewNop()), staticVerifier{"good": userID}, []string{"https://qadamsafe.kz"}, zap.NewNop())
	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=good"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://qadamsafe.kz"}})
	require.NoError(t, err)
	conn.Close()
}

func TestManager_FullQueueDoesNotBlock(t *testing.T) {
	m := NewManager(zap.NewNop())
	userID := uuid.New()
	c := &Client{UserID: userID, send: make(chan []byte, 1)}
	m.register(c)

	assert.True(t, m.SendToUser(userID, models.ClientEvent{Type: "a"}))
	assert.False(t, m.SendToUser(userID, models.ClientEvent{Type: "b"}), "queue is full")

	m.unregister(c)
	m.unregister(c)
	assert.Equal(t, 0, m.Connections())
	_, open := <-c.send
	assert.True(t, open, "buffered message is still readable")
	_, open = <-c.send
	assert.False(t, open)
}
