package realtime

import (
	"context"
	"net/http"
	"time"

	"qadamsafe/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Время на запись одного сообщения клиенту.
	writeWait = 10 * time.Second
	// Время ожидания следующего pong.
	pongWait = 60 * time.Second
	// Должно быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Клиент нам ничего содержательного не шлет.
	maxMessageSize = 512
)

// TokenVerifier проверяет access токен из query-параметра.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error)
}

// Handler поднимает WebSocket соединения и регистрирует их в Manager.
type Handler struct {
	manager  *Manager
	verifier TokenVerifier
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler: пустой allowedOrigins разрешает любой Origin (локальная разработка).
func NewHandler(manager *Manager, verifier TokenVerifier, allowedOrigins []string, logger *zap.Logger) *Handler {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &Handler{
		manager:  manager,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if len(origins) == 0 || origin == "" {
					return true
				}
				_, ok := origins[origin]
				return ok
			},
		},
		logger: logger.Named("WebSocketHandler"),
	}
}

// ServeWS обрабатывает GET /ws?token=<access token>.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		h.logger.Warn("Missing 'token' query parameter")
		http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
		return
	}
	claims, err := h.verifier.VerifyAccessToken(r.Context(), tokenString)
	if err != nil {
		h.logger.Warn("Invalid websocket token", zap.Error(err))
		http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader уже ответил клиенту
		h.logger.Error("Failed to upgrade connection", zap.Stringer("userID", claims.UserID), zap.Error(err))
		return
	}

	client := &Client{
		UserID: claims.UserID,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
	}
	h.manager.register(client)
	log := h.logger.With(zap.Stringer("userID", claims.UserID))
	log.Info("WebSocket connection established")

	go client.writePump(log)
	go client.readPump(h.manager, log)
}

func (c *Client) readPump(manager *Manager, logger *zap.Logger) {
	defer func() {
		manager.unregister(c)
		_ = c.conn.Close()
		logger.Debug("readPump finished")
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("WebSocket read error", zap.Error(err))
			} else {
				logger.Info("WebSocket connection closed")
			}
			return
		}
		// входящие сообщения игнорируются
	}
}

// writePump - единственный писатель в соединение.
func (c *Client) writePump(logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Одно событие - один фрейм, клиенту не нужно резать по разделителю
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				logger.Warn("Failed to write message", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				logger.Debug("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}
