package realtime

import (
	"encoding/json"
	"sync"

	"qadamsafe/internal/interfaces"
	"qadamsafe/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBufferSize = 256

// Client - одно WebSocket соединение пользователя.
type Client struct {
	UserID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
}

// Manager держит открытые соединения. У пользователя может быть несколько вкладок.
type Manager struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]struct{}
	logger  *zap.Logger
}

var _ interfaces.ClientNotifier = (*Manager)(nil)

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		clients: make(map[uuid.UUID]map[*Client]struct{}),
		logger:  logger.Named("RealtimeManager"),
	}
}

func (m *Manager) register(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		m.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	m.logger.Debug("Client registered", zap.Stringer("userID", c.UserID), zap.Int("connections", len(set)))
}

// unregister закрывает send ровно один раз: только тот, кто удалил клиента из карты.
func (m *Manager) unregister(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(m.clients, c.UserID)
	}
	m.logger.Debug("Client unregistered", zap.Stringer("userID", c.UserID))
}

// SendToUser ставит событие в очередь всех соединений пользователя.
// Переполненная очередь не блокирует отправителя, сообщение для этого соединения теряется.
func (m *Manager) SendToUser(userID uuid.UUID, event models.ClientEvent) bool {
	message, err := json.Marshal(event)
	if err != nil {
		m.logger.Error("Failed to marshal client event", zap.String("type", event.Type), zap.Error(err))
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	set := m.clients[userID]
	delivered := false
	for c := range set {
		select {
		case c.send <- message:
			delivered = true
		default:
			m.logger.Warn("Client send queue is full, dropping event",
				zap.Stringer("userID", userID), zap.String("type", event.Type))
		}
	}
	return delivered
}

// Connections - число открытых соединений, для health и тестов.
func (m *Manager) Connections() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, set := range m.clients {
		n += len(set)
	}
	return n
}

// CloseAll закрывает все соединения при остановке сервера.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for userID, set := range m.clients {
		for c := range set {
			close(c.send)
		}
		delete(m.clients, userID)
	}
}
