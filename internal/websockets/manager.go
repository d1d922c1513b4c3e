package websockets

import (
	"sync"
	"time"

	"certgen/internal/logger"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	MessageTypeGeneration = "generation"

	ActionProgress = "progress"
	ActionComplete = "complete"
	ActionError    = "error"
)

type Message struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Channel   string         `json:"channel,omitempty"`
	Action    string         `json:"action,omitempty"`
	RunID     string         `json:"runId,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Conn is the subset of *websocket.Conn the manager uses.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteJSON(v any) error
	Close() error
}

type client struct {
	conn Conn
	mu   sync.Mutex
}

func (c *client) send(message Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(message)
}

// Manager fans generation progress out to every connected client. Clients
// only listen; anything they send is read and discarded.
type Manager struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	log     logger.Logger
}

func New() *Manager {
	return &Manager{
		clients: make(map[*client]struct{}),
		log:     logger.New("websockets"),
	}
}

func (m *Manager) HandleWebSocket(c *websocket.Conn) {
	m.Serve(c)
}

// Serve registers conn and blocks until it stops reading.
func (m *Manager) Serve(conn Conn) {
	log := m.log.Function("Serve")

	cl := &client{conn: conn}
	m.mu.Lock()
	m.clients[cl] = struct{}{}
	m.mu.Unlock()
	log.Debug("client connected", "clients", m.ClientCount())

	defer func() {
		m.remove(cl)
		log.Debug("client disconnected", "clients", m.ClientCount())
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (m *Manager) remove(cl *client) {
	m.mu.Lock()
	_, ok := m.clients[cl]
	delete(m.clients, cl)
	m.mu.Unlock()

	if ok {
		_ = cl.conn.Close()
	}
}

func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

func (m *Manager) Broadcast(message Message) {
	log := m.log.Function("Broadcast")

	m.mu.RLock()
	clients := make([]*client, 0, len(m.clients))
	for cl := range m.clients {
		clients = append(clients, cl)
	}
	m.mu.RUnlock()

	for _, cl := range clients {
		if err := cl.send(message); err != nil {
			log.Warn("dropping websocket client", "error", err)
			m.remove(cl)
		}
	}
}

func (m *Manager) send(runID, action string, data map[string]any) {
	m.Broadcast(Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeGeneration,
		Channel:   MessageTypeGeneration,
		Action:    action,
		RunID:     runID,
		Data:      data,
		Timestamp: time.Now(),
	})
}

func (m *Manager) SendGenerationProgress(runID string, data map[string]any) {
	m.send(runID, ActionProgress, data)
}

func (m *Manager) SendGenerationComplete(runID string, result map[string]any) {
	m.send(runID, ActionComplete, result)
}

func (m *Manager) SendGenerationError(runID string, errorMsg string) {
	m.send(runID, ActionError, map[string]any{"error": errorMsg})
}
