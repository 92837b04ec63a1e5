package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"learnai-backend/internal/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TokenVerifier resolves the user behind an access token.
type TokenVerifier interface {
	ParseUserID(token string) (uuid.UUID, error)
}

// Hub fans out progress events published on Redis to the user's open sockets.
// Every instance subscribes only for users connected to it.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID][]*websocket.Conn
	writeMu     map[*websocket.Conn]*sync.Mutex
	redisClient *redis.Client
	auth        TokenVerifier
	log         *logger.Logger
	cancelFuncs map[uuid.UUID]context.CancelFunc
}

func NewHub(redisClient *redis.Client, auth TokenVerifier, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		connections: make(map[uuid.UUID][]*websocket.Conn),
		writeMu:     make(map[*websocket.Conn]*sync.Mutex),
		redisClient: redisClient,
		auth:        auth,
		log:         log.With("component", "websocket"),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Browsers cannot set headers on upgrade, so the token travels as a query param.
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, err := h.auth.ParseUserID(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	h.registerConnection(userID, conn)

	go func() {
		defer h.unregisterConnection(userID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) registerConnection(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections[userID] = append(h.connections[userID], conn)
	h.writeMu[conn] = &sync.Mutex{}

	if len(h.connections[userID]) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[userID] = cancel
		go h.subscribeToPubSub(ctx, userID)
	}

	h.log.Debug("websocket connected", "user_id", userID, "connections", len(h.connections[userID]))
}

func (h *Hub) unregisterConnection(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()
	delete(h.writeMu, conn)

	conns := h.connections[userID]
	for i, c := range conns {
		if c == conn {
			h.connections[userID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}

	if len(h.connections[userID]) == 0 {
		delete(h.connections, userID)
		if cancel, ok := h.cancelFuncs[userID]; ok {
			cancel()
			delete(h.cancelFuncs, userID)
		}
	}

	h.log.Debug("websocket disconnected", "user_id", userID)
}

func (h *Hub) subscribeToPubSub(ctx context.Context, userID uuid.UUID) {
	pubsub := h.redisClient.Subscribe(ctx, Channel(userID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(userID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections[userID] {
		mu := h.writeMu[conn]
		mu.Lock()
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.log.Debug("websocket write failed", "user_id", userID, "error", err)
		}
		mu.Unlock()
	}
}

// SendToUser sends a message directly to a user's sockets on this instance.
func (h *Hub) SendToUser(userID uuid.UUID, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.broadcast(userID, data)
}

// Close drops every subscription. Open sockets are closed by the HTTP server.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, cancel := range h.cancelFuncs {
		cancel()
		delete(h.cancelFuncs, id)
	}
}
