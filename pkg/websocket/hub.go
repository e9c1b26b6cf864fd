package websocket

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"campusride/pkg/logger"
)

const (
	MessageTypeWelcome      = "welcome"
	MessageTypeNotification = "notification"
	MessageTypeChatMessage  = "chat_message"
	MessageTypeRideStatus   = "ride_status"
	MessageTypeJoinRoom     = "join_room"
	MessageTypeLeaveRoom    = "leave_room"
	MessageTypeError        = "error"
)

// Message is the envelope pushed to subscribers. Data carries the domain
// document (notification, chat message, ride) as-is.
type Message struct {
	Type      string      `json:"type"`
	RoomID    string      `json:"room_id,omitempty"`
	UserID    string      `json:"user_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// RoomAuthorizer decides whether a user may join a room other than their own.
type RoomAuthorizer func(ctx context.Context, userID, roomID string) bool

type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	rooms      map[string]map[*Client]bool
	authorize  RoomAuthorizer
	logger     *logger.Logger
	mutex      sync.RWMutex
}

func UserRoom(userID string) string { return "user_" + userID }
func ChatRoom(chatID string) string { return "chat_" + chatID }

func NewHub(log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Discard()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     log,
	}
}

// SetRoomAuthorizer installs the check used for join_room requests. Without
// one, clients can only receive messages for their personal room.
func (h *Hub) SetRoomAuthorizer(fn RoomAuthorizer) {
	h.mutex.Lock()
	h.authorize = fn
	h.mutex.Unlock()
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.sendToRoom(message.RoomID, message)
		}
	}
}

// Publish queues a message for every client in the room. It never blocks the
// caller on slow clients.
func (h *Hub) Publish(ctx context.Context, roomID string, message Message) error {
	message.RoomID = roomID
	if message.Timestamp == 0 {
		message.Timestamp = getCurrentTimestamp()
	}

	select {
	case h.broadcast <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) SendToUser(ctx context.Context, userID string, message Message) error {
	message.UserID = userID
	return h.Publish(ctx, UserRoom(userID), message)
}

func (h *Hub) ConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.clients[client] = true
	h.joinRoom(client, UserRoom(client.UserID))
	h.logger.WithUserID(client.UserID).Debug("websocket client registered")

	h.sendToClient(client, Message{
		Type:      MessageTypeWelcome,
		UserID:    client.UserID,
		Timestamp: getCurrentTimestamp(),
	})
}

func (h *Hub) unregisterClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.dropClient(client)
}

// dropClient must be called with the write lock held.
func (h *Hub) dropClient(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	close(client.send)

	for roomID := range client.rooms {
		if room, exists := h.rooms[roomID]; exists {
			delete(room, client)
			if len(room) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}

	h.logger.WithUserID(client.UserID).Debug("websocket client unregistered")
}

func (h *Hub) sendToRoom(roomID string, message Message) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	room, exists := h.rooms[roomID]
	if !exists {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.WithError(err).Error("failed to marshal websocket message")
		return
	}

	for client := range room {
		select {
		case client.send <- data:
		default:
			h.dropClient(client)
		}
	}
}

// sendToClient must be called with the write lock held.
func (h *Hub) sendToClient(client *Client, message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		return
	}
	select {
	case client.send <- data:
	default:
		h.dropClient(client)
	}
}

func (h *Hub) joinRoom(client *Client, roomID string) {
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

func (h *Hub) JoinRoom(ctx context.Context, client *Client, roomID string) bool {
	h.mutex.RLock()
	authorize := h.authorize
	h.mutex.RUnlock()

	if roomID != UserRoom(client.UserID) {
		if strings.HasPrefix(roomID, "user_") || authorize == nil || !authorize(ctx, client.UserID, roomID) {
			return false
		}
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	if _, ok := h.clients[client]; !ok {
		return false
	}
	h.joinRoom(client, roomID)
	return true
}

func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if room, exists := h.rooms[roomID]; exists {
		delete(room, client)
		delete(client.rooms, roomID)

		if len(room) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) closeAll() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		h.dropClient(client)
	}
}

func getCurrentTimestamp() int64 {
	return time.Now().Unix()
}
