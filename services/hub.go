package services

import (
	"context"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Hub fans match state changes out to websocket observers. It does not
// originate events: mutations land in Postgres, the notifier publishes them
// on Redis, and the hub forwards each event to the clients watching that
// match.
type Hub struct {
	redis    *redis.Client
	notifier *RedisNotifier
	logger   *zap.Logger

	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

type Client struct {
	hub     *Hub
	socket  *websocket.Conn
	send    chan []byte
	matchID string
	userID  string
}

func NewHub(redisClient *redis.Client, notifier *RedisNotifier, logger *zap.Logger) *Hub {
	return &Hub{
		redis:      redisClient,
		notifier:   notifier,
		logger:     logger,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			h.logger.Debug("observer connected",
				zap.String("match_id", client.matchID),
				zap.String("user_id", client.userID))

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mutex.Unlock()
			h.logger.Debug("observer disconnected",
				zap.String("match_id", client.matchID),
				zap.String("user_id", client.userID))
		}
	}
}

// Listen subscribes to all match event channels and forwards each payload to
// the clients watching that match. It returns when ctx is cancelled.
func (h *Hub) Listen(ctx context.Context) {
	sub := h.redis.PSubscribe(ctx, matchEventChanPattern)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			matchID := strings.TrimPrefix(msg.Channel, matchEventChanPrefix)
			h.broadcast(matchID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(matchID string, data []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		if client.matchID != matchID {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Slow observer; drop it rather than block the fan-out.
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// RegisterClient attaches a websocket connection as an observer of one match.
// The latest cached snapshot, if any, is sent immediately so the observer
// does not wait for the next transition.
func (h *Hub) RegisterClient(ctx context.Context, conn *websocket.Conn, matchID, userID string) *Client {
	client := &Client{
		hub:     h,
		socket:  conn,
		send:    make(chan []byte, 16),
		matchID: matchID,
		userID:  userID,
	}
	h.register <- client

	if h.notifier != nil {
		if snapshot := h.notifier.LatestSnapshot(ctx, matchID); snapshot != nil {
			client.send <- snapshot
		}
	}

	go client.writePump()
	go client.readPump()
	return client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.socket.Close()
	}()

	// Observers do not send anything meaningful; reading just detects
	// disconnects.
	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		if err := c.socket.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}
