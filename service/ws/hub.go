package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pettopia/pettopia-server/cmd/models"
	"github.com/sirupsen/logrus"
)

const (
	EventPostUpdated = "post_updated"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 64
)

// Event is one message pushed to subscribers.
type Event struct {
	Type       string      `json:"type"`
	Optimistic bool        `json:"optimistic"`
	Post       models.Post `json:"post"`
}

type message struct {
	postID string
	data   []byte
}

// Client is one websocket subscriber. An empty postID receives every post.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	postID string
}

// Hub fans post updates out to websocket subscribers. A subscriber that
// cannot keep up is disconnected rather than slowing the others.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan message
	done       chan struct{}
	clients    map[*Client]bool
	logger     *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan message, 256),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// Run owns the client set until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return

		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				if client.postID != "" && client.postID != msg.postID {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// PublishPost queues a post_updated event. It never blocks the caller.
func (h *Hub) PublishPost(p models.Post, optimistic bool) {
	data, err := json.Marshal(Event{Type: EventPostUpdated, Optimistic: optimistic, Post: p})
	if err != nil {
		h.logger.WithError(err).WithField("post_id", p.ID).Error("encoding post event")
		return
	}
	select {
	case h.broadcast <- message{postID: p.ID, data: data}:
	default:
		h.logger.WithField("post_id", p.ID).Warn("event queue full, dropping post update")
	}
}

// Subscribe attaches conn to the hub and starts its pumps.
func (h *Hub) Subscribe(conn *websocket.Conn, postID string) {
	client := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), postID: postID}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}
	go client.writePump()
	go client.readPump()
}

// readPump only watches for pongs and the close frame; subscribers never
// send anything the hub acts on.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.WithError(err).Debug("websocket closed")
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
