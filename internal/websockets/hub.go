package websockets

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// Hub fans out admin feed messages to every connected client
type Hub struct {
	clients map[*Client]bool

	register chan *Client

	unregister chan *Client

	broadcast chan []byte

	logger *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
	}
}

// Broadcast queues a typed message for all clients. It never blocks; when
// the queue is full the message is dropped.
func (h *Hub) Broadcast(msgType MessageType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.WithError(err).Errorf("Failed to encode %s message", msgType)
		return
	}
	message, err := json.Marshal(Message{Type: msgType, Data: data})
	if err != nil {
		h.logger.WithError(err).Errorf("Failed to encode %s message", msgType)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warnf("Broadcast queue full, dropping %s message", msgType)
	}
}

// Run serves registrations and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {
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
			h.logger.Debugf("Feed client %s connected", client.userID)
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}
