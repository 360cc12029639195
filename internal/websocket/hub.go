package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeNewMessage  MessageType = "new_message"
	MessageTypeError       MessageType = "error"
)

// WSMessage is the frame exchanged with connected frontends.
type WSMessage struct {
	Type      MessageType `json:"type"`
	MailboxID uint        `json:"mailbox_id,omitempty"`
	Message   interface{} `json:"message,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// NewMessagePayload represents the payload for new message notifications.
// RecipientEmail is the address the message was originally sent to, which
// for alias and tagged deliveries differs from the mailbox address.
type NewMessagePayload struct {
	ID             uint   `json:"id"`
	SenderEmail    string `json:"sender_email"`
	SenderName     string `json:"sender_name,omitempty"`
	RecipientEmail string `json:"recipient_email,omitempty"`
	Subject        string `json:"subject,omitempty"`
	Status         string `json:"status,omitempty"`
	ForwardedFrom  string `json:"forwarded_from,omitempty"`
	ReceivedAt     string `json:"received_at"`
}

// Notifier is the part of the hub the delivery paths depend on. The SMTP
// session and the send pipeline only ever broadcast; tests substitute a
// recording implementation.
type Notifier interface {
	BroadcastNewMessage(mailboxID uint, payload *NewMessagePayload)
}

// Hub tracks connected clients and routes new-message notifications to the
// clients subscribed to the target mailbox. All state changes go through the
// Run loop's channels.
type Hub struct {
	clients map[*Client]bool

	// mailboxID -> subscribed clients
	subscriptions map[uint]map[*Client]bool

	register           chan *Client
	unregister         chan *Client
	subscribe          chan *subscriptionRequest
	unsubscribeMailbox chan *subscriptionRequest
	broadcast          chan *broadcastMessage

	mu     sync.RWMutex
	logger *slog.Logger
}

type subscriptionRequest struct {
	client    *Client
	mailboxID uint
}

type broadcastMessage struct {
	mailboxID uint
	message   []byte
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:            make(map[*Client]bool),
		subscriptions:      make(map[uint]map[*Client]bool),
		register:           make(chan *Client),
		unregister:         make(chan *Client),
		subscribe:          make(chan *subscriptionRequest),
		unsubscribeMailbox: make(chan *subscriptionRequest),
		broadcast:          make(chan *broadcastMessage, 256),
		logger:             logger,
	}
}

// Run processes hub events until the process exits. Call it from a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case req := <-h.subscribe:
			h.addSubscription(req)
		case req := <-h.unsubscribeMailbox:
			h.removeSubscription(req)
		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()
	if h.logger != nil {
		h.logger.Debug("client registered")
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		for mailboxID, subscribers := range h.subscriptions {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.subscriptions, mailboxID)
			}
		}
	}
	h.mu.Unlock()
	if h.logger != nil {
		h.logger.Debug("client unregistered")
	}
}

func (h *Hub) addSubscription(req *subscriptionRequest) {
	h.mu.Lock()
	if h.subscriptions[req.mailboxID] == nil {
		h.subscriptions[req.mailboxID] = make(map[*Client]bool)
	}
	h.subscriptions[req.mailboxID][req.client] = true
	h.mu.Unlock()
	if h.logger != nil {
		h.logger.Debug("client subscribed to mailbox", slog.Uint64("mailbox_id", uint64(req.mailboxID)))
	}
}

func (h *Hub) removeSubscription(req *subscriptionRequest) {
	h.mu.Lock()
	if subscribers, ok := h.subscriptions[req.mailboxID]; ok {
		delete(subscribers, req.client)
		if len(subscribers) == 0 {
			delete(h.subscriptions, req.mailboxID)
		}
	}
	h.mu.Unlock()
	if h.logger != nil {
		h.logger.Debug("client unsubscribed from mailbox", slog.Uint64("mailbox_id", uint64(req.mailboxID)))
	}
}

func (h *Hub) deliver(msg *broadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.subscriptions[msg.mailboxID] {
		select {
		case client.send <- msg.message:
		default:
			// Slow client, drop the frame rather than block the hub
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Subscribe subscribes a client to a mailbox
func (h *Hub) Subscribe(client *Client, mailboxID uint) {
	h.subscribe <- &subscriptionRequest{client: client, mailboxID: mailboxID}
}

// Unsubscribe removes a client's subscription to a mailbox
func (h *Hub) Unsubscribe(client *Client, mailboxID uint) {
	h.unsubscribeMailbox <- &subscriptionRequest{client: client, mailboxID: mailboxID}
}

// BroadcastNewMessage notifies every subscriber of mailboxID about a newly
// delivered message.
func (h *Hub) BroadcastNewMessage(mailboxID uint, payload *NewMessagePayload) {
	msg := WSMessage{
		Type:      MessageTypeNewMessage,
		MailboxID: mailboxID,
		Message:   payload,
	}

	data, err := json.Marshal(msg)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal broadcast message", slog.Any("error", err))
		}
		return
	}

	h.broadcast <- &broadcastMessage{mailboxID: mailboxID, message: data}
}
