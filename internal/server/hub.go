// Package server coordinates client registration, event routing, and
// connection cleanup for the chat hub via the Hub type.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/Tyrowin/gochat-hub/internal/chat"
)

// Hub owns every live WebSocket client and is the chat.Transport the router
// writes to. Connects, disconnects and inbound events are all handled on the
// Run goroutine, one at a time.
type Hub struct {
	log        *slog.Logger
	router     *chat.Router
	clients    map[*Client]bool
	byID       map[chat.ConnID]*Client
	inbound    chan InboundMessage
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub that routes events against registry. The returned Hub
// is ready to manage WebSocket connections once Run is started.
func NewHub(log *slog.Logger, registry *chat.Registry, opts ...chat.Option) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		log:        log,
		clients:    make(map[*Client]bool),
		byID:       make(map[chat.ConnID]*Client),
		inbound:    make(chan InboundMessage),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	h.router = chat.NewRouter(log, registry, h, opts...)
	return h
}

// GetRegisterChan returns the channel used for registering new clients to the hub.
func (h *Hub) GetRegisterChan() chan<- *Client {
	return h.register
}

// GetUnregisterChan returns the channel used for unregistering clients from the hub.
func (h *Hub) GetUnregisterChan() chan<- *Client {
	return h.unregister
}

// GetInboundChan returns the channel clients push decoded frames to.
func (h *Hub) GetInboundChan() chan<- InboundMessage {
	return h.inbound
}

// ClientCount returns the number of open connections, registered or not.
func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Send implements chat.Transport. Unknown connections are ignored; a client
// whose buffer is full is dropped.
func (h *Hub) Send(conn chat.ConnID, event string, payload any) {
	env, err := chat.NewEnvelope(event, payload)
	if err != nil {
		h.log.Error("Error encoding event", "event", event, "error", err)
		return
	}
	frame, err := json.Marshal(env)
	if err != nil {
		h.log.Error("Error encoding frame", "event", event, "error", err)
		return
	}

	h.mutex.RLock()
	client, ok := h.byID[conn]
	h.mutex.RUnlock()
	if !ok {
		h.log.Debug("Dropping event for closed connection", "conn", conn, "event", event)
		return
	}

	if !h.safeSend(client, frame) {
		h.removeFailedClients([]*Client{client})
	}
}

func (h *Hub) safeSend(client *Client, message []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("Recovered from panic in safeSend", "panic", r)
		}
	}()

	// Hold the lock during the entire send operation to prevent race conditions
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	_, exists := h.clients[client]
	if !exists || client.closed {
		return false
	}

	select {
	case client.send <- message:
		return true
	default:
		return false
	}
}

// Run starts the hub's main event loop. This method should be called in a
// separate goroutine as it runs until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			h.handleRegister(client)

		case client := <-h.unregister:
			h.handleUnregister(client)

		case msg := <-h.inbound:
			h.handleInbound(msg)
		}
	}
}

func (h *Hub) handleRegister(client *Client) {
	if client == nil {
		h.log.Warn("Received nil client registration; skipping")
		return
	}

	h.mutex.Lock()
	client.closed = false
	h.clients[client] = true
	h.byID[client.id] = client
	clientCount := len(h.clients)
	h.mutex.Unlock()
	client.log.Info("Client connected", "clients", clientCount)

	if client.conn == nil {
		return
	}

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// handleUnregister forgets the client and frees its username. The client may
// already be gone from the maps if it was dropped for a full buffer.
func (h *Hub) handleUnregister(client *Client) {
	if client == nil {
		return
	}

	h.mutex.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		delete(h.byID, client.id)
		client.closed = true
		clientCount := len(h.clients)
		h.mutex.Unlock()
		close(client.send)
		client.log.Info("Client unregistered", "clients", clientCount)
	} else {
		h.mutex.Unlock()
	}

	h.router.HandleDisconnect(client.id)
}

func (h *Hub) handleInbound(msg InboundMessage) {
	if msg.Sender == nil {
		return
	}

	h.mutex.RLock()
	_, live := h.clients[msg.Sender]
	h.mutex.RUnlock()
	if !live {
		return
	}

	if err := h.router.Dispatch(msg.Sender.id, msg.Envelope); err != nil {
		msg.Sender.log.Warn("Dropping event", "event", msg.Envelope.Event, "error", err)
	}
}

// removeFailedClients removes clients that failed to receive messages and
// closes their channels. Their usernames are released once the read pump
// reports the disconnect.
func (h *Hub) removeFailedClients(clientsToRemove []*Client) {
	if len(clientsToRemove) == 0 {
		return
	}

	h.mutex.Lock()
	var channelsToClose []chan []byte
	for _, client := range clientsToRemove {
		if _, exists := h.clients[client]; exists {
			delete(h.clients, client)
			delete(h.byID, client.id)
			client.closed = true
			channelsToClose = append(channelsToClose, client.send)
			client.log.Warn("Client removed due to full send buffer")
		}
	}
	h.mutex.Unlock()

	for _, ch := range channelsToClose {
		close(ch)
	}
}

// shutdownClients closes every send channel and connection so both pumps exit.
func (h *Hub) shutdownClients() {
	h.log.Info("Shutting down all client connections...")

	h.mutex.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
		delete(h.clients, client)
		delete(h.byID, client.id)
		client.closed = true
		close(client.send)
	}
	h.mutex.Unlock()

	for _, client := range clients {
		h.router.HandleDisconnect(client.id)
		if client.conn != nil {
			client.closeConnection()
		}
	}

	h.log.Info("Closed client connections", "count", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines
// to complete, or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.log.Info("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.log.Info("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		h.log.Warn("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}
