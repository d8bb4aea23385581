// Package chat holds the identity registry and the message router: which
// connection owns which username, and which connections receive which event.
package chat

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/samber/lo"
)

// Router classifies inbound events and dispatches outbound ones. It reads and
// writes the registry but never holds its lock while talking to the transport.
type Router struct {
	log       *slog.Logger
	registry  *Registry
	transport Transport
	censor    Censor
}

type Option func(*Router)

// WithCensor filters every outbound chat body through c.
func WithCensor(c Censor) Option {
	return func(r *Router) {
		r.censor = c
	}
}

func NewRouter(log *slog.Logger, registry *Registry, transport Transport, opts ...Option) *Router {
	r := &Router{
		log:       log,
		registry:  registry,
		transport: transport,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Dispatch decodes env and runs the matching handler for conn.
func (r *Router) Dispatch(conn ConnID, env Envelope) error {
	switch env.Event {
	case EventRegister:
		var name string
		if err := decode(env, &name); err != nil {
			r.reply(conn, EventRegister, RegisterResult{Success: false})
			return err
		}
		r.HandleRegister(conn, name)
	case EventClientSays:
		var req SayRequest
		if err := decode(env, &req); err != nil {
			return err
		}
		r.HandleSay(conn, req)
	case EventPrivateMessage:
		var req PrivateRequest
		if err := decode(env, &req); err != nil {
			return err
		}
		r.HandlePrivate(conn, req)
	case EventGroupPrivateMessage:
		var req GroupPrivateRequest
		if err := decode(env, &req); err != nil {
			return err
		}
		r.HandleGroupPrivate(conn, req)
	case EventConnectionTerminated:
		r.HandleTerminate(conn)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, env.Event)
	}
	return nil
}

func decode(env Envelope, v any) error {
	if len(env.Data) == 0 {
		return fmt.Errorf("%w: %s without data", ErrMalformedEvent, env.Event)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedEvent, env.Event, err)
	}
	return nil
}

// HandleRegister answers {success} to conn only. Bad format, a taken name and
// a second registration from the same connection all answer false.
func (r *Router) HandleRegister(conn ConnID, name string) {
	if err := r.registry.Register(name, conn); err != nil {
		r.log.Debug("Registration rejected", "conn", conn, "username", name, "error", err)
		r.reply(conn, EventRegister, RegisterResult{Success: false})
		return
	}
	r.log.Info("User registered", "conn", conn, "username", name, "users", r.registry.Len())
	r.reply(conn, EventRegister, RegisterResult{Success: true})
}

// HandleSay broadcasts text without a colon and treats "name: body" as a
// private message to name.
func (r *Router) HandleSay(conn ConnID, req SayRequest) {
	sender, ok := r.sender(conn, EventClientSays)
	if !ok {
		return
	}
	if req.Username != "" && req.Username != sender {
		r.log.Debug("Ignoring claimed username", "conn", conn, "claimed", req.Username, "username", sender)
	}

	receiver, body, addressed := ParseAddressed(req.Message)
	if !addressed {
		r.broadcast(sender, req.Message)
		return
	}
	r.private(conn, sender, receiver, body)
}

// HandlePrivate delivers an explicitly addressed single-receiver message.
func (r *Router) HandlePrivate(conn ConnID, req PrivateRequest) {
	sender, ok := r.sender(conn, EventPrivateMessage)
	if !ok {
		return
	}
	r.private(conn, sender, req.Receiver, req.Message)
}

// HandleGroupPrivate delivers to every reachable receiver other than the
// sender, then confirms once with the list exactly as it was sent.
func (r *Router) HandleGroupPrivate(conn ConnID, req GroupPrivateRequest) {
	sender, ok := r.sender(conn, EventGroupPrivateMessage)
	if !ok {
		return
	}
	body := r.clean(req.Message)

	targets := lo.Filter(req.Receivers, func(name string, _ int) bool {
		return name != sender
	})
	delivered := 0
	for _, name := range targets {
		target, err := r.registry.Lookup(name)
		if err != nil {
			continue
		}
		r.transport.Send(target, EventPrivateMessage, PrivateReceived{Sender: sender, Message: body})
		delivered++
	}

	receivers := req.Receivers
	if receivers == nil {
		receivers = []string{}
	}
	r.log.Debug("Group message routed", "sender", sender, "receivers", len(receivers), "delivered", delivered)
	r.transport.Send(conn, EventPrivateMessageSend, GroupPrivateSent{Receivers: receivers, Message: body})
}

// HandleTerminate releases the username of conn while keeping the connection.
func (r *Router) HandleTerminate(conn ConnID) {
	if name, ok := r.registry.UnregisterByConnection(conn); ok {
		r.log.Info("User terminated session", "conn", conn, "username", name)
	}
}

// HandleDisconnect releases the username of a closed connection.
func (r *Router) HandleDisconnect(conn ConnID) {
	if name, ok := r.registry.UnregisterByConnection(conn); ok {
		r.log.Info("User disconnected", "conn", conn, "username", name, "users", r.registry.Len())
	}
}

func (r *Router) sender(conn ConnID, event string) (string, bool) {
	name, ok := r.registry.NameOf(conn)
	if !ok {
		r.log.Debug("Dropping event from unregistered connection", "conn", conn, "event", event)
	}
	return name, ok
}

func (r *Router) broadcast(sender, text string) {
	msg := BroadcastMessage{Username: sender, Message: r.clean(text)}
	targets := r.registry.Connections()
	for _, target := range targets {
		r.transport.Send(target, EventServerSays, msg)
	}
	r.log.Debug("Broadcast routed", "sender", sender, "targets", len(targets))
}

func (r *Router) private(conn ConnID, sender, receiver, text string) {
	if receiver == sender {
		r.log.Debug("Dropping self-addressed private message", "username", sender)
		return
	}
	target, err := r.registry.Lookup(receiver)
	if err != nil {
		r.log.Debug("Private message receiver not found", "sender", sender, "receiver", receiver)
		r.transport.Send(conn, EventPrivateMessageError, PrivateError{Receiver: receiver})
		return
	}
	body := r.clean(text)
	r.transport.Send(target, EventPrivateMessage, PrivateReceived{Sender: sender, Message: body})
	r.transport.Send(conn, EventPrivateMessageSend, PrivateSent{Receiver: receiver, Message: body})
}

func (r *Router) reply(conn ConnID, event string, payload any) {
	r.transport.Send(conn, event, payload)
}

func (r *Router) clean(text string) string {
	if r.censor == nil {
		return text
	}
	return r.censor.Censor(text)
}
