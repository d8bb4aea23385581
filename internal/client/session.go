// Package client turns typed terminal lines into chat events and chat events
// back into printable lines.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Tyrowin/gochat-hub/internal/chat"
	"github.com/gookit/color"
)

var (
	ErrEmptyLine     = errors.New("empty line")
	ErrNotRegistered = errors.New("register first with /register <name>")
	ErrUsage         = errors.New("usage: /register <name>")
)

// Command is the result of parsing one typed line. Either Help is set or
// Envelope holds the event to send.
type Command struct {
	Envelope chat.Envelope
	Help     bool
}

// Session tracks who the local user is. The name only becomes current once
// the server accepts the registration.
type Session struct {
	mu      sync.Mutex
	user    string
	pending string
}

func NewSession() *Session {
	return &Session{}
}

// User returns the registered name, or "" before registration.
func (s *Session) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Parse maps a typed line to a command:
//
//	/help              command table
//	/register <name>   register
//	/quit              connectionTerminated
//	a, b: text         groupPrivateMessage to a and b
//	anything else      clientSays; "name: text" is routed privately by the server
func (s *Session) Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, ErrEmptyLine
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case line == "/help":
		return Command{Help: true}, nil
	case line == "/quit":
		s.user = ""
		return Command{Envelope: chat.Envelope{Event: chat.EventConnectionTerminated}}, nil
	case line == "/register" || strings.HasPrefix(line, "/register "):
		return s.register(strings.TrimSpace(strings.TrimPrefix(line, "/register")))
	}

	if s.user == "" {
		return Command{}, ErrNotRegistered
	}

	if before, after, found := strings.Cut(line, ":"); found {
		if receivers := chat.SplitReceivers(before); len(receivers) > 1 {
			return envelope(chat.EventGroupPrivateMessage, chat.GroupPrivateRequest{
				Sender:    s.user,
				Receivers: receivers,
				Message:   strings.TrimSpace(after),
			})
		}
	}
	return envelope(chat.EventClientSays, chat.SayRequest{Username: s.user, Message: line})
}

func (s *Session) register(name string) (Command, error) {
	if name == "" {
		return Command{}, ErrUsage
	}
	if err := chat.ValidateUsername(name); err != nil {
		return Command{}, err
	}
	s.pending = name
	return envelope(chat.EventRegister, name)
}

func envelope(event string, payload any) (Command, error) {
	env, err := chat.NewEnvelope(event, payload)
	if err != nil {
		return Command{}, err
	}
	return Command{Envelope: env}, nil
}

// confirmation covers both the single and the group privateMessageSend shapes.
type confirmation struct {
	Receiver  string   `json:"receiver"`
	Receivers []string `json:"receivers"`
	Message   string   `json:"message"`
}

// Render formats an inbound event for the terminal.
func (s *Session) Render(env chat.Envelope) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch env.Event {
	case chat.EventRegister:
		var res chat.RegisterResult
		if err := json.Unmarshal(env.Data, &res); err != nil {
			return "", err
		}
		if !res.Success {
			s.pending = ""
			return color.Red.Render("Registration refused: the name is taken or invalid"), nil
		}
		s.user, s.pending = s.pending, ""
		return color.Green.Render(fmt.Sprintf("Welcome, %s!", s.user)), nil

	case chat.EventServerSays:
		var msg chat.BroadcastMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return "", err
		}
		line := fmt.Sprintf("%s: %s", msg.Username, msg.Message)
		if msg.Username == s.user {
			return color.Blue.Render(line), nil
		}
		return line, nil

	case chat.EventPrivateMessage:
		var msg chat.PrivateReceived
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return "", err
		}
		return color.Magenta.Render(fmt.Sprintf("%s: %s", msg.Sender, msg.Message)), nil

	case chat.EventPrivateMessageSend:
		var msg confirmation
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return "", err
		}
		to := msg.Receiver
		if msg.Receivers != nil {
			to = strings.Join(msg.Receivers, ", ")
		}
		return color.Magenta.Render(fmt.Sprintf("Me to %s: %s", to, msg.Message)), nil

	case chat.EventPrivateMessageError:
		var msg chat.PrivateError
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			return "", err
		}
		return color.FgDarkGray.Render(fmt.Sprintf("%s is not online", msg.Receiver)), nil
	}

	return "", fmt.Errorf("%w: %q", chat.ErrUnknownEvent, env.Event)
}
