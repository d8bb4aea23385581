package chat

import "encoding/json"

// Wire event names.
const (
	EventRegister             = "register"
	EventClientSays           = "clientSays"
	EventServerSays           = "serverSays"
	EventPrivateMessage       = "privateMessage"
	EventPrivateMessageSend   = "privateMessageSend"
	EventGroupPrivateMessage  = "groupPrivateMessage"
	EventPrivateMessageError  = "privateMessageError"
	EventConnectionTerminated = "connectionTerminated"
)

// Envelope is the frame exchanged over the connection in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an envelope for event. A nil payload
// produces an envelope without data.
func NewEnvelope(event string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Event: event}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Event: event, Data: data}, nil
}

// SayRequest is the inbound clientSays payload. Username is whatever the
// client claims; the router trusts the registry instead.
type SayRequest struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// PrivateRequest is the inbound explicit single-receiver privateMessage payload.
type PrivateRequest struct {
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Message  string `json:"message"`
}

// GroupPrivateRequest is the inbound groupPrivateMessage payload.
type GroupPrivateRequest struct {
	Sender    string   `json:"sender"`
	Receivers []string `json:"receivers"`
	Message   string   `json:"message"`
}

type RegisterResult struct {
	Success bool `json:"success"`
}

// BroadcastMessage is delivered to every registered connection as serverSays.
type BroadcastMessage struct {
	Username string `json:"username"`
	Message  string `json:"message"`
}

// PrivateReceived is delivered to the addressed connection.
type PrivateReceived struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
}

// PrivateSent confirms a single-receiver private message to its sender.
type PrivateSent struct {
	Receiver string `json:"receiver"`
	Message  string `json:"message"`
}

// GroupPrivateSent confirms a group message to its sender with the list as sent.
type GroupPrivateSent struct {
	Receivers []string `json:"receivers"`
	Message   string   `json:"message"`
}

type PrivateError struct {
	Receiver string `json:"receiver"`
}
