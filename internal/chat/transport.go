//go:generate go run go.uber.org/mock/mockgen -source=transport.go -destination=../mocks/mock_transport.go -package=mocks
package chat

// Transport delivers outbound events. Send is fire-and-forget: a connection
// that is gone or cannot accept the event simply never receives it.
type Transport interface {
	Send(conn ConnID, event string, payload any)
}

// Censor rewrites a chat body before it leaves the router.
type Censor interface {
	Censor(text string) string
}
