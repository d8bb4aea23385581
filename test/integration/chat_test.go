// Package integration drives the hub end to end over real WebSocket
// connections: registration, broadcast, private and group delivery, and
// disconnect cleanup.
package integration

import (
	"testing"
	"time"

	"github.com/Tyrowin/gochat-hub/internal/chat"
	"github.com/Tyrowin/gochat-hub/internal/moderation"
	"github.com/Tyrowin/gochat-hub/test/testhelpers"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const quiet = 150 * time.Millisecond

func TestRegistration(t *testing.T) {
	req := require.New(t)
	testServer, _ := testhelpers.StartChatServer(t, nil)
	alice := testhelpers.MustConnect(t, testServer)
	other := testhelpers.MustConnect(t, testServer)

	req.True(testhelpers.Register(t, alice, "alice"))
	req.False(testhelpers.Register(t, other, "alice"), "name is taken")
	req.False(testhelpers.Register(t, other, "1alice"), "name must start with a letter")
	req.False(testhelpers.Register(t, other, "al ice"), "name must be alphanumeric")
	req.False(testhelpers.Register(t, alice, "alice2"), "connection already holds a name")
	req.True(testhelpers.Register(t, other, "Alice"), "names are case-sensitive")
}

func TestBroadcast_Reaches_Everyone_Registered(t *testing.T) {
	req := require.New(t)
	testServer, _ := testhelpers.StartChatServer(t, nil)
	alice := testhelpers.MustConnect(t, testServer)
	bob := testhelpers.MustConnect(t, testServer)
	lurker := testhelpers.MustConnect(t, testServer)
	req.True(testhelpers.Register(t, alice, "alice"))
	req.True(testhelpers.Register(t, bob, "bob"))

	req.NoError(testhelpers.SendEvent(alice, chat.EventClientSays, chat.SayRequest{Username: "mallory", Message: "hello all"}))

	for _, conn := range []*websocket.Conn{alice, bob} {
		var msg chat.BroadcastMessage
		testhelpers.ExpectEvent(t, conn, chat.EventServerSays, &msg)
		req.Equal(chat.BroadcastMessage{Username: "alice", Message: "hello all"}, msg)
	}
	testhelpers.ExpectNoEvent(t, lurker, quiet)
}

func TestPrivateMessage_By_Colon_Address(t *testing.T) {
	req := require.New(t)
	testServer, _ := testhelpers.StartChatServer(t, nil)
	alice := testhelpers.MustConnect(t, testServer)
	bob := testhelpers.MustConnect(t, testServer)
	carol := testhelpers.MustConnect(t, testServer)
	req.True(testhelpers.Register(t, alice, "alice"))
	req.True(testhelpers.Register(t, bob, "bob"))
	req.True(testhelpers.Register(t, carol, "carol"))

	req.NoError(testhelpers.SendEvent(alice, chat.EventClientSays, chat.SayRequest{Message: " bob :  meet at 10:30 "}))

	var got chat.PrivateReceived
	testhelpers.ExpectEvent(t, bob, chat.EventPrivateMessage, &got)
	req.Equal(chat.PrivateReceived{Sender: "alice", Message: "meet at 10:30"}, got)

	var sent chat.PrivateSent
	testhelpers.ExpectEvent(t, alice, chat.EventPrivateMessageSend, &sent)
	req.Equal(chat.PrivateSent{Receiver: "bob", Message: "meet at 10:30"}, sent)

	testhelpers.ExpectNoEvent(t, carol, quiet)
}

func TestPrivateMessage_Unknown_Receiver(t *testing.T) {
	req := require.New(t)
	testServer, _ := testhelpers.StartChatServer(t, nil)
	alice := testhelpers.MustConnect(t, testServer)
	req.True(testhelpers.Register(t, alice, "alice"))

	req.NoError(testhelpers.SendEvent(alice, chat.EventClientSays, chat.SayRequest{Message: "dave: anyone?"}))
	var failed chat.PrivateError
	testhelpers.ExpectEvent(t, alice, chat.EventPrivateMessageError, &failed)
	req.Equal("dave", failed.Receiver)

	req.NoError(testhelpers.SendEvent(alice, chat.EventPrivateMessage, chat.PrivateRequest{Receiver: "dave", Message: "hi"}))
	testhelpers.ExpectEvent(t, alice, chat.EventPrivateMessageError, &failed)
	req.Equal("dave", failed.Receiver)
}

func TestPrivateMessage_To_Self_Is_Dropped(t *testing.T) {
	req := require.New(t)
	testServer, _ := testhelpers.StartChatServer(t, nil)
	alice := testhelpers.MustConnect(t, testServer)
	req.True(testhelpers.Register(t, alice, "alice"))

	req.NoError(testhelpers.SendEvent(alice, chat.EventClientSays, chat.SayRequest{Message: "alice: note to self"}))

	testhelpers.ExpectNoEvent(t, alice, quiet)
}

func TestGroupPrivateMessage(t *testing.T) {
	req := require.New(t)
	testServer, _ := testhelpers.StartChatServer(t, nil)
	alice := testhelpers.MustConnect(t, testServer)
	bob := testhelpers.MustConnect(t, testServer)
	carol := testhelpers.MustConnect(t, testServer)
	req.True(testhelpers.Register(t, alice, "alice"))
	req.True(testhelpers.Register(t, bob, "bob"))
	req.True(testhelpers.Register(t, carol, "carol"))

	req.NoError(testhelpers.SendEvent(alice, chat.EventGroupPrivateMessage, chat.GroupPrivateRequest{
		Receivers: []string{"bob", "carol", "dave", "alice"},
		Message:   "lunch?",
	}))

	for _, conn := range []*websocket.Conn{bob, carol} {
		var got chat.PrivateReceived
		testhelpers.ExpectEvent(t, conn, chat.EventPrivateMessage, &got)
		req.Equal(chat.PrivateReceived{Sender: "alice", Message: "lunch?"}, got)
	}

	var sent chat.GroupPrivateSent
	testhelpers.ExpectEvent(t, alice, chat.EventPrivateMessageSend, &sent)
	req.Equal([]string{"bob", "carol", "dave", "alice"}, sent.Receivers)
	req.Equal("lunch?", sent.Message)

	// One confirmation only, no error for dave, no copy for alice
	testhelpers.ExpectNoEvent(t, alice, quiet)
}

func TestUnregistered_Connection_Is_Ignored(t *testing.T) {
	req := require.New(t)
	testServer, _ := testhelpers.StartChatServer(t, nil)
	alice := testhelpers.MustConnect(t, testServer)
	guest := testhelpers.MustConnect(t, testServer)
	req.True(testhelpers.Register(t, alice, "alice"))

	req.NoError(testhelpers.SendEvent(guest, chat.EventClientSays, chat.SayRequest{Username: "alice", Message: "spoof"}))
	req.NoError(testhelpers.SendEvent(guest, chat.EventClientSays, chat.SayRequest{Username: "alice", Message: "alice: spoof"}))

	testhelpers.ExpectNoEvent(t, alice, quiet)
}

func TestMalformed_Frames_Keep_Connection_Open(t *testing.T) {
	req := require.New(t)
	testServer, _ := testhelpers.StartChatServer(t, nil)
	alice := testhelpers.MustConnect(t, testServer)
	req.True(testhelpers.Register(t, alice, "alice"))

	req.NoError(alice.WriteMessage(websocket.TextMessage, []byte("not json")))
	req.NoError(alice.WriteMessage(websocket.TextMessage, []byte(`{"event":"shout","data":{}}`)))
	req.NoError(alice.WriteMessage(websocket.TextMessage, []byte(`{"event":"clientSays","data":42}`)))

	req.NoError(testhelpers.SendEvent(alice, chat.EventClientSays, chat.SayRequest{Message: "still here"}))
	var msg chat.BroadcastMessage
	testhelpers.ExpectEvent(t, alice, chat.EventServerSays, &msg)
	req.Equal("still here", msg.Message)
}

func TestConnectionTerminated_Frees_Name_And_Keeps_Socket(t *testing.T) {
	req := require.New(t)
	testServer, _ := testhelpers.StartChatServer(t, nil)
	alice := testhelpers.MustConnect(t, testServer)
	bob := testhelpers.MustConnect(t, testServer)
	req.True(testhelpers.Register(t, alice, "alice"))

	req.NoError(testhelpers.SendEvent(alice, chat.EventConnectionTerminated, nil))

	// Ordering only holds per connection: alice's reply proves her terminate
	// was handled before bob asks for the name
	req.True(testhelpers.Register(t, alice, "alice2"))
	req.True(testhelpers.Register(t, bob, "alice"))
}

func TestDisconnect_Frees_Name(t *testing.T) {
	req := require.New(t)
	testServer, _ := testhelpers.StartChatServer(t, nil)
	alice := testhelpers.MustConnect(t, testServer)
	req.True(testhelpers.Register(t, alice, "alice"))
	req.NoError(testhelpers.CloseWebSocket(alice))

	successor := testhelpers.MustConnect(t, testServer)
	deadline := time.Now().Add(2 * time.Second)
	for !testhelpers.Register(t, successor, "alice") {
		if time.Now().After(deadline) {
			t.Fatal("name was not released after disconnect")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestModeration_Masks_Broadcast_And_Private(t *testing.T) {
	req := require.New(t)
	filter, err := moderation.NewFilter([]string{"darn"}, '#')
	req.NoError(err)
	testServer, _ := testhelpers.StartChatServer(t, nil, chat.WithCensor(filter))
	alice := testhelpers.MustConnect(t, testServer)
	bob := testhelpers.MustConnect(t, testServer)
	req.True(testhelpers.Register(t, alice, "alice"))
	req.True(testhelpers.Register(t, bob, "bob"))

	req.NoError(testhelpers.SendEvent(alice, chat.EventClientSays, chat.SayRequest{Message: "darn it"}))
	var msg chat.BroadcastMessage
	testhelpers.ExpectEvent(t, bob, chat.EventServerSays, &msg)
	req.Equal("#### it", msg.Message)

	req.NoError(testhelpers.SendEvent(alice, chat.EventClientSays, chat.SayRequest{Message: "bob: DARN"}))
	var got chat.PrivateReceived
	testhelpers.ExpectEvent(t, bob, chat.EventPrivateMessage, &got)
	req.Equal("####", got.Message)
}
