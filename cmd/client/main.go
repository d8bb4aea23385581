package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/Tyrowin/gochat-hub/internal/chat"
	"github.com/Tyrowin/gochat-hub/internal/client"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=ws://localhost:8080/ws"`
	Origin    string `env:"CHAT_ORIGIN,default=http://localhost:8080"`
	LogLevel  string `env:"LOG_LEVEL,default=WARN"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	headers.Set("Origin", config.Origin)
	conn, resp, err := dialer.DialContext(ctx, config.ServerURL, headers)
	if resp != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to %s: %w", config.ServerURL, err)
	}
	defer func() {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = conn.Close()
	}()

	session := client.NewSession()
	fmt.Printf("Connected to %s. Type /help for commands.\n", config.ServerURL)

	readErr := make(chan error, 1)
	go func() {
		readErr <- receive(conn, session, log)
	}()

	lines := make(chan string)
	go scan(lines)

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteJSON(chat.Envelope{Event: chat.EventConnectionTerminated})
			return exitOK, nil
		case err := <-readErr:
			return exitRuntime, fmt.Errorf("connection lost: %w", err)
		case line, ok := <-lines:
			if !ok {
				_ = conn.WriteJSON(chat.Envelope{Event: chat.EventConnectionTerminated})
				return exitOK, nil
			}
			if err := handleLine(conn, session, line); err != nil {
				return exitRuntime, err
			}
		}
	}
}

// handleLine sends the event for one typed line. Input mistakes are printed
// and do not end the session.
func handleLine(conn *websocket.Conn, session *client.Session, line string) error {
	cmd, err := session.Parse(line)
	switch {
	case errors.Is(err, client.ErrEmptyLine):
		return nil
	case err != nil:
		fmt.Println(err)
		return nil
	case cmd.Help:
		client.WriteHelp(os.Stdout)
		return nil
	}

	if err := conn.WriteJSON(cmd.Envelope); err != nil {
		return fmt.Errorf("send failed: %w", err)
	}
	return nil
}

func receive(conn *websocket.Conn, session *client.Session, log *slog.Logger) error {
	for {
		var env chat.Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return err
		}
		out, err := session.Render(env)
		if err != nil {
			log.Warn("Unreadable event", "event", env.Event, "error", err)
			continue
		}
		fmt.Println(out)
	}
}

func scan(lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		lines <- scanner.Text()
	}
}
