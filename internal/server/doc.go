// Package server implements the HTTP and WebSocket transport of the chat hub.
//
// The Hub owns live connections and implements chat.Transport; every inbound
// frame is decoded into a chat.Envelope and routed by a chat.Router on the
// hub's single event loop. The package also serves the browser chat page and
// a health check, and holds the process-wide configuration.
package server
