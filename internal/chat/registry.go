package chat

import (
	"sync"

	"github.com/samber/lo"
)

// ConnID identifies one live client session. The transport mints it; the
// registry only stores and compares it.
type ConnID string

// Registry is the authoritative username -> connection table. Every mutation
// goes through Register or UnregisterByConnection.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]ConnID
	byConn map[ConnID]string
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]ConnID),
		byConn: make(map[ConnID]string),
	}
}

// Register binds name to conn. The format check, the uniqueness check and the
// insert happen under a single write lock, so two connections racing for the
// same name cannot both succeed.
func (r *Registry) Register(name string, conn ConnID) error {
	if err := ValidateUsername(name); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byConn[conn]; ok {
		return ErrAlreadyRegistered
	}
	if _, ok := r.byName[name]; ok {
		return ErrUsernameTaken
	}
	r.byName[name] = conn
	r.byConn[conn] = name
	return nil
}

// Lookup returns the connection registered under name.
func (r *Registry) Lookup(name string) (ConnID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.byName[name]
	if !ok {
		return "", ErrUserNotFound
	}
	return conn, nil
}

// NameOf returns the username owned by conn, if any.
func (r *Registry) NameOf(conn ConnID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.byConn[conn]
	return name, ok
}

func (r *Registry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byName[name]
	return ok
}

// UnregisterByConnection drops the entry owned by conn and returns the freed
// username. Calling it for an unknown connection is a no-op.
func (r *Registry) UnregisterByConnection(conn ConnID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, ok := r.byConn[conn]
	if !ok {
		return "", false
	}
	delete(r.byConn, conn)
	delete(r.byName, name)
	return name, true
}

// Connections returns a snapshot of every registered connection.
func (r *Registry) Connections() []ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.Keys(r.byConn)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.byName)
}
