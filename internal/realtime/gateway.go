package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

const defaultEventBufferSize = 16

// Event is a named payload pushed to a single live connection.
type Event struct {
	Name    string
	Payload any
}

// Names of the events the API pushes over live connections.
const (
	EventNewMessage   = "newMessage"
	EventNotification = "notification"
)

// Connection is one live transport connection. Its identifier is assigned on
// establishment and is meaningless once the connection closes.
type Connection struct {
	id     string
	userID string
	stream chan Event
}

// ID returns the transport-assigned connection identifier.
func (c *Connection) ID() string {
	return c.id
}

// Events exposes the stream of events targeted at this connection.
func (c *Connection) Events() <-chan Event {
	return c.stream
}

// Gateway bridges transport connection lifecycle to the Registry. It owns the
// set of live connections; the Registry only knows identifiers.
type Gateway struct {
	mu         sync.RWMutex
	registry   *Registry
	conns      map[string]*Connection
	bufferSize int
}

// NewGateway constructs a Gateway backed by the provided Registry.
func NewGateway(registry *Registry) *Gateway {
	return &Gateway{
		registry:   registry,
		conns:      make(map[string]*Connection),
		bufferSize: defaultEventBufferSize,
	}
}

// Connect establishes a live connection for userID and returns it together
// with a cleanup function. The cleanup also fires when ctx is cancelled, so
// transport teardown by either peer unregisters the connection. A connection
// with no user identifier is accepted but never registered: it cannot receive
// targeted events.
func (g *Gateway) Connect(ctx context.Context, userID string) (*Connection, func()) {
	connection := &Connection{
		id:     uuid.NewString(),
		userID: userID,
		stream: make(chan Event, g.bufferSize),
	}

	g.mu.Lock()
	g.conns[connection.id] = connection
	g.mu.Unlock()
	if userID != "" {
		g.registry.Set(userID, connection.id)
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			g.registry.Remove(connection.id)
			g.mu.Lock()
			delete(g.conns, connection.id)
			g.mu.Unlock()
		})
	}
	go func() {
		<-ctx.Done()
		cleanup()
	}()
	return connection, cleanup
}

// Registry exposes the identity registry owned by this gateway.
func (g *Gateway) Registry() *Registry {
	return g.registry
}

func (g *Gateway) connection(connID string) *Connection {
	g.mu.RLock()
	connection := g.conns[connID]
	g.mu.RUnlock()
	return connection
}
