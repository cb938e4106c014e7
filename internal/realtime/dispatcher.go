package realtime

// Dispatcher delivers a named event to the single live connection of a target
// user. Delivery is fire-and-forget, at-most-once: an offline recipient, or
// one whose stream buffer is full, simply misses the event. Callers get no
// acknowledgment channel and must not assume the recipient saw anything.
type Dispatcher struct {
	gateway *Gateway
}

// NewDispatcher constructs a Dispatcher pushing through the given Gateway.
func NewDispatcher(gateway *Gateway) *Dispatcher {
	return &Dispatcher{gateway: gateway}
}

// Notify resolves targetUserID through the registry and, if a live connection
// exists, pushes the event to exactly that connection. Silent no-op otherwise.
func (d *Dispatcher) Notify(targetUserID, eventName string, payload any) {
	if targetUserID == "" || eventName == "" {
		return
	}
	connID, ok := d.gateway.Registry().Get(targetUserID)
	if !ok {
		return
	}
	connection := d.gateway.connection(connID)
	if connection == nil {
		return
	}
	select {
	case connection.stream <- Event{Name: eventName, Payload: payload}:
	default:
	}
}
