package game

// Conn delivers named messages to one connected peer. Implementations must
// be safe for use from timer goroutines; a send to a dropped peer returns an
// error and the session carries on.
type Conn interface {
	Send(messageType string, data any) error
	Close(reason string)
}
