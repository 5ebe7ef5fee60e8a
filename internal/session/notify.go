package session

import "github.com/catamaze/client/internal/client"

// Notification is a state change or message emitted by the Controller for
// presentation layers.
type Notification interface {
	notification()
}

// StateChanged carries a fresh observation. A nil Observation means the
// session has no observation yet.
type StateChanged struct {
	Observation *client.Observation
	QueueDepth  int
}

// EventAppended carries one server event line, in server order.
type EventAppended struct {
	Text string
}

// SessionEnded is emitted once when an observation ends the game.
type SessionEnded struct {
	Won   bool
	Alive bool
}

// Status is a user-facing message.
type Status struct {
	Message string
	IsError bool
}

// QueueChanged carries the server-reported queue depth.
type QueueChanged struct {
	Depth int
}

// SessionStarted is emitted when a new or resumed session is installed.
type SessionStarted struct {
	ID      string
	Resumed bool
}

// SessionCleared is emitted when the live session is dropped, before a
// replacement is requested or when the player pauses.
type SessionCleared struct {
	ID string
}

// AutoRunChanged reports auto-run transitions.
type AutoRunChanged struct {
	Active bool
}

func (StateChanged) notification()   {}
func (EventAppended) notification()  {}
func (SessionEnded) notification()   {}
func (Status) notification()         {}
func (QueueChanged) notification()   {}
func (SessionStarted) notification() {}
func (SessionCleared) notification() {}
func (AutoRunChanged) notification() {}

// Listener receives notifications synchronously, in emission order.
// Implementations must not call Controller operations from Notify.
type Listener interface {
	Notify(n Notification)
}

// ListenerFunc adapts a function to a Listener.
type ListenerFunc func(n Notification)

// Notify implements Listener.
func (f ListenerFunc) Notify(n Notification) { f(n) }

type nopListener struct{}

func (nopListener) Notify(Notification) {}
