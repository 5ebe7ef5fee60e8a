package app

import (
	"sync"

	"github.com/catamaze/client/internal/session"
	tea "github.com/charmbracelet/bubbletea"
)

// NoteMsg delivers one controller notification to the model.
type NoteMsg struct {
	Note session.Notification
}

// Bridge forwards controller notifications into the Bubble Tea loop. It is
// registered as the controller's listener and read one message at a time
// by Wait, which the model re-arms after every NoteMsg.
type Bridge struct {
	ch   chan session.Notification
	done chan struct{}
	once sync.Once
}

// NewBridge creates a bridge buffering up to size notifications.
func NewBridge(size int) *Bridge {
	return &Bridge{
		ch:   make(chan session.Notification, size),
		done: make(chan struct{}),
	}
}

// Notify implements session.Listener. It blocks while the buffer is full
// and returns immediately once the bridge is closed.
func (b *Bridge) Notify(n session.Notification) {
	select {
	case b.ch <- n:
	case <-b.done:
	}
}

// Close releases any blocked Notify and ends Wait.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

// Wait returns a command that reads the next notification.
func (b *Bridge) Wait() tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-b.ch:
			return NoteMsg{Note: n}
		case <-b.done:
			return nil
		}
	}
}
