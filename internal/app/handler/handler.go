// Package handler routes key presses to small handler functions.
package handler

import tea "github.com/charmbracelet/bubbletea"

// Result represents the outcome of a key handler.
type Result struct {
	Handled bool
	Cmd     tea.Cmd
}

// NotHandled is returned when a handler doesn't handle the key.
var NotHandled = Result{}

// Handled creates a Result indicating the key was handled with a command.
func Handled(cmd tea.Cmd) Result {
	return Result{Handled: true, Cmd: cmd}
}

// HandledNoCmd is a convenience for handlers that handle but return no command.
var HandledNoCmd = Result{Handled: true}

// Handler is a function that attempts to handle a key.
type Handler func() Result

// Chain runs handlers in order until one handles the key.
func Chain(handlers ...Handler) (bool, tea.Cmd) {
	for _, h := range handlers {
		if r := h(); r.Handled {
			return true, r.Cmd
		}
	}
	return false, nil
}

// Keys binds key names, as reported by tea.KeyMsg.String, to handlers.
// Several names may share one handler.
type Keys map[string]Handler

// Bind registers h under every name.
func (k Keys) Bind(h Handler, names ...string) Keys {
	for _, name := range names {
		k[name] = h
	}
	return k
}

// Handle runs the handler bound to msg, if any.
func (k Keys) Handle(msg tea.KeyMsg) (bool, tea.Cmd) {
	h, ok := k[msg.String()]
	if !ok {
		return false, nil
	}
	r := h()
	return r.Handled, r.Cmd
}
