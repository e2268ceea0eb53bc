package app

import (
	"sync"

	"gioui.org/io/key"

	"github.com/fjyeo/Open-Photo-Lab/internal/config"
	"github.com/fjyeo/Open-Photo-Lab/internal/debug"
)

// Binding names a keyboard action of the viewer
type Binding int

const (
	BindDelete Binding = iota
	BindPrevious
	BindNext
	BindBackToGrid
	BindExport
)

// dispatchOrder decides which binding wins when two share a hotkey
var dispatchOrder = []Binding{BindDelete, BindPrevious, BindNext, BindBackToGrid, BindExport}

func (b Binding) String() string {
	switch b {
	case BindDelete:
		return "delete"
	case BindPrevious:
		return "previous"
	case BindNext:
		return "next"
	case BindBackToGrid:
		return "back_to_grid"
	case BindExport:
		return "export"
	}
	return "unknown"
}

type keyHandler struct {
	token  uint64
	hotkey config.Hotkey
	fn     func()
}

// Dispatcher routes key presses to the currently registered handlers.
// Handlers run on the goroutine calling HandleKey, without the
// dispatcher lock held, so they may register and unregister bindings.
type Dispatcher struct {
	mu       sync.Mutex
	handlers map[Binding]keyHandler
	next     uint64
}

// NewDispatcher creates a dispatcher with no bindings.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[Binding]keyHandler)}
}

// Register binds hk to fn, replacing any handler for b.
// The returned func removes this registration only; it is safe to call
// more than once.
func (d *Dispatcher) Register(b Binding, hk config.Hotkey, fn func()) (unregister func()) {
	d.mu.Lock()
	d.next++
	token := d.next
	d.handlers[b] = keyHandler{token: token, hotkey: hk, fn: fn}
	d.mu.Unlock()

	debug.Log(debug.HOTKEY, "Register: %s -> %s", b, hk)
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if h, ok := d.handlers[b]; ok && h.token == token {
			delete(d.handlers, b)
			debug.Log(debug.HOTKEY, "Unregister: %s", b)
		}
	}
}

// Registered reports whether b currently has a handler.
func (d *Dispatcher) Registered(b Binding) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.handlers[b]
	return ok
}

// Len returns the number of registered bindings.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.handlers)
}

// HandleKey runs the handler whose hotkey matches a key press. When several
// bindings share the hotkey the first in dispatchOrder runs.
// Releases are ignored. Returns true if a handler ran.
func (d *Dispatcher) HandleKey(ev key.Event) bool {
	if ev.State != key.Press {
		return false
	}

	d.mu.Lock()
	var fn func()
	var matched Binding
	for _, b := range dispatchOrder {
		if h, ok := d.handlers[b]; ok && h.hotkey.Matches(ev) {
			fn, matched = h.fn, b
			break
		}
	}
	d.mu.Unlock()

	if fn == nil {
		debug.Log(debug.HOTKEY, "HandleKey: no binding for %q mods=%v", ev.Name, ev.Modifiers)
		return false
	}
	debug.Log(debug.HOTKEY, "HandleKey: %s", matched)
	fn()
	return true
}
