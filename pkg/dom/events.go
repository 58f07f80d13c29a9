package dom

import (
	"slices"

	"github.com/go-drift/ondemand/pkg/host"
)

// AddEventListener implements host.EventTarget.
func (n *Node) AddEventListener(eventType string, fn func(host.Event), opts host.ListenerOptions) func() {
	n.mu.Lock()
	n.nextID++
	l := &listener{id: n.nextID, eventType: eventType, fn: fn, opts: opts}
	n.listeners = append(n.listeners, l)
	n.mu.Unlock()

	return func() { n.removeListener(l.id) }
}

func (n *Node) removeListener(id int) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	before := len(n.listeners)
	n.listeners = slices.DeleteFunc(n.listeners, func(l *listener) bool { return l.id == id })
	return len(n.listeners) != before
}

// ListenerCount returns the number of listeners for eventType.
func (n *Node) ListenerCount(eventType string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, l := range n.listeners {
		if l.eventType == eventType {
			count++
		}
	}
	return count
}

// phase selects which listeners run on a node during dispatch.
type phase int

const (
	capturing phase = iota
	atTarget
	bubbling
)

// Dispatch delivers an event of the given type to n: capture listeners from
// the root down, then every listener on n, then bubble listeners back up.
// Listeners registered with Once are removed before they run.
func (n *Node) Dispatch(eventType string) {
	ev := host.Event{Type: eventType, Target: n}

	var path []*Node
	for p := n.Parent; p != nil; p = p.Parent {
		path = append(path, p)
	}

	for i := len(path) - 1; i >= 0; i-- {
		path[i].invoke(ev, capturing)
	}
	n.invoke(ev, atTarget)
	for _, p := range path {
		p.invoke(ev, bubbling)
	}
}

func (n *Node) invoke(ev host.Event, ph phase) {
	n.mu.Lock()
	var matched []*listener
	for _, l := range n.listeners {
		if l.eventType != ev.Type {
			continue
		}
		if (ph == capturing && !l.opts.Capture) || (ph == bubbling && l.opts.Capture) {
			continue
		}
		matched = append(matched, l)
	}
	n.mu.Unlock()

	for _, l := range matched {
		if l.opts.Once && !n.removeListener(l.id) {
			continue
		}
		l.fn(ev)
	}
}
