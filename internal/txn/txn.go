// Package txn holds per-connection transaction state: whether the
// connection is inside MULTI, and the queue of commands deferred until
// EXEC. It implements only the state and the deep-copy-on-enqueue
// discipline spec §9 requires; the MULTI/EXEC/DISCARD reply logic itself
// lives in internal/command, which is the only caller that knows the full
// dispatch pipeline each queued command must re-enter.
package txn

import "github.com/redcore/redcore/internal/resp"

// State is the MULTI/EXEC/DISCARD state machine for a single connection.
// It starts in Normal (InMulti false) and carries a nil Queue.
type State struct {
	InMulti bool
	Queue   []resp.Value
}

// New returns a connection in the Normal state.
func New() *State {
	return &State{}
}

// EnterMulti transitions Normal -> MULTI with an empty queue.
func (s *State) EnterMulti() {
	s.InMulti = true
	s.Queue = nil
}

// Enqueue deep-copies cmd and appends it to the queue. The queued command
// must own its bytes independent of the connection's input buffer, which
// is reused as soon as the bytes are consumed (spec §9's "ownership of
// command values across transactions").
func (s *State) Enqueue(cmd resp.Value) {
	s.Queue = append(s.Queue, deepCopy(cmd))
}

// TakeQueue returns the queued commands and resets the connection to
// Normal with an empty queue, as EXEC and DISCARD both do.
func (s *State) TakeQueue() []resp.Value {
	queue := s.Queue
	s.InMulti = false
	s.Queue = nil
	return queue
}

// Reset returns the connection to Normal and drops any queued commands,
// used both by DISCARD and on connection close.
func (s *State) Reset() {
	s.InMulti = false
	s.Queue = nil
}

func deepCopy(v resp.Value) resp.Value {
	out := v
	if v.Bulk != nil {
		out.Bulk = append([]byte(nil), v.Bulk...)
	}
	if v.Elems != nil {
		out.Elems = make([]resp.Value, len(v.Elems))
		for i, e := range v.Elems {
			out.Elems[i] = deepCopy(e)
		}
	}
	return out
}
