// Package command implements the command dispatcher: a name->descriptor
// table, argument-shape and arity validation, transaction queueing,
// statistics, and AOF gating, per spec §4.5. It generalizes the teacher's
// switch-on-uppercased-name command loop (app/commands.go) into a
// table-driven dispatcher so MULTI/EXEC/DISCARD and AOF-failure rollback
// can be expressed once instead of duplicated per command.
package command

import (
	"fmt"
	"strconv"
	"time"

	"github.com/redcore/redcore/internal/aof"
	"github.com/redcore/redcore/internal/keyspace"
	"github.com/redcore/redcore/internal/resp"
	"github.com/redcore/redcore/internal/stats"
	"github.com/redcore/redcore/internal/txn"
)

// Logger is the minimal surface internal/command needs to report AOF
// write/fsync failures at error level, matching the go-hclog.Logger method
// set this repo's internal/logging wrapper implements.
type Logger interface {
	Error(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Error(string, ...interface{}) {}

// Dispatcher owns the command table and the shared state every handler
// operates on: the keyspace, the statistics counters, and (if durability
// is enabled) the AOF.
type Dispatcher struct {
	Keyspace *keyspace.Keyspace
	Stats    *stats.Stats
	AOF      *aof.AOF // nil when aof-enabled=no
	Logger   Logger
	Now      func() time.Time
}

// New returns a Dispatcher. aofState may be nil; logger may be nil (a
// no-op logger is substituted).
func New(ks *keyspace.Keyspace, st *stats.Stats, aofState *aof.AOF, logger Logger) *Dispatcher {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Dispatcher{Keyspace: ks, Stats: st, AOF: aofState, Logger: logger, Now: time.Now}
}

// Dispatch is the full pipeline of spec §4.5 steps 1-6 for one incoming
// RESP value from a connection (or from AOF replay, when fromAOF is true).
// t is the issuing connection's transaction state; replay callers pass a
// freshly constructed *txn.State that never enters MULTI.
func (d *Dispatcher) Dispatch(t *txn.State, cmd resp.Value, fromAOF bool) resp.Value {
	name, args, errVal, ok := shapeCommand(cmd)
	if !ok {
		return errVal
	}

	desc, known := table[name]
	if !known {
		return resp.NewError(fmt.Sprintf("ERR unknown command '%s'", name))
	}
	if !desc.arityOK(len(args) + 1) {
		return resp.NewError(fmt.Sprintf("ERR wrong number of arguments for '%s' command", name))
	}

	d.Stats.IncrTotalCommandsProcessed()

	if t.InMulti && name != "MULTI" && name != "EXEC" && name != "DISCARD" {
		t.Enqueue(cmd)
		return resp.NewSimpleString("QUEUED")
	}

	switch name {
	case "MULTI":
		return d.execMulti(t)
	case "EXEC":
		return d.execExec(t)
	case "DISCARD":
		return d.execDiscard(t)
	default:
		return d.executeOne(desc, args, fromAOF)
	}
}

// executeOne runs a non-transaction-control command's handler and, if it
// mutates and isn't itself a replayed AOF record, appends it to the AOF
// before returning the reply. An AOF failure under the "always" policy
// rolls the mutation back and reports a server error per spec §7.
func (d *Dispatcher) executeOne(desc descriptor, args [][]byte, fromAOF bool) resp.Value {
	reply, undo := desc.handler(d, args)

	if !desc.mutating || fromAOF || d.AOF == nil {
		return reply
	}

	cmd := rebuildCommand(desc.name, args)
	if err := d.AOF.Append(cmd); err != nil {
		d.Logger.Error("aof append failed", "command", desc.name, "error", err)
		if d.AOF.Policy() == aof.Always {
			if undo != nil {
				undo()
			}
			return resp.NewError("ERR server error")
		}
	}
	return reply
}

// execMulti, execExec and execDiscard implement the MULTI/EXEC/DISCARD
// state table in spec §4.6. They are dispatched directly by Dispatch
// rather than through the descriptor table because they are the only
// commands that touch the per-connection transaction state.
func (d *Dispatcher) execMulti(t *txn.State) resp.Value {
	if t.InMulti {
		return resp.NewError("ERR MULTI calls can not be nested")
	}
	t.EnterMulti()
	return resp.NewOK()
}

func (d *Dispatcher) execDiscard(t *txn.State) resp.Value {
	if !t.InMulti {
		return resp.NewError("ERR DISCARD without MULTI")
	}
	t.Reset()
	return resp.NewOK()
}

func (d *Dispatcher) execExec(t *txn.State) resp.Value {
	if !t.InMulti {
		return resp.NewError("ERR EXEC without MULTI")
	}
	queue := t.TakeQueue()

	replies := make([]resp.Value, 0, len(queue))
	for _, queued := range queue {
		name, args, errVal, ok := shapeCommand(queued)
		if !ok {
			replies = append(replies, errVal)
			continue
		}
		desc, known := table[name]
		if !known {
			replies = append(replies, resp.NewError(fmt.Sprintf("ERR unknown command '%s'", name)))
			continue
		}
		if !desc.arityOK(len(args) + 1) {
			replies = append(replies, resp.NewError(fmt.Sprintf("ERR wrong number of arguments for '%s' command", name)))
			continue
		}
		replies = append(replies, d.executeOne(desc, args, false))
	}
	return resp.NewArray(replies)
}

// shapeCommand validates spec §4.5 step 1 (a non-nil array of bulk
// strings) and splits it into an uppercased command name and the
// remaining argument bytes. ok is false if cmd itself is malformed, in
// which case errVal is the reply to send.
func shapeCommand(cmd resp.Value) (name string, args [][]byte, errVal resp.Value, ok bool) {
	if cmd.Kind != resp.Array || cmd.IsNil || len(cmd.Elems) == 0 {
		return "", nil, resp.NewError("ERR Protocol error"), false
	}
	args = make([][]byte, 0, len(cmd.Elems)-1)
	for i, e := range cmd.Elems {
		if e.Kind != resp.BulkString || e.IsNil {
			return "", nil, resp.NewError("ERR Protocol error"), false
		}
		if i == 0 {
			name = upperASCII(string(e.Bulk))
			continue
		}
		args = append(args, e.Bulk)
	}
	return name, args, resp.Value{}, true
}

func upperASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}

// rebuildCommand re-serializes a dispatched command as the RESP array the
// AOF expects: the uppercased name followed by its original argument
// bytes, exactly as the wire sent it modulo case-folding the name.
func rebuildCommand(name string, args [][]byte) resp.Value {
	elems := make([]resp.Value, 0, len(args)+1)
	elems = append(elems, resp.NewBulkString(name))
	for _, a := range args {
		elems = append(elems, resp.NewBulk(a))
	}
	return resp.NewArray(elems)
}

// parseInt64 parses an EXPIRE/PEXPIRE argument, mapping a failure to the
// RESP error spec §7 names.
func parseInt64(b []byte) (int64, error) {
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0, errNotAnInteger
	}
	return n, nil
}

var errNotAnInteger = fmt.Errorf("ERR value is not an integer or out of range")
