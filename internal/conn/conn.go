// Package conn holds per-connection state: the input and output buffers,
// the transaction flag/queue, and the glue that turns "bytes arrived" into
// zero or more dispatched commands with their replies appended to the
// output buffer. It generalizes the teacher's per-connection goroutine
// loop (app/server.go's handleConnection, one bufio reader per net.Conn)
// into a buffer-driven incremental parse loop per spec §4.1/§4.2, so a
// command split across TCP reads is handled without re-reading from the
// socket mid-command.
package conn

import (
	"errors"

	"github.com/redcore/redcore/internal/buffer"
	"github.com/redcore/redcore/internal/resp"
	"github.com/redcore/redcore/internal/txn"
)

// Dispatcher is the subset of command.Dispatcher that Conn needs, kept as
// an interface here so this package does not import internal/command (the
// command package already imports internal/txn, and Conn only needs to
// hand it commands and a transaction state).
type Dispatcher interface {
	Dispatch(t *txn.State, cmd resp.Value, fromAOF bool) resp.Value
}

// Conn is one client connection's buffers and transaction state. It is
// handed between that connection's I/O goroutine and the server's core
// goroutine, which runs Feed (see internal/server); the channel handoff
// keeps the two from using it at the same time, so it holds no lock.
type Conn struct {
	In  *buffer.Buffer
	Out *buffer.Buffer
	Txn *txn.State

	closed bool
}

// New returns a fresh connection state with empty buffers and a Normal
// transaction state.
func New() *Conn {
	return &Conn{
		In:  buffer.New(),
		Out: buffer.New(),
		Txn: txn.New(),
	}
}

// ErrProtocolFatal is returned by Feed when a command's bytes are
// malformed RESP; the caller must write the already-buffered output (which
// includes the protocol error reply) and then close the connection, per
// spec §7.
var ErrProtocolFatal = errors.New("conn: fatal protocol error")

// Feed parses and dispatches every complete command currently sitting in
// c.In, appending each reply to c.Out in arrival order. It stops at the
// first incomplete command, leaving its partial bytes in c.In for the next
// read. A RESP protocol error is itself serialized as the command's reply
// before Feed returns ErrProtocolFatal.
func (c *Conn) Feed(d Dispatcher) error {
	for {
		data := c.In.Peek()
		if len(data) == 0 {
			return nil
		}

		v, n, err := resp.Parse(data)
		if err == resp.ErrIncomplete {
			return nil
		}
		if err == resp.ErrProtocol {
			c.Out.Append(resp.Encode(resp.NewError("ERR Protocol error")))
			return ErrProtocolFatal
		}
		if err != nil {
			return err
		}

		c.In.Retrieve(n)
		reply := d.Dispatch(c.Txn, v, false)
		c.Out.Append(resp.Encode(reply))
	}
}

// Close drops any in-flight transaction queue; the input and output
// buffers are simply abandoned with the connection (spec §5's "connection
// close discards its input buffer, its output buffer, and any pending
// transaction queue").
func (c *Conn) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.Txn.Reset()
}
