package conn

import (
	"testing"

	"github.com/redcore/redcore/internal/resp"
	"github.com/redcore/redcore/internal/txn"
)

// fakeDispatcher echoes back a simple string built from the command name,
// so tests can assert on ordering and arrival without internal/command.
type fakeDispatcher struct {
	calls []string
}

func (f *fakeDispatcher) Dispatch(t *txn.State, cmd resp.Value, fromAOF bool) resp.Value {
	name := string(cmd.Elems[0].Bulk)
	f.calls = append(f.calls, name)
	return resp.NewSimpleString(name)
}

func TestFeedDispatchesCompleteCommand(t *testing.T) {
	c := New()
	c.In.Append([]byte("*1\r\n$4\r\nPING\r\n"))

	d := &fakeDispatcher{}
	if err := c.Feed(d); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(d.calls) != 1 || d.calls[0] != "PING" {
		t.Fatalf("calls = %v, want [PING]", d.calls)
	}
	out := c.Out.RetrieveAll()
	if string(out) != "+PING\r\n" {
		t.Fatalf("Out = %q, want +PING\\r\\n", out)
	}
}

func TestFeedLeavesIncompleteCommandForNextRead(t *testing.T) {
	c := New()
	c.In.Append([]byte("*1\r\n$4\r\nPI"))

	d := &fakeDispatcher{}
	if err := c.Feed(d); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(d.calls) != 0 {
		t.Fatalf("calls = %v, want none (incomplete command)", d.calls)
	}

	c.In.Append([]byte("NG\r\n"))
	if err := c.Feed(d); err != nil {
		t.Fatalf("Feed after completing command: %v", err)
	}
	if len(d.calls) != 1 || d.calls[0] != "PING" {
		t.Fatalf("calls = %v, want [PING] after completion", d.calls)
	}
}

func TestFeedDispatchesMultipleCommandsInOneRound(t *testing.T) {
	c := New()
	c.In.Append([]byte("*1\r\n$4\r\nPING\r\n*1\r\n$4\r\nPONG\r\n"))

	d := &fakeDispatcher{}
	if err := c.Feed(d); err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(d.calls) != 2 || d.calls[0] != "PING" || d.calls[1] != "PONG" {
		t.Fatalf("calls = %v, want [PING PONG]", d.calls)
	}
}

func TestFeedProtocolErrorClosesConnection(t *testing.T) {
	c := New()
	c.In.Append([]byte("not-resp\n"))

	d := &fakeDispatcher{}
	err := c.Feed(d)
	if err != ErrProtocolFatal {
		t.Fatalf("Feed error = %v, want ErrProtocolFatal", err)
	}
	out := c.Out.RetrieveAll()
	if string(out) != "-ERR Protocol error\r\n" {
		t.Fatalf("Out = %q, want the protocol error reply", out)
	}
}

func TestCloseResetsTransactionState(t *testing.T) {
	c := New()
	c.Txn.EnterMulti()
	c.Close()
	if c.Txn.InMulti {
		t.Fatal("transaction state still InMulti after Close")
	}
}
