package server

import (
	"net"
	"testing"
	"time"

	"github.com/redcore/redcore/internal/command"
	"github.com/redcore/redcore/internal/keyspace"
	"github.com/redcore/redcore/internal/stats"
	"github.com/redcore/redcore/internal/timer"
)

func newTestServer(t *testing.T) (*Server, net.Listener) {
	t.Helper()
	st := stats.New()
	d := command.New(keyspace.New(st), st, nil, nil)
	s := New(d, timer.New(), nil)
	s.RegisterPeriodicSweep()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	return s, ln
}

func TestServeRoundTripsSetAndGet(t *testing.T) {
	s, ln := newTestServer(t)
	go s.Serve(ln)
	defer s.Shutdown()

	c, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("net.Dial: %v", err)
	}
	defer c.Close()

	if _, err := c.Write([]byte("*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n")); err != nil {
		t.Fatalf("Write SET: %v", err)
	}
	buf := make([]byte, 64)
	n, err := c.Read(buf)
	if err != nil {
		t.Fatalf("Read SET reply: %v", err)
	}
	if string(buf[:n]) != "+OK\r\n" {
		t.Fatalf("SET reply = %q, want +OK", buf[:n])
	}

	if _, err := c.Write([]byte("*2\r\n$3\r\nGET\r\n$1\r\nk\r\n")); err != nil {
		t.Fatalf("Write GET: %v", err)
	}
	n, err = c.Read(buf)
	if err != nil {
		t.Fatalf("Read GET reply: %v", err)
	}
	if string(buf[:n]) != "$1\r\nv\r\n" {
		t.Fatalf("GET reply = %q, want $1 v", buf[:n])
	}
}

func TestServeClosesConnectionOnProtocolError(t *testing.T) {
	s, ln := newTestServer(t)
	go s.Serve(ln)
	defer s.Shutdown()

	c, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("net.Dial: %v", err)
	}
	defer c.Close()

	if _, err := c.Write([]byte("garbage\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	c.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 128)
	n, err := c.Read(buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(buf[:n]) != "-ERR Protocol error\r\n" {
		t.Fatalf("reply = %q, want the protocol error", buf[:n])
	}
	if _, err := c.Read(buf); err == nil {
		t.Fatal("connection not closed after a protocol error")
	}
}
