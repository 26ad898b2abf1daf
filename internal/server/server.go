// Package server wires readiness events to buffer ingestion and dispatch,
// implementing spec §2's "event loop glue" and the concurrency model
// documented in SPEC_FULL.md §4.11.1: one goroutine per accepted
// connection handling I/O only, funneling every command through a single
// unbuffered channel read by one dedicated core goroutine that owns the
// keyspace, the dispatcher, the AOF and the timer queue. It generalizes
// the teacher's accept-loop (app/main.go: `for { conn, _ := ln.Accept();
// go handleConnection(conn) }`) by keeping the per-connection goroutine
// but replacing direct shared-map access with a channel handoff.
package server

import (
	"net"
	"time"

	"github.com/redcore/redcore/internal/command"
	"github.com/redcore/redcore/internal/conn"
	"github.com/redcore/redcore/internal/timer"
)

// Logger is the minimal logging surface the server needs.
type Logger interface {
	Error(msg string, args ...interface{})
	Info(msg string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}

// query is one connection goroutine's request to have the core goroutine
// run its currently buffered input through the dispatcher.
type query struct {
	c      *conn.Conn
	result chan error
}

// Server owns the listener and the single core goroutine that serializes
// all command execution.
type Server struct {
	Dispatcher *command.Dispatcher
	Timers     *timer.Queue
	Logger     Logger

	listener net.Listener
	queries  chan query
	quit     chan struct{}
}

// New returns a Server ready to have RegisterPeriodicSweep/RegisterAOFFsync
// called on it and then Serve.
func New(d *command.Dispatcher, timers *timer.Queue, logger Logger) *Server {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Server{
		Dispatcher: d,
		Timers:     timers,
		Logger:     logger,
		queries:    make(chan query),
		quit:       make(chan struct{}),
	}
}

// sweepInterval is spec §4.3's periodic sampling sweep period.
const sweepInterval = 100 * time.Millisecond

// everySecInterval is spec §4.4's everysec fsync tick period.
const everySecInterval = time.Second

// RegisterPeriodicSweep installs the keyspace's repeating expiration sweep
// timer, run on the core goroutine via ProcessExpired.
func (s *Server) RegisterPeriodicSweep() {
	s.Timers.Add(sweepInterval, func(time.Time) {
		s.Dispatcher.Keyspace.SweepExpired()
	}, true, sweepInterval)
}

// RegisterAOFFsync installs the everysec fsync timer. The bootstrap only
// calls this when the AOF is open and its policy is "everysec".
func (s *Server) RegisterAOFFsync() {
	s.Timers.Add(everySecInterval, func(time.Time) {
		if err := s.Dispatcher.AOF.FsyncIfDirty(); err != nil {
			s.Logger.Error("aof fsync failed", "error", err)
		}
	}, true, everySecInterval)
}

// Serve accepts connections on ln until Shutdown is called, running the
// core goroutine for the lifetime of the call.
func (s *Server) Serve(ln net.Listener) error {
	s.listener = ln
	go s.runCore()

	for {
		c, err := ln.Accept()
		if err != nil {
			select {
			case <-s.quit:
				return nil
			default:
				return err
			}
		}
		go s.handleConnection(c)
	}
}

// Shutdown closes the listener and stops the core goroutine. Connections
// already accepted are not closed, and a command they submit afterwards is
// never processed.
func (s *Server) Shutdown() error {
	close(s.quit)
	if s.listener != nil {
		return s.listener.Close()
	}
	return nil
}

// runCore is the single goroutine that owns the keyspace, dispatcher, AOF
// and timer queue. It alternates between servicing a connection's query
// and waking for the timer queue's next deadline, never doing both at
// once, which is what makes this the spec's "one thread" despite the
// listener's goroutine-per-connection accept model.
func (s *Server) runCore() {
	t := time.NewTimer(s.nextTimerDelay())
	defer t.Stop()

	for {
		select {
		case q := <-s.queries:
			err := q.c.Feed(s.Dispatcher)
			q.result <- err
			if !t.Stop() {
				<-t.C
			}
			t.Reset(s.nextTimerDelay())
		case now := <-t.C:
			s.Timers.ProcessExpired(now)
			t.Reset(s.nextTimerDelay())
		case <-s.quit:
			return
		}
	}
}

func (s *Server) nextTimerDelay() time.Duration {
	deadline, ok := s.Timers.NextDeadline()
	if !ok {
		return time.Hour
	}
	d := time.Until(deadline)
	if d < 0 {
		d = 0
	}
	return d
}

// handleConnection is the per-connection I/O goroutine: it only reads
// bytes, submits them for dispatch, and writes replies. It never touches
// the keyspace, AOF, statistics or timer queue directly.
func (s *Server) handleConnection(nc net.Conn) {
	defer nc.Close()
	c := conn.New()
	defer c.Close()

	for {
		if _, err := c.In.ReadFD(nc); err != nil {
			return
		}

		result := make(chan error, 1)
		s.queries <- query{c: c, result: result}
		feedErr := <-result

		if out := c.Out.RetrieveAll(); len(out) > 0 {
			if _, err := nc.Write(out); err != nil {
				return
			}
		}
		if feedErr != nil {
			return
		}
	}
}
