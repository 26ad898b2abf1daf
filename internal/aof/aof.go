// Package aof implements the append-only durability log: three fsync
// policies coordinated with the timer queue, and a replay reader used at
// startup. It generalizes the teacher's RDB binary-snapshot loader
// (app/rdb.go, which this core replaces entirely — see DESIGN.md) into an
// append-and-replay log over RESP-encoded command arrays, which is what
// spec §4.4/§6 require instead of a point-in-time binary snapshot.
package aof

import (
	"fmt"
	"io"
	"os"

	"github.com/redcore/redcore/internal/resp"
)

// Policy is one of the three fsync durability policies from spec §4.4.
type Policy int

const (
	Always Policy = iota
	EverySec
	No
)

// ParsePolicy maps the spec §6 configuration values to a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "always":
		return Always, nil
	case "everysec":
		return EverySec, nil
	case "no":
		return No, nil
	default:
		return 0, fmt.Errorf("aof: invalid appendfsync policy %q", s)
	}
}

// AOF is the open append log: a file handle, its durability policy, and a
// dirty flag set by appends under everysec/no and cleared by fsync.
type AOF struct {
	file   *os.File
	policy Policy
	dirty  bool
}

// Open creates path if absent and opens it for appending.
func Open(path string, policy Policy) (*AOF, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("aof: open %s: %w", path, err)
	}
	return &AOF{file: f, policy: policy}, nil
}

// Close closes the underlying file.
func (a *AOF) Close() error {
	return a.file.Close()
}

// Policy returns the configured durability policy.
func (a *AOF) Policy() Policy { return a.policy }

// Dirty reports whether there are appends since the last fsync.
func (a *AOF) Dirty() bool { return a.dirty }

// Append serializes cmd and writes it to the AOF. Under Always it fsyncs
// before returning and reports any fsync failure to the caller so the
// dispatcher can roll back the mutation and reply with a server error per
// spec §7. Under EverySec/No it marks the log dirty and never fails the
// caller on a write error beyond the error return itself (the caller logs
// it and still reports success, per spec §7's traded-away durability).
func (a *AOF) Append(cmd resp.Value) error {
	encoded := resp.Encode(cmd)
	if _, err := a.file.Write(encoded); err != nil {
		return fmt.Errorf("aof: write: %w", err)
	}

	switch a.policy {
	case Always:
		if err := a.file.Sync(); err != nil {
			return fmt.Errorf("aof: fsync: %w", err)
		}
		a.dirty = false
	default:
		a.dirty = true
	}
	return nil
}

// FsyncIfDirty is invoked by the everysec timer tick: if the log is dirty,
// fsync and clear the flag. Under Always and No this is never wired to a
// timer by the bootstrap, but calling it is harmless either way.
func (a *AOF) FsyncIfDirty() error {
	if !a.dirty {
		return nil
	}
	if err := a.file.Sync(); err != nil {
		return err
	}
	a.dirty = false
	return nil
}

// LoadCommands opens path read-only and parses its entire contents as a
// sequence of RESP arrays, invoking onCommand for each one in order. A
// trailing incomplete record at end-of-file is ignored (best-effort
// recovery, matching a process that crashed mid-append); any other parse
// failure is a protocol error and aborts replay. Returns the number of
// commands replayed.
func LoadCommands(path string, onCommand func(resp.Value) error) (int, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("aof: open %s for replay: %w", path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return 0, fmt.Errorf("aof: read %s: %w", path, err)
	}

	count := 0
	for len(data) > 0 {
		v, n, err := resp.Parse(data)
		if err == resp.ErrIncomplete {
			break
		}
		if err != nil {
			return count, fmt.Errorf("aof: corrupt record in %s after %d commands: %w", path, count, err)
		}
		if err := onCommand(v); err != nil {
			return count, err
		}
		data = data[n:]
		count++
	}
	return count, nil
}
