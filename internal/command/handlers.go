package command

import (
	"fmt"
	"strings"
	"time"

	"github.com/redcore/redcore/internal/resp"
)

func handleSet(d *Dispatcher, args [][]byte) (resp.Value, func()) {
	key, value := string(args[0]), args[1]
	undo := d.Keyspace.Snapshot(key)
	d.Keyspace.Set(key, append([]byte(nil), value...))
	return resp.NewOK(), undo
}

func handleGet(d *Dispatcher, args [][]byte) (resp.Value, func()) {
	v, ok := d.Keyspace.Get(string(args[0]))
	if !ok {
		return resp.NewNilBulk(), nil
	}
	return resp.NewBulk(v), nil
}

func handleDel(d *Dispatcher, args [][]byte) (resp.Value, func()) {
	key := string(args[0])
	undo := d.Keyspace.Snapshot(key)
	n := d.Keyspace.Del(key)
	return resp.NewInteger(int64(n)), undo
}

func handleExists(d *Dispatcher, args [][]byte) (resp.Value, func()) {
	if d.Keyspace.Exists(string(args[0])) {
		return resp.NewInteger(1), nil
	}
	return resp.NewInteger(0), nil
}

func handleExpire(d *Dispatcher, args [][]byte) (resp.Value, func()) {
	seconds, err := parseInt64(args[1])
	if err != nil {
		return resp.NewError(errNotAnInteger.Error()), nil
	}
	key := string(args[0])
	undo := d.Keyspace.Snapshot(key)
	deadline := d.Now().Add(time.Duration(seconds) * time.Second).UnixMilli()
	n := d.Keyspace.ExpireAt(key, deadline)
	return resp.NewInteger(int64(n)), undo
}

func handlePExpire(d *Dispatcher, args [][]byte) (resp.Value, func()) {
	ms, err := parseInt64(args[1])
	if err != nil {
		return resp.NewError(errNotAnInteger.Error()), nil
	}
	key := string(args[0])
	undo := d.Keyspace.Snapshot(key)
	deadline := d.Now().UnixMilli() + ms
	n := d.Keyspace.ExpireAt(key, deadline)
	return resp.NewInteger(int64(n)), undo
}

func handlePersist(d *Dispatcher, args [][]byte) (resp.Value, func()) {
	key := string(args[0])
	undo := d.Keyspace.Snapshot(key)
	n := d.Keyspace.Persist(key)
	return resp.NewInteger(int64(n)), undo
}

func handleTTL(d *Dispatcher, args [][]byte) (resp.Value, func()) {
	return resp.NewInteger(d.Keyspace.TTL(string(args[0]))), nil
}

func handlePTTL(d *Dispatcher, args [][]byte) (resp.Value, func()) {
	return resp.NewInteger(d.Keyspace.PTTL(string(args[0]))), nil
}

func handleKeys(d *Dispatcher, args [][]byte) (resp.Value, func()) {
	keys := d.Keyspace.Keys(string(args[0]))
	elems := make([]resp.Value, len(keys))
	for i, k := range keys {
		elems[i] = resp.NewBulkString(k)
	}
	return resp.NewArray(elems), nil
}

func handleInfo(d *Dispatcher, args [][]byte) (resp.Value, func()) {
	var b strings.Builder
	b.WriteString("# Server\r\n")
	fmt.Fprintf(&b, "uptime_in_seconds:%d\r\n", d.Stats.UptimeSeconds())
	b.WriteString("# Stats\r\n")
	fmt.Fprintf(&b, "total_commands_processed:%d\r\n", d.Stats.TotalCommandsProcessed())
	fmt.Fprintf(&b, "keyspace_hits:%d\r\n", d.Stats.KeyspaceHits())
	fmt.Fprintf(&b, "keyspace_misses:%d\r\n", d.Stats.KeyspaceMisses())
	b.WriteString("# Keyspace\r\n")
	fmt.Fprintf(&b, "db0:keys=%d\r\n", d.Keyspace.Len())
	return resp.NewBulkString(b.String()), nil
}
