package command

import "github.com/redcore/redcore/internal/resp"

// handlerFunc executes one command's arguments (the bulk strings after the
// command name) against the dispatcher's shared state. It returns the reply
// to send and, for a mutating command, an undo closure that restores the
// keyspace to its pre-handler state; undo is nil for read-only commands.
type handlerFunc func(d *Dispatcher, args [][]byte) (resp.Value, func())

// descriptor is spec §3's "Command descriptor" entity: a case-insensitive
// name, an arity (the total element count including the command name
// itself; negative means "at least abs(arity)"), the handler, and whether
// the command mutates the keyspace and therefore must append to the AOF.
type descriptor struct {
	name     string
	arity    int
	mutating bool
	handler  handlerFunc
}

func (d descriptor) arityOK(total int) bool {
	if d.arity >= 0 {
		return total == d.arity
	}
	return total >= -d.arity
}

// table is the dispatcher's name->descriptor map, built once at package
// init and shared (read-only) across every Dispatcher instance.
var table = map[string]descriptor{
	"SET":     {name: "SET", arity: 3, mutating: true, handler: handleSet},
	"GET":     {name: "GET", arity: 2, mutating: false, handler: handleGet},
	"DEL":     {name: "DEL", arity: 2, mutating: true, handler: handleDel},
	"EXISTS":  {name: "EXISTS", arity: 2, mutating: false, handler: handleExists},
	"EXPIRE":  {name: "EXPIRE", arity: 3, mutating: true, handler: handleExpire},
	"PEXPIRE": {name: "PEXPIRE", arity: 3, mutating: true, handler: handlePExpire},
	"PERSIST": {name: "PERSIST", arity: 2, mutating: true, handler: handlePersist},
	"TTL":     {name: "TTL", arity: 2, mutating: false, handler: handleTTL},
	"PTTL":    {name: "PTTL", arity: 2, mutating: false, handler: handlePTTL},
	"KEYS":    {name: "KEYS", arity: 2, mutating: false, handler: handleKeys},
	"INFO":    {name: "INFO", arity: 1, mutating: false, handler: handleInfo},
	"MULTI":   {name: "MULTI", arity: 1, mutating: false, handler: nil},
	"EXEC":    {name: "EXEC", arity: 1, mutating: false, handler: nil},
	"DISCARD": {name: "DISCARD", arity: 1, mutating: false, handler: nil},
}
