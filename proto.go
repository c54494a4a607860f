package tap

import (
	"github.com/valyala/fastjson"
)

type Command string

const (
	CmdSpec     Command = "spec"
	CmdCheck    Command = "check"
	CmdDiscover Command = "discover"
	CmdSync     Command = "sync"
)

type MsgType string

const (
	SCHEMA  MsgType = "SCHEMA"
	RECORD  MsgType = "RECORD"
	STATE   MsgType = "STATE"
	LOG     MsgType = "LOG"
	CATALOG MsgType = "CATALOG"
)

// Proto writes the tap's output in a downstream wire format.
type Proto interface {
	// Open emits the schema of a stream and returns its record writer.
	Open(entry CatalogEntry, bookmarkProperties []string) (StreamProto, error)

	// EmitState emits the complete sync state.
	EmitState(state State) error

	// EmitCatalog writes the discovered catalog.
	EmitCatalog(catalog Catalog) error

	// Close flushes pending data
	Close() error
}

type StreamProto interface {
	// EmitValues emits one RECORD per value, in order.
	EmitValues(arr []*fastjson.Value) error

	Flush() error
}
