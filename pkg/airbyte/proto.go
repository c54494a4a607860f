package airbyte

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/ajzo90/tap-nikabot"
)

const (
	connectionStatus tap.MsgType = "CONNECTION_STATUS"
	spec             tap.MsgType = "SPEC"
)

type checkStatus string

const (
	SUCCEEDED checkStatus = "SUCCEEDED"
	FAILED    checkStatus = "FAILED"
)

// Airbyte writes Airbyte protocol messages, one JSON document per line.
type Airbyte struct {
	wMtx sync.Mutex
	w    *bufio.Writer
	// Now stamps emitted_at, defaults to time.Now.
	Now func() time.Time
}

var _ tap.Proto = (*Airbyte)(nil)

func New(w io.Writer) *Airbyte {
	return &Airbyte{w: bufio.NewWriterSize(w, 64<<10)}
}

func (m *Airbyte) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *Airbyte) write(b []byte) error {
	m.wMtx.Lock()
	defer m.wMtx.Unlock()
	_, err := m.w.Write(b)
	return err
}

func (m *Airbyte) flush() error {
	m.wMtx.Lock()
	defer m.wMtx.Unlock()
	return m.w.Flush()
}

// emit writes {"type": typ, key: v} and flushes.
func (m *Airbyte) emit(typ tap.MsgType, key string, v interface{}) error {
	b, err := json.Marshal(map[string]interface{}{"type": typ, key: v})
	if err != nil {
		return err
	}
	if err := m.write(append(b, '\n')); err != nil {
		return err
	}
	return m.flush()
}

// Open returns the record writer of the stream. Airbyte has no schema
// message, streams are described by the catalog only.
func (m *Airbyte) Open(entry tap.CatalogEntry, _ []string) (tap.StreamProto, error) {
	return newStreamProto(m, entry.ID()), nil
}

func (m *Airbyte) EmitState(state tap.State) error {
	return m.emit(tap.STATE, "state", map[string]interface{}{"data": state})
}

func (m *Airbyte) EmitCatalog(catalog tap.Catalog) error {
	return m.emit(tap.CATALOG, "catalog", NewCatalog(catalog))
}

func (m *Airbyte) EmitSpec(v ConnectorSpecification) error {
	return m.emit(spec, "spec", v)
}

// EmitStatus reports the outcome of a connection check, err == nil is a
// success.
func (m *Airbyte) EmitStatus(err error) error {
	type Status struct {
		Status  checkStatus `json:"status"`
		Message string      `json:"message,omitempty"`
	}
	s := Status{Status: SUCCEEDED}
	if err != nil {
		s.Status = FAILED
		s.Message = err.Error()
	}
	return m.emit(connectionStatus, "connectionStatus", s)
}

func (m *Airbyte) Close() error {
	return m.flush()
}
