package singer

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/ajzo90/tap-nikabot"
)

// TimeExtractedLayout is the UTC layout of a RECORD's time_extracted.
const TimeExtractedLayout = "2006-01-02T15:04:05.000000Z"

// Singer writes Singer messages, one JSON document per line.
type Singer struct {
	wMtx sync.Mutex
	w    *bufio.Writer
	// Now stamps time_extracted, defaults to time.Now.
	Now func() time.Time
}

var _ tap.Proto = (*Singer)(nil)

func New(w io.Writer) *Singer {
	return &Singer{w: bufio.NewWriterSize(w, 64<<10)}
}

func (m *Singer) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *Singer) encode(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return m.write(append(b, '\n'))
}

func (m *Singer) write(b []byte) error {
	m.wMtx.Lock()
	defer m.wMtx.Unlock()
	_, err := m.w.Write(b)
	return err
}

func (m *Singer) flush() error {
	m.wMtx.Lock()
	defer m.wMtx.Unlock()
	return m.w.Flush()
}

type schemaMsg struct {
	Type               tap.MsgType     `json:"type"`
	Stream             string          `json:"stream"`
	Schema             *tap.JSONSchema `json:"schema"`
	KeyProperties      []string        `json:"key_properties"`
	BookmarkProperties []string        `json:"bookmark_properties,omitempty"`
}

// Open writes the SCHEMA message of the stream.
func (m *Singer) Open(entry tap.CatalogEntry, bookmarkProperties []string) (tap.StreamProto, error) {
	schema := entry.Schema
	if schema == nil {
		schema = &tap.JSONSchema{}
	}
	keys := entry.KeyProperties
	if keys == nil {
		keys = []string{}
	}
	err := m.encode(schemaMsg{
		Type:               tap.SCHEMA,
		Stream:             entry.ID(),
		Schema:             schema,
		KeyProperties:      keys,
		BookmarkProperties: bookmarkProperties,
	})
	if err != nil {
		return nil, err
	}
	return &singerStream{p: m, serialize: newRecordSerializer(entry.ID())}, nil
}

type stateMsg struct {
	Type  tap.MsgType `json:"type"`
	Value tap.State   `json:"value"`
}

// EmitState writes a STATE message and flushes, so that everything the
// state covers has reached the writer.
func (m *Singer) EmitState(state tap.State) error {
	if state == nil {
		state = tap.State{}
	}
	if err := m.encode(stateMsg{Type: tap.STATE, Value: state}); err != nil {
		return err
	}
	return m.flush()
}

// EmitCatalog writes the catalog as a single indented JSON document.
func (m *Singer) EmitCatalog(catalog tap.Catalog) error {
	if catalog.Streams == nil {
		catalog.Streams = []tap.CatalogEntry{}
	}
	b, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return err
	}
	if err := m.write(append(b, '\n')); err != nil {
		return err
	}
	return m.flush()
}

// Close flushes remaining data
func (m *Singer) Close() error {
	return m.flush()
}
