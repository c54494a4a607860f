package singer

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ajzo90/tap-nikabot"
	"github.com/matryer/is"
	"github.com/valyala/fastjson"
)

func lines(b *bytes.Buffer) []string {
	return strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
}

func TestSingerMessages(t *testing.T) {
	is := is.New(t)

	var buf bytes.Buffer
	p := New(&buf)
	p.Now = func() time.Time { return time.Date(2020, 6, 11, 8, 0, 0, 123456000, time.FixedZone("CEST", 2*3600)) }

	schema := &tap.JSONSchema{
		Type: tap.SchemaType{"object"},
		Properties: map[string]*tap.JSONSchema{
			"id":         {Type: tap.SchemaType{"string"}},
			"created_at": {Type: tap.SchemaType{"null", "string"}, Format: "date-time"},
		},
	}
	entry := tap.BuildCatalogEntry("records", schema, []string{"id"}, "created_at", tap.Incremental)

	sp, err := p.Open(entry, []string{"created_at"})
	is.NoErr(err)
	is.NoErr(sp.EmitValues([]*fastjson.Value{
		fastjson.MustParse(`{"id":"1","created_at":"2020-06-10T01:00:00"}`),
		fastjson.MustParse(`{"id":"2","created_at":null}`),
	}))
	is.NoErr(sp.Flush())
	is.NoErr(p.EmitState(tap.State{"records": "2020-06-10T01:00:00"}))
	is.NoErr(p.Close())

	out := lines(&buf)
	is.Equal(len(out), 4)

	is.True(strings.HasPrefix(out[0], `{"type":"SCHEMA","stream":"records","schema":{`))
	var schemaMsg struct {
		KeyProperties      []string `json:"key_properties"`
		BookmarkProperties []string `json:"bookmark_properties"`
	}
	is.NoErr(json.Unmarshal([]byte(out[0]), &schemaMsg))
	is.Equal(schemaMsg.KeyProperties, []string{"id"})
	is.Equal(schemaMsg.BookmarkProperties, []string{"created_at"})

	is.Equal(out[1], `{"type":"RECORD","stream":"records","record":{"id":"1","created_at":"2020-06-10T01:00:00"},"time_extracted":"2020-06-11T06:00:00.123456Z"}`)
	is.Equal(out[2], `{"type":"RECORD","stream":"records","record":{"id":"2","created_at":null},"time_extracted":"2020-06-11T06:00:00.123456Z"}`)
	is.Equal(out[3], `{"type":"STATE","value":{"records":"2020-06-10T01:00:00"}}`)
}

func TestSchemaWithoutBookmark(t *testing.T) {
	is := is.New(t)

	var buf bytes.Buffer
	p := New(&buf)
	_, err := p.Open(tap.CatalogEntry{TapStreamID: "teams"}, nil)
	is.NoErr(err)
	is.NoErr(p.Close())

	is.Equal(lines(&buf)[0], `{"type":"SCHEMA","stream":"teams","schema":{},"key_properties":[]}`)
}

func TestRecordsAreBuffered(t *testing.T) {
	is := is.New(t)

	var buf bytes.Buffer
	p := New(&buf)
	sp, err := p.Open(tap.CatalogEntry{TapStreamID: "users", KeyProperties: []string{"id"}}, nil)
	is.NoErr(err)
	is.NoErr(p.Close())
	n := buf.Len()

	is.NoErr(sp.EmitValues([]*fastjson.Value{fastjson.MustParse(`{"id":"U1"}`)}))
	is.NoErr(p.Close())
	is.Equal(buf.Len(), n) // below the flush threshold

	is.NoErr(sp.Flush())
	is.NoErr(p.Close())
	is.True(strings.Contains(buf.String(), `"record":{"id":"U1"}`))
}

func TestEmitCatalog(t *testing.T) {
	is := is.New(t)

	var buf bytes.Buffer
	p := New(&buf)
	entry := tap.BuildCatalogEntry("users", &tap.JSONSchema{Type: tap.SchemaType{"object"}}, []string{"id"}, "", tap.FullTable)
	is.NoErr(p.EmitCatalog(tap.Catalog{Streams: []tap.CatalogEntry{entry}}))

	var c tap.Catalog
	is.NoErr(json.Unmarshal(buf.Bytes(), &c))
	is.Equal(len(c.Streams), 1)
	is.Equal(c.Streams[0].TapStreamID, "users")
	is.True(c.Streams[0].Selected())
}
