package tap

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestBuildCatalogEntry(t *testing.T) {
	is := is.New(t)
	schema := &JSONSchema{Type: SchemaType{"object"}, Properties: map[string]*JSONSchema{
		"id":         {Type: SchemaType{"string"}},
		"created_at": {Type: SchemaType{"string"}, Format: "date-time"},
		"hours":      {Type: SchemaType{"number"}},
	}}
	e := BuildCatalogEntry("records", schema, []string{"id"}, "created_at", Incremental)

	is.Equal(e.ID(), "records")
	is.True(e.Selected())
	is.Equal(e.KeyProperties, []string{"id"})

	method, err := e.SelectedMethod()
	is.NoErr(err)
	is.Equal(method, Incremental)
	is.Equal(e.SelectedReplicationKey(), "created_at")

	b, err := json.Marshal(e.Metadata)
	is.NoErr(err)
	is.Equal(string(b), `[{"breadcrumb":[],"metadata":{"forced-replication-method":"INCREMENTAL","selected":true,"table-key-properties":["id"],"valid-replication-keys":["created_at"]}},`+
		`{"breadcrumb":["properties","created_at"],"metadata":{"inclusion":"automatic"}},`+
		`{"breadcrumb":["properties","hours"],"metadata":{"inclusion":"available"}},`+
		`{"breadcrumb":["properties","id"],"metadata":{"inclusion":"automatic"}}]`)
}

func TestSelectedMethodFromMetadata(t *testing.T) {
	is := is.New(t)
	var c Catalog
	is.NoErr(json.Unmarshal([]byte(`{"streams":[
		{"tap_stream_id":"a","metadata":[{"breadcrumb":[],"metadata":{"selected":true,"replication-method":"full_table"}}]},
		{"stream":"b","metadata":[{"breadcrumb":[],"metadata":{"forced-replication-method":"INCREMENTAL","replication-key":"updated_at"}}]},
		{"stream":"c","replication_method":"SOMETIMES"},
		{"stream":"d"}
	]}`), &c))

	a, ok := c.Get("a")
	is.True(ok)
	is.True(a.Selected())
	m, err := a.SelectedMethod()
	is.NoErr(err)
	is.Equal(m, FullTable)

	b, _ := c.Get("b")
	is.True(!b.Selected())
	m, err = b.SelectedMethod()
	is.NoErr(err)
	is.Equal(m, Incremental)
	is.Equal(b.SelectedReplicationKey(), "updated_at")

	cc, _ := c.Get("c")
	_, err = cc.SelectedMethod()
	is.True(err != nil)
	is.Equal(cc.rawMethod(), "SOMETIMES")

	d, _ := c.Get("d")
	m, err = d.SelectedMethod()
	is.NoErr(err)
	is.Equal(m, ReplicationMethod(""))

	_, ok = c.Get("e")
	is.True(!ok)
}

func TestIsConfigError(t *testing.T) {
	is := is.New(t)
	is.True(IsConfigError(&InvalidReplicationMethodError{Stream: "a", Method: "X"}))
	is.True(IsConfigError(&InvalidReplicationKeyError{Stream: "a", Key: "x"}))
	is.True(IsConfigError(errors.Join(errors.New("stream 'records'"), &StartDateAfterEndDateError{})))
	is.True(!IsConfigError(&HTTPError{StatusCode: 500}))

	err := &InvalidReplicationMethodError{Stream: "users", Method: "INCREMENTAL", Supported: ReplicationMethods{FullTable}}
	is.Equal(err.Error(), "invalid replication method 'INCREMENTAL' for stream 'users', valid options are 'FULL_TABLE'")
}
