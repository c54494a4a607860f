package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ajzo90/tap-nikabot"
	"github.com/matryer/is"
)

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "in.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStateMessages(t *testing.T) {
	const want = `{"type":"STATE","value":{"records":"2020-06-11T06:54:38.138"}}` + "\n"

	for name, content := range map[string]string{
		"object":         `{"records":"2020-06-11T06:54:38.138"}`,
		"singer output":  `{"type":"SCHEMA","stream":"records","schema":{},"key_properties":[]}` + "\n" + `{"type":"STATE","value":{"records":"2020-01-01"}}` + "\n" + `{"type":"STATE","value":{"records":"2020-06-11T06:54:38.138"}}`,
		"airbyte object": `{"data":{"records":"2020-06-11T06:54:38.138"}}`,
		"airbyte output": `{"type":"RECORD","record":{"stream":"records","data":{}}}` + "\n" + `{"type":"STATE","state":{"data":{"records":"2020-06-11T06:54:38.138"}}}`,
	} {
		t.Run(name, func(t *testing.T) {
			is := is.New(t)
			b, err := stateMessages(writeFile(t, content))
			is.NoErr(err)
			is.Equal(string(b), want)
		})
	}
}

func TestStateMessagesEmpty(t *testing.T) {
	is := is.New(t)
	for _, content := range []string{"", "  \n", "[1,2]", `{"type":"RECORD","stream":"records","record":{}}`} {
		b, err := stateMessages(writeFile(t, content))
		is.NoErr(err)
		is.Equal(len(b), 0)
	}

	_, err := stateMessages(writeFile(t, `{"type":"STATE","value":1}`))
	is.True(err != nil)
	_, err = stateMessages(writeFile(t, `{"type":`))
	is.True(err != nil)
	_, err = stateMessages(filepath.Join(t.TempDir(), "missing.json"))
	is.True(err != nil)
}

func TestInputMessages(t *testing.T) {
	is := is.New(t)
	f := inputFiles{
		Config:  writeFile(t, `{"access_token":"x"}`),
		Catalog: writeFile(t, `{"streams":[{"stream":"users"}]}`),
		State:   writeFile(t, `{"records":"2020-01-01"}`),
	}
	b, err := f.messages()
	is.NoErr(err)
	is.Equal(string(b), `{"config":{"access_token":"x"},"type":"CONFIG"}
{"catalog":{"streams":[{"stream":"users"}]},"type":"CATALOG"}
{"type":"STATE","value":{"records":"2020-01-01"}}
`)

	f.Catalog = writeFile(t, `{"streams":`)
	_, err = f.messages()
	is.True(err != nil)
}

func TestInputMessagesAirbyteCatalog(t *testing.T) {
	is := is.New(t)
	f := inputFiles{
		Config:  writeFile(t, `{"access_token":"x"}`),
		Catalog: writeFile(t, `{"streams":[{"stream":{"name":"records"},"sync_mode":"incremental","cursor_field":["created_at"]}]}`),
		Airbyte: true,
	}
	b, err := f.messages()
	is.NoErr(err)

	p, err := tap.Open(bytes.NewReader(b), tap.CmdSync)
	is.NoErr(err)
	e, ok := p.Catalog().Get("records")
	is.True(ok)
	is.True(e.Selected())
	is.Equal(e.ReplicationMethod, tap.Incremental)
	is.Equal(e.ReplicationKey, "created_at")
}
