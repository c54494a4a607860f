package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ajzo90/tap-nikabot"
	"github.com/ajzo90/tap-nikabot/pkg/airbyte"
	"github.com/ajzo90/tap-nikabot/pkg/jsonl"
	"github.com/valyala/fastjson"
)

// inputFiles are the paths given on the command line; empty means absent.
type inputFiles struct {
	Config  string
	State   string
	Catalog string
	// Airbyte reads Catalog as an Airbyte configured catalog.
	Airbyte bool
}

// messages translates the input files into the typed message stream read by
// tap.Open.
func (f inputFiles) messages() ([]byte, error) {
	b := bytes.NewBuffer(nil)
	enc := json.NewEncoder(b)

	for _, in := range []struct {
		path string
		typ  tap.MsgType
		key  string
	}{
		{f.Config, "CONFIG", "config"},
		{f.Catalog, tap.CATALOG, "catalog"},
	} {
		if in.path == "" {
			continue
		}
		raw, err := readJSON(in.path)
		if err != nil {
			return nil, err
		}
		if in.typ == tap.CATALOG && f.Airbyte {
			if raw, err = configuredCatalog(raw); err != nil {
				return nil, err
			}
		}
		if err := enc.Encode(map[string]any{"type": in.typ, in.key: raw}); err != nil {
			return nil, err
		}
	}

	if f.State != "" {
		st, err := stateMessages(f.State)
		if err != nil {
			return nil, err
		}
		b.Write(st)
	}
	return b.Bytes(), nil
}

func configuredCatalog(raw json.RawMessage) (json.RawMessage, error) {
	var cc airbyte.ConfiguredCatalog
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("invalid configured catalog: %w", err)
	}
	return json.Marshal(cc.Catalog())
}

func readJSON(path string) (json.RawMessage, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !json.Valid(b) {
		return nil, fmt.Errorf("'%s' is not valid json", path)
	}
	return bytes.TrimSpace(b), nil
}

// stateMessages accepts a state object ({"stream": "watermark"}) or the
// output log of a previous run, of which the last STATE message counts.
// Airbyte wraps both in {"data": ...}.
func stateMessages(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, nil
	}

	v, err := fastjson.ParseBytes(b)
	if err != nil || v.Type() != fastjson.TypeObject || v.Get("type") != nil {
		// tap output: keep the last STATE message only
		if v, err = jsonl.Last(b, func(v *fastjson.Value) bool {
			return tap.MsgType(v.GetStringBytes("type")) == tap.STATE
		}); err != nil {
			return nil, fmt.Errorf("invalid state '%s': %w", path, err)
		} else if v == nil {
			return nil, nil
		}
		if st := v.Get("value"); st != nil {
			v = st
		} else {
			v = v.Get("state")
		}
	}
	if data := v.Get("data"); data != nil && data.Type() == fastjson.TypeObject {
		v = data
	}
	if v == nil || v.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("invalid state '%s': expected an object", path)
	}
	return append(v.MarshalTo([]byte(`{"type":"STATE","value":`)), '}', '\n'), nil
}
