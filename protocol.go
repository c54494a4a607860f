package tap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ajzo90/tap-nikabot/pkg/jsonl"
	"github.com/valyala/fastjson"
)

const msgConfig MsgType = "CONFIG"

// Protocol holds the inputs of one tap invocation: config, state and catalog,
// read from a stream of typed JSON messages.
type Protocol struct {
	Cmd     Command
	config  []byte
	state   State
	catalog *Catalog
}

// Open reads input messages from r. Accepted message types are CONFIG
// ({"config": ...}), STATE ({"value": ...}, the last one wins) and CATALOG
// ({"catalog": ...}). SCHEMA, RECORD and LOG messages are skipped so that the
// output of a previous run can be replayed as state.
func Open(r io.Reader, cmd Command) (*Protocol, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	p := &Protocol{Cmd: cmd, state: State{}}

	var buf []byte
	marshal := func(v *fastjson.Value) []byte {
		if v == nil {
			return nil
		}
		buf = v.MarshalTo(buf[:0])
		return append([]byte(nil), buf...)
	}

	err = jsonl.Each(b, func(v *fastjson.Value) error {
		switch t := MsgType(v.GetStringBytes("type")); t {
		case msgConfig:
			p.config = marshal(v.Get("config"))
		case STATE:
			var st State
			if raw := marshal(v.Get("value")); raw == nil {
				return fmt.Errorf("state message without value")
			} else if err := json.Unmarshal(raw, &st); err != nil {
				return err
			}
			p.state = st
		case CATALOG:
			var c Catalog
			if err := json.NewDecoder(bytes.NewReader(marshal(v.Get("catalog")))).Decode(&c); err != nil {
				return fmt.Errorf("invalid catalog: %w", err)
			}
			p.catalog = &c
		case SCHEMA, RECORD, LOG:
		default:
			return fmt.Errorf("invalid type '%s'", t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Load decodes the config message into config.
func (p *Protocol) Load(config interface{}) error {
	if len(p.config) == 0 {
		return fmt.Errorf("expected config")
	}
	return json.NewDecoder(bytes.NewReader(p.config)).Decode(config)
}

func (p *Protocol) State() State {
	return p.state.Clone()
}

// Catalog returns the catalog message, or nil when none was given.
func (p *Protocol) Catalog() *Catalog {
	return p.catalog
}
