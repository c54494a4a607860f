package tap

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/valyala/fastjson"
)

// Validator checks records of one stream against its JSON schema.
type Validator struct {
	stream string
	schema *jsonschema.Schema
	buf    []byte
}

// NewValidator compiles schema. An empty schema accepts every record.
func NewValidator(stream string, schema *JSONSchema) (*Validator, error) {
	if schema == nil {
		schema = &JSONSchema{}
	}
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	loc := "mem://" + stream + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(loc, doc); err != nil {
		return nil, err
	}
	sch, err := c.Compile(loc)
	if err != nil {
		return nil, fmt.Errorf("invalid schema for stream '%s': %w", stream, err)
	}
	return &Validator{stream: stream, schema: sch}, nil
}

func (v *Validator) Validate(record *fastjson.Value) error {
	v.buf = record.MarshalTo(v.buf[:0])
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(v.buf))
	if err != nil {
		return err
	}
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("record does not match schema of stream '%s': %w", v.stream, err)
	}
	return nil
}
