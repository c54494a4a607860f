package tap

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// JSONSchema is the subset of JSON schema (and swagger 2.0 definitions)
// the tap reads, writes and validates against.
type JSONSchema struct {
	Ref                  string                 `json:"$ref,omitempty"`
	Type                 SchemaType             `json:"type,omitempty"`
	Format               string                 `json:"format,omitempty"`
	Title                string                 `json:"title,omitempty"`
	Description          string                 `json:"description,omitempty"`
	Required             []string               `json:"required,omitempty"`
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Items                *JSONSchema            `json:"items,omitempty"`
	Enum                 []any                  `json:"enum,omitempty"`
	AdditionalProperties any                    `json:"additionalProperties,omitempty"`
}

// SchemaType is a JSON schema "type", either a single name or a list.
type SchemaType []string

func (t SchemaType) MarshalJSON() ([]byte, error) {
	if len(t) == 1 {
		return json.Marshal(t[0])
	}
	return json.Marshal([]string(t))
}

func (t *SchemaType) UnmarshalJSON(b []byte) error {
	var one string
	if err := json.Unmarshal(b, &one); err == nil {
		*t = SchemaType{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(b, &many); err != nil {
		return fmt.Errorf("invalid schema type %s", string(b))
	}
	*t = many
	return nil
}

func (t SchemaType) Has(name string) bool {
	for _, v := range t {
		if v == name {
			return true
		}
	}
	return false
}

func (s *JSONSchema) IsDateTime() bool {
	return s != nil && s.Format == "date-time" && s.Type.Has("string")
}

func (s *JSONSchema) PropertyNames() []string {
	if s == nil {
		return nil
	}
	o := make([]string, 0, len(s.Properties))
	for k := range s.Properties {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

func (s *JSONSchema) Clone() *JSONSchema {
	if s == nil {
		return nil
	}
	c := *s
	c.Type = append(SchemaType(nil), s.Type...)
	c.Required = append([]string(nil), s.Required...)
	c.Enum = append([]any(nil), s.Enum...)
	c.Items = s.Items.Clone()
	if s.Properties != nil {
		c.Properties = make(map[string]*JSONSchema, len(s.Properties))
		for k, v := range s.Properties {
			c.Properties[k] = v.Clone()
		}
	}
	return &c
}

// Definitions are the named schemas of a swagger document.
type Definitions map[string]*JSONSchema

const definitionsPrefix = "#/definitions/"

// Resolve returns a copy of the named definition with every local $ref
// inlined. Cyclic references are left as an empty schema.
func (defs Definitions) Resolve(name string) (*JSONSchema, error) {
	def, ok := defs[name]
	if !ok {
		return nil, fmt.Errorf("definition '%s' not found", name)
	}
	return defs.resolve(def, map[string]bool{name: true})
}

func (defs Definitions) resolve(s *JSONSchema, seen map[string]bool) (*JSONSchema, error) {
	if s == nil {
		return nil, nil
	}
	if s.Ref != "" {
		name := strings.TrimPrefix(s.Ref, definitionsPrefix)
		target, ok := defs[name]
		if !ok || name == s.Ref {
			return nil, fmt.Errorf("unresolvable reference '%s'", s.Ref)
		}
		if seen[name] {
			return &JSONSchema{}, nil
		}
		seen[name] = true
		defer delete(seen, name)
		return defs.resolve(target, seen)
	}

	c := *s
	c.Type = append(SchemaType(nil), s.Type...)
	c.Required = append([]string(nil), s.Required...)
	items, err := defs.resolve(s.Items, seen)
	if err != nil {
		return nil, err
	}
	c.Items = items
	if s.Properties != nil {
		c.Properties = make(map[string]*JSONSchema, len(s.Properties))
		for k, v := range s.Properties {
			if c.Properties[k], err = defs.resolve(v, seen); err != nil {
				return nil, err
			}
		}
	}
	return &c, nil
}

// Nullable returns a copy of s where every property except keep accepts
// null, and required is reduced to keep.
func (s *JSONSchema) Nullable(keep ...string) *JSONSchema {
	c := s.Clone()
	if c == nil {
		return nil
	}
	isKept := map[string]bool{}
	for _, k := range keep {
		isKept[k] = true
	}
	var required []string
	for _, k := range c.Required {
		if isKept[k] {
			required = append(required, k)
		}
	}
	c.Required = required
	for name, p := range c.Properties {
		if !isKept[name] {
			c.Properties[name] = p.nullable()
		}
	}
	return c
}

func (s *JSONSchema) nullable() *JSONSchema {
	if s == nil || len(s.Type) == 0 || s.Type.Has("null") {
		return s
	}
	s.Type = append(SchemaType{"null"}, s.Type...)
	s.Required = nil
	if len(s.Enum) > 0 {
		s.Enum = append(s.Enum, nil)
	}
	for name, p := range s.Properties {
		s.Properties[name] = p.nullable()
	}
	return s
}
