package tap

import (
	"testing"

	"github.com/matryer/is"
	"github.com/valyala/fastjson"
)

func TestValidator(t *testing.T) {
	is := is.New(t)
	schema := (&JSONSchema{Type: SchemaType{"object"}, Required: []string{"id"}, Properties: map[string]*JSONSchema{
		"id":   {Type: SchemaType{"string"}},
		"name": {Type: SchemaType{"string"}},
		"kind": {Type: SchemaType{"string"}, Enum: []any{"A", "B"}},
	}}).Nullable("id")

	v, err := NewValidator("projects", schema)
	is.NoErr(err)

	is.NoErr(v.Validate(fastjson.MustParse(`{"id":"1","name":"x","kind":"A"}`)))
	is.NoErr(v.Validate(fastjson.MustParse(`{"id":"1","name":null,"kind":null,"extra":1}`)))

	err = v.Validate(fastjson.MustParse(`{"id":null}`))
	is.True(err != nil)
	err = v.Validate(fastjson.MustParse(`{"name":"x"}`))
	is.True(err != nil)
	err = v.Validate(fastjson.MustParse(`{"id":"1","kind":"C"}`))
	is.True(err != nil)
}

func TestValidatorAcceptsAnythingWithoutSchema(t *testing.T) {
	is := is.New(t)
	v, err := NewValidator("teams", nil)
	is.NoErr(err)
	is.NoErr(v.Validate(fastjson.MustParse(`{"anything":[1,2,3]}`)))
}
