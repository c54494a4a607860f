package tap

import (
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/valyala/fastjson"
)

func TestFormatUTC(t *testing.T) {
	is := is.New(t)
	is.Equal(FormatUTC(time.Date(2020, 1, 1, 0, 21, 22, 779e6, time.UTC)), "2020-01-01T00:21:22.779000+00:00")
	is.Equal(FormatUTC(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)), "2020-01-01T00:00:00+00:00")
	is.Equal(FormatUTC(time.Date(2020, 1, 1, 2, 0, 0, 0, time.FixedZone("", 7200))), "2020-01-01T00:00:00+00:00")
}

func TestNormalizeDates(t *testing.T) {
	is := is.New(t)
	schema := &JSONSchema{Type: SchemaType{"object"}, Properties: map[string]*JSONSchema{
		"created_at": {Type: SchemaType{"null", "string"}, Format: "date-time"},
		"updated_at": {Type: SchemaType{"string"}, Format: "date-time"},
		"date":       {Type: SchemaType{"string"}},
		"bad":        {Type: SchemaType{"string"}, Format: "date-time"},
		"empty":      {Type: SchemaType{"null", "string"}, Format: "date-time"},
		"pto": {Type: SchemaType{"object"}, Properties: map[string]*JSONSchema{
			"start": {Type: SchemaType{"string"}, Format: "date-time"},
		}},
	}}

	var a fastjson.Arena
	v := fastjson.MustParse(`{"id":"1","created_at":"2020-01-01T00:21:22.779","updated_at":"2020-01-01T00:00:00+02:00",` +
		`"date":"2020-01-01T00:00:00","bad":"soon","empty":null,"pto":{"start":"2020-02-03T04:05:06"}}`)
	NormalizeDates(&a, v, schema)

	is.Equal(v.String(), `{"id":"1","created_at":"2020-01-01T00:21:22.779000+00:00","updated_at":"2020-01-01T00:00:00+02:00",`+
		`"date":"2020-01-01T00:00:00","bad":"soon","empty":null,"pto":{"start":"2020-02-03T04:05:06+00:00"}}`)
}

func TestNormalizeWithoutSchema(t *testing.T) {
	is := is.New(t)
	var a fastjson.Arena
	v := fastjson.MustParse(`{"created_at":"2020-01-01T00:00:00"}`)
	NormalizeDates(&a, v, nil)
	NormalizeDates(&a, v, &JSONSchema{})
	is.Equal(v.String(), `{"created_at":"2020-01-01T00:00:00"}`)
}
