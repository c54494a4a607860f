package jsonl

import (
	"github.com/valyala/fastjson"
)

// Each calls fn for every JSON value in b. Values may be separated by
// newlines or any other whitespace, and may themselves span lines. A value
// is only valid during its fn call.
func Each(b []byte, fn func(v *fastjson.Value) error) error {
	var s fastjson.Scanner
	s.InitBytes(b)
	for s.Next() {
		if err := fn(s.Value()); err != nil {
			return err
		}
	}
	return s.Error()
}

// Last returns a copy of the last value in b for which match returns true.
func Last(b []byte, match func(v *fastjson.Value) bool) (*fastjson.Value, error) {
	var last []byte
	err := Each(b, func(v *fastjson.Value) error {
		if match(v) {
			last = v.MarshalTo(last[:0])
		}
		return nil
	})
	if err != nil || last == nil {
		return nil, err
	}
	return fastjson.ParseBytes(last)
}
