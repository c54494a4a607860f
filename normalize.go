package tap

import (
	"fmt"
	"time"

	"github.com/valyala/fastjson"
)

// NormalizeDates rewrites every date-time field of v (as declared by schema)
// that has no zone designator into RFC 3339 with a UTC offset. Nested objects
// are followed; values that do not parse are left untouched. New values are
// allocated from a and stay valid until a is reset.
func NormalizeDates(a *fastjson.Arena, v *fastjson.Value, schema *JSONSchema) {
	if v == nil || schema == nil || len(schema.Properties) == 0 {
		return
	}
	obj, err := v.Object()
	if err != nil {
		return
	}
	for name, prop := range schema.Properties {
		field := obj.Get(name)
		if field == nil || prop == nil {
			continue
		}
		switch {
		case prop.IsDateTime() && field.Type() == fastjson.TypeString:
			if s, ok := toRFC3339(string(field.GetStringBytes())); ok {
				obj.Set(name, a.NewString(s))
			}
		case len(prop.Properties) > 0 && field.Type() == fastjson.TypeObject:
			NormalizeDates(a, field, prop)
		}
	}
}

func toRFC3339(s string) (string, bool) {
	if s == "" || HasOffset(s) {
		return "", false
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return "", false
	}
	return FormatUTC(t), true
}

// FormatUTC formats t like an ISO-8601 timestamp with a +00:00 offset and
// microsecond precision when the fraction is non-zero.
func FormatUTC(t time.Time) string {
	t = t.UTC()
	out := t.Format("2006-01-02T15:04:05")
	if micro := t.Nanosecond() / 1000; micro != 0 {
		out += fmt.Sprintf(".%06d", micro)
	}
	return out + "+00:00"
}
