package singer

import (
	"time"

	"github.com/ajzo90/tap-nikabot"
	"github.com/valyala/fastjson"
)

// newRecordSerializer returns a function appending one RECORD line per value
// to buf. The envelope is allocated once; keys keep their insertion order.
func newRecordSerializer(stream string) func(buf []byte, v *fastjson.Value, extracted time.Time) []byte {
	var staticArena, localArena fastjson.Arena

	o := staticArena.NewObject()
	o.Set("type", staticArena.NewString(string(tap.RECORD)))
	o.Set("stream", staticArena.NewString(stream))
	o.Set("record", staticArena.NewNull())
	o.Set("time_extracted", staticArena.NewNull())

	return func(buf []byte, v *fastjson.Value, extracted time.Time) []byte {
		localArena.Reset()
		o.Set("record", v)
		o.Set("time_extracted", localArena.NewString(extracted.UTC().Format(TimeExtractedLayout)))
		buf = append(o.MarshalTo(buf), '\n')
		o.Set("record", staticArena.NewNull())
		return buf
	}
}

type singerStream struct {
	serialize func([]byte, *fastjson.Value, time.Time) []byte
	recBuf    []byte
	p         *Singer
}

func (m *singerStream) EmitValues(arr []*fastjson.Value) error {
	now := m.p.now()
	for _, v := range arr {
		m.recBuf = m.serialize(m.recBuf, v, now)
	}
	return m.flush(false)
}

func (m *singerStream) flush(forcedFlush bool) error {
	if forcedFlush || len(m.recBuf) > 4096 {
		err := m.p.write(m.recBuf)
		m.recBuf = m.recBuf[:0]
		return err
	}
	return nil
}

func (m *singerStream) Flush() error {
	return m.flush(true)
}
