package airbyte

import (
	"github.com/ajzo90/tap-nikabot"
	"github.com/valyala/fastjson"
)

type streamProto struct {
	a, local fastjson.Arena
	rec      *fastjson.Value
	recBuf   []byte
	p        *Airbyte
}

func newStreamProto(p *Airbyte, stream string) *streamProto {
	m := &streamProto{p: p}
	m.rec = m.a.NewObject()
	m.rec.Set("type", m.a.NewString(string(tap.RECORD)))
	record := m.a.NewObject()
	record.Set("stream", m.a.NewString(stream))
	record.Set("data", m.a.NewNull())
	record.Set("emitted_at", m.a.NewNumberInt(0))
	m.rec.Set("record", record)
	return m
}

func (m *streamProto) EmitValues(arr []*fastjson.Value) error {
	m.local.Reset()
	record := m.rec.GetObject("record")
	record.Set("emitted_at", m.local.NewNumberInt(int(m.p.now().UnixMilli())))
	for _, v := range arr {
		record.Set("data", v)
		m.recBuf = append(m.rec.MarshalTo(m.recBuf), '\n')
	}
	record.Set("data", m.a.NewNull())
	return m.flush(false)
}

func (m *streamProto) flush(last bool) error {
	if last || len(m.recBuf) > 4096 {
		err := m.p.write(m.recBuf)
		m.recBuf = m.recBuf[:0]
		if err == nil && last {
			err = m.p.flush()
		}
		return err
	}
	return nil
}

func (m *streamProto) Flush() error {
	return m.flush(true)
}
