package tap

import (
	"encoding/json"
	"testing"

	"github.com/matryer/is"
)

func TestBookmark(t *testing.T) {
	is := is.New(t)
	st := State{"records": "2020-01-01T00:00:00", "users": ""}

	v, ok := st.Bookmark("records")
	is.True(ok)
	is.Equal(v, "2020-01-01T00:00:00")

	_, ok = st.Bookmark("users")
	is.True(!ok) // empty is absent
	_, ok = st.Bookmark("teams")
	is.True(!ok)

	is.Equal(st.Streams(), []string{"records", "users"})
}

func TestStateUnmarshal(t *testing.T) {
	is := is.New(t)
	var st State
	is.NoErr(json.Unmarshal([]byte(`{"records":"2020-01-01","legacy":{"a":1},"n":3}`), &st))
	is.Equal(st, State{"records": "2020-01-01"})
	is.True(json.Unmarshal([]byte(`[1]`), &st) != nil)
}

func TestStateClone(t *testing.T) {
	is := is.New(t)
	a := State{"records": "x"}
	b := a.Clone()
	b["records"] = "y"
	is.Equal(a["records"], "x")
}

func TestWatermark(t *testing.T) {
	is := is.New(t)

	var w Watermark
	is.True(!w.IsSet())
	w = w.Observe("")
	is.True(!w.IsSet())

	w = w.Observe("2020-01-01T00:21:22.779")
	w = w.Observe("2020-06-11T06:54:38.138")
	w = w.Observe("2020-03-01T00:00:00")
	is.Equal(w.Value(), "2020-06-11T06:54:38.138")

	// instants, not text, decide
	w = NewWatermark("2020-06-11T08:00:00+02:00").Observe("2020-06-11T07:00:00Z")
	is.Equal(w.Value(), "2020-06-11T07:00:00Z")

	// unparseable values compare as text
	w = NewWatermark("b").Observe("a")
	is.Equal(w.Value(), "b")
}

func TestWatermarkMergeNeverRegresses(t *testing.T) {
	is := is.New(t)
	prior := NewWatermark("2020-07-01T00:00:00")

	is.Equal(prior.Merge(NewWatermark("2020-06-01T00:00:00")).Value(), "2020-07-01T00:00:00")
	is.Equal(prior.Merge(NewWatermark("2020-08-01T00:00:00")).Value(), "2020-08-01T00:00:00")
	is.Equal(prior.Merge(Watermark{}).Value(), "2020-07-01T00:00:00")
	is.Equal(Watermark{}.Merge(prior).Value(), "2020-07-01T00:00:00")
	is.True(!NewWatermark("").Merge(Watermark{}).IsSet())
}
