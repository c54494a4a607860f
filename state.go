package tap

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// State maps a stream id to its watermark (the latest replication-key value
// fully synced).
type State map[string]string

func (s State) Clone() State {
	o := make(State, len(s))
	for k, v := range s {
		o[k] = v
	}
	return o
}

// Bookmark returns the stream's watermark. Empty values are written by
// older versions for streams that saw no data and count as absent.
func (s State) Bookmark(stream string) (string, bool) {
	v, ok := s[stream]
	return v, ok && v != ""
}

func (s State) Streams() []string {
	o := make([]string, 0, len(s))
	for k := range s {
		o = append(o, k)
	}
	sort.Strings(o)
	return o
}

// UnmarshalJSON accepts {"stream": "watermark"} and skips non-string values.
func (s *State) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("invalid state: %w", err)
	}
	o := State{}
	for k, v := range raw {
		var str string
		if err := json.Unmarshal(v, &str); err == nil {
			o[k] = str
		}
	}
	*s = o
	return nil
}

// Watermark is an immutable fold over replication-key values. The zero
// value has observed nothing.
type Watermark struct {
	value string
	t     time.Time
	isTS  bool
	set   bool
}

func NewWatermark(v string) Watermark {
	if v == "" {
		return Watermark{}
	}
	return Watermark{}.Observe(v)
}

// Observe returns the larger of w and v. Timestamps compare by instant
// (values without offset are UTC); anything unparseable compares as text.
func (w Watermark) Observe(v string) Watermark {
	if v == "" {
		return w
	}
	c := Watermark{value: v, set: true}
	if t, err := ParseTimestamp(v); err == nil {
		c.t, c.isTS = t, true
	}
	if !w.set || w.less(c) {
		return c
	}
	return w
}

// Merge folds o into w.
func (w Watermark) Merge(o Watermark) Watermark {
	if !o.set {
		return w
	}
	return w.Observe(o.value)
}

func (w Watermark) less(o Watermark) bool {
	if w.isTS && o.isTS {
		return w.t.Before(o.t)
	}
	return w.value < o.value
}

func (w Watermark) Value() string { return w.value }

func (w Watermark) IsSet() bool { return w.set }
