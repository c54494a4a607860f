package tap

import (
	"log/slog"
	"strconv"
	"strings"
)

// MaskedString is a secret that never leaves the process in clear text when
// marshalled or logged.
type MaskedString string

func (s MaskedString) String() string {
	return string(s)
}

func (s MaskedString) Masked() string {
	return strings.Repeat("x", len(s))
}

func (s MaskedString) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(s.Masked())), nil
}

func (s MaskedString) LogValue() slog.Value {
	return slog.StringValue(s.Masked())
}
