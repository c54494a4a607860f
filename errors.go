package tap

import (
	"errors"
	"fmt"
	"strings"
)

// InvalidReplicationMethodError is returned when the catalog selects a
// replication method the stream cannot serve.
type InvalidReplicationMethodError struct {
	Stream    string
	Method    ReplicationMethod
	Supported ReplicationMethods
}

func (e *InvalidReplicationMethodError) Error() string {
	return fmt.Sprintf("invalid replication method '%s' for stream '%s', valid options are '%s'",
		e.Method, e.Stream, strings.Join(e.Supported.Strings(), ", "))
}

// InvalidReplicationKeyError is returned when an incremental stream is
// configured with a replication key it does not support.
type InvalidReplicationKeyError struct {
	Stream string
	Key    string
	Valid  []string
}

func (e *InvalidReplicationKeyError) Error() string {
	return fmt.Sprintf("invalid replication key selected '%s' for stream '%s', valid options are '%s'",
		e.Key, e.Stream, strings.Join(e.Valid, ", "))
}

type StartDateAfterEndDateError struct {
	Start Date
	End   Date
}

func (e *StartDateAfterEndDateError) Error() string {
	return fmt.Sprintf("start date '%s' cannot be later than end date '%s'", e.Start, e.End)
}

// HTTPError is a non-retryable (or retry-exhausted) HTTP status.
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Attempts   int
}

func (e *HTTPError) Error() string {
	msg := fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// IsConfigError reports whether err is one of the configuration errors that
// are detected before any request is made.
func IsConfigError(err error) bool {
	var (
		methodErr *InvalidReplicationMethodError
		keyErr    *InvalidReplicationKeyError
		dateErr   *StartDateAfterEndDateError
	)
	return errors.As(err, &methodErr) || errors.As(err, &keyErr) || errors.As(err, &dateErr)
}
