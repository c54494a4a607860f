package tap

import (
	"fmt"
	"strings"
)

// ReplicationMethod is the Singer replication method of a stream.
type ReplicationMethod string

const (
	FullTable   ReplicationMethod = "FULL_TABLE"
	Incremental ReplicationMethod = "INCREMENTAL"
	LogBased    ReplicationMethod = "LOG_BASED"
)

func ParseReplicationMethod(s string) (ReplicationMethod, error) {
	switch m := ReplicationMethod(strings.ToUpper(strings.TrimSpace(s))); m {
	case FullTable, Incremental, LogBased:
		return m, nil
	default:
		return "", fmt.Errorf("unknown replication method '%s'", s)
	}
}

type ReplicationMethods []ReplicationMethod

func (methods ReplicationMethods) Contains(m ReplicationMethod) bool {
	for _, v := range methods {
		if v == m {
			return true
		}
	}
	return false
}

func (methods ReplicationMethods) Strings() []string {
	o := make([]string, 0, len(methods))
	for _, m := range methods {
		o = append(o, string(m))
	}
	return o
}
