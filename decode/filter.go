package decode

import (
	"strings"
	"time"
)

// UniqueFilter suppresses a payload seen again within Window. The same
// transmission is usually framed by several branches.
type UniqueFilter struct {
	Window time.Duration
	seen   map[string]time.Time
}

func NewUniqueFilter(window time.Duration) *UniqueFilter {
	return &UniqueFilter{Window: window, seen: make(map[string]time.Time)}
}

func (uf *UniqueFilter) Filter(msg LogMessage) bool {
	key := string(msg.Payload())

	last, ok := uf.seen[key]
	uf.seen[key] = msg.Time

	// Forget expired payloads so the map doesn't grow without bound.
	for k, t := range uf.seen {
		if msg.Time.Sub(t) > uf.Window {
			delete(uf.seen, k)
		}
	}

	return !ok || msg.Time.Sub(last) > uf.Window
}

// StringMap is a flag.Value holding a comma separated set.
type StringMap map[string]bool

func (m StringMap) String() string {
	var values []string
	for k := range m {
		values = append(values, k)
	}
	return strings.Join(values, ",")
}

func (m StringMap) Set(value string) error {
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			m[v] = true
		}
	}
	return nil
}

func (m StringMap) Type() string {
	return "strings"
}

// BranchFilter passes messages captured by the named branches.
type BranchFilter struct {
	StringMap
}

func (bf BranchFilter) Filter(msg LogMessage) bool {
	return bf.StringMap[msg.Branch]
}
