package hashdb

import (
	"encoding/json"
	"time"
)

// Timestamp accumulates named checkpoints for CLI progress reporting,
// matching the library surface's timestamp::stamp(name).
type Timestamp struct {
	start time.Time
	last  time.Time
}

// NewTimestamp starts a new checkpoint sequence.
func NewTimestamp() *Timestamp {
	now := time.Now()
	return &Timestamp{start: now, last: now}
}

// stampJSON is the {name,delta,total} document stamp() returns.
type stampJSON struct {
	Name  string  `json:"name"`
	Delta float64 `json:"delta"`
	Total float64 `json:"total"`
}

// Stamp records a named checkpoint and returns its JSON encoding: delta
// is the seconds since the previous stamp, total since construction.
func (t *Timestamp) Stamp(name string) ([]byte, error) {
	now := time.Now()
	s := stampJSON{
		Name:  name,
		Delta: now.Sub(t.last).Seconds(),
		Total: now.Sub(t.start).Seconds(),
	}
	t.last = now
	return json.Marshal(s)
}
