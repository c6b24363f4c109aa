package sessions

import "intellichat/intellichat/types"

// Log is the append-only conversation record for one session. No size cap,
// no dedup: unbounded growth for the session lifetime is accepted. It is
// not persisted anywhere; teardown discards it.
type Log struct {
	entries []types.Message
}

// Append adds a message at the end of the log.
func (l *Log) Append(msg types.Message) {
	l.entries = append(l.entries, msg)
}

// All returns the log in insertion order. The returned slice is a copy;
// the messages themselves must not be mutated.
func (l *Log) All() []types.Message {
	out := make([]types.Message, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len reports the number of messages recorded.
func (l *Log) Len() int {
	return len(l.entries)
}
