package calltrc

import (
	"fmt"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
)

var traceIDEntropy = ulid.DefaultEntropy()

// TraceID identifies a position in a chain of nested calls. The id is shared
// by every call in the chain, and the level is the depth of the call within
// that chain, where 0 is the root.
//
// TraceID is an immutable value. Deriving a child or parent returns a new
// value, and never modifies the receiver.
type TraceID struct {
	id    string
	level int
}

// NewTraceID returns a root trace ID with a fresh correlation token. Tokens
// are ULIDs, using a default monotonic source of entropy.
func NewTraceID() TraceID {
	return newTraceID(time.Now())
}

func newTraceID(now time.Time) TraceID {
	id, err := ulid.New(ulidTimestamp(now), traceIDEntropy)
	if err != nil {
		id = ulid.Make()
	}
	return TraceID{
		id:    id.String(),
		level: 0,
	}
}

// ulidTimestamp clamps now to the range a ULID can represent, so injected
// clocks before the Unix epoch or past year 10889 still produce an ID.
func ulidTimestamp(now time.Time) uint64 {
	switch {
	case now.Before(time.Unix(0, 0)):
		return 0
	case now.After(ulid.Time(ulid.MaxTime())):
		return ulid.MaxTime()
	default:
		return ulid.Timestamp(now)
	}
}

// ID returns the correlation token shared by every call in the chain.
func (tid TraceID) ID() string {
	return tid.id
}

// Level returns the depth of the call within the chain.
func (tid TraceID) Level() int {
	return tid.level
}

// IsZero returns true if the trace ID was never initialized.
func (tid TraceID) IsZero() bool {
	return tid.id == ""
}

// CreateNextID returns the ID for a call nested one level below this one.
func (tid TraceID) CreateNextID() TraceID {
	return TraceID{id: tid.id, level: tid.level + 1}
}

// CreatePreviousID returns the ID of the enclosing call. Calling it on a root
// ID is a caller error, and returns ErrLevelUnderflow.
func (tid TraceID) CreatePreviousID() (TraceID, error) {
	if tid.level <= 0 {
		return tid, fmt.Errorf("%s: %w", tid, ErrLevelUnderflow)
	}
	return TraceID{id: tid.id, level: tid.level - 1}, nil
}

// IsFirstLevel returns true for the root of a chain.
func (tid TraceID) IsFirstLevel() bool {
	return tid.level == 0
}

// String implements fmt.Stringer.
func (tid TraceID) String() string {
	return tid.id + "/" + strconv.Itoa(tid.level)
}
