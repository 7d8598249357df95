package recording

import (
	"time"

	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/profile"
)

// Header defaults for recordings that are built rather than decoded.
const (
	DefaultHeaderSize      = 14
	DefaultProtocolVersion = 0x20
	DefaultProfileVersion  = 2132
)

// EventKind tells the two entries of an event log apart.
type EventKind uint8

const (
	KindDefinition EventKind = iota
	KindMessage
)

// Event is one entry of the event log.
type Event struct {
	Kind       EventKind
	Definition *message.Definition
	Message    *message.Message
}

// DefinitionEvent wraps d as a log entry.
func DefinitionEvent(d *message.Definition) Event {
	return Event{Kind: KindDefinition, Definition: d}
}

// MessageEvent wraps m as a log entry.
func MessageEvent(m *message.Message) Event {
	return Event{Kind: KindMessage, Message: m}
}

// State says which view of a recording is the source of truth.
type State uint8

const (
	// LogAuthoritative is the normal state: the indices mirror the log.
	LogAuthoritative State = iota
	// IndicesAuthoritative holds pending index edits that have not been
	// written back to the log.
	IndicesAuthoritative
)

func (s State) String() string {
	if s == IndicesAuthoritative {
		return "indices-authoritative"
	}
	return "log-authoritative"
}

// Header carries the file header fields of a decoded recording.
type Header struct {
	Size            uint8
	ProtocolVersion uint8
	ProfileVersion  uint16
	// Degraded is set when the declared size or a checksum could not be
	// trusted and the body was parsed record by record.
	Degraded bool
}

// Errors
var (
	ErrIndicesAuthoritative = &Error{"indices are authoritative: back-fill or forward-fill first"}
)

// Error is a recording state error.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "recording: " + e.Message
}

// Recording is an event log of definitions and messages together with the
// indices derived from it. A Recording must not be mutated concurrently.
type Recording struct {
	Header Header

	events []Event
	defs   map[uint16]*message.Definition
	index  *Index
	state  State
}

// New returns an empty recording with a default header.
func New() *Recording {
	return &Recording{
		Header: Header{
			Size:            DefaultHeaderSize,
			ProtocolVersion: DefaultProtocolVersion,
			ProfileVersion:  DefaultProfileVersion,
		},
		defs:  make(map[uint16]*message.Definition),
		index: newIndex(),
	}
}

// State returns the current synchronisation state.
func (r *Recording) State() State {
	return r.state
}

// Events returns the event log. Callers must not modify it.
func (r *Recording) Events() []Event {
	return r.events
}

// Len returns the number of events in the log.
func (r *Recording) Len() int {
	return len(r.events)
}

// Definition returns the latest definition seen for global number num.
func (r *Recording) Definition(num uint16) (*message.Definition, bool) {
	d, ok := r.defs[num]
	return d, ok
}

// SetDefinition records d as the latest definition of its global number
// without touching the log. The decoder uses it when a definition record
// arrives ahead of the first message that uses it.
func (r *Recording) SetDefinition(d *message.Definition) {
	r.defs[d.Num] = d
}

// Append adds events to the end of the log and updates the indices.
func (r *Recording) Append(events ...Event) error {
	if r.state == IndicesAuthoritative {
		return ErrIndicesAuthoritative
	}
	for _, ev := range events {
		switch ev.Kind {
		case KindDefinition:
			r.defs[ev.Definition.Num] = ev.Definition
		case KindMessage:
			r.index.add(ev.Message)
		}
		r.events = append(r.events, ev)
	}
	return nil
}

// AppendMessage adds messages without definitions. Call Normalize before
// encoding.
func (r *Recording) AppendMessage(msgs ...*message.Message) error {
	events := make([]Event, len(msgs))
	for i, m := range msgs {
		events[i] = MessageEvent(m)
	}
	return r.Append(events...)
}

// Messages returns the messages with global number num in log order.
func (r *Recording) Messages(num uint16) []*message.Message {
	return r.index.Get(num)
}

// First returns the first message with global number num.
func (r *Recording) First(num uint16) (*message.Message, bool) {
	msgs := r.index.Get(num)
	if len(msgs) == 0 {
		return nil, false
	}
	return msgs[0], true
}

// Sessions returns the session messages.
func (r *Recording) Sessions() []*message.Message {
	return r.index.Get(profile.MesgSession)
}

// Laps returns the lap messages.
func (r *Recording) Laps() []*message.Message {
	return r.index.Get(profile.MesgLap)
}

// Records returns the per-sample record messages.
func (r *Recording) Records() []*message.Message {
	return r.index.Get(profile.MesgRecord)
}

// Nums returns the global numbers present in the indices in ascending order.
func (r *Recording) Nums() []uint16 {
	return r.index.Nums()
}

// MessageCount returns the number of message events.
func (r *Recording) MessageCount() int {
	n := 0
	for _, ev := range r.events {
		if ev.Kind == KindMessage {
			n++
		}
	}
	return n
}

// StartTime returns the earliest session start, or the first sample time,
// or the first plausible timestamp in the log.
func (r *Recording) StartTime() (time.Time, bool) {
	var first time.Time
	for _, s := range r.Sessions() {
		if t, ok := s.StartTime(); ok && (first.IsZero() || t.Before(first)) {
			first = t
		}
	}
	if !first.IsZero() {
		return first, true
	}
	for _, m := range r.Records() {
		if t, ok := m.Timestamp(); ok {
			return t, true
		}
	}
	for _, ev := range r.events {
		if ev.Kind != KindMessage {
			continue
		}
		if t, ok := ev.Message.Timestamp(); ok && profile.FromTime(t) >= profile.MinDateTime {
			return t, true
		}
	}
	return time.Time{}, false
}

// Filter returns a normalised copy holding the messages keep accepts, in log
// order.
func (r *Recording) Filter(keep func(*message.Message) bool) *Recording {
	out := New()
	out.Header = r.Header
	for _, ev := range r.events {
		if ev.Kind == KindMessage && keep(ev.Message) {
			out.events = append(out.events, MessageEvent(ev.Message.Clone()))
		}
	}
	out.Normalize()
	return out
}

// Clone returns a deep copy. Pending index edits are copied too.
func (r *Recording) Clone() *Recording {
	c := &Recording{
		Header: r.Header,
		events: make([]Event, len(r.events)),
		defs:   make(map[uint16]*message.Definition, len(r.defs)),
		index:  newIndex(),
		state:  r.state,
	}
	copies := make(map[*message.Message]*message.Message)
	clone := func(m *message.Message) *message.Message {
		if cp, ok := copies[m]; ok {
			return cp
		}
		cp := m.Clone()
		copies[m] = cp
		return cp
	}
	for i, ev := range r.events {
		switch ev.Kind {
		case KindDefinition:
			c.events[i] = DefinitionEvent(ev.Definition.Clone())
		case KindMessage:
			c.events[i] = MessageEvent(clone(ev.Message))
		}
	}
	for num, d := range r.defs {
		c.defs[num] = d.Clone()
	}
	for num, msgs := range r.index.byNum {
		list := make([]*message.Message, len(msgs))
		for i, m := range msgs {
			list[i] = clone(m)
		}
		c.index.byNum[num] = list
	}
	for num := range r.index.dirty {
		c.index.dirty[num] = true
	}
	return c
}
