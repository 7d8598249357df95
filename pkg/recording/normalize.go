package recording

import (
	"github.com/ssargent/fitedit/pkg/message"
)

// MaxLocalTypes is the number of local message types a normal record header
// can address.
const MaxLocalTypes = 16

// Normalize assigns local types to messages that have none, inserts a
// definition before every message whose layout differs from the active
// definition of its local type, and drops definitions no message uses.
func (r *Recording) Normalize() error {
	if r.state == IndicesAuthoritative {
		return ErrIndicesAuthoritative
	}
	r.normalize()
	return nil
}

func (r *Recording) normalize() {
	r.assignLocalTypes()

	var active, declared [MaxLocalTypes]*message.Definition
	out := make([]Event, 0, len(r.events))
	defs := make(map[uint16]*message.Definition)

	for _, ev := range r.events {
		if ev.Kind == KindDefinition {
			if int(ev.Definition.LocalType) < MaxLocalTypes {
				declared[ev.Definition.LocalType] = ev.Definition
			}
			continue
		}
		m := ev.Message
		lt := m.LocalType
		if !m.Matches(active[lt]) {
			d := declared[lt]
			if !m.Matches(d) {
				d = m.Definition()
			}
			out = append(out, DefinitionEvent(d))
			active[lt] = d
			defs[d.Num] = d
		}
		out = append(out, ev)
	}

	r.events = out
	r.defs = defs
	r.ForwardFill()
}

// assignLocalTypes gives every unassigned message a local type. A message
// reuses the local type last used for its global number, otherwise the
// lowest free one; when all are taken they are handed out in rotation.
func (r *Recording) assignLocalTypes() {
	byNum := make(map[uint16]uint8)
	var used [MaxLocalTypes]bool
	for _, ev := range r.events {
		if ev.Kind != KindMessage || ev.Message.LocalType == message.LocalUnassigned {
			continue
		}
		lt := ev.Message.LocalType % MaxLocalTypes
		ev.Message.LocalType = lt
		used[lt] = true
		byNum[ev.Message.Num] = lt
	}

	next := 0
	for _, ev := range r.events {
		if ev.Kind != KindMessage || ev.Message.LocalType != message.LocalUnassigned {
			continue
		}
		m := ev.Message
		if lt, ok := byNum[m.Num]; ok {
			m.LocalType = lt
			continue
		}
		lt := -1
		for i := range used {
			if !used[i] {
				lt = i
				break
			}
		}
		if lt < 0 {
			lt = next % MaxLocalTypes
			next++
		}
		used[lt] = true
		m.LocalType = uint8(lt)
		byNum[m.Num] = m.LocalType
	}
}
