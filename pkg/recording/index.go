package recording

import (
	"sort"

	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/profile"
)

// Index groups the messages of a recording by global number. It is a cache
// over the event log.
type Index struct {
	byNum map[uint16][]*message.Message
	dirty map[uint16]bool
}

func newIndex() *Index {
	return &Index{
		byNum: make(map[uint16][]*message.Message),
		dirty: make(map[uint16]bool),
	}
}

func (ix *Index) add(m *message.Message) {
	ix.byNum[m.Num] = append(ix.byNum[m.Num], m)
}

// Get returns the messages with global number num.
func (ix *Index) Get(num uint16) []*message.Message {
	return ix.byNum[num]
}

// Nums returns the indexed global numbers in ascending order.
func (ix *Index) Nums() []uint16 {
	nums := make([]uint16, 0, len(ix.byNum))
	for num, msgs := range ix.byNum {
		if len(msgs) > 0 {
			nums = append(nums, num)
		}
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	return nums
}

// Replace sets the list of messages with global number num. The change
// reaches the log on BackFill.
func (ix *Index) Replace(num uint16, msgs []*message.Message) {
	ix.byNum[num] = msgs
	ix.dirty[num] = true
}

// BeginIndexEdit switches the recording to IndicesAuthoritative and returns
// its indices for editing.
func (r *Recording) BeginIndexEdit() *Index {
	r.state = IndicesAuthoritative
	return r.index
}

// ForwardFill rebuilds the indices from the log, discarding pending index
// edits.
func (r *Recording) ForwardFill() {
	r.index = newIndex()
	for _, ev := range r.events {
		if ev.Kind == KindMessage {
			r.index.add(ev.Message)
		}
	}
	r.state = LogAuthoritative
}

// BackFill writes edited index lists into the log. Existing positions are
// replaced in order, surplus log entries are removed, and extra messages are
// inserted after the last message of the same type. Types new to the log go
// before the activity message, or at the end when there is none, with laps
// ahead of sessions. The log is normalised afterwards.
func (r *Recording) BackFill() {
	if r.state != IndicesAuthoritative {
		return
	}
	dirty := r.index.dirty

	last := make(map[uint16]int)
	for i, ev := range r.events {
		if ev.Kind == KindMessage && dirty[ev.Message.Num] {
			last[ev.Message.Num] = i
		}
	}

	nums := make([]uint16, 0, len(dirty))
	for num := range dirty {
		nums = append(nums, num)
	}
	sort.Slice(nums, func(i, j int) bool { return rank(nums[i]) < rank(nums[j]) })

	var orphans []*message.Message
	for _, num := range nums {
		if _, ok := last[num]; !ok {
			orphans = append(orphans, r.index.byNum[num]...)
		}
	}

	out := make([]Event, 0, len(r.events)+len(orphans))
	placeOrphans := func() {
		for _, m := range orphans {
			out = append(out, MessageEvent(m))
		}
		orphans = nil
	}

	seen := make(map[uint16]int)
	for i, ev := range r.events {
		if ev.Kind != KindMessage {
			out = append(out, ev)
			continue
		}
		num := ev.Message.Num
		if num == profile.MesgActivity {
			placeOrphans()
		}
		if !dirty[num] {
			out = append(out, ev)
			continue
		}
		list := r.index.byNum[num]
		k := seen[num]
		seen[num]++
		if k < len(list) {
			out = append(out, MessageEvent(list[k]))
		}
		if i == last[num] {
			for _, m := range list[min(seen[num], len(list)):] {
				out = append(out, MessageEvent(m))
			}
		}
	}
	placeOrphans()

	r.events = out
	r.normalize()
}

// rank orders new summary types the way devices write them.
func rank(num uint16) int {
	switch num {
	case profile.MesgLap:
		return 1 << 16
	case profile.MesgSession:
		return 1<<16 + 1
	case profile.MesgActivity:
		return 1<<16 + 2
	}
	return int(num)
}
