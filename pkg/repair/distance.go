package repair

import (
	"sort"
	"time"

	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/profile"
)

// RepairDistance makes the cumulative distance of time-sorted records
// non-decreasing. Whenever a sample drops below its predecessor, the
// predecessor's value is added to it and to every later sample, which
// stitches together recordings whose distance restarted at zero. It edits
// the records in place and returns how many it changed.
func RepairDistance(records []*message.Message) int {
	var (
		offset, prev float64
		seen         bool
		adjusted     int
	)
	for _, m := range records {
		d, ok := m.Float("distance")
		if !ok {
			continue
		}
		if seen && d < prev {
			offset += prev
		}
		prev, seen = d, true
		if offset == 0 {
			continue
		}
		if err := m.SetFloat("distance", d+offset); err == nil {
			adjusted++
		}
	}
	return adjusted
}

// RepairDistanceByTime repairs records in timestamp order without
// reordering the slice it is given.
func RepairDistanceByTime(records []*message.Message) int {
	sorted := append([]*message.Message(nil), records...)
	sortByTime(sorted)
	return RepairDistance(sorted)
}

// BoundarySamples returns two records carrying only the start and end
// timestamps and zeroed measurements. Repairs use them in place of samples
// when a window has none.
func BoundarySamples(start, end time.Time) []*message.Message {
	out := make([]*message.Message, 0, 2)
	for _, t := range []time.Time{start, end} {
		m := message.New(profile.MesgRecord)
		m.SetTimestamp(t)
		_ = m.SetFloat("distance", 0)
		_ = m.SetFloat("speed", 0)
		out = append(out, m)
	}
	return out
}

// sortByTime orders records by timestamp, keeping the log order of ties.
func sortByTime(records []*message.Message) {
	sort.SliceStable(records, func(i, j int) bool {
		a, _ := records[i].Timestamp()
		b, _ := records[j].Timestamp()
		return a.Before(b)
	})
}

// within returns the records with start <= ts < end, or ts <= end when
// closed is set.
func within(records []*message.Message, start, end time.Time, closed bool) []*message.Message {
	var out []*message.Message
	for _, m := range records {
		t, ok := m.Timestamp()
		if !ok || t.Before(start) {
			continue
		}
		if t.Before(end) || (closed && t.Equal(end)) {
			out = append(out, m)
		}
	}
	return out
}
