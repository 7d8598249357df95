// Package merge combines recordings into one and splits one recording into
// several. Inputs are never modified.
package merge

import (
	"errors"
	"sort"
	"time"

	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/profile"
	"github.com/ssargent/fitedit/pkg/recording"
)

var (
	ErrTooFewInputs = errors.New("merge: at least two recordings are required")
	ErrNoLaps       = errors.New("merge: recording has no laps")
)

// Singletons lists the message types that survive a merge only once, as
// their first occurrence in the merged log.
var Singletons = map[uint16]bool{
	profile.MesgFileID:         true,
	profile.MesgFileCreator:    true,
	profile.MesgDeviceSettings: true,
	profile.MesgUserProfile:    true,
	profile.MesgActivity:       true,
}

// Merge concatenates the logs of recs ordered by start time. Singleton
// messages are kept at their first occurrence, and device_info messages
// stamped after the kept activity are dropped. A single recording needs no
// merging, so fewer than two inputs is an error.
func Merge(recs ...*recording.Recording) (*recording.Recording, error) {
	if len(recs) < 2 {
		return nil, ErrTooFewInputs
	}
	for _, r := range recs {
		if r.State() == recording.IndicesAuthoritative {
			return nil, recording.ErrIndicesAuthoritative
		}
	}

	ordered := append([]*recording.Recording(nil), recs...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, okA := ordered[i].StartTime()
		b, okB := ordered[j].StartTime()
		if okA != okB {
			return okA
		}
		return a.Before(b)
	})

	var msgs []*message.Message
	seen := make(map[uint16]bool)
	for _, r := range ordered {
		for _, ev := range r.Events() {
			if ev.Kind != recording.KindMessage {
				continue
			}
			m := ev.Message
			if Singletons[m.Num] {
				if seen[m.Num] {
					continue
				}
				seen[m.Num] = true
			}
			msgs = append(msgs, m)
		}
	}

	cutoff, hasCutoff := activityTime(msgs)
	out := recording.New()
	out.Header.ProtocolVersion = ordered[0].Header.ProtocolVersion
	out.Header.ProfileVersion = ordered[0].Header.ProfileVersion
	for _, m := range msgs {
		if hasCutoff && m.Num == profile.MesgDeviceInfo {
			if t, ok := m.Timestamp(); ok && t.After(cutoff) {
				continue
			}
		}
		c := m.Clone()
		c.Expand()
		if err := out.AppendMessage(c); err != nil {
			return nil, err
		}
	}
	if err := out.Normalize(); err != nil {
		return nil, err
	}
	return out, nil
}

func activityTime(msgs []*message.Message) (time.Time, bool) {
	for _, m := range msgs {
		if m.Num == profile.MesgActivity {
			return m.Timestamp()
		}
	}
	return time.Time{}, false
}
