package merge

import (
	"fmt"
	"sort"
	"time"

	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/profile"
	"github.com/ssargent/fitedit/pkg/recording"
	"github.com/ssargent/fitedit/pkg/repair"
)

// SplitAt partitions the samples of rec at t: samples stamped before t go
// to the first recording, the rest to the second. Each half is rebuilt with
// repair.Additive and keeps the identity, device, profile and sport
// messages of rec. A half without samples fails with repair.ErrNoSamples.
func SplitAt(rec *recording.Recording, t time.Time, opts repair.Options) (*recording.Recording, *recording.Recording, error) {
	before, err := part(rec, func(ts time.Time) bool { return ts.Before(t) }, nil, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("split at %s: first half: %w", t.Format(time.RFC3339), err)
	}
	after, err := part(rec, func(ts time.Time) bool { return !ts.Before(t) }, nil, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("split at %s: second half: %w", t.Format(time.RFC3339), err)
	}
	return before, after, nil
}

// SplitByLap returns one Additive-repaired recording per lap. A lap takes
// the samples from its start up to the start of the next lap; samples ahead
// of the first lap go to the first and the last lap runs to the final
// sample. A lap without samples is represented by boundary samples at its
// start and end.
func SplitByLap(rec *recording.Recording, opts repair.Options) ([]*recording.Recording, error) {
	type bound struct {
		start, end time.Time
	}
	var laps []bound
	for _, lap := range rec.Laps() {
		start, ok := lap.StartTime()
		if !ok {
			continue
		}
		end, ok := lap.EndTime()
		if !ok || end.Before(start) {
			end = start
		}
		laps = append(laps, bound{start, end})
	}
	if len(laps) == 0 {
		return nil, ErrNoLaps
	}
	sort.SliceStable(laps, func(i, j int) bool { return laps[i].start.Before(laps[j].start) })

	out := make([]*recording.Recording, 0, len(laps))
	for i, lap := range laps {
		first, last := i == 0, i == len(laps)-1
		var next time.Time
		if !last {
			next = laps[i+1].start
		}
		in := func(ts time.Time) bool {
			if !first && ts.Before(lap.start) {
				return false
			}
			return last || ts.Before(next)
		}
		piece, err := part(rec, in, repair.BoundarySamples(lap.start, lap.end), opts)
		if err != nil {
			return nil, fmt.Errorf("lap %d: %w", i, err)
		}
		out = append(out, piece)
	}
	return out, nil
}

// part Additive-repairs the samples of rec that in accepts. fallback stands
// in for the samples when none are accepted.
func part(rec *recording.Recording, in func(time.Time) bool, fallback []*message.Message, opts repair.Options) (*recording.Recording, error) {
	found := false
	sub := rec.Filter(func(m *message.Message) bool {
		if m.Num != profile.MesgRecord {
			return true
		}
		ts, ok := m.Timestamp()
		if ok && in(ts) {
			found = true
			return true
		}
		return false
	})
	if !found && len(fallback) > 0 {
		if err := sub.AppendMessage(fallback...); err != nil {
			return nil, err
		}
		if err := sub.Normalize(); err != nil {
			return nil, err
		}
	}
	out, _, err := repair.Additive(sub, opts)
	return out, err
}
