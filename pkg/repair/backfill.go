package repair

import (
	"github.com/ssargent/fitedit/pkg/aggregate"
	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/profile"
	"github.com/ssargent/fitedit/pkg/recording"
)

// Backfill synthesizes the summaries rec lacks and leaves everything else
// as it is. rec must carry at least one session, lap or activity.
//
//   - Missing laps are built from the samples of each session, or from all
//     samples when there are no sessions.
//   - Missing sessions are built from runs of same-sport laps.
//   - In a multi-sport recording whose sessions do not line up with their
//     laps, each session is rebuilt from the laps of its sport. Sessions
//     with no lap of their sport, or sharing their sport with another
//     session, are left untouched and listed in Report.Unresolved.
//   - A missing activity is built from the sessions.
func Backfill(rec *recording.Recording, opts Options) (*recording.Recording, *Report, error) {
	if rec.State() == recording.IndicesAuthoritative {
		return nil, nil, recording.ErrIndicesAuthoritative
	}
	if len(rec.Sessions()) == 0 && len(rec.Laps()) == 0 && len(rec.Messages(profile.MesgActivity)) == 0 {
		return nil, nil, ErrNoSummaries
	}
	report := &Report{Strategy: StrategyBackfill, Input: rec.MessageCount()}
	log := opts.logger()

	out := rec.Clone()
	if err := expand(out); err != nil {
		return nil, nil, err
	}
	samples, filtered := plausible(out.Records(), opts.maxSpeed())
	report.Filtered = filtered
	sortByTime(samples)

	sessions := append([]*message.Message(nil), out.Sessions()...)
	laps := append([]*message.Message(nil), out.Laps()...)
	activities := out.Messages(profile.MesgActivity)

	ix := out.BeginIndexEdit()

	lapsBuilt := len(laps) == 0
	if lapsBuilt {
		built, err := lapsFor(sessions, samples)
		if err != nil {
			return nil, nil, err
		}
		laps = built
		ix.Replace(profile.MesgLap, laps)
		report.synthesized(laps...)
	}

	switch {
	case len(sessions) == 0:
		built, err := sessionsFromLaps(laps)
		if err != nil {
			return nil, nil, err
		}
		sessions = built
		ix.Replace(profile.MesgSession, sessions)
		report.synthesized(sessions...)
	case !lapsBuilt && multiSport(sessions, laps) && !aligned(sessions, laps):
		rebuilt, unresolved, err := matchSessions(sessions, laps)
		if err != nil {
			return nil, nil, err
		}
		for i, s := range rebuilt {
			if s != sessions[i] {
				report.synthesized(s)
			}
		}
		sessions = rebuilt
		report.Unresolved = unresolved
		ix.Replace(profile.MesgSession, sessions)
	}

	if len(activities) == 0 {
		act, err := aggregate.Activity(sessions)
		if err != nil {
			return nil, nil, err
		}
		ix.Replace(profile.MesgActivity, []*message.Message{act})
		report.synthesized(act)
	}

	out.BackFill()
	report.Output = out.MessageCount()
	if len(report.Unresolved) > 0 {
		log.Warn("sessions left unresolved", "sessions", report.Unresolved)
	}
	log.Debug("backfill repair", "report", report)
	return out, report, nil
}

// lapsFor builds one lap per session from the samples inside it, or a single
// lap over all samples when there are no sessions.
func lapsFor(sessions, samples []*message.Message) ([]*message.Message, error) {
	if len(sessions) == 0 {
		if len(samples) == 0 {
			return nil, ErrNoSamples
		}
		lap, err := aggregate.FromSamples(profile.MesgLap, samples)
		if err != nil {
			return nil, err
		}
		return []*message.Message{lap}, indexLaps([]*message.Message{lap})
	}

	laps := make([]*message.Message, 0, len(sessions))
	for i, s := range sessions {
		start, ok := s.StartTime()
		if !ok {
			continue
		}
		end, _ := s.EndTime()
		window := within(samples, start, end, i == len(sessions)-1)
		if len(window) == 0 {
			window = BoundarySamples(start, end)
		}
		lap, err := aggregate.FromSamples(profile.MesgLap, window)
		if err != nil {
			return nil, err
		}
		message.CopyField(lap, s, "sport")
		message.CopyField(lap, s, "sub_sport")
		laps = append(laps, lap)
	}
	if len(laps) == 0 {
		return nil, ErrNoSamples
	}
	return laps, indexLaps(laps)
}

func indexLaps(laps []*message.Message) error {
	for i, lap := range laps {
		if err := message.Set(lap, "message_index", uint64(i), message.Raw); err != nil {
			return err
		}
	}
	return nil
}

// sessionsFromLaps builds one session per run of consecutive laps that
// share a sport.
func sessionsFromLaps(laps []*message.Message) ([]*message.Message, error) {
	var sessions []*message.Message
	for lo := 0; lo < len(laps); {
		hi := lo + 1
		for hi < len(laps) && sameSport(laps[lo], laps[hi]) {
			hi++
		}
		s, err := aggregate.SessionFromLaps(laps[lo:hi])
		if err != nil {
			return nil, err
		}
		if err := message.Set(s, "message_index", uint64(len(sessions)), message.Raw); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
		lo = hi
	}
	return sessions, nil
}

func sportOf(m *message.Message) (uint64, bool) {
	return m.Uint("sport")
}

func sameSport(a, b *message.Message) bool {
	x, okA := sportOf(a)
	y, okB := sportOf(b)
	return okA == okB && x == y
}

func multiSport(sessions, laps []*message.Message) bool {
	sports := make(map[uint64]bool)
	for _, m := range append(append([]*message.Message(nil), sessions...), laps...) {
		if s, ok := sportOf(m); ok {
			sports[s] = true
		}
	}
	return len(sports) > 1
}

// aligned reports whether every session's first_lap_index and num_laps name
// laps of its own sport and the sessions account for every lap.
func aligned(sessions, laps []*message.Message) bool {
	total := 0
	for _, s := range sessions {
		first, ok := s.Uint("first_lap_index")
		if !ok {
			return false
		}
		n, ok := s.Uint("num_laps")
		if !ok || n == 0 || first+n > uint64(len(laps)) {
			return false
		}
		for _, lap := range laps[first : first+n] {
			if !sameSport(s, lap) {
				return false
			}
		}
		total += int(n)
	}
	return total == len(laps)
}

// matchSessions rebuilds each session from the laps of its sport. The
// returned slice holds the original message wherever no rebuild happened.
func matchSessions(sessions, laps []*message.Message) ([]*message.Message, []int, error) {
	bySport := make(map[uint64][]*message.Message)
	for _, lap := range laps {
		if s, ok := sportOf(lap); ok {
			bySport[s] = append(bySport[s], lap)
		}
	}
	claims := make(map[uint64]int)
	for _, s := range sessions {
		if sport, ok := sportOf(s); ok {
			claims[sport]++
		}
	}

	out := make([]*message.Message, len(sessions))
	var unresolved []int
	for i, s := range sessions {
		out[i] = s
		sport, ok := sportOf(s)
		if !ok || claims[sport] > 1 || len(bySport[sport]) == 0 {
			unresolved = append(unresolved, i)
			continue
		}
		rebuilt, err := aggregate.SessionFromLaps(bySport[sport])
		if err != nil {
			return nil, nil, err
		}
		message.CopyField(rebuilt, s, "message_index")
		message.CopyField(rebuilt, s, "sub_sport")
		out[i] = rebuilt
	}
	return out, unresolved, nil
}
