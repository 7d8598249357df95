package aggregate

import (
	"errors"
	"math"
	"time"

	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/profile"
)

var (
	ErrNoLaps     = errors.New("aggregate: no laps")
	ErrNoSamples  = errors.New("aggregate: no samples")
	ErrNoSessions = errors.New("aggregate: no sessions")
)

// MergeLaps combines a contiguous run of laps into one lap. Each field is
// combined by LapRules; the elapsed and timer time of the result span from
// the first lap start to the last lap end.
func MergeLaps(laps []*message.Message) (*message.Message, error) {
	if len(laps) == 0 {
		return nil, ErrNoLaps
	}
	out := message.New(profile.MesgLap)

	for _, rule := range LapRules {
		if err := apply(out, laps, rule); err != nil {
			return nil, err
		}
	}

	start, startOK := laps[0].StartTime()
	end, endOK := laps[len(laps)-1].EndTime()
	for _, lap := range laps {
		if t, ok := lap.StartTime(); ok && (!startOK || t.Before(start)) {
			start, startOK = t, true
		}
		if t, ok := lap.EndTime(); ok && (!endOK || t.After(end)) {
			end, endOK = t, true
		}
	}
	if startOK {
		if err := out.SetTime("start_time", start); err != nil {
			return nil, err
		}
	}
	if startOK && endOK {
		if err := setSpan(out, start, end); err != nil {
			return nil, err
		}
	}
	if ts, ok := laps[len(laps)-1].Timestamp(); ok {
		out.SetTimestamp(ts)
	} else if endOK {
		out.SetTimestamp(end)
	}
	return out, nil
}

func setSpan(m *message.Message, start, end time.Time) error {
	secs := end.Sub(start).Seconds()
	if secs < 0 {
		secs = 0
	}
	if err := m.SetFloat("total_elapsed_time", secs); err != nil {
		return err
	}
	return m.SetFloat("total_timer_time", secs)
}

func weight(lap *message.Message) float64 {
	if w, ok := lap.Float("total_timer_time"); ok && w > 0 {
		return w
	}
	if w, ok := lap.Float("total_elapsed_time"); ok && w > 0 {
		return w
	}
	return 0
}

func apply(out *message.Message, laps []*message.Message, rule FieldRule) error {
	switch rule.Method {
	case First:
		for _, lap := range laps {
			if message.CopyField(out, lap, rule.Field) {
				return nil
			}
		}
		return nil
	case Last:
		for i := len(laps) - 1; i >= 0; i-- {
			if message.CopyField(out, laps[i], rule.Field) {
				return nil
			}
		}
		return nil
	}

	var (
		acc     float64
		weights float64
		n       int
	)
	for _, lap := range laps {
		v, ok := lap.Float(rule.Field)
		if !ok {
			continue
		}
		switch rule.Method {
		case Sum:
			acc += v
		case WeightedAvg:
			w := weight(lap)
			acc += v * w
			weights += w
		case Max:
			if n == 0 || v > acc {
				acc = v
			}
		case Min:
			if n == 0 || v < acc {
				acc = v
			}
		}
		n++
	}
	if n == 0 {
		return nil
	}
	if rule.Method == WeightedAvg {
		if weights == 0 {
			// No lap carries a duration: fall back to the plain mean.
			acc = 0
			for _, lap := range laps {
				if v, ok := lap.Float(rule.Field); ok {
					acc += v
				}
			}
			acc /= float64(n)
		} else {
			acc /= weights
		}
	}
	if math.IsNaN(acc) || math.IsInf(acc, 0) {
		return nil
	}
	return out.SetFloat(rule.Field, acc)
}

// SessionFromLaps merges laps and projects the result into a session.
func SessionFromLaps(laps []*message.Message) (*message.Message, error) {
	merged, err := MergeLaps(laps)
	if err != nil {
		return nil, err
	}
	session := message.New(profile.MesgSession)
	for _, def := range profile.Fields(profile.MesgLap) {
		switch def.Name {
		case "message_index", "lap_trigger", "event":
			continue
		}
		if _, ok := profile.FieldByName(profile.MesgSession, def.Name); ok {
			message.CopyField(session, merged, def.Name)
		}
	}
	if ts, ok := merged.Timestamp(); ok {
		session.SetTimestamp(ts)
	}
	if err := message.Set(session, "event", "session", message.Pretty); err != nil {
		return nil, err
	}
	if err := message.Set(session, "trigger", "activity_end", message.Pretty); err != nil {
		return nil, err
	}
	if err := message.Set(session, "num_laps", uint64(len(laps)), message.Raw); err != nil {
		return nil, err
	}
	first := uint64(0)
	if idx, ok := laps[0].Uint("message_index"); ok {
		first = idx
	}
	if err := message.Set(session, "first_lap_index", first, message.Raw); err != nil {
		return nil, err
	}
	return session, nil
}

// Activity summarises sessions into the activity message.
func Activity(sessions []*message.Message) (*message.Message, error) {
	if len(sessions) == 0 {
		return nil, ErrNoSessions
	}
	act := message.New(profile.MesgActivity)

	var timer float64
	var end time.Time
	sports := make(map[uint64]bool)
	for _, s := range sessions {
		if v, ok := s.Float("total_timer_time"); ok {
			timer += v
		}
		if t, ok := s.EndTime(); ok && t.After(end) {
			end = t
		}
		if t, ok := s.Timestamp(); ok && t.After(end) {
			end = t
		}
		if sport, ok := s.Uint("sport"); ok {
			sports[sport] = true
		}
	}

	kind := "manual"
	if len(sports) > 1 {
		kind = "auto_multi_sport"
	}
	if !end.IsZero() {
		act.SetTimestamp(end)
		if err := message.Set(act, "local_timestamp", end, message.Pretty); err != nil {
			return nil, err
		}
	}
	if err := act.SetFloat("total_timer_time", timer); err != nil {
		return nil, err
	}
	if err := message.Set(act, "num_sessions", uint64(len(sessions)), message.Raw); err != nil {
		return nil, err
	}
	if err := message.Set(act, "type", kind, message.Pretty); err != nil {
		return nil, err
	}
	if err := message.Set(act, "event", "activity", message.Pretty); err != nil {
		return nil, err
	}
	if err := message.Set(act, "event_type", "stop", message.Pretty); err != nil {
		return nil, err
	}
	return act, nil
}
