package repair

import (
	"fmt"
	"time"

	"github.com/ssargent/fitedit/pkg/aggregate"
	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/profile"
	"github.com/ssargent/fitedit/pkg/recording"
)

// Additive discards the structure of rec and rebuilds it from its record
// samples: one lap, one session and one activity, framed by timer start and
// stop events at the first and last sample. Samples faster than
// Options.MaxSpeed are dropped, the rest are sorted by time and their
// cumulative distance repaired. The file_id, device_info, user_profile and
// sport messages of rec are carried over verbatim; a file_id is synthesized
// when rec has none. ErrNoSamples is returned when no sample survives.
func Additive(rec *recording.Recording, opts Options) (*recording.Recording, *Report, error) {
	if rec.State() == recording.IndicesAuthoritative {
		return nil, nil, recording.ErrIndicesAuthoritative
	}
	report := &Report{Strategy: StrategyAdditive, Input: rec.MessageCount()}
	log := opts.logger()

	samples, filtered := plausible(rec.Records(), opts.maxSpeed())
	report.Filtered = filtered
	if len(samples) == 0 {
		return nil, report, ErrNoSamples
	}
	for _, m := range samples {
		m.Expand()
	}
	sortByTime(samples)
	report.DistanceAdjusted = RepairDistance(samples)

	out, err := rebuild(rec, samples, report)
	if err != nil {
		return nil, nil, err
	}
	report.Output = out.MessageCount()
	log.Debug("additive repair", "report", report)
	return out, report, nil
}

// plausible returns clones of the records that carry a timestamp and whose
// speed does not exceed limit, along with the number left out.
func plausible(records []*message.Message, limit float64) ([]*message.Message, int) {
	out := make([]*message.Message, 0, len(records))
	dropped := 0
	for _, m := range records {
		if _, ok := m.Timestamp(); !ok {
			dropped++
			continue
		}
		if v, ok := m.Float("speed"); ok && v > limit {
			dropped++
			continue
		}
		out = append(out, m.Clone())
	}
	return out, dropped
}

// rebuild assembles a recording around time-sorted samples.
func rebuild(src *recording.Recording, samples []*message.Message, report *Report) (*recording.Recording, error) {
	first, _ := samples[0].Timestamp()
	last, _ := samples[len(samples)-1].Timestamp()

	lap, err := aggregate.FromSamples(profile.MesgLap, samples)
	if err != nil {
		return nil, err
	}
	session, err := aggregate.FromSamples(profile.MesgSession, samples)
	if err != nil {
		return nil, err
	}
	sport := sportSource(src)
	for _, m := range []*message.Message{lap, session} {
		if err := message.Set(m, "message_index", uint64(0), message.Raw); err != nil {
			return nil, err
		}
		if sport != nil {
			message.CopyField(m, sport, "sport")
			message.CopyField(m, sport, "sub_sport")
		}
	}
	if err := message.Set(session, "first_lap_index", uint64(0), message.Raw); err != nil {
		return nil, err
	}
	if err := message.Set(session, "num_laps", uint64(1), message.Raw); err != nil {
		return nil, err
	}
	activity, err := aggregate.Activity([]*message.Message{session})
	if err != nil {
		return nil, err
	}
	start, err := timerEvent(first, "start")
	if err != nil {
		return nil, err
	}
	stop, err := timerEvent(last, "stop_all")
	if err != nil {
		return nil, err
	}

	out := recording.New()
	out.Header.ProtocolVersion = src.Header.ProtocolVersion
	out.Header.ProfileVersion = src.Header.ProfileVersion

	fileID, ok := src.First(profile.MesgFileID)
	if ok {
		fileID = fileID.Clone()
	} else {
		if fileID, err = newFileID(first); err != nil {
			return nil, err
		}
		report.synthesized(fileID)
	}
	msgs := []*message.Message{fileID}
	for _, m := range src.Messages(profile.MesgDeviceInfo) {
		msgs = append(msgs, m.Clone())
	}
	for _, num := range []uint16{profile.MesgUserProfile, profile.MesgSport} {
		if m, ok := src.First(num); ok {
			msgs = append(msgs, m.Clone())
		}
	}
	msgs = append(msgs, start)
	msgs = append(msgs, samples...)
	msgs = append(msgs, stop, lap, session, activity)
	report.synthesized(start, stop, lap, session, activity)

	for _, m := range msgs {
		m.Expand()
	}
	if err := out.AppendMessage(msgs...); err != nil {
		return nil, err
	}
	if err := out.Normalize(); err != nil {
		return nil, err
	}
	return out, nil
}

// sportSource returns the message whose sport the rebuilt summaries take:
// the sport message, else the first session, else the first lap.
func sportSource(rec *recording.Recording) *message.Message {
	for _, num := range []uint16{profile.MesgSport, profile.MesgSession, profile.MesgLap} {
		if m, ok := rec.First(num); ok && m.Has("sport") {
			return m
		}
	}
	return nil
}

func timerEvent(t time.Time, eventType string) (*message.Message, error) {
	m := message.New(profile.MesgEvent)
	m.SetTimestamp(t)
	for _, kv := range [][2]string{{"event", "timer"}, {"event_type", eventType}, {"data", "manual"}} {
		if err := message.Set(m, kv[0], kv[1], message.Pretty); err != nil {
			return nil, fmt.Errorf("timer event: %w", err)
		}
	}
	if err := message.Set(m, "event_group", uint64(0), message.Raw); err != nil {
		return nil, err
	}
	return m, nil
}

func newFileID(created time.Time) (*message.Message, error) {
	m := message.New(profile.MesgFileID)
	if err := message.Set(m, "type", "activity", message.Pretty); err != nil {
		return nil, err
	}
	if err := message.Set(m, "manufacturer", "development", message.Pretty); err != nil {
		return nil, err
	}
	if err := message.Set(m, "product", uint64(0), message.Raw); err != nil {
		return nil, err
	}
	if err := m.SetTime("time_created", created); err != nil {
		return nil, err
	}
	return m, nil
}
