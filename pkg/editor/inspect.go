package editor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/ssargent/fitedit/pkg/message"
	"github.com/ssargent/fitedit/pkg/profile"
	"github.com/ssargent/fitedit/pkg/recording"
)

// MessageCount is the number of messages of one type in a recording.
type MessageCount struct {
	Name  string
	Count int
}

// Summary describes a recording for display.
type Summary struct {
	Start    time.Time
	HasStart bool
	Degraded bool
	State    string
	Messages int
	Counts   []MessageCount
	// Sports lists the sport of every session in order.
	Sports   []string
	Distance float64
	Elapsed  time.Duration
}

// Summarize builds the Summary of rec.
func Summarize(rec *recording.Recording) Summary {
	s := Summary{
		Degraded: rec.Header.Degraded,
		State:    rec.State().String(),
		Messages: rec.MessageCount(),
	}
	s.Start, s.HasStart = rec.StartTime()

	for _, num := range rec.Nums() {
		s.Counts = append(s.Counts, MessageCount{Name: profile.MesgName(num), Count: len(rec.Messages(num))})
	}
	sort.SliceStable(s.Counts, func(i, j int) bool { return s.Counts[i].Name < s.Counts[j].Name })

	for _, session := range rec.Sessions() {
		if v, ok := message.Get(session, "sport", message.Pretty); ok {
			s.Sports = append(s.Sports, fmt.Sprint(v))
		}
		if d, ok := session.Float("total_distance"); ok {
			s.Distance += d
		}
		if e, ok := session.Float("total_elapsed_time"); ok {
			s.Elapsed += time.Duration(e * float64(time.Second))
		}
	}
	return s
}

// Inspect summarizes the stored activity id.
func (s *Service) Inspect(ctx context.Context, id ksuid.KSUID) (sum Summary, err error) {
	defer func(start time.Time) { s.observe("inspect", start, err) }(time.Now())

	rec, err := s.Load(ctx, id)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(rec), nil
}
